package block

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCapacity is the typical block-buffer depth (spec.md §3: 16-32).
const DefaultCapacity = 16

// Buffer is the fixed-capacity ring described in spec.md §3: a
// producer-owned head, a consumer-owned tail, and an auxiliary
// "next-to-plan" cursor the planner uses to avoid rescanning blocks
// whose nominal-length flag already terminates the reverse pass.
//
// head and tail are each written by exactly one side (head by the
// planner/main goroutine, tail by the step generator goroutine) and
// read by both, so they are plain atomics: spec.md §5 calls for no
// coordinated lock on the buffer cursors themselves. The slot payloads
// are safe under that scheme because the look-ahead pass never
// touches the slot at the current tail (invariant 4).
type Buffer struct {
	slots    []Block
	capacity int32

	head    atomic.Int32 // next free slot index; advanced by the producer
	tail    atomic.Int32 // currently-executing slot index; advanced by the consumer
	planned atomic.Int32 // first slot (by logical index) not yet nominal-length-terminated

	mu   sync.Mutex
	cond *sync.Cond
}

// NewBuffer returns an empty ring of the given capacity. One slot is
// always left empty to distinguish full from empty, matching the
// classic ring-buffer convention.
func NewBuffer(capacity int) *Buffer {
	if capacity < 2 {
		capacity = DefaultCapacity
	}
	b := &Buffer{
		slots:    make([]Block, capacity),
		capacity: int32(capacity),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// WaitForChange blocks until another goroutine calls Commit or
// Discard, or until timeout elapses, whichever comes first. Callers
// waiting on Full()/Empty() use this between re-checks instead of
// busy-polling, while still returning periodically so they can drain
// runtime commands that are unrelated to buffer occupancy (spec.md §5
// suspension points).
func (b *Buffer) WaitForChange(timeout time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	timer := time.AfterFunc(timeout, b.cond.Broadcast)
	defer timer.Stop()
	b.cond.Wait()
}

// Full reports whether the producer has no free slot to write into.
func (b *Buffer) Full() bool {
	head, tail := b.head.Load(), b.tail.Load()
	return (head+1)%b.capacity == tail
}

// Empty reports whether no block is queued or executing.
func (b *Buffer) Empty() bool {
	return b.head.Load() == b.tail.Load()
}

// Count returns the number of queued-or-executing blocks.
func (b *Buffer) Count() int {
	head, tail := b.head.Load(), b.tail.Load()
	return int((head - tail + b.capacity) % b.capacity)
}

// Reserve returns a pointer to the next free slot for the producer to
// populate. The slot is not visible to the consumer, nor to look-ahead
// traversal, until Commit is called. Reserve must not be called when
// Full reports true.
func (b *Buffer) Reserve() *Block {
	idx := b.head.Load()
	return &b.slots[idx]
}

// Commit publishes the most recently Reserve-d slot to the consumer
// and to subsequent look-ahead passes.
func (b *Buffer) Commit() {
	b.head.Store((b.head.Load() + 1) % b.capacity)
	b.cond.Broadcast()
}

// At returns the block at logical index i, where 0 is the current
// tail (the block being executed, read-only to the planner) and
// Count()-1 is the most recently committed block (the head).
func (b *Buffer) At(i int) *Block {
	idx := (b.tail.Load() + int32(i)) % b.capacity
	return &b.slots[idx]
}

// Tail returns the block currently owned by the step generator, or nil
// if the buffer is empty.
func (b *Buffer) Tail() *Block {
	if b.Empty() {
		return nil
	}
	return &b.slots[b.tail.Load()]
}

// Discard releases the block at the current tail, called by the step
// generator once it has fully executed that block.
func (b *Buffer) Discard() {
	if b.Empty() {
		return
	}
	oldTail := b.tail.Load()
	newTail := (oldTail + 1) % b.capacity
	b.tail.Store(newTail)
	if b.planned.Load() == oldTail || b.Count() == 0 {
		b.planned.Store(newTail)
	}
	b.cond.Broadcast()
}

// PlannedIndex returns the logical index (relative to the current
// tail) of the boundary the reverse pass settled down to last time it
// ran: recalculate never revisits anything at or below this index. A
// fresh buffer returns 0; discarding the tail block lowers the index
// by one, or leaves it at 0 if it was already there.
func (b *Buffer) PlannedIndex() int {
	planned, tail := b.planned.Load(), b.tail.Load()
	return int((planned - tail + b.capacity) % b.capacity)
}

// SetPlannedIndex records how far the reverse pass got before it
// terminated early at a nominal-length block, so the next insertion's
// reverse pass can stop there again next time if nothing downstream of
// it changed.
func (b *Buffer) SetPlannedIndex(i int) {
	b.planned.Store((b.tail.Load() + int32(i)) % b.capacity)
}

// Reset empties the buffer, discarding every queued block, e.g. on a
// RESET runtime command.
func (b *Buffer) Reset() {
	b.head.Store(0)
	b.tail.Store(0)
	b.planned.Store(0)
}
