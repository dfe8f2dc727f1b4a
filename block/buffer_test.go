package block

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestBufferCommitAdvancesHeadAndCount(t *testing.T) {
	c := qt.New(t)
	b := NewBuffer(4)

	c.Assert(b.Empty(), qt.IsTrue)
	b.Reserve().Millimeters = 1
	b.Commit()
	c.Assert(b.Count(), qt.Equals, 1)
	c.Assert(b.Empty(), qt.IsFalse)
}

func TestBufferFillsToCapacityMinusOne(t *testing.T) {
	c := qt.New(t)
	b := NewBuffer(4)

	for i := 0; i < 3; i++ {
		c.Assert(b.Full(), qt.IsFalse)
		b.Reserve()
		b.Commit()
	}
	c.Assert(b.Full(), qt.IsTrue) // one slot always left empty
	c.Assert(b.Count(), qt.Equals, 3)
}

func TestBufferDiscardAdvancesTail(t *testing.T) {
	c := qt.New(t)
	b := NewBuffer(4)

	b.Reserve()
	b.Commit()
	b.Reserve()
	b.Commit()
	c.Assert(b.Count(), qt.Equals, 2)

	b.Discard()
	c.Assert(b.Count(), qt.Equals, 1)
}

// A goroutine blocked in WaitForChange because the buffer is full wakes
// up once a concurrent Discard frees a slot, without waiting out the
// full timeout.
func TestWaitForChangeWakesOnDiscard(t *testing.T) {
	c := qt.New(t)
	b := NewBuffer(2) // capacity 2: full after a single Commit

	b.Reserve()
	b.Commit()
	c.Assert(b.Full(), qt.IsTrue)

	woke := make(chan struct{})
	go func() {
		for b.Full() {
			b.WaitForChange(5 * time.Second)
		}
		close(woke)
	}()

	time.Sleep(20 * time.Millisecond) // let the goroutine reach WaitForChange
	b.Discard()

	select {
	case <-woke:
	case <-time.After(time.Second):
		c.Fatal("WaitForChange did not wake up after Discard")
	}
}

func TestAtIndexesFromTail(t *testing.T) {
	c := qt.New(t)
	b := NewBuffer(4)

	b.Reserve().Millimeters = 1
	b.Commit()
	b.Reserve().Millimeters = 2
	b.Commit()

	c.Assert(b.At(0).Millimeters, qt.Equals, float32(1))
	c.Assert(b.At(1).Millimeters, qt.Equals, float32(2))
}

func TestResetEmptiesBuffer(t *testing.T) {
	c := qt.New(t)
	b := NewBuffer(4)

	b.Reserve()
	b.Commit()
	b.Reserve()
	b.Commit()
	c.Assert(b.Count(), qt.Equals, 2)

	b.Reset()
	c.Assert(b.Empty(), qt.IsTrue)
}
