package hal

import (
	"sync"
	"time"
)

// SimGPIO is an in-memory GPIO bank used by tests and the cmd/cncd demo.
// It mirrors the mockPin/mockBus fakes the driver tests build per-package,
// lifted here as a reusable fake since every package in this module needs
// one to exercise the step/dir/limit boundary.
type SimGPIO struct {
	mu     sync.Mutex
	levels map[Pin]bool
	modes  map[Pin]PinMode
}

// NewSimGPIO returns a ready-to-use simulated GPIO bank.
func NewSimGPIO() *SimGPIO {
	return &SimGPIO{
		levels: make(map[Pin]bool),
		modes:  make(map[Pin]PinMode),
	}
}

func (g *SimGPIO) Configure(pin Pin, mode PinMode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modes[pin] = mode
}

func (g *SimGPIO) Write(pin Pin, level bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.levels[pin] = level
}

func (g *SimGPIO) Read(pin Pin) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin]
}

type simTimerLine struct {
	reload     uint32
	prescaler  uint32
	ticker     *time.Ticker
	stop       chan struct{}
	compareFns map[int]func()
}

// SimTimer drives the step-rate and pulse-reset timers with real
// wall-clock goroutines, so the step generator's timer-interrupt model
// runs off target. It is not cycle-accurate; it is a software stand-in
// for the hardware compare-match timer described in spec.md §4.2.
type SimTimer struct {
	mu        sync.Mutex
	fosc      uint32
	lines     map[int]*simTimerLine
	overflows map[int]func()
}

// NewSimTimer returns a timer simulator whose notional oscillator runs
// at foscHz. A typical embedded target clocks this at a few MHz to tens
// of MHz. A tick period is cycles/foscHz and the step generator derives
// its cycle counts from its own FOSC setting, so when the two match the
// tick rate does not depend on the value chosen.
func NewSimTimer(foscHz uint32) *SimTimer {
	return &SimTimer{
		fosc:      foscHz,
		lines:     make(map[int]*simTimerLine),
		overflows: make(map[int]func()),
	}
}

func (t *SimTimer) line(id int) *simTimerLine {
	l, ok := t.lines[id]
	if !ok {
		l = &simTimerLine{compareFns: make(map[int]func())}
		t.lines[id] = l
	}
	return l
}

// SetReload programs the timer period in oscillator cycles and returns
// the cycle count actually honored. The simulator has no prescaler
// width limit, so it always honors the request exactly.
func (t *SimTimer) SetReload(id int, cycles uint32) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	l := t.line(id)
	l.reload = cycles
	if l.ticker != nil {
		l.ticker.Reset(t.period(cycles))
	}
	return cycles
}

func (t *SimTimer) period(cycles uint32) time.Duration {
	if t.fosc == 0 {
		return time.Microsecond
	}
	d := time.Duration(cycles) * time.Second / time.Duration(t.fosc)
	if d <= 0 {
		d = time.Microsecond
	}
	return d
}

func (t *SimTimer) SetPrescaler(id int, divisor uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.line(id).prescaler = divisor
}

func (t *SimTimer) EnableCTC(int) {}

func (t *SimTimer) SetCompare(id int, channel int, value uint32) {
	t.mu.Lock()
	l := t.line(id)
	fn := l.compareFns[channel]
	t.mu.Unlock()
	if fn == nil {
		return
	}
	go func() {
		time.Sleep(t.period(value))
		fn()
	}()
}

func (t *SimTimer) EnableInterrupt(id int, kind InterruptKind, handler func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l := t.line(id)
	switch kind {
	case InterruptCompareA:
		l.compareFns[0] = handler
		if l.ticker == nil && l.reload > 0 {
			l.ticker = time.NewTicker(t.period(l.reload))
			l.stop = make(chan struct{})
			go t.pump(l.ticker, l.stop, handler)
		}
	case InterruptOverflow:
		t.overflows[id] = handler
	}
}

func (t *SimTimer) pump(ticker *time.Ticker, stop chan struct{}, handler func()) {
	for {
		select {
		case <-ticker.C:
			handler()
		case <-stop:
			return
		}
	}
}

func (t *SimTimer) DisableInterrupt(id int, kind InterruptKind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l := t.line(id)
	switch kind {
	case InterruptCompareA:
		if l.ticker != nil {
			l.ticker.Stop()
			close(l.stop)
			l.ticker = nil
		}
	case InterruptOverflow:
		delete(t.overflows, id)
	}
}

// SimNVS is an in-memory non-volatile store.
type SimNVS struct {
	mu   sync.Mutex
	data []byte
}

// NewSimNVS returns a simulated NVS backed by a zero-filled buffer of
// the given size.
func NewSimNVS(size int) *SimNVS {
	return &SimNVS{data: make([]byte, size)}
}

func (n *SimNVS) Store(offset uint16, data []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if int(offset)+len(data) > len(n.data) {
		return ErrOutOfRange
	}
	copy(n.data[offset:], data)
	return nil
}

func (n *SimNVS) Fetch(offset uint16, data []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if int(offset)+len(data) > len(n.data) {
		return ErrOutOfRange
	}
	copy(data, n.data[offset:])
	return nil
}

// SimSerial is an in-memory byte-oriented console, a single-producer/
// single-consumer ring in front of a Go channel, standing in for the
// lock-free ring the real console's UART boundary uses.
type SimSerial struct {
	rx chan byte
	tx chan byte
}

// NewSimSerial returns a simulated serial console with the given
// buffer depth on each direction.
func NewSimSerial(depth int) *SimSerial {
	return &SimSerial{
		rx: make(chan byte, depth),
		tx: make(chan byte, depth),
	}
}

func (s *SimSerial) ReadByte() (byte, bool) {
	select {
	case b := <-s.rx:
		return b, true
	default:
		return 0, false
	}
}

func (s *SimSerial) WriteByte(b byte, block bool) error {
	if block {
		s.tx <- b
		return nil
	}
	select {
	case s.tx <- b:
		return nil
	default:
		return ErrSerialBusy
	}
}

// Feed injects host-to-device bytes, e.g. from a test driving the
// console as if typed at a terminal.
func (s *SimSerial) Feed(data []byte) {
	for _, b := range data {
		s.rx <- b
	}
}

// Drain reads back whatever the device has written so far, without
// blocking once the channel empties.
func (s *SimSerial) Drain() []byte {
	var out []byte
	for {
		select {
		case b := <-s.tx:
			out = append(out, b)
		default:
			return out
		}
	}
}

// SimChargePump records start/stop calls without producing real output.
type SimChargePump struct {
	mu        sync.Mutex
	running   bool
	pin       Pin
	frequency uint32
}

func (c *SimChargePump) Start(pin Pin, frequencyHz uint32, shape Waveform) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.pin = pin
	c.frequency = frequencyHz
}

func (c *SimChargePump) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
}

// Running reports whether Start has been called more recently than Stop.
func (c *SimChargePump) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SimClock delays using the real wall clock, scaled down for tests via
// a configurable speed multiplier so a dwell test doesn't take real
// wall-clock seconds.
type SimClock struct {
	Speedup uint32
}

func (c *SimClock) speed() uint32 {
	if c.Speedup == 0 {
		return 1
	}
	return c.Speedup
}

func (c *SimClock) DelayMS(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond / time.Duration(c.speed()))
}

func (c *SimClock) DelayUS(us uint32) {
	time.Sleep(time.Duration(us) * time.Microsecond / time.Duration(c.speed()))
}
