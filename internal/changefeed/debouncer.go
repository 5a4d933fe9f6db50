package changefeed

import (
	"sync"
	"time"
)

const (
	DefaultQuietPeriod    = 5 * time.Second
	DefaultCooldown       = 30 * time.Second
	DefaultReconnectDelay = 5 * time.Second
)

type DebounceState int

const (
	DebounceIdle DebounceState = iota
	DebounceScheduled
	DebounceFired
)

func (s DebounceState) String() string {
	switch s {
	case DebounceScheduled:
		return "scheduled"
	case DebounceFired:
		return "fired"
	default:
		return "idle"
	}
}

// Debouncer coalesces bursts of triggers into one call of fire, made quietPeriod
// after the last trigger. Triggers arriving within cooldown of the previous
// fire are dropped, not queued.
type Debouncer struct {
	clock        Clock
	quietPeriod  time.Duration
	cooldown     time.Duration
	fire         func()
	onSuppressed func()

	mu        sync.Mutex
	state     DebounceState
	timer     Timer
	gen       uint64
	lastFired time.Time
	hasFired  bool
	stopped   bool
}

func NewDebouncer(clock Clock, quietPeriod, cooldown time.Duration, fire func()) *Debouncer {
	if quietPeriod <= 0 {
		quietPeriod = DefaultQuietPeriod
	}
	if cooldown < 0 {
		cooldown = DefaultCooldown
	}
	return &Debouncer{
		clock:       clock,
		quietPeriod: quietPeriod,
		cooldown:    cooldown,
		fire:        fire,
	}
}

// OnSuppressed registers fn, called for every trigger dropped by the cooldown.
func (d *Debouncer) OnSuppressed(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onSuppressed = fn
}

// Trigger arms or re-arms the timer. It reports false when the trigger was
// dropped because of the cooldown or because the debouncer is stopped.
func (d *Debouncer) Trigger() bool {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return false
	}
	if d.hasFired && d.clock.Now().Sub(d.lastFired) < d.cooldown {
		suppressed := d.onSuppressed
		d.mu.Unlock()
		if suppressed != nil {
			suppressed()
		}
		return false
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.state = DebounceScheduled
	d.timer = d.clock.AfterFunc(d.quietPeriod, func() { d.fireScheduled(gen) })
	d.mu.Unlock()
	return true
}

// fireScheduled ignores timers that were re-armed or stopped after they started.
func (d *Debouncer) fireScheduled(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen || d.state != DebounceScheduled {
		d.mu.Unlock()
		return
	}
	d.state = DebounceFired
	d.lastFired = d.clock.Now()
	d.hasFired = true
	d.timer = nil
	d.mu.Unlock()

	d.fire()
}

func (d *Debouncer) State() DebounceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Stop cancels a pending fire. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.state == DebounceScheduled {
		d.state = DebounceIdle
	}
}
