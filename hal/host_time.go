package hal

import "time"

// hostTime is a millisecond uptime clock sampled once per step. Only the
// newest reading is kept; a slow consumer sees the clock jump, never lag.
type hostTime struct {
	ch    chan uint64
	now   func() time.Time
	start time.Time
	last  uint64
}

func newHostTime() *hostTime {
	return &hostTime{ch: make(chan uint64, 1), now: time.Now}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

// sample publishes the milliseconds elapsed since the first sample. The
// first sample reads 1 so consumers can tell "started" from "never ticked".
func (t *hostTime) sample() {
	now := t.now()
	if t.start.IsZero() {
		t.start = now.Add(-time.Millisecond)
	}
	ms := uint64(now.Sub(t.start) / time.Millisecond)
	if ms <= t.last {
		return
	}
	t.last = ms

	select {
	case <-t.ch:
	default:
	}
	t.ch <- ms
}
