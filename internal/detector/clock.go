package detector

import "time"

// Clock supplies millisecond timestamps for toggles reported without one.
type Clock interface {
	NowMillis() int64
}

// MonotonicClock counts milliseconds since its creation on the monotonic
// reading of time.Time, so wall-clock jumps do not distort the window.
type MonotonicClock struct {
	epoch time.Time
}

// NewMonotonicClock starts a clock at zero.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{epoch: time.Now()}
}

// NowMillis returns milliseconds elapsed since the clock was created.
func (c *MonotonicClock) NowMillis() int64 {
	return time.Since(c.epoch).Milliseconds()
}
