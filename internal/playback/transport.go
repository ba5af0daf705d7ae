// Package playback provides the playback transports the engine reads its
// time from: a wall clock for silent sessions and exports, and a speaker
// transport that plays the decoded track out loud.
package playback

import (
	"sync"
	"time"
)

// Transport is the standard playback surface: the engine reads the position
// once per frame, external callers (HTTP handlers, the exporter) drive the
// controls. The engine never owns playback.
type Transport interface {
	Play()
	Pause()
	Playing() bool
	Seek(t float64)
	Pos() float64
	Duration() float64
}

// Clock is a transport with no audio behind it: position advances with the
// wall clock while playing and pins to [0, duration].
type Clock struct {
	mu       sync.Mutex
	duration float64
	base     float64
	started  time.Time
	playing  bool
}

func NewClock(duration float64) *Clock {
	return &Clock{duration: duration}
}

func (c *Clock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		return
	}
	c.started = time.Now()
	c.playing = true
}

func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		return
	}
	c.base = c.posLocked()
	c.playing = false
}

func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

func (c *Clock) Seek(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t < 0 {
		t = 0
	}
	if t > c.duration {
		t = c.duration
	}
	c.base = t
	c.started = time.Now()
}

func (c *Clock) Pos() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.posLocked()
}

func (c *Clock) posLocked() float64 {
	p := c.base
	if c.playing {
		p += time.Since(c.started).Seconds()
	}
	if p > c.duration {
		p = c.duration
	}
	return p
}

func (c *Clock) Duration() float64 {
	return c.duration
}
