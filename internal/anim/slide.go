// Package anim drives simple UI transitions from clock ticks.
package anim

import "time"

// FrameInterval is how often a running animation expects to be advanced.
const FrameInterval = 16 * time.Millisecond

// DefaultDuration is the time a full open or close takes.
const DefaultDuration = 160 * time.Millisecond

// State is the phase of a Slide.
type State int

const (
	Idle State = iota
	AnimatingIn
	AnimatingOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AnimatingIn:
		return "animating-in"
	case AnimatingOut:
		return "animating-out"
	default:
		return "unknown"
	}
}

// Slide is a panel that expands from hidden (progress 0) to shown
// (progress 1) and back. It holds no timers: the owner calls Advance with
// the current time on every clock tick until Advance reports completion.
type Slide struct {
	duration time.Duration
	state    State
	progress float64

	// Progress and time at which the current phase started.
	from  float64
	start time.Time
}

// NewSlide creates a hidden, idle slide. A non-positive duration makes
// transitions instant.
func NewSlide(duration time.Duration) *Slide {
	return &Slide{duration: duration}
}

// State returns the current phase.
func (s *Slide) State() State {
	return s.state
}

// Progress returns how far the panel is open, from 0 to 1.
func (s *Slide) Progress() float64 {
	return s.progress
}

// Visible reports whether any part of the panel should be drawn.
func (s *Slide) Visible() bool {
	return s.progress > 0
}

// Shown reports whether the panel is open or opening.
func (s *Slide) Shown() bool {
	return s.state == AnimatingIn || (s.state == Idle && s.progress >= 1)
}

// Animating reports whether Advance still has work to do.
func (s *Slide) Animating() bool {
	return s.state != Idle
}

// Show starts opening the panel. An animation that is closing reverses from
// where it is. It returns true when the caller must start ticking.
func (s *Slide) Show(now time.Time) bool {
	if s.Shown() {
		return false
	}
	return s.begin(AnimatingIn, now)
}

// Hide starts closing the panel. It returns true when the caller must start
// ticking.
func (s *Slide) Hide(now time.Time) bool {
	if s.state == AnimatingOut || (s.state == Idle && s.progress <= 0) {
		return false
	}
	return s.begin(AnimatingOut, now)
}

// Toggle hides a shown panel and shows a hidden one.
func (s *Slide) Toggle(now time.Time) bool {
	if s.Shown() {
		return s.Hide(now)
	}
	return s.Show(now)
}

func (s *Slide) begin(state State, now time.Time) bool {
	if s.duration <= 0 {
		s.finish(state)
		return false
	}
	s.state = state
	s.from = s.progress
	s.start = now
	return true
}

func (s *Slide) finish(state State) {
	if state == AnimatingIn {
		s.progress = 1
	} else {
		s.progress = 0
	}
	s.state = Idle
}

// Advance moves the animation to time now. It returns true while the
// animation is still running.
func (s *Slide) Advance(now time.Time) bool {
	if s.state == Idle {
		return false
	}

	elapsed := now.Sub(s.start)
	if elapsed < 0 {
		elapsed = 0
	}
	delta := float64(elapsed) / float64(s.duration)

	switch s.state {
	case AnimatingIn:
		s.progress = s.from + delta
		if s.progress >= 1 {
			s.finish(AnimatingIn)
			return false
		}
	case AnimatingOut:
		s.progress = s.from - delta
		if s.progress <= 0 {
			s.finish(AnimatingOut)
			return false
		}
	}
	return true
}

// Span scales full by the current progress. A visible panel is at least one
// column wide.
func (s *Slide) Span(full int) int {
	if full <= 0 || s.progress <= 0 {
		return 0
	}
	n := int(float64(full)*s.progress + 0.5)
	return max(1, min(n, full))
}
