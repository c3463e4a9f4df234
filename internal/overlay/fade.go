// Package overlay governs the on-screen display's visibility lifecycle,
// position, and window presentation.
package overlay

import (
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Phase is the fade state machine's current state.
type Phase int

const (
	PhaseHidden Phase = iota
	PhaseFadingIn
	PhaseVisible
	PhaseFadingOut
)

func (p Phase) String() string {
	switch p {
	case PhaseFadingIn:
		return "fading-in"
	case PhaseVisible:
		return "visible"
	case PhaseFadingOut:
		return "fading-out"
	default:
		return "hidden"
	}
}

// Presenter is the window backend the fader drives. Implementations must
// not call back into the Fader; calls arrive with the fader's lock held.
type Presenter interface {
	// Show makes content the displayed frame at the given screen position.
	Show(content image.Image, pos image.Point)
	// SetOpacity applies a 0.0-1.0 opacity to the displayed frame.
	SetOpacity(opacity float64)
	// Hide removes the overlay from the screen.
	Hide()
}

// Timing holds the fade lifecycle durations. A zero fade duration means
// the transition is instant. Tick is the opacity animation granularity.
type Timing struct {
	FadeIn  time.Duration
	FadeOut time.Duration
	Visible time.Duration
	Tick    time.Duration
}

// DefaultTick keeps the animation under the perception threshold.
const DefaultTick = 25 * time.Millisecond

// Fader is the timer-driven visibility state machine. A new show request
// always supersedes in-flight fade and hold timers: every scheduled
// callback captures the generation at schedule time and is ignored once
// the generation has moved on, so a stale timer can never force a hide.
type Fader struct {
	mu         sync.Mutex
	logger     *zap.Logger
	presenter  Presenter
	timing     Timing
	maxOpacity float64

	phase     Phase
	opacity   float64
	gen       uint64
	holdTimer *time.Timer
}

// NewFader creates a fader in the Hidden phase.
func NewFader(logger *zap.Logger, presenter Presenter, timing Timing, maxOpacity float64) *Fader {
	if timing.Tick <= 0 {
		timing.Tick = DefaultTick
	}
	if maxOpacity <= 0 || maxOpacity > 1 {
		maxOpacity = 1
	}
	return &Fader{
		logger:     logger,
		presenter:  presenter,
		timing:     timing,
		maxOpacity: maxOpacity,
	}
}

// Show displays content, restarting the lifecycle. From Hidden the
// overlay fades in from zero; mid fade-out it resumes rising from the
// current opacity; while Visible the content swaps in place and the hold
// timer restarts without any opacity dip.
func (f *Fader) Show(content image.Image, pos image.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.supersedeLocked()
	f.presenter.Show(content, pos)

	if f.phase == PhaseVisible && f.opacity >= f.maxOpacity {
		// Already fully visible: just restart the hold.
		f.scheduleHoldLocked()
		return
	}

	if f.timing.FadeIn <= 0 {
		f.becomeVisibleLocked()
		return
	}

	f.phase = PhaseFadingIn
	f.presenter.SetOpacity(f.opacity)
	go f.animate(f.gen, true)
}

// Hide drops the overlay immediately, cancelling all timers.
func (f *Fader) Hide() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.supersedeLocked()
	f.phase = PhaseHidden
	f.opacity = 0
	f.presenter.Hide()
}

// Phase returns the current lifecycle phase.
func (f *Fader) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Opacity returns the current opacity.
func (f *Fader) Opacity() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opacity
}

// supersedeLocked invalidates every outstanding timer callback by
// advancing the generation.
func (f *Fader) supersedeLocked() {
	f.gen++
	if f.holdTimer != nil {
		f.holdTimer.Stop()
		f.holdTimer = nil
	}
}

func (f *Fader) becomeVisibleLocked() {
	f.phase = PhaseVisible
	f.opacity = f.maxOpacity
	f.presenter.SetOpacity(f.opacity)
	f.scheduleHoldLocked()
}

func (f *Fader) scheduleHoldLocked() {
	gen := f.gen
	f.holdTimer = time.AfterFunc(f.timing.Visible, func() {
		f.onHoldExpired(gen)
	})
}

func (f *Fader) onHoldExpired(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen || f.phase != PhaseVisible {
		// Superseded between schedule and fire; not ours to act on.
		return
	}
	if f.timing.FadeOut <= 0 {
		f.phase = PhaseHidden
		f.opacity = 0
		f.presenter.Hide()
		return
	}
	f.phase = PhaseFadingOut
	go f.animate(gen, false)
}

// animate steps opacity toward full or zero on a periodic tick until the
// target is reached or the generation moves on.
func (f *Fader) animate(gen uint64, rising bool) {
	dur := f.timing.FadeOut
	if rising {
		dur = f.timing.FadeIn
	}
	step := f.maxOpacity * float64(f.timing.Tick) / float64(dur)

	ticker := time.NewTicker(f.timing.Tick)
	defer ticker.Stop()

	for range ticker.C {
		f.mu.Lock()
		if gen != f.gen {
			f.mu.Unlock()
			return
		}
		if rising {
			f.opacity += step
			if f.opacity >= f.maxOpacity {
				f.becomeVisibleLocked()
				f.mu.Unlock()
				return
			}
		} else {
			f.opacity -= step
			if f.opacity <= 0 {
				f.phase = PhaseHidden
				f.opacity = 0
				f.presenter.Hide()
				f.mu.Unlock()
				return
			}
		}
		f.presenter.SetOpacity(f.opacity)
		f.mu.Unlock()
	}
}
