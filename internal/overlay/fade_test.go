package overlay

import (
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePresenter records every call the fader makes.
type fakePresenter struct {
	mu        sync.Mutex
	opacities []float64
	shows     int
	hides     int
}

func (p *fakePresenter) Show(content image.Image, pos image.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shows++
}

func (p *fakePresenter) SetOpacity(opacity float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opacities = append(p.opacities, opacity)
}

func (p *fakePresenter) Hide() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hides++
}

func (p *fakePresenter) recorded() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.opacities...)
}

func (p *fakePresenter) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opacities = nil
}

func (p *fakePresenter) hideCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hides
}

func frame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 10, 10))
}

func TestFader_ShowFadesInThenHoldsThenHides(t *testing.T) {
	p := &fakePresenter{}
	f := NewFader(zap.NewNop(), p, Timing{
		FadeIn:  50 * time.Millisecond,
		FadeOut: 50 * time.Millisecond,
		Visible: 80 * time.Millisecond,
		Tick:    5 * time.Millisecond,
	}, 1.0)

	require.Equal(t, PhaseHidden, f.Phase())
	f.Show(frame(), image.Pt(0, 0))

	require.Eventually(t, func() bool { return f.Phase() == PhaseVisible }, 2*time.Second, 2*time.Millisecond)
	assert.InDelta(t, 1.0, f.Opacity(), 0.001)

	// Fade-in opacity never decreased.
	values := p.recorded()
	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i], values[i-1])
	}

	// Hold expires, fade-out runs to Hidden.
	require.Eventually(t, func() bool { return f.Phase() == PhaseHidden }, 2*time.Second, 2*time.Millisecond)
	assert.Equal(t, 1, p.hideCount())
	assert.Zero(t, f.Opacity())
}

func TestFader_ZeroFadeTimeIsInstant(t *testing.T) {
	p := &fakePresenter{}
	f := NewFader(zap.NewNop(), p, Timing{
		Visible: time.Hour,
		Tick:    5 * time.Millisecond,
	}, 0.9)

	f.Show(frame(), image.Pt(0, 0))
	assert.Equal(t, PhaseVisible, f.Phase())
	assert.InDelta(t, 0.9, f.Opacity(), 0.001)
}

func TestFader_ShowWhileVisibleRestartsHoldWithoutFlicker(t *testing.T) {
	p := &fakePresenter{}
	holdTime := 120 * time.Millisecond
	f := NewFader(zap.NewNop(), p, Timing{
		Visible: holdTime,
		Tick:    5 * time.Millisecond,
	}, 1.0)

	f.Show(frame(), image.Pt(0, 0))
	require.Equal(t, PhaseVisible, f.Phase())

	// Re-show near the end of the hold; the hold restarts in place.
	time.Sleep(holdTime * 3 / 4)
	p.reset()
	f.Show(frame(), image.Pt(0, 0))
	require.Equal(t, PhaseVisible, f.Phase())

	// Past the point where the original hold would have expired,
	// the overlay is still fully visible with no opacity dip.
	time.Sleep(holdTime / 2)
	assert.Equal(t, PhaseVisible, f.Phase())
	assert.InDelta(t, 1.0, f.Opacity(), 0.001)
	for _, v := range p.recorded() {
		assert.InDelta(t, 1.0, v, 0.001, "no flicker while visible")
	}
	assert.Zero(t, p.hideCount(), "stale hold timer must not hide the overlay")
}

func TestFader_ShowDuringFadeOutResumesUpward(t *testing.T) {
	p := &fakePresenter{}
	f := NewFader(zap.NewNop(), p, Timing{
		FadeIn:  80 * time.Millisecond,
		FadeOut: 200 * time.Millisecond,
		Visible: 20 * time.Millisecond,
		Tick:    5 * time.Millisecond,
	}, 1.0)

	f.Show(frame(), image.Pt(0, 0))
	require.Eventually(t, func() bool { return f.Phase() == PhaseVisible }, 2*time.Second, 2*time.Millisecond)

	// Wait until the fade-out is solidly underway.
	require.Eventually(t, func() bool {
		return f.Phase() == PhaseFadingOut && f.Opacity() < 0.6
	}, 2*time.Second, 2*time.Millisecond)

	before := f.Opacity()
	p.reset()
	f.Show(frame(), image.Pt(0, 0))
	require.Equal(t, PhaseFadingIn, f.Phase())

	require.Eventually(t, func() bool { return f.Phase() == PhaseVisible }, 2*time.Second, 2*time.Millisecond)

	values := p.recorded()
	require.NotEmpty(t, values)
	for i, v := range values {
		// Continues upward from where it was; never resets to zero.
		assert.Greater(t, v, 0.05, "opacity must not restart from zero")
		if i > 0 {
			assert.GreaterOrEqual(t, values[i], values[i-1], "opacity must rise monotonically")
		}
	}
	assert.GreaterOrEqual(t, values[len(values)-1], before)
}

func TestFader_HideCancelsEverything(t *testing.T) {
	p := &fakePresenter{}
	f := NewFader(zap.NewNop(), p, Timing{
		FadeIn:  30 * time.Millisecond,
		FadeOut: 30 * time.Millisecond,
		Visible: 30 * time.Millisecond,
		Tick:    5 * time.Millisecond,
	}, 1.0)

	f.Show(frame(), image.Pt(0, 0))
	f.Hide()
	assert.Equal(t, PhaseHidden, f.Phase())

	// No stale timer revives the overlay.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, PhaseHidden, f.Phase())
}
