package controller

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/overplay-app/overplay/internal/config"
	"github.com/overplay-app/overplay/internal/hotkey"
	"github.com/overplay-app/overplay/internal/track"
)

type fakePlayer struct {
	mu       sync.Mutex
	commands []string
	fail     map[string]error

	onTrack  []func(track.Snapshot)
	onState  []func(track.PlayState)
	onRating []func(int)
	onMute   []func(bool)
	onVolume []func(float64)
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{fail: make(map[string]error)}
}

func (p *fakePlayer) command(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands = append(p.commands, name)
	return p.fail[name]
}

func (p *fakePlayer) Play() error       { return p.command("play") }
func (p *fakePlayer) Pause() error      { return p.command("pause") }
func (p *fakePlayer) PlayPause() error  { return p.command("play-pause") }
func (p *fakePlayer) Stop() error       { return p.command("stop") }
func (p *fakePlayer) Next() error       { return p.command("next") }
func (p *fakePlayer) Previous() error   { return p.command("previous") }
func (p *fakePlayer) VolumeUp() error   { return p.command("volume-up") }
func (p *fakePlayer) VolumeDown() error { return p.command("volume-down") }
func (p *fakePlayer) ToggleMute() error { return p.command("mute") }

func (p *fakePlayer) Current() track.Snapshot { return track.Snapshot{} }

func (p *fakePlayer) OnTrackChanged(cb func(track.Snapshot)) { p.onTrack = append(p.onTrack, cb) }
func (p *fakePlayer) OnPlayStateChanged(cb func(track.PlayState)) {
	p.onState = append(p.onState, cb)
}
func (p *fakePlayer) OnRatingChanged(cb func(int)) { p.onRating = append(p.onRating, cb) }
func (p *fakePlayer) OnMuteChanged(cb func(bool)) { p.onMute = append(p.onMute, cb) }
func (p *fakePlayer) OnVolumeChanged(cb func(float64)) { p.onVolume = append(p.onVolume, cb) }

func (p *fakePlayer) Start(ctx context.Context) error { return nil }
func (p *fakePlayer) Close() error                    { return nil }

func (p *fakePlayer) emitTrack(s track.Snapshot) {
	for _, cb := range p.onTrack {
		cb(s)
	}
}

func (p *fakePlayer) emitState(s track.PlayState) {
	for _, cb := range p.onState {
		cb(s)
	}
}

func (p *fakePlayer) emitVolume(v float64) {
	for _, cb := range p.onVolume {
		cb(v)
	}
}

func (p *fakePlayer) sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.commands...)
}

type fakeSurface struct {
	mu       sync.Mutex
	shows    int
	hides    int
	lastSize image.Point
	lastPos  image.Point
}

func (s *fakeSurface) Show(content image.Image, pos image.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shows++
	s.lastSize = content.Bounds().Size()
	s.lastPos = pos
}

func (s *fakeSurface) SetOpacity(float64) {}

func (s *fakeSurface) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hides++
}

func (s *fakeSurface) ScreenBounds() image.Rectangle {
	return image.Rect(0, 0, 1920, 1080)
}

func (s *fakeSurface) showCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shows
}

// testConfig disables fades so presentation happens synchronously.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Timing.FadeMs = 0
	cfg.Timing.VisibleMs = 60000
	return cfg
}

func newTestController(t *testing.T, cfg *config.Config) (*Controller, *fakePlayer, *fakeSurface) {
	t.Helper()
	p := newFakePlayer()
	s := &fakeSurface{}
	c, err := New(zap.NewNop(), cfg, p, s)
	require.NoError(t, err)
	return c, p, s
}

func TestTrackChangeShowsOverlay(t *testing.T) {
	c, p, s := newTestController(t, testConfig())

	p.emitTrack(track.Snapshot{Name: "Harvest Moon", Artist: "Neil Young", Rating: 80})

	assert.Equal(t, 1, s.showCount())
	assert.True(t, s.lastSize.X > 0 && s.lastSize.Y > 0)
	assert.Equal(t, "Harvest Moon", c.Current().Name)
}

func TestOverlayAnchoredInsideScreen(t *testing.T) {
	_, p, s := newTestController(t, testConfig())

	p.emitTrack(track.Snapshot{Name: "Song"})

	require.Equal(t, 1, s.showCount())
	bounds := s.ScreenBounds()
	assert.True(t, s.lastPos.X >= bounds.Min.X)
	assert.True(t, s.lastPos.Y >= bounds.Min.Y)
	assert.True(t, s.lastPos.X+s.lastSize.X <= bounds.Max.X)
	assert.True(t, s.lastPos.Y+s.lastSize.Y <= bounds.Max.Y)
}

func TestPlayStateMapsToEvents(t *testing.T) {
	cfg := testConfig()
	cfg.Bindings = []config.BindingConfig{
		{On: "play", Do: []string{"volume-up"}},
		{On: "pause", Do: []string{"volume-down"}},
		{On: "stop", Do: []string{"mute"}},
	}
	_, p, _ := newTestController(t, cfg)

	p.emitState(track.Playing)
	p.emitState(track.Paused)
	p.emitState(track.Stopped)

	assert.Equal(t, []string{"volume-up", "volume-down", "mute"}, p.sent())
}

func TestVolumeChangeFiresBinding(t *testing.T) {
	cfg := testConfig()
	cfg.Bindings = []config.BindingConfig{
		{On: "volume-change", Do: []string{"show-overlay"}},
	}
	_, p, s := newTestController(t, cfg)

	p.emitVolume(0.7)

	assert.Equal(t, 1, s.showCount())
}

func TestChordFiresBoundActions(t *testing.T) {
	cfg := testConfig()
	cfg.Bindings = []config.BindingConfig{
		{Keys: "ctrl+shift+right", Do: []string{"next", "show-overlay"}},
	}
	c, p, s := newTestController(t, cfg)

	c.HandleChord(hotkey.NewChord("shift", "ctrl", "right"))

	assert.Equal(t, []string{"next"}, p.sent())
	assert.Equal(t, 1, s.showCount())
}

func TestActionErrorDoesNotStopList(t *testing.T) {
	cfg := testConfig()
	cfg.Bindings = []config.BindingConfig{
		{Keys: "ctrl+n", Do: []string{"next", "show-overlay"}},
	}
	c, p, s := newTestController(t, cfg)
	p.fail["next"] = errors.New("player gone")

	c.HandleChord(hotkey.NewChord("ctrl", "n"))

	assert.Equal(t, []string{"next"}, p.sent())
	assert.Equal(t, 1, s.showCount(), "overlay still shown after failed action")
}

func TestUnboundChordIsNoOp(t *testing.T) {
	c, p, s := newTestController(t, testConfig())

	c.HandleChord(hotkey.NewChord("ctrl", "x"))

	assert.Empty(t, p.sent())
	assert.Equal(t, 0, s.showCount())
}

func TestShowOverlayUsesLatestSnapshot(t *testing.T) {
	cfg := testConfig()
	cfg.Bindings = nil
	c, p, s := newTestController(t, cfg)

	p.emitTrack(track.Snapshot{Name: "First"})
	p.emitTrack(track.Snapshot{Name: "Second", Rating: 100})
	assert.Equal(t, 0, s.showCount(), "no bindings, no overlay")

	c.ShowOverlay()

	assert.Equal(t, 1, s.showCount())
	assert.Equal(t, "Second", c.Current().Name)
	assert.Equal(t, 100, c.Current().Rating)
}

func TestApplyConfigRebindsTable(t *testing.T) {
	c, p, s := newTestController(t, testConfig())

	cfg := testConfig()
	cfg.Bindings = nil
	c.ApplyConfig(cfg)

	p.emitTrack(track.Snapshot{Name: "Two"})
	assert.Equal(t, 0, s.showCount(), "track-change unbound after reload")
}

func TestApplyConfigRepaintsVisibleOverlay(t *testing.T) {
	c, p, s := newTestController(t, testConfig())

	p.emitTrack(track.Snapshot{Name: "One"})
	require.Equal(t, 1, s.showCount())
	firstSize := s.lastSize

	cfg := testConfig()
	cfg.Style.FontSize = 30
	c.ApplyConfig(cfg)

	assert.Equal(t, 2, s.showCount(), "visible overlay repainted on reload")
	assert.NotEqual(t, firstSize, s.lastSize, "new style changes the painted size")
}

func TestChordsReportsBoundHotkeys(t *testing.T) {
	cfg := testConfig()
	cfg.Bindings = []config.BindingConfig{
		{On: "track-change", Do: []string{"show-overlay"}},
		{Keys: "ctrl+shift+p", Do: []string{"play-pause"}},
		{Keys: "ctrl+m", Do: []string{"mute"}},
	}
	c, _, _ := newTestController(t, cfg)

	chords := c.Chords()
	assert.Len(t, chords, 2)
	assert.Contains(t, chords, hotkey.NewChord("ctrl", "shift", "p"))
	assert.Contains(t, chords, hotkey.NewChord("ctrl", "m"))
}

func TestEmptyTemplateHidesOverlay(t *testing.T) {
	cfg := testConfig()
	cfg.Template = ""
	c, _, s := newTestController(t, cfg)

	c.ShowOverlay()

	assert.Equal(t, 0, s.showCount())
	assert.Equal(t, 1, s.hides)
}
