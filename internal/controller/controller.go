// Package controller wires the player binding, dispatch table, renderer
// and fade controller together. All state lives behind one mutex; player
// callbacks, hotkey activations and config reloads are serialized through
// it, so the dispatch table and render pipeline never race.
package controller

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"go.uber.org/zap"

	"github.com/overplay-app/overplay/internal/config"
	"github.com/overplay-app/overplay/internal/dispatch"
	"github.com/overplay-app/overplay/internal/hotkey"
	"github.com/overplay-app/overplay/internal/overlay"
	"github.com/overplay-app/overplay/internal/player"
	"github.com/overplay-app/overplay/internal/rating"
	"github.com/overplay-app/overplay/internal/render"
	"github.com/overplay-app/overplay/internal/template"
	"github.com/overplay-app/overplay/internal/track"
)

// Surface is the display the controller paints onto. The fade controller
// drives the Presenter side; ScreenBounds feeds the anchor math.
type Surface interface {
	overlay.Presenter
	ScreenBounds() image.Rectangle
}

// Controller routes player events and key chords through the dispatch
// table and turns show-overlay actions into painted, positioned, fading
// frames.
type Controller struct {
	mu sync.Mutex

	logger  *zap.Logger
	player  player.Player
	surface Surface
	painter *render.Painter

	fader *overlay.Fader
	table *dispatch.Table

	tmpl     *template.Template
	renderer *template.Renderer
	style    render.Style
	anchor   overlay.Anchor
	margin   int
	taskbar  image.Rectangle

	latest track.Snapshot
}

// New builds a controller from the given config and registers for the
// player's events. The player must not have been started yet.
func New(logger *zap.Logger, cfg *config.Config, p player.Player, surface Surface) (*Controller, error) {
	painter, err := render.NewPainter(logger)
	if err != nil {
		return nil, fmt.Errorf("creating painter: %w", err)
	}

	c := &Controller{
		logger:  logger,
		player:  p,
		surface: surface,
		painter: painter,
	}
	c.applyLocked(cfg)

	p.OnTrackChanged(c.handleTrackChanged)
	p.OnPlayStateChanged(c.handlePlayStateChanged)
	p.OnRatingChanged(c.handleRatingChanged)
	p.OnMuteChanged(c.handleMuteChanged)
	p.OnVolumeChanged(c.handleVolumeChanged)
	return c, nil
}

// ApplyConfig swaps in a new configuration: template, style, timing and
// bindings all take effect on the next event. Used by live reload.
func (c *Controller) ApplyConfig(cfg *config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasShowing := c.fader != nil &&
		(c.fader.Phase() == overlay.PhaseVisible || c.fader.Phase() == overlay.PhaseFadingIn)

	c.applyLocked(cfg)
	c.logger.Info("Configuration applied",
		zap.Int("bindings", len(cfg.Bindings)))

	// An overlay that was up repaints with the new template and style.
	if wasShowing {
		c.showOverlayLocked()
	}
}

func (c *Controller) applyLocked(cfg *config.Config) {
	c.tmpl = template.Parse(cfg.Template)
	c.style = cfg.RenderStyle()
	stars := rating.NewCache(c.logger, cfg.Style.StarSize, c.style.TextColor)
	c.renderer = template.NewRenderer(c.logger, stars, cfg.Style.ArtworkSize)
	c.anchor = cfg.Anchor()
	c.margin = cfg.Style.OutsideMargin

	if c.fader != nil {
		c.fader.Hide()
	}
	c.fader = overlay.NewFader(c.logger, c.surface, cfg.FadeTiming(), cfg.Timing.MaxOpacity)

	table := dispatch.NewTable(c.logger, c.invokeLocked)
	bindings, errs := cfg.TableBindings()
	for _, err := range errs {
		c.logger.Warn("Skipping binding", zap.Error(err))
	}
	for _, b := range bindings {
		if table.Has(b.Trigger) {
			c.logger.Warn("Rebinding trigger", zap.Stringer("trigger", b.Trigger))
		}
		table.Bind(b.Trigger, b.Actions)
	}
	c.table = table
}

// SetTaskbar records the taskbar rectangle excluded from the work area.
func (c *Controller) SetTaskbar(r image.Rectangle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.taskbar = r
}

// Chords returns every key chord the dispatch table is listening for.
func (c *Controller) Chords() []hotkey.Chord {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []hotkey.Chord
	for _, trig := range c.table.ChordTriggers() {
		out = append(out, trig.Chord)
	}
	return out
}

// HandleChord fires the dispatch entry bound to the chord, if any.
func (c *Controller) HandleChord(chord hotkey.Chord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table.Fire(dispatch.ChordTrigger(chord))
}

// ShowOverlay repaints and presents the overlay for the latest snapshot.
func (c *Controller) ShowOverlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showOverlayLocked()
}

// HideOverlay begins the fade-out immediately.
func (c *Controller) HideOverlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fader.Hide()
}

// Current returns the latest snapshot the controller has seen.
func (c *Controller) Current() track.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

func (c *Controller) handleTrackChanged(snap track.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = snap
	c.table.Fire(dispatch.EventTrigger(dispatch.EventTrackChange))
}

func (c *Controller) handlePlayStateChanged(state track.PlayState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest.State = state

	var event dispatch.EventType
	switch state {
	case track.Playing:
		event = dispatch.EventPlay
	case track.Paused:
		event = dispatch.EventPause
	default:
		event = dispatch.EventStop
	}
	c.table.Fire(dispatch.EventTrigger(event))
}

func (c *Controller) handleRatingChanged(r int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest.Rating = r
	c.table.Fire(dispatch.EventTrigger(dispatch.EventRatingChange))
}

func (c *Controller) handleMuteChanged(muted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest.Muted = muted
	c.table.Fire(dispatch.EventTrigger(dispatch.EventMuteChange))
}

func (c *Controller) handleVolumeChanged(float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table.Fire(dispatch.EventTrigger(dispatch.EventVolumeChange))
}

// invokeLocked interprets one dispatch action. It runs with the
// controller lock held, inside Fire.
func (c *Controller) invokeLocked(action dispatch.Action) error {
	switch action {
	case dispatch.ActionPlay:
		return c.player.Play()
	case dispatch.ActionPause:
		return c.player.Pause()
	case dispatch.ActionPlayPause:
		return c.player.PlayPause()
	case dispatch.ActionStop:
		return c.player.Stop()
	case dispatch.ActionNext:
		return c.player.Next()
	case dispatch.ActionPrevious:
		return c.player.Previous()
	case dispatch.ActionVolumeUp:
		return c.player.VolumeUp()
	case dispatch.ActionVolumeDown:
		return c.player.VolumeDown()
	case dispatch.ActionMute:
		return c.player.ToggleMute()
	case dispatch.ActionShowOverlay:
		c.showOverlayLocked()
		return nil
	default:
		return fmt.Errorf("unknown action %s", action)
	}
}

func (c *Controller) showOverlayLocked() {
	lines := c.renderer.Render(c.tmpl, c.latest)

	style := c.style
	if style.Mode == render.ModeGlass && c.latest.HasArtwork() {
		if tint, ok := render.DominantTint(c.latest.Artwork); ok {
			style.Background = tintBackground(style.Background, tint)
		}
	}

	img, err := c.painter.Paint(lines, style)
	if err != nil {
		c.logger.Warn("Painting overlay failed", zap.Error(err))
		return
	}
	if img == nil {
		c.fader.Hide()
		return
	}

	size := img.Bounds().Size()
	pos := overlay.Position(c.anchor, c.surface.ScreenBounds(), c.taskbar, size, c.margin)
	c.fader.Show(img, pos)
}

// tintBackground mixes a third of the artwork's dominant color into the
// configured panel color, keeping the configured alpha.
func tintBackground(base, tint color.RGBA) color.RGBA {
	mix := func(b, t uint8) uint8 {
		return uint8((int(b)*2 + int(t)) / 3)
	}
	return color.RGBA{
		R: mix(base.R, tint.R),
		G: mix(base.G, tint.G),
		B: mix(base.B, tint.B),
		A: base.A,
	}
}
