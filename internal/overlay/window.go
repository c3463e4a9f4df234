package overlay

import (
	"image"
	"image/draw"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// Window presents overlay frames in a borderless, always-on-top,
// click-through window spanning the primary monitor. It implements
// Presenter; the fade controller drives it through Show/SetOpacity/Hide.
type Window struct {
	mu sync.RWMutex

	logger   *zap.Logger
	frame    *image.RGBA
	frameSeq uint64
	pos      image.Point
	opacity  float64
	visible  bool

	screenW int
	screenH int

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWindow creates an overlay window presenter. Run must be called from
// the main goroutine before anything is displayed.
func NewWindow(logger *zap.Logger) *Window {
	return &Window{
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Show stores the frame to draw and where to draw it. Safe to call from
// any goroutine; the game loop picks the frame up on its next draw.
func (w *Window) Show(content image.Image, pos image.Point) {
	rgba := image.NewRGBA(content.Bounds().Sub(content.Bounds().Min))
	draw.Draw(rgba, rgba.Bounds(), content, content.Bounds().Min, draw.Src)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.frame = rgba
	w.frameSeq++
	w.pos = pos
	w.visible = true
}

// SetOpacity applies the fade controller's current opacity.
func (w *Window) SetOpacity(opacity float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opacity = opacity
}

// Hide removes the overlay from the screen without tearing the window
// down; the next Show reuses it.
func (w *Window) Hide() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = false
}

// ScreenBounds returns the primary monitor rectangle for anchor math.
func (w *Window) ScreenBounds() image.Rectangle {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.screenW > 0 && w.screenH > 0 {
		return image.Rect(0, 0, w.screenW, w.screenH)
	}
	width, height := ebiten.Monitor().Size()
	return image.Rect(0, 0, width, height)
}

// Run starts the window's game loop. Must be called from the main
// goroutine; blocks until Close or window termination.
func (w *Window) Run() error {
	width, height := ebiten.Monitor().Size()
	w.mu.Lock()
	w.screenW, w.screenH = width, height
	w.mu.Unlock()

	ebiten.SetWindowDecorated(false)
	ebiten.SetWindowFloating(true)
	ebiten.SetWindowMousePassthrough(true)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowPosition(0, 0)
	ebiten.SetWindowTitle("overplay")
	ebiten.SetVsyncEnabled(true)

	opts := &ebiten.RunGameOptions{
		ScreenTransparent: true,
		SkipTaskbar:       true,
		InitUnfocused:     true,
	}
	return ebiten.RunGameWithOptions(&overlayGame{win: w}, opts)
}

// Close signals the game loop to terminate.
func (w *Window) Close() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// overlayGame implements ebiten.Game for the overlay window. The frame
// bitmap is uploaded to a texture only when a new frame was published;
// steady-state draws reuse it.
type overlayGame struct {
	win        *Window
	texture    *ebiten.Image
	textureSeq uint64
}

func (g *overlayGame) Update() error {
	select {
	case <-g.win.stopCh:
		return ebiten.Termination
	default:
	}
	return nil
}

func (g *overlayGame) Draw(screen *ebiten.Image) {
	g.win.mu.RLock()
	frame := g.win.frame
	seq := g.win.frameSeq
	pos := g.win.pos
	opacity := g.win.opacity
	visible := g.win.visible
	g.win.mu.RUnlock()

	if !visible || frame == nil || opacity <= 0 {
		return
	}

	if g.texture == nil || g.textureSeq != seq {
		g.texture = ebiten.NewImageFromImage(frame)
		g.textureSeq = seq
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(pos.X), float64(pos.Y))
	op.ColorScale.ScaleAlpha(float32(opacity))
	screen.DrawImage(g.texture, op)
}

func (g *overlayGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
