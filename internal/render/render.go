// Package render lays out rendered template lines and paints the overlay
// bitmap in either basic or glass mode.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"
	"unicode"
	"unicode/utf8"

	_ "image/jpeg"
	_ "image/png"

	"github.com/cenkalti/dominantcolor"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"go.uber.org/zap"

	"github.com/overplay-app/overplay/internal/template"
)

// Mode selects the overlay's visual treatment.
type Mode int

const (
	// ModeBasic paints an opaque flat box.
	ModeBasic Mode = iota
	// ModeGlass paints a translucent rounded panel with a soft glow border.
	ModeGlass
)

// Style holds the configurable appearance of the painted overlay.
type Style struct {
	FontSize     float64
	TextColor    color.RGBA
	Background   color.RGBA
	MaxWidth     int
	LineSpacing  int
	InsideMargin int
	GlowSize     int
	Mode         Mode
}

// DefaultStyle returns the out-of-the-box overlay appearance.
func DefaultStyle() Style {
	return Style{
		FontSize:     15,
		TextColor:    color.RGBA{240, 240, 240, 255},
		Background:   color.RGBA{25, 25, 25, 230},
		MaxWidth:     400,
		LineSpacing:  4,
		InsideMargin: 12,
		GlowSize:     8,
		Mode:         ModeBasic,
	}
}

const glassCornerRadius = 10

// Painter turns laid-out lines into a sized overlay bitmap. Font faces
// are built lazily per font size and reused across repaints.
type Painter struct {
	logger *zap.Logger
	ttf    *opentype.Font
	faces  map[float64]font.Face
}

// NewPainter creates a painter using the embedded Go Regular typeface.
func NewPainter(logger *zap.Logger) (*Painter, error) {
	ttf, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse overlay font: %w", err)
	}
	return &Painter{
		logger: logger,
		ttf:    ttf,
		faces:  make(map[float64]font.Face),
	}, nil
}

func (p *Painter) face(size float64) (font.Face, error) {
	if f, ok := p.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(p.ttf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	p.faces[size] = f
	return f, nil
}

// element is a single wrappable unit: a word or an inline image.
// spaceBefore records whether the source text had a break before it, so
// tight runs like "1:35/9:22" paint without an inserted gap.
type element struct {
	text        string
	img         image.Image
	width       int
	height      int
	spaceBefore bool
}

// paintLine is a post-wrap line with its computed box.
type paintLine struct {
	elements []element
	width    int
	height   int
}

// Paint lays the lines out against the style and returns a painted,
// sized bitmap. Returns nil when there is nothing to show.
func (p *Painter) Paint(lines []template.Line, style Style) (image.Image, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	face, err := p.face(style.FontSize)
	if err != nil {
		return nil, err
	}

	metrics := face.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Ceil()
	maxContent := style.MaxWidth - 2*style.InsideMargin
	if maxContent < 1 {
		maxContent = 1
	}

	var wrapped []paintLine
	for _, line := range lines {
		elems := elementsFor(line, face)
		if len(elems) == 0 {
			// Blank template line: keep its vertical footprint.
			wrapped = append(wrapped, paintLine{height: fontHeight})
			continue
		}
		for _, row := range wrapElements(elems, maxContent, spaceWidth(face)) {
			wrapped = append(wrapped, measureRow(row, fontHeight, spaceWidth(face)))
		}
	}

	width, height := surfaceSize(wrapped, style)
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	switch style.Mode {
	case ModeGlass:
		p.paintGlassBackground(canvas, style)
	default:
		draw.Draw(canvas, canvas.Bounds(), &image.Uniform{style.Background}, image.Point{}, draw.Src)
	}

	y := style.InsideMargin
	if style.Mode == ModeGlass {
		y += style.GlowSize
	}
	x0 := style.InsideMargin
	if style.Mode == ModeGlass {
		x0 += style.GlowSize
	}
	ascent := metrics.Ascent.Ceil()
	for _, row := range wrapped {
		p.paintRow(canvas, row, x0, y, ascent, fontHeight, face, style.TextColor)
		y += row.height + style.LineSpacing
	}

	return canvas, nil
}

// paintRow draws a wrapped row's elements left to right. Text sits on the
// font baseline; images are vertically centered within the row box.
func (p *Painter) paintRow(canvas *image.RGBA, row paintLine, x, y, ascent, fontHeight int, face font.Face, textColor color.RGBA) {
	space := spaceWidth(face)
	baseline := y + (row.height-fontHeight)/2 + ascent
	for i, el := range row.elements {
		if i > 0 && el.spaceBefore {
			x += space
		}
		if el.img != nil {
			top := y + (row.height-el.height)/2
			target := image.Rect(x, top, x+el.width, top+el.height)
			draw.Draw(canvas, target, el.img, el.img.Bounds().Min, draw.Over)
		} else {
			d := &font.Drawer{
				Dst:  canvas,
				Src:  image.NewUniform(textColor),
				Face: face,
				Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(baseline)},
			}
			d.DrawString(el.text)
		}
		x += el.width
	}
}

// paintGlassBackground paints the translucent rounded panel and glow.
func (p *Painter) paintGlassBackground(canvas *image.RGBA, style Style) {
	bounds := canvas.Bounds()
	glow := style.GlowSize
	bg := style.Background

	// Successive translucent rounded rects from the outside in; overlap
	// builds the soft falloff toward the panel edge.
	for i := glow; i > 0; i-- {
		inset := glow - i
		ring := image.Rect(bounds.Min.X+inset, bounds.Min.Y+inset, bounds.Max.X-inset, bounds.Max.Y-inset)
		alpha := uint8(int(bg.A) / (2 * glow))
		fillRoundedRect(canvas, ring, glassCornerRadius+i, color.RGBA{bg.R, bg.G, bg.B, alpha})
	}

	panel := image.Rect(bounds.Min.X+glow, bounds.Min.Y+glow, bounds.Max.X-glow, bounds.Max.Y-glow)
	fillRoundedRect(canvas, panel, glassCornerRadius, bg)
}

// fillRoundedRect fills a rectangle with rounded corners, compositing
// with draw.Over semantics.
func fillRoundedRect(img *image.RGBA, rect image.Rectangle, radius int, c color.RGBA) {
	if radius*2 > rect.Dx() {
		radius = rect.Dx() / 2
	}
	if radius*2 > rect.Dy() {
		radius = rect.Dy() / 2
	}
	src := image.NewUniform(c)
	// Center band.
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), src, image.Point{}, draw.Over)
	// Top and bottom bands between the corners.
	draw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Min.Y+radius), src, image.Point{}, draw.Over)
	draw.Draw(img, image.Rect(rect.Min.X+radius, rect.Max.Y-radius, rect.Max.X-radius, rect.Max.Y), src, image.Point{}, draw.Over)
	// Corners.
	corners := []image.Point{
		{rect.Min.X + radius, rect.Min.Y + radius},
		{rect.Max.X - radius - 1, rect.Min.Y + radius},
		{rect.Min.X + radius, rect.Max.Y - radius - 1},
		{rect.Max.X - radius - 1, rect.Max.Y - radius - 1},
	}
	for _, center := range corners {
		fillQuarter(img, center, rect, radius, c)
	}
}

func fillQuarter(img *image.RGBA, center image.Point, rect image.Rectangle, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			x, y := center.X+dx, center.Y+dy
			if image.Pt(x, y).In(rect) {
				blendPixel(img, x, y, c)
			}
		}
	}
}

func blendPixel(img *image.RGBA, x, y int, c color.RGBA) {
	draw.Draw(img, image.Rect(x, y, x+1, y+1), image.NewUniform(c), image.Point{}, draw.Over)
}

// elementsFor splits a line into wrappable words and inline images,
// preserving whether whitespace separated them in the source.
func elementsFor(line template.Line, face font.Face) []element {
	var elems []element
	pendingSpace := false
	add := func(el element) {
		el.spaceBefore = pendingSpace && len(elems) > 0
		elems = append(elems, el)
		pendingSpace = false
	}
	for _, seg := range line {
		switch seg.Kind {
		case template.SegmentImage:
			if seg.Image == nil {
				continue
			}
			b := seg.Image.Bounds()
			add(element{img: seg.Image, width: b.Dx(), height: b.Dy()})
		default:
			if seg.Text == "" {
				continue
			}
			if hasLeadingSpace(seg.Text) {
				pendingSpace = true
			}
			for i, word := range strings.Fields(seg.Text) {
				if i > 0 {
					pendingSpace = true
				}
				add(element{text: word, width: font.MeasureString(face, word).Ceil()})
			}
			if hasTrailingSpace(seg.Text) {
				pendingSpace = true
			}
		}
	}
	return elems
}

func hasLeadingSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}

func hasTrailingSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}

// wrapElements greedily packs elements into rows no wider than maxWidth.
// An element wider than maxWidth still gets its own row rather than being
// dropped.
func wrapElements(elems []element, maxWidth, space int) [][]element {
	var rows [][]element
	var row []element
	width := 0
	for _, el := range elems {
		needed := el.width
		if len(row) > 0 && el.spaceBefore {
			needed += space
		}
		if len(row) > 0 && width+needed > maxWidth {
			rows = append(rows, row)
			row = nil
			width = 0
			needed = el.width
		}
		row = append(row, el)
		width += needed
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func measureRow(row []element, fontHeight, space int) paintLine {
	width := 0
	height := fontHeight
	for i, el := range row {
		if i > 0 && el.spaceBefore {
			width += space
		}
		width += el.width
		if el.img != nil && el.height > height {
			height = el.height
		}
	}
	return paintLine{elements: row, width: width, height: height}
}

// surfaceSize computes the painted bitmap dimensions per the style's
// margins, spacing and width cap. Glass mode grows by the glow border.
func surfaceSize(rows []paintLine, style Style) (int, int) {
	maxLine := 0
	total := 0
	for i, row := range rows {
		if row.width > maxLine {
			maxLine = row.width
		}
		total += row.height
		if i > 0 {
			total += style.LineSpacing
		}
	}
	width := maxLine + 2*style.InsideMargin
	if width > style.MaxWidth {
		width = style.MaxWidth
	}
	height := total + 2*style.InsideMargin
	if style.Mode == ModeGlass {
		width += 2 * style.GlowSize
		height += 2 * style.GlowSize
	}
	return width, height
}

func spaceWidth(face font.Face) int {
	return font.MeasureString(face, " ").Ceil()
}

// DominantTint extracts the dominant color of encoded artwork bytes, for
// tinting the glass glow. Returns false when the bytes do not decode.
func DominantTint(artwork []byte) (color.RGBA, bool) {
	img, _, err := image.Decode(bytes.NewReader(artwork))
	if err != nil {
		return color.RGBA{}, false
	}
	return dominantcolor.Find(img), true
}
