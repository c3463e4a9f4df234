// Package template parses display templates and expands them against a
// track snapshot into lines of text and inline image segments.
package template

import (
	"bytes"
	"fmt"
	"image"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/overplay-app/overplay/internal/rating"
	"github.com/overplay-app/overplay/internal/track"
)

// SegmentKind discriminates rendered segment content.
type SegmentKind int

const (
	// SegmentText is a run of literal text.
	SegmentText SegmentKind = iota
	// SegmentImage is an inline image (star rating or album art).
	SegmentImage
)

// Segment is one piece of a rendered line.
type Segment struct {
	Kind  SegmentKind
	Text  string
	Image image.Image
}

// Line is an ordered sequence of segments sharing one baseline.
type Line []Segment

// partKind discriminates parsed template parts before resolution.
type partKind int

const (
	partLiteral partKind = iota
	partPlaceholder
)

type part struct {
	kind partKind
	text string // literal text, or placeholder name without braces
}

// Template is a parsed display template: lines of literal and placeholder
// parts. Parse never fails; malformed placeholder syntax stays literal.
type Template struct {
	source string
	lines  [][]part
}

// Parse splits a template string into lines and placeholder parts.
// Placeholders are written {name}; an unclosed brace is kept as literal
// text.
func Parse(source string) *Template {
	t := &Template{source: source}
	if source == "" {
		return t
	}
	for _, raw := range strings.Split(source, "\n") {
		t.lines = append(t.lines, parseLine(raw))
	}
	return t
}

func parseLine(raw string) []part {
	var parts []part
	for len(raw) > 0 {
		open := strings.IndexByte(raw, '{')
		if open < 0 {
			parts = append(parts, part{kind: partLiteral, text: raw})
			break
		}
		end := strings.IndexByte(raw[open:], '}')
		if end < 0 {
			parts = append(parts, part{kind: partLiteral, text: raw})
			break
		}
		if open > 0 {
			parts = append(parts, part{kind: partLiteral, text: raw[:open]})
		}
		parts = append(parts, part{kind: partPlaceholder, text: raw[open+1 : open+end]})
		raw = raw[open+end+1:]
	}
	return parts
}

// Source returns the original template string.
func (t *Template) Source() string {
	return t.source
}

// Empty reports whether the template has no lines at all.
func (t *Template) Empty() bool {
	return len(t.lines) == 0
}

// textAccessors resolves text placeholders against a snapshot.
var textAccessors = map[string]func(track.Snapshot) string{
	"name":     func(s track.Snapshot) string { return s.Name },
	"artist":   func(s track.Snapshot) string { return s.Artist },
	"album":    func(s track.Snapshot) string { return s.Album },
	"state":    func(s track.Snapshot) string { return s.State.String() },
	"position": func(s track.Snapshot) string { return formatDuration(s.Position) },
	"duration": func(s track.Snapshot) string { return formatDuration(s.Length) },
}

// DefaultArtworkSize is the inline album art edge length in pixels.
const DefaultArtworkSize = 96

// Renderer expands templates against live snapshots. Star images come
// from the rating cache; album art is decoded and scaled per render.
type Renderer struct {
	logger      *zap.Logger
	ratings     *rating.Cache
	artworkSize int
}

// NewRenderer creates a template renderer backed by the given rating cache.
func NewRenderer(logger *zap.Logger, ratings *rating.Cache, artworkSize int) *Renderer {
	if artworkSize <= 0 {
		artworkSize = DefaultArtworkSize
	}
	return &Renderer{logger: logger, ratings: ratings, artworkSize: artworkSize}
}

// Render expands the template against the snapshot. Unknown placeholders
// are rendered as literal text with their braces intact. Empty lines are
// preserved; an empty template renders zero lines.
func (r *Renderer) Render(t *Template, snap track.Snapshot) []Line {
	if t == nil || t.Empty() {
		return nil
	}
	out := make([]Line, 0, len(t.lines))
	for _, parts := range t.lines {
		var line Line
		for _, p := range parts {
			line = append(line, r.resolve(p, snap))
		}
		out = append(out, line)
	}
	return out
}

func (r *Renderer) resolve(p part, snap track.Snapshot) Segment {
	if p.kind == partLiteral {
		return Segment{Kind: SegmentText, Text: p.text}
	}
	switch p.text {
	case "rating":
		return Segment{Kind: SegmentImage, Image: r.ratings.Image(snap.Rating)}
	case "artwork":
		if img := r.decodeArtwork(snap); img != nil {
			return Segment{Kind: SegmentImage, Image: img}
		}
		return Segment{Kind: SegmentText, Text: ""}
	default:
		if accessor, ok := textAccessors[p.text]; ok {
			return Segment{Kind: SegmentText, Text: accessor(snap)}
		}
		// Unknown placeholder: fail soft, keep it visible as typed.
		return Segment{Kind: SegmentText, Text: "{" + p.text + "}"}
	}
}

func (r *Renderer) decodeArtwork(snap track.Snapshot) image.Image {
	if !snap.HasArtwork() {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(snap.Artwork))
	if err != nil {
		r.logger.Debug("Failed to decode artwork", zap.Error(err))
		return nil
	}
	return imaging.Fill(img, r.artworkSize, r.artworkSize, imaging.Center, imaging.Lanczos)
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
