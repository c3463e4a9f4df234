// Package rating composes star-rating images from a 0-100 rating value.
package rating

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"go.uber.org/zap"
)

// Star glyphs as inline SVG. The half glyph is the left half of the full
// star so it reads as a partial fill when drawn after the full stars.
const (
	fullStarSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" fill="currentColor"><polygon points="12 2 15.09 8.26 22 9.27 17 14.14 18.18 21.02 12 17.77 5.82 21.02 7 14.14 2 9.27 8.91 8.26"/></svg>`
	halfStarSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" fill="currentColor"><polygon points="12 2 8.91 8.26 2 9.27 7 14.14 5.82 21.02 12 17.77"/></svg>`
)

// DefaultStarSize is the rendered height/width of a single full star glyph.
const DefaultStarSize = 16

// Buckets is the number of discrete rating levels (0-5 stars in half steps).
const Buckets = 11

// Cache memoizes composed star-rating images keyed by rating bucket.
// The two glyph rasters are built once at construction; composed images
// are built on demand and never evicted (the key space is 11 entries).
type Cache struct {
	logger   *zap.Logger
	starSize int
	halfSize int
	full     image.Image
	half     image.Image
	images   [Buckets]image.Image
}

// NewCache builds a rating image cache rendering stars of the given pixel
// size in the given color.
func NewCache(logger *zap.Logger, starSize int, starColor color.Color) *Cache {
	if starSize <= 0 {
		starSize = DefaultStarSize
	}
	// The half glyph renders slightly smaller and is vertically centered
	// against the full star when composed.
	halfSize := starSize * 3 / 4
	return &Cache{
		logger:   logger,
		starSize: starSize,
		halfSize: halfSize,
		full:     rasterizeGlyph(logger, fullStarSVG, starSize, starColor),
		half:     rasterizeGlyph(logger, halfStarSVG, halfSize, starColor),
	}
}

// Bucket maps a 0-100 rating onto one of the 11 discrete star levels.
// Values outside the range are clamped. A remainder of 15 or more within
// a 20-point band rounds up to the next whole star; remainders strictly
// between 5 and 15 produce a half star.
func Bucket(rating int) int {
	rating = clamp(rating, 0, 100)
	stars := rating / 20
	remainder := rating % 20
	hasHalf := false
	if remainder >= 15 {
		stars++
	} else if remainder > 5 {
		hasHalf = true
	}
	id := 2 * stars
	if hasHalf {
		id++
	}
	return id
}

// Image returns the composed star image for the given 0-100 rating.
// Repeated calls with ratings in the same bucket return the identical
// cached image.
func (c *Cache) Image(rating int) image.Image {
	id := Bucket(rating)
	if img := c.images[id]; img != nil {
		return img
	}
	img := c.compose(id)
	c.images[id] = img
	return img
}

// StarSize returns the pixel size of a single star glyph.
func (c *Cache) StarSize() int {
	return c.starSize
}

// compose draws the full and half star glyphs for a bucket onto a canvas
// wide enough for five stars.
func (c *Cache) compose(bucket int) image.Image {
	stars := bucket / 2
	hasHalf := bucket%2 == 1

	canvas := image.NewRGBA(image.Rect(0, 0, 5*c.starSize, c.starSize))
	x := 0
	for i := 0; i < stars; i++ {
		target := image.Rect(x, 0, x+c.starSize, c.starSize)
		draw.Draw(canvas, target, c.full, image.Point{}, draw.Over)
		x += c.starSize
	}
	if hasHalf {
		// Center the smaller half glyph against the full star height.
		yOff := (c.starSize - c.halfSize) / 2
		target := image.Rect(x, yOff, x+c.halfSize, yOff+c.halfSize)
		draw.Draw(canvas, target, c.half, image.Point{}, draw.Over)
	}
	return canvas
}

// rasterizeGlyph renders an SVG glyph string to an RGBA image of the given
// size, substituting currentColor with the requested color.
func rasterizeGlyph(logger *zap.Logger, svgContent string, size int, col color.Color) image.Image {
	r, g, b, _ := col.RGBA()
	hexColor := fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
	svgContent = strings.ReplaceAll(svgContent, "currentColor", hexColor)

	icon, err := oksvg.ReadIconStream(strings.NewReader(svgContent))
	if err != nil {
		logger.Warn("Failed to parse star glyph SVG", zap.Error(err))
		return image.NewRGBA(image.Rect(0, 0, size, size))
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.Transparent}, image.Point{}, draw.Src)

	icon.SetTarget(0, 0, float64(size), float64(size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	return img
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
