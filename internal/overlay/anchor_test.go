package overlay

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosition_Corners(t *testing.T) {
	screen := image.Rect(0, 0, 1920, 1080)
	size := image.Pt(300, 100)
	margin := 10

	tests := []struct {
		anchor Anchor
		want   image.Point
	}{
		{AnchorUpperLeft, image.Pt(10, 10)},
		{AnchorUpperRight, image.Pt(1920-300-10, 10)},
		{AnchorLowerLeft, image.Pt(10, 1080-100-10)},
		{AnchorLowerRight, image.Pt(1920-300-10, 1080-100-10)},
	}
	for _, tt := range tests {
		t.Run(tt.anchor.String(), func(t *testing.T) {
			got := Position(tt.anchor, screen, image.Rectangle{}, size, margin)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPosition_NearClockAvoidsBottomTaskbar(t *testing.T) {
	screen := image.Rect(0, 0, 1920, 1080)
	taskbar := image.Rect(0, 1040, 1920, 1080)
	size := image.Pt(300, 100)

	got := Position(AnchorNearClock, screen, taskbar, size, 10)
	assert.Equal(t, image.Pt(1920-300-10, 1040-100-10), got)
}

func TestPosition_NearClockWithSideTaskbar(t *testing.T) {
	screen := image.Rect(0, 0, 1920, 1080)
	taskbar := image.Rect(1860, 0, 1920, 1080)
	size := image.Pt(300, 100)

	got := Position(AnchorNearClock, screen, taskbar, size, 10)
	assert.Equal(t, image.Pt(1860-300-10, 1080-100-10), got)
}

func TestPosition_NearClockWithoutTaskbarIsLowerRight(t *testing.T) {
	screen := image.Rect(0, 0, 800, 600)
	size := image.Pt(100, 50)

	nearClock := Position(AnchorNearClock, screen, image.Rectangle{}, size, 5)
	lowerRight := Position(AnchorLowerRight, screen, image.Rectangle{}, size, 5)
	assert.Equal(t, lowerRight, nearClock)
}

func TestParseAnchor_RoundTripAndFallback(t *testing.T) {
	for a, name := range anchorNames {
		assert.Equal(t, a, ParseAnchor(name))
	}
	assert.Equal(t, AnchorNearClock, ParseAnchor("bogus"))
}
