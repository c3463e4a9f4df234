package rating

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBucket_Boundaries(t *testing.T) {
	tests := []struct {
		name   string
		rating int
		bucket int
	}{
		{"zero rating has no stars", 0, 0},
		{"remainder 14 is a lone half star", 14, 1},
		{"remainder 15 rounds up to one full star", 15, 2},
		{"exactly one star", 20, 2},
		{"95 rounds up to five full stars", 95, 10},
		{"100 is five full stars without overflow", 100, 10},
		{"remainder 5 does not earn a half star", 25, 2},
		{"remainder 6 earns a half star", 26, 3},
		{"mid-band half star", 70, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.bucket, Bucket(tt.rating))
		})
	}
}

func TestBucket_ClampsOutOfRange(t *testing.T) {
	assert.Equal(t, Bucket(0), Bucket(-10))
	assert.Equal(t, Bucket(100), Bucket(250))
}

func TestBucket_NeverOverflows(t *testing.T) {
	for r := 0; r <= 100; r++ {
		b := Bucket(r)
		require.GreaterOrEqual(t, b, 0, "rating %d", r)
		require.Less(t, b, Buckets, "rating %d", r)
	}
}

func TestImage_MemoizesPerBucket(t *testing.T) {
	cache := NewCache(zap.NewNop(), 16, color.White)

	first := cache.Image(50)
	second := cache.Image(50)
	assert.Same(t, first, second, "same rating must return the cached image")

	// Different ratings in the same bucket share the composed image.
	assert.Same(t, cache.Image(47), cache.Image(54))

	// A different bucket gets its own image.
	assert.NotSame(t, cache.Image(50), cache.Image(100))
}

func TestImage_CanvasFitsFiveStars(t *testing.T) {
	cache := NewCache(zap.NewNop(), 20, color.White)

	img := cache.Image(100)
	bounds := img.Bounds()
	assert.Equal(t, 5*20, bounds.Dx())
	assert.Equal(t, 20, bounds.Dy())
}
