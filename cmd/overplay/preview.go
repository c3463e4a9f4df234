package main

import (
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/overplay-app/overplay/internal/config"
	"github.com/overplay-app/overplay/internal/rating"
	"github.com/overplay-app/overplay/internal/render"
	"github.com/overplay-app/overplay/internal/template"
	"github.com/overplay-app/overplay/internal/track"
)

var previewOut string

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render the overlay for a sample track to a PNG file",
	RunE:  runPreview,
}

func init() {
	previewCmd.Flags().StringVarP(&previewOut, "out", "o", "overlay.png", "output PNG path")
}

func runPreview(cmd *cobra.Command, args []string) error {
	logger := zap.NewNop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	snap := track.Snapshot{
		Name:     "So What",
		Artist:   "Miles Davis",
		Album:    "Kind of Blue",
		Rating:   90,
		Position: 2*time.Minute + 14*time.Second,
		Length:   9*time.Minute + 22*time.Second,
		State:    track.Playing,
	}

	style := cfg.RenderStyle()
	stars := rating.NewCache(logger, cfg.Style.StarSize, style.TextColor)
	renderer := template.NewRenderer(logger, stars, cfg.Style.ArtworkSize)
	lines := renderer.Render(template.Parse(cfg.Template), snap)

	painter, err := render.NewPainter(logger)
	if err != nil {
		return err
	}
	img, err := painter.Paint(lines, style)
	if err != nil {
		return err
	}
	if img == nil {
		return fmt.Errorf("template %q renders nothing", cfg.Template)
	}

	f, err := os.Create(previewOut)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return err
	}

	fmt.Printf("Preview written to %s (%dx%d)\n",
		previewOut, img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}
