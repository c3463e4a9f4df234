// Package config loads and persists the overlay configuration from a
// YAML file, with environment overrides for the file location.
package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/overplay-app/overplay/internal/dispatch"
	"github.com/overplay-app/overplay/internal/hotkey"
	"github.com/overplay-app/overplay/internal/overlay"
	"github.com/overplay-app/overplay/internal/render"
)

// Config holds the full application configuration.
type Config struct {
	// Player is the preferred MPRIS player name suffix; empty attaches
	// to the first player found.
	Player string `yaml:"player"`

	// Template is the display template string; placeholders in braces.
	Template string `yaml:"template"`

	Style    StyleConfig     `yaml:"style"`
	Timing   TimingConfig    `yaml:"timing"`
	Bindings []BindingConfig `yaml:"bindings"`
}

// StyleConfig holds the overlay appearance settings.
type StyleConfig struct {
	Mode       string  `yaml:"mode"` // "basic" or "glass"
	FontSize   float64 `yaml:"font_size"`
	TextColor  string  `yaml:"text_color"`
	Background string  `yaml:"background"`
	MaxWidth   int     `yaml:"max_width"`
	// Pointers so an explicit zero is distinguishable from an absent key.
	LineSpacing   *int   `yaml:"line_spacing,omitempty"`
	InsideMargin  *int   `yaml:"inside_margin,omitempty"`
	GlowSize      *int   `yaml:"glow_size,omitempty"`
	OutsideMargin int    `yaml:"outside_margin"`
	Anchor        string `yaml:"anchor"`
	StarSize      int    `yaml:"star_size"`
	ArtworkSize   int    `yaml:"artwork_size"`
}

// TimingConfig holds the fade lifecycle durations in milliseconds.
// FadeMs of zero shows and hides instantly.
type TimingConfig struct {
	FadeMs     int     `yaml:"fade_ms"`
	VisibleMs  int     `yaml:"visible_ms"`
	MaxOpacity float64 `yaml:"max_opacity"`
}

// BindingConfig binds one trigger to an ordered action list. Exactly one
// of On (a named event) or Keys (a chord string) is set.
type BindingConfig struct {
	On   string   `yaml:"on,omitempty"`
	Keys string   `yaml:"keys,omitempty"`
	Do   []string `yaml:"do"`
}

// Default returns the configuration used on first run.
func Default() *Config {
	return &Config{
		Template: "{name}\n{artist} - {album}\n{rating}",
		Style: StyleConfig{
			Mode:          "basic",
			FontSize:      15,
			TextColor:     "#f0f0f0",
			Background:    "#191919e6",
			MaxWidth:      400,
			LineSpacing:   intPtr(4),
			InsideMargin:  intPtr(12),
			OutsideMargin: 16,
			GlowSize:      intPtr(8),
			Anchor:        "near-clock",
			StarSize:      16,
			ArtworkSize:   96,
		},
		Timing: TimingConfig{
			FadeMs:     300,
			VisibleMs:  3000,
			MaxOpacity: 0.9,
		},
		Bindings: []BindingConfig{
			{On: "track-change", Do: []string{"show-overlay"}},
			{On: "play", Do: []string{"show-overlay"}},
			{On: "pause", Do: []string{"show-overlay"}},
			{On: "rating-change", Do: []string{"show-overlay"}},
			{On: "mute-change", Do: []string{"show-overlay"}},
		},
	}
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "overplay")
}

// DefaultConfigPath returns the config file path, honoring the
// OVERPLAY_CONFIG environment override.
func DefaultConfigPath() string {
	if p := os.Getenv("OVERPLAY_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Load reads the config file, falling back to defaults when it does not
// exist. A file that exists but does not parse is an error.
func Load() (*Config, error) {
	return LoadPath(DefaultConfigPath())
}

// LoadPath reads configuration from an explicit path.
func LoadPath(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// WriteConfigFile persists the config as YAML at the default path.
func WriteConfigFile(cfg *Config) error {
	return WriteConfigPath(cfg, DefaultConfigPath())
}

// WriteConfigPath persists the config as YAML at the given path.
func WriteConfigPath(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// RenderStyle converts the style section to the painter's style.
func (c *Config) RenderStyle() render.Style {
	style := render.DefaultStyle()
	if c.Style.Mode == "glass" {
		style.Mode = render.ModeGlass
	}
	if c.Style.FontSize > 0 {
		style.FontSize = c.Style.FontSize
	}
	if rgba, ok := parseHexColor(c.Style.TextColor); ok {
		style.TextColor = rgba
	}
	if rgba, ok := parseHexColor(c.Style.Background); ok {
		style.Background = rgba
	}
	if c.Style.MaxWidth > 0 {
		style.MaxWidth = c.Style.MaxWidth
	}
	if c.Style.LineSpacing != nil {
		style.LineSpacing = *c.Style.LineSpacing
	}
	if c.Style.InsideMargin != nil {
		style.InsideMargin = *c.Style.InsideMargin
	}
	if c.Style.GlowSize != nil {
		style.GlowSize = *c.Style.GlowSize
	}
	return style
}

func intPtr(v int) *int {
	return &v
}

// FadeTiming converts the timing section to the fader's timing.
func (c *Config) FadeTiming() overlay.Timing {
	return overlay.Timing{
		FadeIn:  time.Duration(c.Timing.FadeMs) * time.Millisecond,
		FadeOut: time.Duration(c.Timing.FadeMs) * time.Millisecond,
		Visible: time.Duration(c.Timing.VisibleMs) * time.Millisecond,
	}
}

// Anchor returns the configured screen anchor.
func (c *Config) Anchor() overlay.Anchor {
	return overlay.ParseAnchor(c.Style.Anchor)
}

// TableBinding is one resolved trigger/action-list pair.
type TableBinding struct {
	Trigger dispatch.Trigger
	Actions []dispatch.Action
}

// TableBindings converts the bindings section into dispatch table
// entries. Malformed entries are skipped and reported.
func (c *Config) TableBindings() ([]TableBinding, []error) {
	var out []TableBinding
	var errs []error
	for i, b := range c.Bindings {
		trigger, err := b.trigger()
		if err != nil {
			errs = append(errs, fmt.Errorf("binding %d: %w", i, err))
			continue
		}
		actions := make([]dispatch.Action, 0, len(b.Do))
		ok := true
		for _, name := range b.Do {
			action, found := dispatch.ParseAction(name)
			if !found {
				errs = append(errs, fmt.Errorf("binding %d: unknown action %q", i, name))
				ok = false
				break
			}
			actions = append(actions, action)
		}
		if !ok {
			continue
		}
		out = append(out, TableBinding{Trigger: trigger, Actions: actions})
	}
	return out, errs
}

func (b BindingConfig) trigger() (dispatch.Trigger, error) {
	switch {
	case b.Keys != "" && b.On != "":
		return dispatch.Trigger{}, fmt.Errorf("both 'on' and 'keys' set")
	case b.Keys != "":
		chord := hotkey.ParseChord(b.Keys)
		if chord.IsZero() {
			return dispatch.Trigger{}, fmt.Errorf("empty key chord")
		}
		return dispatch.ChordTrigger(chord), nil
	case b.On != "":
		event, ok := dispatch.ParseEvent(b.On)
		if !ok {
			return dispatch.Trigger{}, fmt.Errorf("unknown event %q", b.On)
		}
		return dispatch.EventTrigger(event), nil
	default:
		return dispatch.Trigger{}, fmt.Errorf("neither 'on' nor 'keys' set")
	}
}

// parseHexColor parses "#rrggbb" or "#rrggbbaa".
func parseHexColor(s string) (color.RGBA, bool) {
	if (len(s) != 7 && len(s) != 9) || s[0] != '#' {
		return color.RGBA{}, false
	}
	var r, g, b uint8
	a := uint8(255)
	var err error
	if len(s) == 9 {
		_, err = fmt.Sscanf(s, "#%02x%02x%02x%02x", &r, &g, &b, &a)
	} else {
		_, err = fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b)
	}
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{r, g, b, a}, true
}
