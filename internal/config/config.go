// Package config defines the visual settings consumed by the renderer.
// Settings are produced externally (an editor, a JSON file) and handed to
// the engine as read-only snapshots; nothing here mutates after load.
package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
)

// Style selects the glow treatment applied to lyric text.
type Style int

const (
	StyleNeon Style = iota
	StyleMinimal
	StyleNature
	StyleFiery
)

var styleNames = map[Style]string{
	StyleNeon:    "neon",
	StyleMinimal: "minimal",
	StyleNature:  "nature",
	StyleFiery:   "fiery",
}

func (s Style) String() string { return styleNames[s] }

func (s Style) MarshalJSON() ([]byte, error) {
	name, ok := styleNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown style %d", int(s))
	}
	return json.Marshal(name)
}

func (s *Style) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for style, n := range styleNames {
		if n == name {
			*s = style
			return nil
		}
	}
	return fmt.Errorf("unknown style %q (want neon, minimal, nature or fiery)", name)
}

// Animation selects how lyric lines enter and exit.
type Animation int

const (
	AnimFade Animation = iota
	AnimSlideUp
	AnimZoom
	AnimBounce
)

var animationNames = map[Animation]string{
	AnimFade:    "fade",
	AnimSlideUp: "slideup",
	AnimZoom:    "zoom",
	AnimBounce:  "bounce",
}

func (a Animation) String() string { return animationNames[a] }

func (a Animation) MarshalJSON() ([]byte, error) {
	name, ok := animationNames[a]
	if !ok {
		return nil, fmt.Errorf("unknown animation %d", int(a))
	}
	return json.Marshal(name)
}

func (a *Animation) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for anim, n := range animationNames {
		if n == name {
			*a = anim
			return nil
		}
	}
	return fmt.Errorf("unknown animation %q (want fade, slideup, zoom or bounce)", name)
}

// HexColor is an RGB color carried as "#RRGGBB" in JSON.
type HexColor struct {
	color.RGBA
}

func RGB(r, g, b uint8) HexColor {
	return HexColor{color.RGBA{R: r, G: g, B: b, A: 255}}
}

func (c HexColor) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B))
}

func (c *HexColor) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseHex(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseHex parses "#RRGGBB" (leading # optional) into a color.
func ParseHex(s string) (HexColor, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return HexColor{}, fmt.Errorf("bad color %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return HexColor{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// VisualSettings is the per-frame rendering configuration. The renderer
// reads it every frame and never writes it; edits arrive as whole-value
// replacements between frames.
type VisualSettings struct {
	PrimaryColor    HexColor `json:"primaryColor"`
	SecondaryColor  HexColor `json:"secondaryColor"`
	BackgroundColor HexColor `json:"backgroundColor"`

	BackgroundImage string `json:"backgroundImage,omitempty"`
	BackgroundVideo string `json:"backgroundVideo,omitempty"`

	FontFile string  `json:"fontFile,omitempty"`
	FontSize float64 `json:"fontSize"`

	ParticleCount   int     `json:"particleCount"`
	BeatSensitivity float64 `json:"beatSensitivity"`

	Style     Style     `json:"style"`
	Animation Animation `json:"animation"`

	AnimationSpeed     float64 `json:"animationSpeed"`
	TransitionDuration float64 `json:"transitionDuration"`

	ShowTranslation bool `json:"showTranslation"`
}

// Defaults returns the settings used when no file is supplied. Absent JSON
// fields inherit these values because Load unmarshals on top of them.
func Defaults() VisualSettings {
	return VisualSettings{
		PrimaryColor:       RGB(0xA7, 0x8B, 0xFA),
		SecondaryColor:     RGB(0x22, 0xD3, 0xEE),
		BackgroundColor:    RGB(0x0B, 0x10, 0x20),
		FontSize:           64,
		ParticleCount:      60,
		BeatSensitivity:    1.0,
		Style:              StyleNeon,
		Animation:          AnimFade,
		AnimationSpeed:     1.0,
		TransitionDuration: 0.6,
		ShowTranslation:    true,
	}
}

// Load reads a settings JSON file over the defaults.
func Load(path string) (VisualSettings, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading settings: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing settings: %w", err)
	}
	return cfg, nil
}
