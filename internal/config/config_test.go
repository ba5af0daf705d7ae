package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.FontSize != 64 {
		t.Errorf("FontSize = %f, want 64", cfg.FontSize)
	}
	if cfg.ParticleCount != 60 {
		t.Errorf("ParticleCount = %d, want 60", cfg.ParticleCount)
	}
	if cfg.TransitionDuration != 0.6 {
		t.Errorf("TransitionDuration = %f, want 0.6", cfg.TransitionDuration)
	}
	if !cfg.ShowTranslation {
		t.Error("ShowTranslation should default to true")
	}
	if cfg.Style != StyleNeon || cfg.Animation != AnimFade {
		t.Errorf("style/animation defaults = %s/%s", cfg.Style, cfg.Animation)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	content := `{
		"primaryColor": "#FF0000",
		"style": "fiery",
		"animation": "bounce",
		"particleCount": 10
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PrimaryColor.R != 255 || cfg.PrimaryColor.G != 0 || cfg.PrimaryColor.B != 0 {
		t.Errorf("primary = %v", cfg.PrimaryColor)
	}
	if cfg.Style != StyleFiery {
		t.Errorf("style = %s, want fiery", cfg.Style)
	}
	if cfg.Animation != AnimBounce {
		t.Errorf("animation = %s, want bounce", cfg.Animation)
	}
	if cfg.ParticleCount != 10 {
		t.Errorf("particleCount = %d, want 10", cfg.ParticleCount)
	}

	// Untouched fields keep their defaults.
	if cfg.FontSize != 64 {
		t.Errorf("FontSize = %f, want default 64", cfg.FontSize)
	}
	if !cfg.ShowTranslation {
		t.Error("ShowTranslation lost its default")
	}
}

func TestUnknownStyleRejected(t *testing.T) {
	var s Style
	if err := json.Unmarshal([]byte(`"vaporwave"`), &s); err == nil {
		t.Error("expected error for unknown style")
	}

	var a Animation
	if err := json.Unmarshal([]byte(`"wobble"`), &a); err == nil {
		t.Error("expected error for unknown animation")
	}
}

func TestEnumRoundTrip(t *testing.T) {
	styles := []Style{StyleNeon, StyleMinimal, StyleNature, StyleFiery}
	for _, want := range styles {
		data, err := json.Marshal(want)
		if err != nil {
			t.Fatalf("marshal %s: %v", want, err)
		}
		var got Style
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if got != want {
			t.Errorf("round trip %s -> %s", want, got)
		}
	}

	anims := []Animation{AnimFade, AnimSlideUp, AnimZoom, AnimBounce}
	for _, want := range anims {
		data, err := json.Marshal(want)
		if err != nil {
			t.Fatalf("marshal %s: %v", want, err)
		}
		var got Animation
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if got != want {
			t.Errorf("round trip %s -> %s", want, got)
		}
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b uint8
		ok      bool
	}{
		{"#A78BFA", 0xA7, 0x8B, 0xFA, true},
		{"22d3ee", 0x22, 0xD3, 0xEE, true},
		{"#FFF", 0, 0, 0, false},
		{"#GGGGGG", 0, 0, 0, false},
		{"", 0, 0, 0, false},
	}

	for _, tt := range tests {
		c, err := ParseHex(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseHex(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if err != nil {
			continue
		}
		if c.R != tt.r || c.G != tt.g || c.B != tt.b {
			t.Errorf("ParseHex(%q) = %d,%d,%d", tt.in, c.R, c.G, c.B)
		}
		if c.A != 255 {
			t.Errorf("ParseHex(%q) alpha = %d, want 255", tt.in, c.A)
		}
	}
}
