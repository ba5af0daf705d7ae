// Package render is the frame compositor: background, particles, frequency
// bars and transitioning lyric text, composed in a fixed order as a pure
// function of the playhead time.
package render

import (
	"image"
	"image/color"
	"log"
	"math"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/adamenger/lyrvid/internal/analyzer"
	"github.com/adamenger/lyrvid/internal/audio"
	"github.com/adamenger/lyrvid/internal/config"
	"github.com/adamenger/lyrvid/internal/particles"
	"github.com/adamenger/lyrvid/internal/timeline"
)

// The surface is a fixed 16:9 canvas.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720

	lineHeightFactor = 1.4
)

// Renderer owns the rendering surface state: the particle field, the
// background layer and the font faces. Everything else is recomputed per
// frame. One goroutine drives it; it is not safe for concurrent use.
type Renderer struct {
	width, height int
	live          bool

	cfg   config.VisualSettings
	lines []timeline.Line

	an    *analyzer.Analyzer
	field *particles.Field
	bg    *Background

	face      font.Face
	transFace font.Face
}

// New builds a renderer at the default surface size. The track may be nil:
// bars flatten, the beat factor pins at 1 and text still animates. live
// selects how background video frames are consumed (see videoSource).
func New(cfg config.VisualSettings, lines []timeline.Line, track *audio.Track, live bool) (*Renderer, error) {
	r := &Renderer{
		width:  DefaultWidth,
		height: DefaultHeight,
		live:   live,
		cfg:    cfg,
		lines:  lines,
		an:     analyzer.New(track),
	}

	var seed uint64
	if track != nil {
		seed = track.Seed
	}
	r.field = particles.NewField(cfg.ParticleCount, cfg.PrimaryColor.RGBA, cfg.SecondaryColor.RGBA, seed)

	if err := r.loadFaces(); err != nil {
		return nil, err
	}

	bg, err := newBackground(cfg, r.width, r.height, live)
	if err != nil {
		log.Printf("background unavailable, using flat fill: %v", err)
	}
	r.bg = bg
	return r, nil
}

func (r *Renderer) loadFaces() error {
	data := goregular.TTF
	if r.cfg.FontFile != "" {
		b, err := os.ReadFile(r.cfg.FontFile)
		if err != nil {
			return err
		}
		data = b
	}

	f, err := truetype.Parse(data)
	if err != nil {
		return err
	}

	size := r.cfg.FontSize
	if size <= 0 {
		size = 64
	}
	r.face = truetype.NewFace(f, &truetype.Options{Size: size})
	r.transFace = truetype.NewFace(f, &truetype.Options{Size: math.Max(14, size*0.5)})
	return nil
}

// Size reports the current surface dimensions.
func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// Analyzer exposes the audio analysis handle shared with the caller.
func (r *Renderer) Analyzer() *analyzer.Analyzer {
	return r.an
}

// Resize changes the surface size. The particle field is cleared wholesale
// (positions are absolute pixels) and the background caches are rebuilt.
// Callers must not resize while a recording is running.
func (r *Renderer) Resize(width, height int) {
	if width%2 != 0 {
		width++
	}
	if height%2 != 0 {
		height++
	}
	if width == r.width && height == r.height {
		return
	}

	r.width, r.height = width, height
	r.field.Clear()

	if r.bg != nil {
		r.bg.Close()
	}
	bg, err := newBackground(r.cfg, width, height, r.live)
	if err != nil {
		log.Printf("background unavailable after resize, using flat fill: %v", err)
	}
	r.bg = bg
}

// Close releases the background video subprocess, if any.
func (r *Renderer) Close() {
	if r.bg != nil {
		r.bg.Close()
	}
}

// RenderFrame composites the frame at playhead now (seconds): clear,
// background, particles, frequency bars, then every visible lyric line.
// It always returns a frame; per-layer anomalies degrade the picture, they
// never halt the loop.
func (r *Renderer) RenderFrame(now float64) *image.RGBA {
	dc := gg.NewContext(r.width, r.height)

	snap := r.an.Snapshot(now)
	beat := analyzer.BeatFactor(snap, r.cfg.BeatSensitivity)

	dc.SetRGB(0, 0, 0)
	dc.Clear()
	r.bg.Draw(dc)

	w := float64(r.width)
	h := float64(r.height)
	r.field.Spawn(w, h)
	r.field.Step(w, h, beat)
	r.field.Draw(dc)

	r.drawBars(dc, snap, beat)

	for _, line := range r.lines {
		params := TextParamsAt(now, line, r.cfg)
		if params.State == StateHidden {
			continue
		}
		r.drawLine(dc, line, params, beat)
	}

	return dc.Image().(*image.RGBA)
}

// drawBars renders one bar per frequency bin along the bottom edge, scaled
// by the beat factor and capped at a third of the frame height.
func (r *Renderer) drawBars(dc *gg.Context, snap []float64, beat float64) {
	if len(snap) == 0 {
		return
	}

	maxBar := float64(r.height) / 3
	barWidth := float64(r.width) / float64(len(snap))
	c := r.cfg.SecondaryColor
	dc.SetRGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, 0.4)

	for i, v := range snap {
		barHeight := v / 255 * beat * maxBar
		if barHeight > maxBar {
			barHeight = maxBar
		}
		if barHeight <= 0 {
			continue
		}
		x := float64(i) * barWidth
		dc.DrawRectangle(x, float64(r.height)-barHeight, barWidth, barHeight)
		dc.Fill()
	}
}

func (r *Renderer) drawLine(dc *gg.Context, line timeline.Line, p TextParams, beat float64) {
	if p.Opacity <= 0 {
		return
	}

	textLines := strings.Split(line.Text, "\n")
	fontSize := r.cfg.FontSize
	lineHeight := fontSize * lineHeightFactor
	blockHeight := lineHeight * float64(len(textLines))
	cx := float64(r.width) / 2
	cy := float64(r.height)/2 + p.OffsetY

	if p.Scale != 1 {
		dc.Push()
		dc.ScaleAbout(p.Scale, p.Scale, cx, cy)
		defer dc.Pop()
	}

	dc.SetFontFace(r.face)

	if glowColor, glowRadius := r.glowStyle(beat); glowRadius > 0 {
		r.drawBlockRing(dc, textLines, cx, cy, lineHeight, glowColor, 0.07*p.Opacity, glowRadius, 12)
		r.drawBlockRing(dc, textLines, cx, cy, lineHeight, glowColor, 0.10*p.Opacity, glowRadius/2, 8)
	}

	fill := r.cfg.PrimaryColor.RGBA
	if p.Blur > 0.5 {
		// Soft pass: a few low-alpha copies spread over the blur radius
		// read as out-of-focus glyphs.
		r.drawBlockRing(dc, textLines, cx, cy, lineHeight, fill, 0.35*p.Opacity, p.Blur*0.6, 4)
	} else {
		stroke := color.RGBA{A: 255}
		r.drawBlockRing(dc, textLines, cx, cy, lineHeight, stroke, 0.9*p.Opacity, 2, 8)
		r.drawBlock(dc, textLines, cx, cy, lineHeight, fill, p.Opacity)
	}

	if r.cfg.ShowTranslation && line.Translation != "" {
		dc.SetFontFace(r.transFace)
		transLines := strings.Split(line.Translation, "\n")
		transHeight := math.Max(14, fontSize*0.5) * lineHeightFactor
		transY := cy + blockHeight/2 + fontSize*0.9
		white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
		r.drawBlock(dc, transLines, cx, transY, transHeight, white, p.Opacity)
	}
}

// glowStyle maps the configured style to a glow color and radius. Neon and
// fiery glows swell with the beat; nature keeps a quiet fixed shadow.
func (r *Renderer) glowStyle(beat float64) (color.RGBA, float64) {
	switch r.cfg.Style {
	case config.StyleNeon:
		return r.cfg.PrimaryColor.RGBA, 10 * beat
	case config.StyleFiery:
		return color.RGBA{R: 255, G: 80, A: 255}, 12 * beat
	case config.StyleMinimal:
		return color.RGBA{}, 0
	case config.StyleNature:
		return color.RGBA{A: 255}, 4
	default:
		return color.RGBA{A: 255}, 4
	}
}

// drawBlockRing draws the text block at steps points around a circle of
// the given radius. Layered rings stand in for shadow blur, which gg does
// not provide.
func (r *Renderer) drawBlockRing(dc *gg.Context, lines []string, cx, cy, lineHeight float64, col color.RGBA, alpha, radius float64, steps int) {
	for k := 0; k < steps; k++ {
		angle := 2 * math.Pi * float64(k) / float64(steps)
		ox := math.Cos(angle) * radius
		oy := math.Sin(angle) * radius
		r.drawBlock(dc, lines, cx+ox, cy+oy, lineHeight, col, alpha)
	}
}

// drawBlock draws a vertically centered block of text lines at (cx, cy).
func (r *Renderer) drawBlock(dc *gg.Context, lines []string, cx, cy, lineHeight float64, col color.RGBA, alpha float64) {
	dc.SetRGBA(float64(col.R)/255, float64(col.G)/255, float64(col.B)/255, alpha)
	top := cy - lineHeight*float64(len(lines))/2 + lineHeight/2
	for i, s := range lines {
		dc.DrawStringAnchored(s, cx, top+lineHeight*float64(i), 0.5, 0.5)
	}
}
