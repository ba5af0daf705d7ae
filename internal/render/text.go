package render

import (
	"github.com/adamenger/lyrvid/internal/config"
	"github.com/adamenger/lyrvid/internal/ease"
	"github.com/adamenger/lyrvid/internal/timeline"
)

// LineState is where a lyric line sits in its enter/active/exit life.
type LineState int

const (
	StateHidden LineState = iota
	StateEntering
	StateActive
	StateExiting
)

// TextParams are the visual parameters for drawing one lyric line on one
// frame. Computed fresh every frame; nothing here persists or drifts.
type TextParams struct {
	State   LineState
	Opacity float64
	Scale   float64
	OffsetY float64 // pixels added to the block center, positive is down
	Blur    float64 // softening radius in pixels, 0 is crisp
}

// TextParamsAt is the transition state machine as a pure function of time.
// Visibility windows come from the configured transition duration; the
// animation speed only changes how fast parameters ease inside a window,
// so where a line is drawn never depends on speed.
func TextParamsAt(now float64, line timeline.Line, cfg config.VisualSettings) TextParams {
	td := cfg.TransitionDuration
	if td <= 0 {
		td = 1e-6
	}
	speed := cfg.AnimationSpeed
	if speed < 0.1 {
		speed = 0.1
	}
	dur := td / speed

	switch {
	case now < line.StartTime || now >= line.EndTime+td:
		return TextParams{State: StateHidden}
	case now < line.StartTime+td:
		p := ease.Clamp01((now - line.StartTime) / dur)
		return enterParams(cfg.Animation, p, cfg.FontSize)
	case now < line.EndTime:
		return TextParams{State: StateActive, Opacity: 1, Scale: 1}
	default:
		p := ease.Clamp01((now - line.EndTime) / dur)
		return exitParams(cfg.Animation, p, cfg.FontSize)
	}
}

func enterParams(anim config.Animation, p, fontSize float64) TextParams {
	tp := TextParams{State: StateEntering, Scale: 1}
	switch anim {
	case config.AnimFade:
		e := ease.OutCubic(p)
		tp.Opacity = e
		tp.Blur = (1 - e) * 8
	case config.AnimSlideUp:
		e := ease.OutCubic(p)
		tp.Opacity = e
		tp.OffsetY = (1 - e) * fontSize * 0.8
		tp.Blur = (1 - e) * 6
	case config.AnimZoom:
		e := ease.OutCubic(p)
		tp.Opacity = e
		tp.Scale = 0.8 + 0.2*e
		tp.Blur = (1 - e) * 8
	case config.AnimBounce:
		tp.Opacity = ease.Clamp01(p * 3)
		tp.Scale = ease.OutBack(p)
	}
	return tp
}

func exitParams(anim config.Animation, p, fontSize float64) TextParams {
	tp := TextParams{State: StateExiting, Scale: 1}
	switch anim {
	case config.AnimFade:
		e := ease.InOutSine(p)
		tp.Opacity = 1 - e
		tp.Blur = e * 8
	case config.AnimSlideUp:
		e := ease.InOutSine(p)
		tp.Opacity = 1 - e
		tp.OffsetY = -e * fontSize * 0.8
		tp.Blur = e * 6
	case config.AnimZoom:
		e := ease.InOutSine(p)
		tp.Opacity = 1 - e
		tp.Scale = 1 + 0.3*e
		tp.Blur = e * 8
	case config.AnimBounce:
		tp.Opacity = 1 - p
		tp.Scale = 1 - 0.2*p
	}
	return tp
}
