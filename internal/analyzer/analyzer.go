// Package analyzer turns the decoded track into per-frame frequency data:
// a fixed 128-bin magnitude snapshot on the 0..255 byte scale and a "beat
// factor" derived from the bass bins that drives particle motion and glow.
package analyzer

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"

	"github.com/adamenger/lyrvid/internal/audio"
)

const (
	// NumBins is the snapshot size. Fixed by the transform: fftSize/2.
	NumBins = 128
	fftSize = NumBins * 2

	// lowBins is the prefix of the snapshot treated as the bass region.
	lowBins = 10
)

// Analyzer computes frequency snapshots at arbitrary playhead positions.
// Snapshots are recomputed fresh per call from the PCM around the playhead,
// so paused and exported frames see exactly what live playback saw. Not
// safe for concurrent use; the render loop is its only caller.
type Analyzer struct {
	track  *audio.Track
	window []float64
	buf    []float64
}

// New wraps a track, which may be nil or empty; snapshots then come back
// all zero and the beat factor stays at 1.
func New(track *audio.Track) *Analyzer {
	return &Analyzer{
		track:  track,
		window: hannWindow(fftSize),
		buf:    make([]float64, fftSize),
	}
}

// Attached reports whether there is audio to analyze.
func (a *Analyzer) Attached() bool {
	return !a.track.Empty()
}

// Snapshot returns NumBins magnitudes in [0,255] for the window of samples
// ending at playhead t (seconds). Out-of-range positions return silence.
func (a *Analyzer) Snapshot(t float64) []float64 {
	snap := make([]float64, NumBins)
	if a.track.Empty() || t < 0 {
		return snap
	}

	end := int(t * float64(a.track.SampleRate))
	if end <= 0 || end-fftSize >= len(a.track.Samples) {
		return snap
	}

	start := end - fftSize
	for i := range a.buf {
		si := start + i
		if si >= 0 && si < len(a.track.Samples) {
			a.buf[i] = a.track.Samples[si] * a.window[i]
		} else {
			a.buf[i] = 0
		}
	}

	spectrum := fft.FFTReal(a.buf)
	for i := 0; i < NumBins; i++ {
		// A full-scale sine lands at N/4 after the Hann window, so this
		// scaling puts it at 1.0 before the log compression.
		mag := cmplx.Abs(spectrum[i]) / float64(fftSize) * 4
		snap[i] = compress(mag)
	}
	return snap
}

// compress maps a normalized magnitude onto the byte scale with a log
// curve, so quiet content stays visible next to loud content.
func compress(mag float64) float64 {
	v := math.Log10(mag*15+1) / math.Log10(16) * 255
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return v
}

// BeatFactor derives the motion multiplier from a snapshot:
// 1 + mean(low bins)/255 * sensitivity. Always >= 1; an empty snapshot or
// zero sensitivity yields exactly 1.
func BeatFactor(snap []float64, sensitivity float64) float64 {
	if len(snap) == 0 || sensitivity <= 0 {
		return 1.0
	}
	n := lowBins
	if n > len(snap) {
		n = len(snap)
	}
	mean := stat.Mean(snap[:n], nil)
	return 1 + mean/255*sensitivity
}

func hannWindow(size int) []float64 {
	w := make([]float64, size)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return w
}
