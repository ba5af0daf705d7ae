// Package audio decodes the source track into the single in-memory PCM
// representation the analyzer and playback share: mono float64 at a fixed
// rate. WAV files decode natively; everything else goes through ffmpeg.
package audio

import (
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mjibson/go-dsp/wav"
)

// DecodeRate is the sample rate every track is resampled to.
const DecodeRate = 44100

// Track is a fully decoded audio file. Samples are mono in [-1, 1].
type Track struct {
	Samples    []float64
	SampleRate int
	Path       string
	// Seed is an FNV-1a hash of the file contents, used to seed the
	// visual randomness so identical inputs render identical videos.
	Seed uint64
}

// Duration reports the track length in seconds.
func (t *Track) Duration() float64 {
	if t.Empty() {
		return 0
	}
	return float64(len(t.Samples)) / float64(t.SampleRate)
}

// Empty reports whether there is no usable audio. Safe on a nil track.
func (t *Track) Empty() bool {
	return t == nil || len(t.Samples) == 0 || t.SampleRate <= 0
}

// Load decodes an audio file into a Track. WAV files take the native path
// and fall back to ffmpeg if the native decoder rejects the encoding.
func Load(path string) (*Track, error) {
	var track *Track
	var err error

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		track, err = loadWAV(path)
		if err != nil {
			track, err = loadFFmpeg(path)
		}
	} else {
		track, err = loadFFmpeg(path)
	}
	if err != nil {
		return nil, err
	}

	track.Path = path
	track.Seed = contentHash(path)
	return track, nil
}

func loadWAV(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening wav: %w", err)
	}
	defer f.Close()

	decoder, err := wav.New(f)
	if err != nil {
		return nil, fmt.Errorf("reading wav header: %w", err)
	}

	floats, err := decoder.ReadFloats(decoder.Samples)
	if err != nil {
		return nil, fmt.Errorf("reading wav samples: %w", err)
	}

	samples := make([]float64, len(floats))
	for i, s := range floats {
		samples[i] = float64(s)
	}
	samples = downmix(samples, int(decoder.NumChannels))

	return &Track{Samples: samples, SampleRate: int(decoder.SampleRate)}, nil
}

// downmix averages interleaved channels into mono.
func downmix(samples []float64, channels int) []float64 {
	if channels <= 1 {
		return samples
	}
	mono := make([]float64, len(samples)/channels)
	for i := range mono {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

func contentHash(path string) uint64 {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	h := fnv.New64a()
	if _, err := io.Copy(h, f); err != nil {
		return 0
	}
	return h.Sum64()
}
