package audio

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"
)

func TestBytesToFloat64(t *testing.T) {
	want := []float64{0, 0.5, -0.25, 1.0}
	data := make([]byte, len(want)*8)
	for i, v := range want {
		binary.LittleEndian.PutUint64(data[i*8:], math.Float64bits(v))
	}

	got := bytesToFloat64(data)
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestBytesToFloat64Truncated(t *testing.T) {
	// Trailing partial sample is dropped, not read out of bounds.
	data := make([]byte, 8+3)
	binary.LittleEndian.PutUint64(data, math.Float64bits(0.75))

	got := bytesToFloat64(data)
	if len(got) != 1 {
		t.Fatalf("got %d samples, want 1", len(got))
	}
	if got[0] != 0.75 {
		t.Errorf("sample = %f, want 0.75", got[0])
	}
}

func TestDownmix(t *testing.T) {
	stereo := []float64{1, 0, 0.5, 0.5, -1, 1}
	mono := downmix(stereo, 2)

	want := []float64{0.5, 0.5, 0}
	if len(mono) != len(want) {
		t.Fatalf("got %d samples, want %d", len(mono), len(want))
	}
	for i := range want {
		if mono[i] != want[i] {
			t.Errorf("sample %d = %f, want %f", i, mono[i], want[i])
		}
	}

	// Mono input passes through untouched.
	in := []float64{0.1, 0.2}
	if out := downmix(in, 1); &out[0] != &in[0] {
		t.Error("mono downmix copied the slice")
	}
}

func TestTrackDuration(t *testing.T) {
	track := &Track{Samples: make([]float64, DecodeRate*3), SampleRate: DecodeRate}
	if d := track.Duration(); math.Abs(d-3.0) > 1e-9 {
		t.Errorf("Duration = %f, want 3.0", d)
	}
}

func TestTrackEmpty(t *testing.T) {
	var nilTrack *Track
	if !nilTrack.Empty() {
		t.Error("nil track should be empty")
	}
	if !(&Track{}).Empty() {
		t.Error("zero track should be empty")
	}
	track := &Track{Samples: []float64{0}, SampleRate: DecodeRate}
	if track.Empty() {
		t.Error("populated track should not be empty")
	}
	if (&Track{}).Duration() != 0 {
		t.Error("empty track duration should be 0")
	}
}

func TestParseProbe(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"codec_name": "mp3", "codec_type": "audio", "sample_rate": "44100", "channels": 2}
		],
		"format": {"duration": "222.35"}
	}`)

	info, err := parseProbe(data)
	if err != nil {
		t.Fatalf("parseProbe: %v", err)
	}
	if info.Codec != "mp3" {
		t.Errorf("codec = %q", info.Codec)
	}
	if info.SampleRate != 44100 {
		t.Errorf("sample rate = %d", info.SampleRate)
	}
	if info.Channels != 2 {
		t.Errorf("channels = %d", info.Channels)
	}
	if math.Abs(info.Duration-222.35) > 1e-9 {
		t.Errorf("duration = %f", info.Duration)
	}
}

func TestParseProbeNoAudio(t *testing.T) {
	if _, err := parseProbe([]byte(`{"streams": [], "format": {}}`)); err == nil {
		t.Error("expected error for file with no audio stream")
	}
}

func TestDecodeArgs(t *testing.T) {
	joined := strings.Join(decodeArgs("song.mp3"), " ")

	for _, want := range []string{"-i song.mp3", "-f f64le", "-ac 1", "-ar 44100", "pipe:1"} {
		if !strings.Contains(joined, want) {
			t.Errorf("decode args missing %q in %q", want, joined)
		}
	}
}
