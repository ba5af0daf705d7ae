package audio

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
)

// Info describes the audio stream ffprobe found.
type Info struct {
	Codec      string
	SampleRate int
	Channels   int
	Duration   float64
}

// CheckTools verifies ffmpeg and ffprobe are on PATH. Called once at
// startup so decode failures later are real decode failures.
func CheckTools() error {
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%s not found in PATH: %w", tool, err)
		}
	}
	return nil
}

// Probe asks ffprobe about the first audio stream of a file.
func Probe(path string) (*Info, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-select_streams", "a:0",
		path,
	}

	out, err := exec.Command("ffprobe", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbe(out)
}

func parseProbe(data []byte) (*Info, error) {
	var probe struct {
		Streams []struct {
			CodecName  string `json:"codec_name"`
			CodecType  string `json:"codec_type"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio stream found")
	}

	s := probe.Streams[0]
	info := &Info{Codec: s.CodecName, Channels: s.Channels}
	if s.SampleRate != "" {
		rate, err := strconv.Atoi(s.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("bad sample rate %q: %w", s.SampleRate, err)
		}
		info.SampleRate = rate
	}
	if probe.Format.Duration != "" {
		d, err := strconv.ParseFloat(probe.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("bad duration %q: %w", probe.Format.Duration, err)
		}
		info.Duration = d
	}
	return info, nil
}

func loadFFmpeg(path string) (*Track, error) {
	if _, err := Probe(path); err != nil {
		return nil, err
	}

	cmd := exec.Command("ffmpeg", decodeArgs(path)...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w: %s", path, err, errBuf.String())
	}

	samples := bytesToFloat64(out.Bytes())
	if len(samples) == 0 {
		return nil, fmt.Errorf("ffmpeg decode %s: no samples produced", path)
	}
	return &Track{Samples: samples, SampleRate: DecodeRate}, nil
}

// decodeArgs builds the ffmpeg invocation that turns any input into mono
// float64 PCM on stdout.
func decodeArgs(path string) []string {
	return []string{
		"-i", path,
		"-f", "f64le",
		"-acodec", "pcm_f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(DecodeRate),
		"-loglevel", "error",
		"pipe:1",
	}
}

func bytesToFloat64(data []byte) []float64 {
	n := len(data) / 8
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}
	return samples
}
