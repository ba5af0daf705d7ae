package playback

import (
	"errors"
	"fmt"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/adamenger/lyrvid/internal/audio"
)

// Speaker plays the decoded track through the system output. It implements
// Transport: position and seeking are sample-accurate against the same PCM
// the analyzer reads, so what is heard matches what is drawn.
type Speaker struct {
	sr       beep.SampleRate
	streamer *trackStreamer
	ctrl     *beep.Ctrl
	duration float64
}

// NewSpeaker initializes the output device and starts the (paused) stream.
func NewSpeaker(track *audio.Track) (*Speaker, error) {
	if track.Empty() {
		return nil, errors.New("no audio to play")
	}

	sr := beep.SampleRate(track.SampleRate)
	if err := speaker.Init(sr, sr.N(time.Millisecond*100)); err != nil {
		return nil, fmt.Errorf("initializing speaker: %w", err)
	}

	s := &Speaker{
		sr:       sr,
		streamer: &trackStreamer{samples: track.Samples},
		duration: track.Duration(),
	}
	s.ctrl = &beep.Ctrl{Streamer: s.streamer, Paused: true}
	speaker.Play(s.ctrl)
	return s, nil
}

func (s *Speaker) Play() {
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
}

func (s *Speaker) Pause() {
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

func (s *Speaker) Playing() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return !s.ctrl.Paused
}

func (s *Speaker) Seek(t float64) {
	n := int(t * float64(s.sr))
	speaker.Lock()
	s.streamer.Seek(n)
	speaker.Unlock()
}

func (s *Speaker) Pos() float64 {
	speaker.Lock()
	defer speaker.Unlock()
	return float64(s.streamer.Position()) / float64(s.sr)
}

func (s *Speaker) Duration() float64 {
	return s.duration
}

// Close tears the speaker stream down.
func (s *Speaker) Close() {
	speaker.Clear()
}

// trackStreamer adapts the mono track to beep's stereo stream. It never
// reports drained: past the end it streams silence, so the mixer keeps it
// alive and seeking backward after the track ends still works.
type trackStreamer struct {
	samples []float64
	pos     int
}

func (ts *trackStreamer) Stream(out [][2]float64) (int, bool) {
	for i := range out {
		if ts.pos < len(ts.samples) {
			v := ts.samples[ts.pos]
			out[i][0] = v
			out[i][1] = v
			ts.pos++
		} else {
			out[i][0] = 0
			out[i][1] = 0
		}
	}
	return len(out), true
}

func (ts *trackStreamer) Err() error {
	return nil
}

func (ts *trackStreamer) Len() int {
	return len(ts.samples)
}

func (ts *trackStreamer) Position() int {
	return ts.pos
}

func (ts *trackStreamer) Seek(p int) error {
	if p < 0 {
		p = 0
	}
	if p > len(ts.samples) {
		p = len(ts.samples)
	}
	ts.pos = p
	return nil
}
