// Package encoder is the capture pipeline: it freezes the surface size,
// streams raw frames into ffmpeg alongside the original audio file and
// finalizes a single H.264/AAC video. Idle -> Recording -> Idle, nothing
// else.
package encoder

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/adamenger/lyrvid/internal/audio"
	"github.com/adamenger/lyrvid/internal/playback"
)

var (
	// ErrNoAudio means recording was requested with no audio attached.
	// Callers show it to the user; the pipeline stays Idle.
	ErrNoAudio = errors.New("no audio source attached")
	// ErrRecording rejects a second Start while one is running.
	ErrRecording = errors.New("recording already in progress")
)

const (
	// FrameRate is the fixed capture rate.
	FrameRate = 60
	// DefaultOutput is the fixed base filename for finished videos.
	DefaultOutput = "lyric-video.mp4"

	videoBitrate   = "8M"
	frameQueueSize = 120
)

// State is the pipeline's lifecycle position.
type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// newEncoder starts the encoding subprocess and hands back its stdin and a
// wait function. A variable so tests swap in an in-memory encoder.
var newEncoder = startFFmpeg

func startFFmpeg(args []string) (io.WriteCloser, func() error, error) {
	cmd := exec.Command("ffmpeg", args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	return stdin, cmd.Wait, nil
}

// Recorder owns the capture state machine. The render loop feeds it frames
// as a side channel of whatever it draws; the recorder never renders.
type Recorder struct {
	mu        sync.Mutex
	state     State
	track     *audio.Track
	transport playback.Transport
	output    string

	width, height int
	frames        chan *image.RGBA
	stop          chan struct{}
	done          chan struct{}
	encErr        error

	dropped atomic.Uint64
	written atomic.Uint64
}

// New wires a recorder to its audio source and transport. The track may be
// empty; Start then refuses with ErrNoAudio. An empty output name falls
// back to the fixed default.
func New(track *audio.Track, transport playback.Transport, output string) *Recorder {
	if output == "" {
		output = DefaultOutput
	}
	return &Recorder{track: track, transport: transport, output: output}
}

// State reports where the pipeline is.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Output reports the file the recorder writes.
func (r *Recorder) Output() string {
	return r.output
}

// Dropped counts frames discarded because the encoder fell behind or a
// frame did not match the frozen dimensions.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Written counts frames handed to the encoder.
func (r *Recorder) Written() uint64 {
	return r.written.Load()
}

// Start freezes the capture dimensions, spawns the encoder, rewinds
// playback to zero and starts it. With no audio attached it returns
// ErrNoAudio and stays Idle; while Recording it returns ErrRecording.
func (r *Recorder) Start(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.track.Empty() {
		return ErrNoAudio
	}
	if r.state == Recording {
		return ErrRecording
	}

	if width%2 != 0 {
		width++
	}
	if height%2 != 0 {
		height++
	}

	stdin, wait, err := newEncoder(muxArgs(r.track.Path, r.output, width, height))
	if err != nil {
		return fmt.Errorf("starting encoder: %w", err)
	}

	r.width, r.height = width, height
	r.frames = make(chan *image.RGBA, frameQueueSize)
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	r.encErr = nil
	r.dropped.Store(0)
	r.written.Store(0)
	go r.writeLoop(stdin, wait)

	if r.transport != nil {
		r.transport.Seek(0)
		r.transport.Play()
	}
	r.state = Recording
	return nil
}

// muxArgs builds the ffmpeg invocation: the audio file as one input, raw
// RGBA frames on stdin as the other, joined into a single container.
func muxArgs(audioPath, output string, width, height int) []string {
	return []string{
		"-i", audioPath,
		"-thread_queue_size", "2048",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", fmt.Sprintf("%d", FrameRate),
		"-i", "-",
		"-c:v", "libx264",
		"-preset", "fast",
		"-b:v", videoBitrate,
		"-c:a", "aac",
		"-pix_fmt", "yuv420p",
		"-shortest",
		"-y", output,
	}
}

func (r *Recorder) writeLoop(stdin io.WriteCloser, wait func() error) {
	var failed error
	write := func(img *image.RGBA) {
		if failed != nil {
			return
		}
		if _, err := stdin.Write(img.Pix); err != nil {
			failed = err
			return
		}
		r.written.Add(1)
	}

loop:
	for {
		select {
		case img := <-r.frames:
			write(img)
		case <-r.stop:
			// Flush whatever the queue still holds, then finalize.
			for {
				select {
				case img := <-r.frames:
					write(img)
				default:
					break loop
				}
			}
		}
	}

	closeErr := stdin.Close()
	waitErr := wait()

	r.mu.Lock()
	switch {
	case failed != nil:
		r.encErr = failed
	case waitErr != nil:
		r.encErr = waitErr
	case closeErr != nil:
		r.encErr = closeErr
	}
	r.mu.Unlock()
	close(r.done)
}

// SendFrame offers a frame to the encoder without ever blocking the render
// loop. Frames are dropped silently when the queue is full, and frames
// whose size does not match the frozen capture dimensions are dropped so a
// resized preview cannot corrupt the stream.
func (r *Recorder) SendFrame(img *image.RGBA) {
	r.mu.Lock()
	if r.state != Recording {
		r.mu.Unlock()
		return
	}
	frames := r.frames
	width, height := r.width, r.height
	r.mu.Unlock()

	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		r.dropped.Add(1)
		return
	}

	select {
	case frames <- img:
	default:
		r.dropped.Add(1)
	}
}

// WriteFrame queues a frame and blocks until the encoder accepts it.
// Exports use it so no frame is ever dropped; the live render loop must
// use SendFrame instead.
func (r *Recorder) WriteFrame(img *image.RGBA) error {
	r.mu.Lock()
	if r.state != Recording {
		r.mu.Unlock()
		return fmt.Errorf("not recording")
	}
	frames := r.frames
	done := r.done
	width, height := r.width, r.height
	r.mu.Unlock()

	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("frame is %dx%d, capture is %dx%d", b.Dx(), b.Dy(), width, height)
	}

	select {
	case frames <- img:
		return nil
	case <-done:
		return fmt.Errorf("encoder stopped")
	}
}

// Stop finalizes the file with whatever has been captured (a partial
// recording is a valid file, not an error), pauses playback and returns to
// Idle. Stop while Idle is a no-op. An encoder failure mid-recording
// surfaces here.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if r.state != Recording {
		r.mu.Unlock()
		return nil
	}
	r.state = Idle
	stop := r.stop
	r.mu.Unlock()

	close(stop)
	<-r.done

	if r.transport != nil {
		r.transport.Pause()
	}

	if n := r.dropped.Load(); n > 0 {
		log.Printf("dropped %d frames while recording", n)
	}

	r.mu.Lock()
	err := r.encErr
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("finalizing %s: %w", r.output, err)
	}
	return nil
}
