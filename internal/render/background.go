package render

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"os/exec"
	"sync/atomic"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/adamenger/lyrvid/internal/config"
	"github.com/adamenger/lyrvid/internal/encoder"
)

// Background draws the bottom layer of every frame. Priority: looping video
// when a frame is ready, else the static image, else a flat fill with the
// configured background color. Image and video frames are cover-scaled and
// dimmed behind a dark overlay so the text stays legible; the flat fill
// gets no overlay.
type Background struct {
	width, height int
	flat          config.HexColor
	image         *image.RGBA
	video         *videoSource
}

// newBackground builds the layer for the given surface size. It always
// returns a usable Background; when the configured image or video cannot be
// opened, the error comes back alongside the flat-fill fallback so the
// caller can warn and keep rendering.
func newBackground(cfg config.VisualSettings, width, height int, live bool) (*Background, error) {
	b := &Background{width: width, height: height, flat: cfg.BackgroundColor}

	if cfg.BackgroundVideo != "" {
		v, err := newVideoSource(cfg.BackgroundVideo, width, height, live)
		if err != nil {
			return b, fmt.Errorf("background video: %w", err)
		}
		b.video = v
		return b, nil
	}

	if cfg.BackgroundImage != "" {
		img, err := loadCoverImage(cfg.BackgroundImage, width, height)
		if err != nil {
			return b, fmt.Errorf("background image: %w", err)
		}
		b.image = img
	}
	return b, nil
}

// Draw paints the layer across the whole surface.
func (b *Background) Draw(dc *gg.Context) {
	if b.video != nil {
		if frame := b.video.frame(); frame != nil {
			dc.DrawImage(frame, 0, 0)
			b.overlay(dc)
			return
		}
	}
	if b.image != nil {
		dc.DrawImage(b.image, 0, 0)
		b.overlay(dc)
		return
	}
	dc.SetColor(b.flat)
	dc.Clear()
}

func (b *Background) overlay(dc *gg.Context) {
	dc.SetRGBA(0, 0, 0, 0.6)
	dc.DrawRectangle(0, 0, float64(b.width), float64(b.height))
	dc.Fill()
}

// Close stops the video subprocess, if any.
func (b *Background) Close() {
	if b.video != nil {
		b.video.close()
	}
}

func loadCoverImage(path string, width, height int) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return coverScale(src, width, height), nil
}

// coverScale fits src over a width x height frame: scaled up to fill,
// centered, overflow cropped.
func coverScale(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, coverRect(src.Bounds(), width, height), src, src.Bounds(), draw.Src, nil)
	return dst
}

// coverRect is the destination rectangle that covers the frame while
// preserving the source aspect ratio. It extends past the frame on the
// axis being cropped; the scaler clips it.
func coverRect(src image.Rectangle, width, height int) image.Rectangle {
	srcW := float64(src.Dx())
	srcH := float64(src.Dy())
	if srcW <= 0 || srcH <= 0 {
		return image.Rect(0, 0, width, height)
	}

	scale := math.Max(float64(width)/srcW, float64(height)/srcH)
	w := int(math.Round(srcW * scale))
	h := int(math.Round(srcH * scale))
	x := (width - w) / 2
	y := (height - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

// videoSource decodes a looping background video through ffmpeg into raw
// RGBA frames sized for the surface. In live mode a reader goroutine keeps
// publishing the newest frame and the render loop grabs whatever is there
// (never blocking, unready means nil); in pull mode the stream is resampled
// to the capture rate and each frame() call reads exactly one frame, so
// exports step through the video deterministically at 1x.
type videoSource struct {
	width, height int
	live          bool
	cmd           *exec.Cmd
	stdout        io.ReadCloser
	latest        atomic.Pointer[image.RGBA]
}

func newVideoSource(path string, width, height int, live bool) (*videoSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	cmd := exec.Command("ffmpeg", videoArgs(path, width, height, live)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}

	v := &videoSource{width: width, height: height, live: live, cmd: cmd, stdout: stdout}
	if live {
		go v.readLoop()
	}
	return v, nil
}

// videoArgs builds the decode invocation: loop forever, cover-scale and
// crop to the surface, raw RGBA on stdout. Live mode adds -re so frames
// arrive at the video's native pace instead of as fast as decode allows;
// pull mode instead resamples the stream to the capture rate, one decoded
// frame per capture tick, so the video plays at 1x in exports whatever its
// native rate.
func videoArgs(path string, width, height int, live bool) []string {
	var args []string
	if live {
		args = append(args, "-re")
	}
	vf := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", width, height, width, height)
	if !live {
		vf += fmt.Sprintf(",fps=%d", encoder.FrameRate)
	}
	return append(args,
		"-stream_loop", "-1",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-vf", vf,
		"-an",
		"-loglevel", "error",
		"pipe:1",
	)
}

func (v *videoSource) readLoop() {
	for {
		img := image.NewRGBA(image.Rect(0, 0, v.width, v.height))
		if _, err := io.ReadFull(v.stdout, img.Pix); err != nil {
			return
		}
		v.latest.Store(img)
	}
}

func (v *videoSource) frame() *image.RGBA {
	if v.live {
		return v.latest.Load()
	}
	img := image.NewRGBA(image.Rect(0, 0, v.width, v.height))
	if _, err := io.ReadFull(v.stdout, img.Pix); err != nil {
		return nil
	}
	return img
}

func (v *videoSource) close() {
	if v.cmd.Process != nil {
		v.cmd.Process.Kill()
	}
	v.stdout.Close()
	v.cmd.Wait()
}
