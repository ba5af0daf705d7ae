package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/adamenger/lyrvid/internal/audio"
	"github.com/adamenger/lyrvid/internal/config"
	"github.com/adamenger/lyrvid/internal/encoder"
	"github.com/adamenger/lyrvid/internal/playback"
	"github.com/adamenger/lyrvid/internal/preview"
	"github.com/adamenger/lyrvid/internal/render"
	"github.com/adamenger/lyrvid/internal/timeline"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(os.Args[2:])
	case "preview":
		err = runPreview(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		colorLog(colorRed, err.Error())
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: lyrvid <export|preview> [flags]")
	fmt.Fprintln(os.Stderr, "  export   render the full timeline into an mp4")
	fmt.Fprintln(os.Stderr, "  preview  serve a live preview with transport and recording controls")
}

// session is everything both modes load before rendering: visual settings,
// the lyric timeline and the decoded audio track.
type session struct {
	cfg   config.VisualSettings
	lines []timeline.Line
	track *audio.Track
}

func loadSession(settingsPath, lyricsPath, audioPath string) (*session, error) {
	cfg := config.Defaults()
	if settingsPath != "" {
		loaded, err := config.Load(settingsPath)
		if err != nil {
			return nil, fmt.Errorf("loading settings: %w", err)
		}
		cfg = loaded
		colorLog(colorGreen, fmt.Sprintf("successfully read %s", settingsPath))
	}

	var lines []timeline.Line
	if lyricsPath != "" {
		var err error
		lines, err = timeline.Load(lyricsPath)
		if err != nil {
			return nil, fmt.Errorf("loading lyrics: %w", err)
		}
		colorLog(colorGreen, fmt.Sprintf("loaded %d lyric lines from %s", len(lines), lyricsPath))
	}

	track := &audio.Track{}
	if audioPath != "" {
		var err error
		track, err = audio.Load(audioPath)
		if err != nil {
			return nil, fmt.Errorf("loading audio: %w", err)
		}
		colorLog(colorGreen, fmt.Sprintf("successfully read %s (%.1fs)", audioPath, track.Duration()))
	}

	return &session{cfg: cfg, lines: lines, track: track}, nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	audioPath := fs.String("audio", "", "audio file to sync against (any format ffmpeg decodes)")
	lyricsPath := fs.String("lyrics", "", "lyric timeline, .json or .lrc")
	settingsPath := fs.String("settings", "", "visual settings json, defaults when omitted")
	outputFile := fs.String("output", encoder.DefaultOutput, "file to write output to")
	fs.Parse(args)

	if *audioPath == "" {
		return fmt.Errorf("export needs an audio file (-audio)")
	}
	if err := audio.CheckTools(); err != nil {
		return err
	}

	sess, err := loadSession(*settingsPath, *lyricsPath, *audioPath)
	if err != nil {
		return err
	}

	r, err := render.New(sess.cfg, sess.lines, sess.track, false)
	if err != nil {
		return err
	}
	defer r.Close()

	duration := sess.track.Duration()
	rec := encoder.New(sess.track, playback.NewClock(duration), *outputFile)

	width, height := r.Size()
	if err := rec.Start(width, height); err != nil {
		return err
	}

	// Every frame is timed off the frame index, not a wall clock, so the
	// same inputs always produce the same video.
	nFrames := int(math.Ceil(duration * encoder.FrameRate))
	colorLog(colorGreen, "rendering frames")
	progressBarWidth := 50
	for i := 0; i < nFrames; i++ {
		t := float64(i) / encoder.FrameRate
		img := r.RenderFrame(t)
		if err := rec.WriteFrame(img); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}

		progress := float64(i+1) / float64(nFrames)
		bar := int(progress * float64(progressBarWidth))

		fmt.Printf("\r[")
		for j := 0; j < bar; j++ {
			fmt.Printf("=")
		}
		for j := bar; j < progressBarWidth; j++ {
			fmt.Printf(" ")
		}
		fmt.Printf("] %3.0f%% (%d/%d)", progress*100, i+1, nFrames)
	}

	// new line once progress is finished
	fmt.Printf("\n")

	colorLog(colorGreen, "waiting for ffmpeg to finish")
	if err := rec.Stop(); err != nil {
		return err
	}

	colorLog(colorRed, fmt.Sprintf("your lyric video is ready!!: %s", *outputFile))
	return nil
}

func runPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	audioPath := fs.String("audio", "", "audio file, optional; the preview runs silent without one")
	lyricsPath := fs.String("lyrics", "", "lyric timeline, .json or .lrc")
	settingsPath := fs.String("settings", "", "visual settings json, defaults when omitted")
	outputFile := fs.String("output", encoder.DefaultOutput, "file recordings are written to")
	addr := fs.String("addr", ":8173", "listen address")
	fs.Parse(args)

	if err := audio.CheckTools(); err != nil {
		// The stream itself is pure Go; only decoding and recording
		// need ffmpeg.
		colorLog(colorYellow, fmt.Sprintf("%v: recording disabled until installed", err))
	}

	sess, err := loadSession(*settingsPath, *lyricsPath, *audioPath)
	if err != nil {
		return err
	}

	r, err := render.New(sess.cfg, sess.lines, sess.track, true)
	if err != nil {
		return err
	}
	defer r.Close()

	var transport playback.Transport
	if sess.track.Empty() {
		// No audio: run the clock over the lyric window so the
		// timeline can still be scrubbed.
		transport = playback.NewClock(timeline.End(sess.lines, sess.cfg.TransitionDuration) + 5)
	} else if sp, err := playback.NewSpeaker(sess.track); err != nil {
		colorLog(colorYellow, fmt.Sprintf("speaker unavailable, preview runs silent: %v", err))
		transport = playback.NewClock(sess.track.Duration())
	} else {
		defer sp.Close()
		transport = sp
	}

	rec := encoder.New(sess.track, transport, *outputFile)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return preview.NewServer(r, transport, rec).Run(ctx, *addr)
}
