package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/adamenger/lyrvid/internal/encoder"
	"github.com/adamenger/lyrvid/internal/playback"
	"github.com/adamenger/lyrvid/internal/render"
)

const jpegQuality = 80

// Server drives the render loop at the capture rate and exposes the live
// surface as an MJPEG stream, with transport and recording controls
// alongside. It owns nothing: renderer, transport and recorder are wired
// in by the caller.
type Server struct {
	renderer    *render.Renderer
	transport   playback.Transport
	recorder    *encoder.Recorder
	broadcaster *Broadcaster
}

// NewServer wires the preview around an assembled renderer, transport and
// recorder.
func NewServer(r *render.Renderer, tr playback.Transport, rec *encoder.Recorder) *Server {
	return &Server{
		renderer:    r,
		transport:   tr,
		recorder:    rec,
		broadcaster: NewBroadcaster(),
	}
}

// Run serves until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	go s.renderLoop(ctx)

	srv := &http.Server{Addr: addr, Handler: s.routes()}
	go func() {
		<-ctx.Done()
		log.Println("shutting down...")
		srv.Close()
	}()

	log.Printf("preview live on http://localhost%s", addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	// Finalize a recording the user never stopped.
	if err := s.recorder.Stop(); err != nil {
		return err
	}
	return nil
}

// renderLoop paints the surface at the fixed frame rate and feeds both the
// recorder and the stream clients. With nobody watching and nothing
// recording it idles.
func (s *Server) renderLoop(ctx context.Context) {
	tick := time.NewTicker(time.Second / encoder.FrameRate)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}

		recording := s.recorder.State() == encoder.Recording
		if !recording && s.broadcaster.ListenerCount() == 0 {
			continue
		}

		pos := s.transport.Pos()
		img := s.renderer.RenderFrame(pos)

		if recording {
			s.recorder.SendFrame(img)
			if dur := s.transport.Duration(); dur > 0 && pos >= dur {
				if err := s.recorder.Stop(); err != nil {
					log.Printf("recording failed: %v", err)
				} else {
					log.Printf("recording finished: %s", s.recorder.Output())
				}
			}
		}

		if s.broadcaster.ListenerCount() > 0 {
			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
				log.Printf("jpeg encode: %v", err)
				continue
			}
			s.broadcaster.Publish(buf.Bytes())
		}
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, indexHTML)
	})

	mux.HandleFunc("/stream", s.handleStream)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/play", s.handlePlay)
	mux.HandleFunc("/pause", s.handlePause)
	mux.HandleFunc("/seek", s.handleSeek)
	mux.HandleFunc("/record/start", s.handleRecordStart)
	mux.HandleFunc("/record/stop", s.handleRecordStop)

	return mux
}

// handleStream serves the surface as multipart MJPEG. Each connected
// client is one broadcaster listener; frames it cannot keep up with are
// dropped upstream.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")

	l := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(l)

	log.Printf("stream client connected (total: %d)", s.broadcaster.ListenerCount())
	defer log.Printf("stream client disconnected")

	for {
		select {
		case <-r.Context().Done():
			return
		case <-l.done:
			return
		case frame := <-l.C:
			if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame)); err != nil {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			if _, err := io.WriteString(w, "\r\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(map[string]any{
		"time":      s.transport.Pos(),
		"duration":  s.transport.Duration(),
		"playing":   s.transport.Playing(),
		"recording": s.recorder.State() == encoder.Recording,
		"dropped":   s.recorder.Dropped(),
		"listeners": s.broadcaster.ListenerCount(),
		"output":    s.recorder.Output(),
	})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	s.transport.Play()
	writeOK(w, map[string]any{"playing": true})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	s.transport.Pause()
	writeOK(w, map[string]any{"playing": false})
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil {
		http.Error(w, "t must be seconds, e.g. /seek?t=12.5", http.StatusBadRequest)
		return
	}
	s.transport.Seek(t)
	writeOK(w, map[string]any{"time": s.transport.Pos()})
}

func (s *Server) handleRecordStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	width, height := s.renderer.Size()
	err := s.recorder.Start(width, height)
	switch {
	case errors.Is(err, encoder.ErrNoAudio):
		http.Error(w, "load an audio file before recording", http.StatusConflict)
		return
	case errors.Is(err, encoder.ErrRecording):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("recording to %s", s.recorder.Output())
	writeOK(w, map[string]any{"recording": true, "output": s.recorder.Output()})
}

func (s *Server) handleRecordStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	if err := s.recorder.Stop(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeOK(w, map[string]any{
		"recording": false,
		"output":    s.recorder.Output(),
		"dropped":   s.recorder.Dropped(),
	})
}

func writeOK(w http.ResponseWriter, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	body["ok"] = true
	json.NewEncoder(w).Encode(body)
}

const indexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>lyrvid preview</title>
<style>
  body { background: #0b1020; color: #e5e7eb; font-family: monospace; text-align: center; }
  img { max-width: 100%; border: 1px solid #333; margin-top: 1em; }
  button { background: #1f2937; color: #e5e7eb; border: 1px solid #4b5563; padding: 6px 14px; margin: 4px; cursor: pointer; }
  button:hover { background: #374151; }
</style>
</head>
<body>
<h3>lyrvid</h3>
<div>
  <button onclick="post('/play')">play</button>
  <button onclick="post('/pause')">pause</button>
  <button onclick="post('/seek?t=0')">rewind</button>
  <button onclick="post('/record/start')">record</button>
  <button onclick="post('/record/stop')">stop</button>
</div>
<img src="/stream" alt="preview">
<pre id="status"></pre>
<script>
  async function post(path) {
    const res = await fetch(path, { method: 'POST' });
    if (!res.ok) alert(await res.text());
  }
  setInterval(async () => {
    const res = await fetch('/status');
    document.getElementById('status').textContent = JSON.stringify(await res.json());
  }, 1000);
</script>
</body>
</html>
`
