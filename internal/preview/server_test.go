package preview

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adamenger/lyrvid/internal/audio"
	"github.com/adamenger/lyrvid/internal/config"
	"github.com/adamenger/lyrvid/internal/encoder"
	"github.com/adamenger/lyrvid/internal/playback"
	"github.com/adamenger/lyrvid/internal/render"
)

func newTestServer(t *testing.T, track *audio.Track) (*Server, *playback.Clock) {
	t.Helper()

	cfg := config.Defaults()
	cfg.Style = config.StyleMinimal
	cfg.ParticleCount = 0

	r, err := render.New(cfg, nil, track, false)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	t.Cleanup(func() { r.Close() })

	clock := playback.NewClock(30)
	rec := encoder.New(track, clock, "out.mp4")
	return NewServer(r, clock, rec), clock
}

func do(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	s.routes().ServeHTTP(w, req)
	return w
}

func TestStatusEndpoint(t *testing.T) {
	s, _ := newTestServer(t, &audio.Track{})

	w := do(t, s, http.MethodGet, "/status")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /status = %d, want 200", w.Code)
	}

	var got struct {
		Time      float64 `json:"time"`
		Duration  float64 `json:"duration"`
		Playing   bool    `json:"playing"`
		Recording bool    `json:"recording"`
		Dropped   uint64  `json:"dropped"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if got.Playing || got.Recording {
		t.Errorf("fresh server: playing=%v recording=%v, want both false", got.Playing, got.Recording)
	}
	if got.Duration != 30 {
		t.Errorf("duration = %v, want 30", got.Duration)
	}
	if got.Time != 0 {
		t.Errorf("time = %v, want 0", got.Time)
	}
}

func TestPlayPauseEndpoints(t *testing.T) {
	s, clock := newTestServer(t, &audio.Track{})

	if w := do(t, s, http.MethodPost, "/play"); w.Code != http.StatusOK {
		t.Fatalf("POST /play = %d, want 200", w.Code)
	}
	if !clock.Playing() {
		t.Fatal("transport not playing after POST /play")
	}

	if w := do(t, s, http.MethodPost, "/pause"); w.Code != http.StatusOK {
		t.Fatalf("POST /pause = %d, want 200", w.Code)
	}
	if clock.Playing() {
		t.Fatal("transport still playing after POST /pause")
	}

	if w := do(t, s, http.MethodGet, "/play"); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /play = %d, want 405", w.Code)
	}
}

func TestSeekEndpoint(t *testing.T) {
	s, clock := newTestServer(t, &audio.Track{})

	if w := do(t, s, http.MethodPost, "/seek?t=12.5"); w.Code != http.StatusOK {
		t.Fatalf("POST /seek?t=12.5 = %d, want 200", w.Code)
	}
	if pos := clock.Pos(); math.Abs(pos-12.5) > 1e-9 {
		t.Fatalf("transport at %v after seek, want 12.5", pos)
	}

	if w := do(t, s, http.MethodPost, "/seek?t=nonsense"); w.Code != http.StatusBadRequest {
		t.Fatalf("POST /seek?t=nonsense = %d, want 400", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/seek"); w.Code != http.StatusBadRequest {
		t.Fatalf("POST /seek without t = %d, want 400", w.Code)
	}
}

func TestRecordStartWithoutAudio(t *testing.T) {
	s, _ := newTestServer(t, &audio.Track{})

	w := do(t, s, http.MethodPost, "/record/start")
	if w.Code != http.StatusConflict {
		t.Fatalf("POST /record/start without audio = %d, want 409", w.Code)
	}
	if !strings.Contains(w.Body.String(), "audio") {
		t.Fatalf("error %q does not tell the user to load audio", w.Body.String())
	}
	if s.recorder.State() != encoder.Idle {
		t.Fatalf("recorder state = %v, want Idle", s.recorder.State())
	}
}

func TestRecordStopWhileIdle(t *testing.T) {
	s, _ := newTestServer(t, &audio.Track{})

	w := do(t, s, http.MethodPost, "/record/stop")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /record/stop while idle = %d, want 200", w.Code)
	}
}

func TestIndexPage(t *testing.T) {
	s, _ := newTestServer(t, &audio.Track{})

	w := do(t, s, http.MethodGet, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("GET / = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(w.Body.String(), "/stream") {
		t.Fatal("index page does not reference the stream")
	}

	if w := do(t, s, http.MethodGet, "/nope"); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope = %d, want 404", w.Code)
	}
}
