package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"growth_tools/video-editor/engine"
	"growth_tools/video-editor/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// placeholderRunner stands in for ffmpeg by creating every .mp4/.wav file
// named in its arguments.
type placeholderRunner struct {
	fail bool
}

func (r placeholderRunner) Run(_ context.Context, _ string, args ...string) error {
	if r.fail {
		return errors.New("ffmpeg exited with status 1")
	}
	for _, arg := range args {
		if strings.HasSuffix(arg, ".mp4") || strings.HasSuffix(arg, ".wav") {
			if _, err := os.Stat(arg); os.IsNotExist(err) {
				_ = os.WriteFile(arg, []byte("fake video"), 0644)
			}
		}
	}
	return nil
}

type fakeImages struct {
	prompts []string
	err     error
}

func (f *fakeImages) Generate(_ context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.prompts = append(f.prompts, prompt)
	return "https://cdn.example/" + prompt + ".jpg", nil
}

func (f *fakeImages) Download(_ context.Context, _ string, path string) error {
	return os.WriteFile(path, []byte("jpeg"), 0644)
}

func newTestDeps(t *testing.T, runner engine.Runner, images ImageGenerator) Deps {
	t.Helper()
	cfg := models.DefaultConfig()
	cfg.Settings.FPS = 10
	cfg.Mockup.Timing = models.Timing{TypingSeconds: 0.2, RevealSeconds: 0.3, PauseSeconds: 0.1}

	assembler := engine.NewAssembler(runner, "ffmpeg", cfg.Settings)
	return Deps{
		Images:     images,
		Mockups:    engine.NewGenerator(cfg, assembler),
		Slideshows: engine.NewSlideshowBuilder(cfg.Slideshow, assembler),
		OutputDir:  t.TempDir(),
		FFmpegPath: "ffmpeg",
	}
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp.Error
}

func TestHealth(t *testing.T) {
	r := NewRouter(newTestDeps(t, placeholderRunner{}, nil))

	w := doJSON(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "OK" || resp.ReplicateConfigured {
		t.Errorf("resp = %+v", resp)
	}
	if strings.Join(resp.EndpointsActive, ",") != "slideshow,whatsapp" {
		t.Errorf("endpoints = %v", resp.EndpointsActive)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS header = %q", got)
	}

	w = doJSON(t, NewRouter(newTestDeps(t, placeholderRunner{}, &fakeImages{})), http.MethodGet, "/health", "")
	if !strings.Contains(w.Body.String(), `"replicate_configured":true`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestHome(t *testing.T) {
	w := doJSON(t, NewRouter(newTestDeps(t, placeholderRunner{}, nil)), http.MethodGet, "/", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Growth Tools API") {
		t.Errorf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestPreflight(t *testing.T) {
	w := doJSON(t, NewRouter(newTestDeps(t, placeholderRunner{}, nil)), http.MethodOptions, "/whatsapp", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}

func TestSlideshowValidation(t *testing.T) {
	eleven := `{"slides":["a","b","c","d","e","f","g","h","i","j","k"]}`
	tests := []struct {
		name   string
		images ImageGenerator
		body   string
		status int
		want   string
	}{
		{"missing body", &fakeImages{}, `{}`, http.StatusBadRequest, "Please provide slides array"},
		{"empty slides", &fakeImages{}, `{"slides":[]}`, http.StatusBadRequest, "Please provide slides array"},
		{"too many", &fakeImages{}, eleven, http.StatusBadRequest, "Maximum 10 slides allowed"},
		{"blank prompt", &fakeImages{}, `{"slides":["ok","  "]}`, http.StatusBadRequest, "slide 2"},
		{"malformed json", &fakeImages{}, `{"slides":`, http.StatusBadRequest, "Please provide slides array"},
		{"not configured", nil, `{"slides":["sunset"]}`, http.StatusInternalServerError, "Replicate API not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, NewRouter(newTestDeps(t, placeholderRunner{}, tt.images)), http.MethodPost, "/slideshow", tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if got := decodeError(t, w); !strings.Contains(got, tt.want) {
				t.Errorf("error = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSlideshowSuccess(t *testing.T) {
	images := &fakeImages{}
	deps := newTestDeps(t, placeholderRunner{}, images)

	w := doJSON(t, NewRouter(deps), http.MethodPost, "/slideshow", `{"slides":["sunset over mountains","peaceful lake"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if strings.Join(images.prompts, "|") != "sunset over mountains|peaceful lake" {
		t.Errorf("prompts = %v", images.prompts)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "slideshow_") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	outputs, _ := filepath.Glob(filepath.Join(deps.OutputDir, "slideshow_*.mp4"))
	if len(outputs) != 1 || len(strings.TrimSuffix(filepath.Base(outputs[0]), ".mp4")) != len("slideshow_")+8 {
		t.Errorf("outputs = %v", outputs)
	}
}

func TestSlideshowDownstreamFailure(t *testing.T) {
	images := &fakeImages{err: errors.New("rate limited")}
	w := doJSON(t, NewRouter(newTestDeps(t, placeholderRunner{}, images)), http.MethodPost, "/slideshow", `{"slides":["sunset"]}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decodeError(t, w); !strings.Contains(got, "rate limited") {
		t.Errorf("error = %q", got)
	}
}

func TestWhatsappValidation(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"missing messages", `{"bot_name":"Maya"}`, "Please provide messages array"},
		{"empty messages", `{"messages":[]}`, "Please provide messages array"},
		{"bad role", `{"messages":[{"role":"admin","text":"hi"}]}`, `unknown role "admin"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, NewRouter(newTestDeps(t, placeholderRunner{}, nil)), http.MethodPost, "/whatsapp", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if got := decodeError(t, w); !strings.Contains(got, tt.want) {
				t.Errorf("error = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWhatsappSuccess(t *testing.T) {
	deps := newTestDeps(t, placeholderRunner{}, nil)
	body := `{"messages":[{"role":"user","text":"Hello!"},{"text":"no role means user"},{"role":"bot","text":"Hi there!"}],"bot_name":"Mystic Maya"}`

	w := doJSON(t, NewRouter(deps), http.MethodPost, "/whatsapp", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "whatsapp_") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if w.Body.String() != "fake video" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestWhatsappFfmpegFailure(t *testing.T) {
	w := doJSON(t, NewRouter(newTestDeps(t, placeholderRunner{fail: true}, nil)), http.MethodPost, "/whatsapp", `{"messages":[{"role":"user","text":"Hi"}]}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if got := decodeError(t, w); !strings.Contains(got, "mockup generation failed") {
		t.Errorf("error = %q", got)
	}
}

func TestToConversationDefaultsBotName(t *testing.T) {
	conv, err := ToConversation(WhatsappRequest{Messages: []MessageRequest{{Text: "hi"}}})
	if err != nil {
		t.Fatal(err)
	}
	if conv.BotName != "Bot" || conv.Messages[0].Role != engine.RoleUser {
		t.Errorf("conv = %+v", conv)
	}
}
