package imagegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: baseURL, Token: "test-token", PollInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(Config{Token: "  "}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestGenerateSendsPrediction(t *testing.T) {
	var gotInput map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models/black-forest-labs/flux-schnell/predictions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Prefer"); got != "wait" {
			t.Errorf("Prefer = %q", got)
		}
		var body struct {
			Input map[string]any `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		gotInput = body.Input
		fmt.Fprint(w, `{"id":"p1","status":"succeeded","output":["https://cdn.example/out-0.jpg"]}`)
	}))
	defer server.Close()

	url, err := newTestClient(t, server.URL).Generate(context.Background(), "sunset over mountains")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if url != "https://cdn.example/out-0.jpg" {
		t.Errorf("url = %q", url)
	}

	want := map[string]any{
		"prompt":        "sunset over mountains",
		"go_fast":       true,
		"megapixels":    "1",
		"aspect_ratio":  "16:9",
		"output_format": "jpg",
	}
	for k, v := range want {
		if gotInput[k] != v {
			t.Errorf("input[%s] = %v, want %v", k, gotInput[k], v)
		}
	}
}

func TestGeneratePollsUntilDone(t *testing.T) {
	var polls atomic.Int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			fmt.Fprintf(w, `{"id":"p2","status":"starting","urls":{"get":"%s/v1/predictions/p2"}}`, server.URL)
			return
		}
		if polls.Add(1) < 2 {
			fmt.Fprintf(w, `{"id":"p2","status":"processing","urls":{"get":"%s/v1/predictions/p2"}}`, server.URL)
			return
		}
		fmt.Fprint(w, `{"id":"p2","status":"succeeded","output":"https://cdn.example/single.jpg"}`)
	}))
	defer server.Close()

	url, err := newTestClient(t, server.URL).Generate(context.Background(), "peaceful lake")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if url != "https://cdn.example/single.jpg" {
		t.Errorf("url = %q", url)
	}
	if polls.Load() != 2 {
		t.Errorf("polls = %d, want 2", polls.Load())
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{"failed prediction", http.StatusCreated, `{"status":"failed","error":"NSFW"}`, ErrPredictionFailed},
		{"canceled prediction", http.StatusCreated, `{"status":"canceled"}`, ErrPredictionFailed},
		{"unauthorized", http.StatusUnauthorized, `{"detail":"Invalid token"}`, nil},
		{"no polling url", http.StatusCreated, `{"status":"processing"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL).Generate(context.Background(), "x")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("err = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	path := filepath.Join(t.TempDir(), "slide_0.jpg")
	if err := c.Download(context.Background(), server.URL+"/slide.jpg", path); err != nil {
		t.Fatalf("Download: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "jpeg-bytes" {
		t.Errorf("file = %q, %v", got, err)
	}

	if err := c.Download(context.Background(), server.URL+"/missing.jpg", path); err == nil {
		t.Error("expected error for 404")
	}
}
