package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{Model: "m"}); err == nil {
		t.Error("Expected error with missing API key")
	}
	if _, err := New(Config{APIKey: "k"}); err == nil {
		t.Error("Expected error with missing model")
	}
	c, err := New(Config{APIKey: "k", Model: "m"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.cfg.BaseURL != DefaultBaseURL {
		t.Errorf("expected default base URL, got %q", c.cfg.BaseURL)
	}
}

func newTestServer(t *testing.T, reply string, status int, check func(ChatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test_key" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if check != nil {
			check(req)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
}

func TestQueryVision(t *testing.T) {
	srv := newTestServer(t, `{"choices":[{"message":{"content":"Hello world</image>"}}]}`, http.StatusOK, func(req ChatRequest) {
		if req.Model != "test_model" {
			t.Errorf("unexpected model %q", req.Model)
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 {
			t.Fatalf("unexpected message shape %+v", req.Messages)
		}
		img := req.Messages[0].Content[1].ImageURL
		if img == nil || !strings.HasPrefix(img.URL, "data:image/png;base64,") {
			t.Errorf("image not sent as data URL")
		}
		if req.Provider == nil || req.Provider.Order[0] != "fast" || *req.Provider.AllowFallbacks {
			t.Errorf("unexpected provider preferences %+v", req.Provider)
		}
	})
	defer srv.Close()

	c, err := New(Config{APIKey: "test_key", Model: "test_model", Providers: []string{"fast"}, BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	text, err := c.QueryVision(context.Background(), []byte{0x89, 'P', 'N', 'G'})
	if err != nil {
		t.Fatalf("QueryVision failed: %v", err)
	}
	if text != "Hello world" {
		t.Errorf("expected cleaned text, got %q", text)
	}
}

func TestQueryVisionNoText(t *testing.T) {
	srv := newTestServer(t, `{"choices":[{"message":{"content":"NO_TEXT_FOUND"}}]}`, http.StatusOK, nil)
	defer srv.Close()

	c, _ := New(Config{APIKey: "test_key", Model: "m", BaseURL: srv.URL})
	if _, err := c.QueryVision(context.Background(), nil); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestQueryVisionErrors(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		status int
		want   string
	}{
		{"api error", `{"error":{"message":"bad key","type":"auth","code":401}}`, http.StatusUnauthorized, "bad key"},
		{"status", `not json`, http.StatusBadGateway, "status 502"},
		{"no choices", `{"choices":[]}`, http.StatusOK, "no choices"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := newTestServer(t, tt.reply, tt.status, func(ChatRequest) { calls++ })
			defer srv.Close()

			c, _ := New(Config{APIKey: "test_key", Model: "m", BaseURL: srv.URL})
			_, err := c.QueryVision(context.Background(), nil)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
			if calls != 1 {
				t.Fatalf("expected exactly one request, got %d", calls)
			}
		})
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/key" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") == "Bearer good" {
			_, _ = w.Write([]byte(`{"data":{}}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	good, _ := New(Config{APIKey: "good", Model: "m", BaseURL: srv.URL + "/"})
	if err := good.Ping(context.Background()); err != nil {
		t.Errorf("Ping with valid key failed: %v", err)
	}
	bad, _ := New(Config{APIKey: "bad", Model: "m", BaseURL: srv.URL})
	if err := bad.Ping(context.Background()); err == nil {
		t.Error("expected Ping to fail with invalid key")
	}
}
