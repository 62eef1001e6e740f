package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ollama/ollama/api"
)

func newChatServer(t *testing.T, handle func(req api.ChatRequest) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		var req api.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		status, body := handle(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "localhost", "://nope"} {
		if _, err := NewClient(u); err == nil {
			t.Errorf("NewClient(%q) should fail", u)
		}
	}
}

func TestSimpleQueryWithImage(t *testing.T) {
	var got api.ChatRequest
	srv := newChatServer(t, func(req api.ChatRequest) (int, any) {
		got = req
		return http.StatusOK, map[string]any{
			"model":   req.Model,
			"message": map[string]any{"role": "assistant", "content": "a parcel label"},
			"done":    true,
		}
	})

	c, err := NewClient(srv.URL + "/api/chat")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	// "aW1n" is base64 for "img"
	answer, err := c.SimpleQuery(context.Background(), "gemma3", "describe", "aW1n")
	if err != nil {
		t.Fatalf("SimpleQuery failed: %v", err)
	}
	if answer != "a parcel label" {
		t.Errorf("Unexpected answer %q", answer)
	}
	if got.Model != "gemma3" {
		t.Errorf("Unexpected model %q", got.Model)
	}
	if got.Stream == nil || *got.Stream {
		t.Error("Expected a non-streaming request")
	}
	if len(got.Messages) != 1 || len(got.Messages[0].Images) != 1 {
		t.Fatalf("Expected one message with one image, got %+v", got.Messages)
	}
	if string(got.Messages[0].Images[0]) != "img" {
		t.Errorf("Image bytes not decoded, got %q", got.Messages[0].Images[0])
	}
}

func TestSimpleQueryTextOnly(t *testing.T) {
	var images int
	srv := newChatServer(t, func(req api.ChatRequest) (int, any) {
		images = len(req.Messages[0].Images)
		return http.StatusOK, map[string]any{
			"message": map[string]any{"role": "assistant", "content": "no"},
			"done":    true,
		}
	})

	c, _ := NewClient(srv.URL)
	if _, err := c.SimpleQuery(context.Background(), "m", "is it a card?", ""); err != nil {
		t.Fatalf("SimpleQuery failed: %v", err)
	}
	if images != 0 {
		t.Errorf("Text-only query sent %d images", images)
	}
}

func TestSimpleQueryBadBase64(t *testing.T) {
	c, _ := NewClient("http://localhost:11434")
	if _, err := c.SimpleQuery(context.Background(), "m", "p", "not base64!"); err == nil {
		t.Error("Expected error for invalid base64")
	}
}

func TestSimpleQueryServerError(t *testing.T) {
	srv := newChatServer(t, func(req api.ChatRequest) (int, any) {
		return http.StatusNotFound, map[string]any{"error": "model \"m\" not found"}
	})

	c, _ := NewClient(srv.URL)
	_, err := c.SimpleQuery(context.Background(), "m", "p", "")
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Error lacks the server message: %v", err)
	}
}

func TestModelOptions(t *testing.T) {
	if opts := modelOptions("gemma3"); len(opts) != 0 {
		t.Errorf("Expected no options for gemma3, got %v", opts)
	}
	opts := modelOptions("openbmb/MiniCPM-V4:latest")
	if opts["num_ctx"] != 4096 {
		t.Errorf("Expected num_ctx 4096, got %v", opts["num_ctx"])
	}
}
