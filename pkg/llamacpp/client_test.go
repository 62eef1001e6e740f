package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, req ChatCompletionRequest, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		handler(w, req, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func reply(w http.ResponseWriter, content any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []any{
			map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": content}},
		},
	})
}

func TestSimpleQueryWithImage(t *testing.T) {
	var got ChatCompletionRequest
	var path string
	srv := newTestServer(t, func(w http.ResponseWriter, req ChatCompletionRequest, r *http.Request) {
		got, path = req, r.URL.Path
		reply(w, "a business card")
	})

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	answer, err := c.SimpleQuery(context.Background(), "gemma3", "describe", "aW1n")
	if err != nil {
		t.Fatalf("SimpleQuery failed: %v", err)
	}
	if answer != "a business card" {
		t.Errorf("Unexpected answer %q", answer)
	}
	if path != "/v1/chat/completions" {
		t.Errorf("Unexpected path %s", path)
	}
	if got.Model != "gemma3" || got.Stream {
		t.Errorf("Unexpected request %+v", got)
	}

	parts, ok := got.Messages[0].Content.([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("Expected text and image parts, got %#v", got.Messages[0].Content)
	}
	image := parts[1].(map[string]any)
	url := image["image_url"].(map[string]any)["url"].(string)
	if url != "data:image/jpeg;base64,aW1n" {
		t.Errorf("Unexpected image url %s", url)
	}
}

func TestSimpleQueryTextOnly(t *testing.T) {
	var parts int
	srv := newTestServer(t, func(w http.ResponseWriter, req ChatCompletionRequest, r *http.Request) {
		parts = len(req.Messages[0].Content.([]any))
		reply(w, "yes")
	})

	c, _ := NewClient(srv.URL)
	if _, err := c.SimpleQuery(context.Background(), "m", "is it a card?", ""); err != nil {
		t.Fatalf("SimpleQuery failed: %v", err)
	}
	if parts != 1 {
		t.Errorf("Expected a single text part, got %d", parts)
	}
}

func TestSimpleQueryContentParts(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, req ChatCompletionRequest, r *http.Request) {
		reply(w, []any{
			map[string]any{"type": "text", "text": "hello "},
			map[string]any{"type": "text", "text": "world"},
		})
	})

	c, _ := NewClient(srv.URL)
	answer, err := c.SimpleQuery(context.Background(), "m", "p", "")
	if err != nil {
		t.Fatalf("SimpleQuery failed: %v", err)
	}
	if answer != "hello world" {
		t.Errorf("Expected concatenated parts, got %q", answer)
	}
}

func TestAPIKeyAndV1BaseURL(t *testing.T) {
	var auth, path string
	srv := newTestServer(t, func(w http.ResponseWriter, req ChatCompletionRequest, r *http.Request) {
		auth, path = r.Header.Get("Authorization"), r.URL.Path
		reply(w, "ok")
	})

	c, _ := NewClient(srv.URL+"/v1/", WithAPIKey("secret"))
	if _, err := c.SimpleQuery(context.Background(), "m", "p", ""); err != nil {
		t.Fatalf("SimpleQuery failed: %v", err)
	}
	if auth != "Bearer secret" {
		t.Errorf("Unexpected Authorization header %q", auth)
	}
	if path != "/v1/chat/completions" {
		t.Errorf("Unexpected path %s", path)
	}
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	_, err := c.SimpleQuery(context.Background(), "m", "p", "")
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("Error lacks status or message: %v", err)
	}
}

func TestNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	if _, err := c.SimpleQuery(context.Background(), "m", "p", ""); err == nil {
		t.Error("Expected error for empty choices")
	}
}

func TestContextCancelled(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, req ChatCompletionRequest, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, _ := NewClient(srv.URL)
	if _, err := c.SimpleQuery(ctx, "m", "p", ""); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
