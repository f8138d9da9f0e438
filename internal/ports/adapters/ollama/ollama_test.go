package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompleteJSON_SendsChatRequest(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"content": `{"segments":[]}`},
		})
	}))
	defer srv.Close()

	a := New(srv.URL, "test-model")
	got, err := a.CompleteJSON(context.Background(), "sys", "user")
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"segments":[]}` {
		t.Fatalf("content = %q", got)
	}
	if gotBody["model"] != "test-model" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if gotBody["format"] != "json" {
		t.Errorf("format = %v, want json", gotBody["format"])
	}
	if gotBody["stream"] != false {
		t.Errorf("stream = %v, want false", gotBody["stream"])
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v", gotBody["messages"])
	}
}

func TestCompleteJSON_NonOKStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	a := New(srv.URL, "missing")
	if _, err := a.CompleteJSON(context.Background(), "sys", "user"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestCompleteJSON_EmptyContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"message": map[string]any{"content": "  "}})
	}))
	defer srv.Close()

	a := New(srv.URL, "m")
	if _, err := a.CompleteJSON(context.Background(), "sys", "user"); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	a := New("", "")
	if a.baseURL != defaultBaseURL || a.model != defaultModel {
		t.Fatalf("defaults not applied: %s %s", a.baseURL, a.model)
	}
	if got := New("http://host:1234/", "m").baseURL; got != "http://host:1234" {
		t.Fatalf("trailing slash kept: %s", got)
	}
}
