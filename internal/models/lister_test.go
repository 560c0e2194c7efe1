package models

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"testing"
)

func TestNewLister(t *testing.T) {
	lister := NewLister("test-api-key", "")

	if lister == nil {
		t.Fatal("NewLister returned nil")
	}

	if lister.apiKey != "test-api-key" {
		t.Errorf("Expected API key 'test-api-key', got '%s'", lister.apiKey)
	}

	if lister.client == nil {
		t.Error("OpenAI client not initialized")
	}
}

func TestChatModels_NoAPIKey(t *testing.T) {
	_, err := NewLister("", "").ChatModels(context.Background())
	if err == nil {
		t.Fatal("Expected error for missing API key")
	}

	if !strings.Contains(err.Error(), "OpenAI API key not found") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestChatModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[
			{"id":"tts-1","object":"model"},
			{"id":"gpt-4o-mini","object":"model"},
			{"id":"dall-e-3","object":"model"},
			{"id":"text-embedding-3-small","object":"model"},
			{"id":"gpt-4o","object":"model"},
			{"id":"o3-mini","object":"model"},
			{"id":"gpt-4o-audio-preview","object":"model"}
		]}`))
	}))
	defer srv.Close()

	models, err := NewLister("key", srv.URL+"/v1").ChatModels(context.Background())
	if err != nil {
		t.Fatalf("ChatModels() error = %v", err)
	}

	want := []string{"gpt-4o", "gpt-4o-mini", "o3-mini"}
	if !reflect.DeepEqual(models, want) {
		t.Errorf("Expected %v, got %v", want, models)
	}
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, []string{"gpt-4o", "gpt-4o-mini"}, "gpt-4o-mini")

	out := buf.String()
	if !strings.Contains(out, "* gpt-4o-mini") {
		t.Errorf("Expected the current model to be marked, got:\n%s", out)
	}
	if !strings.Contains(out, "  gpt-4o\n") {
		t.Errorf("Expected unmarked gpt-4o, got:\n%s", out)
	}

	buf.Reset()
	Print(&buf, nil, "")
	if !strings.Contains(buf.String(), "No chat models found") {
		t.Errorf("Expected empty notice, got %q", buf.String())
	}
}

func TestChatModels_Integration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	models, err := NewLister(apiKey, "").ChatModels(context.Background())
	if err != nil {
		t.Errorf("ChatModels failed: %v", err)
	}
	if len(models) == 0 {
		t.Error("Expected at least one chat model")
	}
}
