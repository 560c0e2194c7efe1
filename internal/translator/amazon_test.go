package translator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newAmazonServer speaks enough of the AWS JSON 1.1 protocol for TranslateText
func newAmazonServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.Header.Get("X-Amz-Target"), ".TranslateText") {
			t.Errorf("Unexpected target %q", r.Header.Get("X-Amz-Target"))
		}
		if !strings.Contains(r.Header.Get("Authorization"), "AKIDTEST") {
			t.Errorf("Expected a signed request, got %q", r.Header.Get("Authorization"))
		}

		var in struct {
			Text               string
			SourceLanguageCode string
			TargetLanguageCode string
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/x-amz-json-1.1")
		if in.TargetLanguageCode == "ps" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"__type":"UnsupportedLanguagePairException","Message":"Unsupported language pair: cy to ps"}`))
			return
		}

		source := in.SourceLanguageCode
		if source == "auto" {
			source = "cy"
		}
		json.NewEncoder(w).Encode(map[string]string{
			"TranslatedText":     source + ">" + in.TargetLanguageCode + " " + in.Text,
			"SourceLanguageCode": source,
			"TargetLanguageCode": in.TargetLanguageCode,
		})
	}))
}

func newTestAmazon(srv *httptest.Server) *Amazon {
	return NewAmazon(AmazonConfig{
		Region:          "us-east-1",
		AccessKeyID:     "AKIDTEST",
		SecretAccessKey: "secret",
		Endpoint:        srv.URL,
		HTTPClient:      srv.Client(),
	}, nil)
}

func TestAmazonDetectAndTranslate(t *testing.T) {
	srv := newAmazonServer(t)
	defer srv.Close()

	a := newTestAmazon(srv)
	ctx := context.Background()

	locale, err := a.Detect(ctx, "Bore da")
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if locale != "cy" {
		t.Errorf("Expected cy, got %s", locale)
	}

	text, err := a.Translate(ctx, "<p>Bore da</p>", "cy", "zh_TW")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if text != "cy>zh-TW <p>Bore da</p>" {
		t.Errorf("Unexpected translation %q", text)
	}
}

func TestAmazonUnsupportedPair(t *testing.T) {
	srv := newAmazonServer(t)
	defer srv.Close()

	_, err := newTestAmazon(srv).Translate(context.Background(), "Bore da", "cy", "ps")
	if !errors.Is(err, ErrFailed) {
		t.Errorf("Expected ErrFailed, got %v", err)
	}
}

func TestAmazonNotConfigured(t *testing.T) {
	a := NewAmazon(AmazonConfig{}, nil)
	if _, err := a.Detect(context.Background(), "hi"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
	if _, err := a.Translate(context.Background(), strings.Repeat("x", amazonLengthLimit+1), "en", "de"); !errors.Is(err, ErrTooLong) {
		t.Errorf("Expected ErrTooLong, got %v", err)
	}
}
