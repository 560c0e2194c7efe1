package render

import (
	"context"
	"testing"

	"codeberg.org/snonux/posttranslate/internal/guardian"
	"codeberg.org/snonux/posttranslate/internal/kvstore"
	"codeberg.org/snonux/posttranslate/internal/testutil"
	"codeberg.org/snonux/posttranslate/internal/translator"
)

func setup(t *testing.T, experimental bool) (*Renderer, *translator.Service, *testutil.Forum) {
	t.Helper()

	st := testutil.OpenTestStore(t)
	forum := testutil.SeedForum(t, st)

	cfg := testutil.NewTestConfig()
	cfg.ExperimentalTopicTranslation = experimental

	svc := translator.NewService(&testutil.MockProvider{DefaultLocale: "de"}, st, kvstore.NewMemory(), 0, nil)
	return New(cfg, svc), svc, forum
}

func TestCooked(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		experimental bool
		translate    bool
		locale       string
		showOriginal bool
		want         string
	}{
		{"feature off", false, true, "en", false, "<p>Wie geht es dir?</p>"},
		{"translated", true, true, "en", false, "en: <p>Wie geht es dir?</p>"},
		{"show original", true, true, "en", true, "<p>Wie geht es dir?</p>"},
		{"same locale", true, true, "de_AT", false, "<p>Wie geht es dir?</p>"},
		{"no cached translation", true, false, "en", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, svc, forum := setup(t, tt.experimental)
			if _, err := svc.Detect(ctx, forum.Post); err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if tt.translate {
				if _, _, err := svc.Translate(ctx, forum.Post, "en"); err != nil {
					t.Fatalf("Translate() error = %v", err)
				}
			}

			got, err := r.Cooked(ctx, forum.Post, tt.locale, tt.showOriginal)
			if err != nil {
				t.Fatalf("Cooked() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFancyTitleEscapes(t *testing.T) {
	ctx := context.Background()
	r, svc, forum := setup(t, true)
	forum.Topic.Title = "Fragen & <Antworten>"

	got, err := r.FancyTitle(ctx, forum.Topic, "en", true)
	if err != nil {
		t.Fatalf("FancyTitle() error = %v", err)
	}
	if got != "Fragen &amp; &lt;Antworten&gt;" {
		t.Errorf("Unexpected title %q", got)
	}

	if _, _, err := svc.Translate(ctx, forum.Topic, "en"); err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	got, _ = r.FancyTitle(ctx, forum.Topic, "en", false)
	if got != "en: Fragen &amp; &lt;Antworten&gt;" {
		t.Errorf("Unexpected translated title %q", got)
	}
}

func TestPostPayload(t *testing.T) {
	ctx := context.Background()
	r, svc, forum := setup(t, false)
	if _, err := svc.Detect(ctx, forum.Post); err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	g := guardian.New(testutil.NewTestConfig(), forum.Reader)
	payload, err := r.Post(ctx, g, forum.Post, forum.Author, "en", false)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if !payload.CanTranslate {
		t.Error("Expected can_translate for a German post viewed in English")
	}
	if payload.DetectedLang != "de" {
		t.Errorf("Expected detected de, got %s", payload.DetectedLang)
	}

	payload, _ = r.Post(ctx, g, forum.Post, forum.Author, "de", false)
	if payload.CanTranslate {
		t.Error("Expected no can_translate for a German reader")
	}

	topic, err := r.Topic(ctx, forum.Topic, []*PostPayload{payload}, "en", false)
	if err != nil {
		t.Fatalf("Topic() error = %v", err)
	}
	if topic.FancyTitle != "Guten Tag" || len(topic.Posts) != 1 {
		t.Errorf("Unexpected topic payload %+v", topic)
	}
}
