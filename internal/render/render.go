package render

import (
	"context"
	"html"

	"codeberg.org/snonux/posttranslate/internal/config"
	"codeberg.org/snonux/posttranslate/internal/guardian"
	"codeberg.org/snonux/posttranslate/internal/store"
	"codeberg.org/snonux/posttranslate/internal/translator"
)

// PostPayload is the serialized post
type PostPayload struct {
	ID           int64  `json:"id"`
	TopicID      int64  `json:"topic_id"`
	PostNumber   int    `json:"post_number"`
	UserID       int64  `json:"user_id"`
	Raw          string `json:"raw,omitempty"`
	Cooked       string `json:"cooked"`
	DetectedLang string `json:"detected_lang,omitempty"`
	CanTranslate bool   `json:"can_translate"`
}

// TopicPayload is the serialized topic with its posts
type TopicPayload struct {
	ID         int64          `json:"id"`
	Title      string         `json:"title"`
	FancyTitle string         `json:"fancy_title"`
	Posts      []*PostPayload `json:"post_stream,omitempty"`
}

// Renderer applies translations to outgoing payloads
type Renderer struct {
	cfg *config.Config
	svc *translator.Service
}

// New creates a renderer
func New(cfg *config.Config, svc *translator.Service) *Renderer {
	return &Renderer{cfg: cfg, svc: svc}
}

// useTranslation reports whether t should be shown translated into locale
func (r *Renderer) useTranslation(ctx context.Context, t translator.Translatable, locale string, showOriginal bool) (bool, error) {
	if !r.cfg.ExperimentalTopicTranslation || showOriginal {
		return false, nil
	}
	detected, _, err := r.svc.DetectedLocale(ctx, t)
	if err != nil {
		return false, err
	}
	return !translator.LocaleMatches(detected, locale), nil
}

// Cooked returns the HTML shown for post. A translated view without a
// cached translation is empty.
func (r *Renderer) Cooked(ctx context.Context, post *store.Post, locale string, showOriginal bool) (string, error) {
	translate, err := r.useTranslation(ctx, post, locale, showOriginal)
	if err != nil || !translate {
		return post.Cooked, err
	}
	text, _, err := r.svc.TranslationFor(ctx, post, locale)
	return text, err
}

// FancyTitle returns the escaped title shown for topic, following the same
// rule as Cooked
func (r *Renderer) FancyTitle(ctx context.Context, topic *store.Topic, locale string, showOriginal bool) (string, error) {
	translate, err := r.useTranslation(ctx, topic, locale, showOriginal)
	if err != nil {
		return "", err
	}
	if !translate {
		return html.EscapeString(topic.Title), nil
	}
	text, _, err := r.svc.TranslationFor(ctx, topic, locale)
	return html.EscapeString(text), err
}

// Post serializes post for the viewer behind g
func (r *Renderer) Post(ctx context.Context, g *guardian.Guardian, post *store.Post, author *store.User, locale string, showOriginal bool) (*PostPayload, error) {
	cooked, err := r.Cooked(ctx, post, locale, showOriginal)
	if err != nil {
		return nil, err
	}
	detected, _, err := r.svc.DetectedLocale(ctx, post)
	if err != nil {
		return nil, err
	}

	return &PostPayload{
		ID:           post.ID,
		TopicID:      post.TopicID,
		PostNumber:   post.PostNumber,
		UserID:       post.UserID,
		Cooked:       cooked,
		DetectedLang: detected,
		CanTranslate: g.CanTranslate(post, author, detected, locale),
	}, nil
}

// Topic serializes topic and the given posts
func (r *Renderer) Topic(ctx context.Context, topic *store.Topic, posts []*PostPayload, locale string, showOriginal bool) (*TopicPayload, error) {
	fancy, err := r.FancyTitle(ctx, topic, locale, showOriginal)
	if err != nil {
		return nil, err
	}
	return &TopicPayload{
		ID:         topic.ID,
		Title:      topic.Title,
		FancyTitle: fancy,
		Posts:      posts,
	}, nil
}
