package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"codeberg.org/snonux/posttranslate/internal/batch"
	"codeberg.org/snonux/posttranslate/internal/config"
	"codeberg.org/snonux/posttranslate/internal/guardian"
	"codeberg.org/snonux/posttranslate/internal/store"
	"codeberg.org/snonux/posttranslate/internal/translator"
)

// Translation requests per minute for non-staff users
const translateRequestsPerMinute = 3

var (
	// ErrDisabled is returned while the translator is switched off
	ErrDisabled = errors.New("translator is disabled")
	// ErrUserNotInGroup means the viewer may not request translations
	ErrUserNotInGroup = errors.New("you are not allowed to translate")
	// ErrPosterNotInGroup means the author's posts may not be translated
	ErrPosterNotInGroup = errors.New("posts by this user cannot be translated")
)

// Records is the content store used by the processor
type Records interface {
	batch.Records
	GetUser(ctx context.Context, id int64) (*store.User, error)
}

// Processor handles forum events and translation requests
type Processor struct {
	cfg     *config.Config
	records Records
	svc     *translator.Service
	jobs    *batch.Jobs
	queue   *batch.Queue
	limiter *rateLimiter
}

// NewProcessor creates a processor that runs background work on queue
func NewProcessor(cfg *config.Config, records Records, svc *translator.Service, jobs *batch.Jobs, queue *batch.Queue) *Processor {
	return &Processor{
		cfg:     cfg,
		records: records,
		svc:     svc,
		jobs:    jobs,
		queue:   queue,
		limiter: newRateLimiter(translateRequestsPerMinute, time.Minute),
	}
}

// author loads the user who wrote a record; system content has none
func (p *Processor) author(ctx context.Context, userID int64) (*store.User, error) {
	if userID <= 0 {
		return nil, nil
	}
	u, err := p.records.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

func (p *Processor) enqueueTranslation(recordType string, id int64) error {
	name := fmt.Sprintf("translate %s %d", recordType, id)
	_, err := p.queue.Enqueue(name, func(ctx context.Context) error {
		return p.jobs.TranslateTranslatable(ctx, recordType, id)
	})
	return err
}

// PostProcessCooked runs after a post was rendered. Posts by real users are
// queued for detection and, with automatic targets set, for translation.
func (p *Processor) PostProcessCooked(ctx context.Context, post *store.Post) error {
	if !p.cfg.Enabled || post.UserID <= 0 {
		return nil
	}

	author, err := p.author(ctx, post.UserID)
	if err != nil {
		return err
	}
	if guardian.New(p.cfg, nil).CanDetectLanguage(post, author) {
		if err := p.svc.QueueDetection(ctx, post.ID); err != nil {
			return fmt.Errorf("failed to queue detection: %w", err)
		}
	}

	if p.cfg.AutomaticTranslationEnabled() {
		return p.enqueueTranslation(store.TypePost, post.ID)
	}
	return nil
}

// PostEdited forgets cached results of an edited post and processes it again
func (p *Processor) PostEdited(ctx context.Context, post *store.Post) error {
	if err := p.svc.ResetCache(ctx, post); err != nil {
		return err
	}
	return p.PostProcessCooked(ctx, post)
}

// TopicCreated queues the title of a new topic for translation
func (p *Processor) TopicCreated(_ context.Context, topic *store.Topic) error {
	if !p.cfg.AutomaticTranslationEnabled() || topic.UserID <= 0 {
		return nil
	}
	return p.enqueueTranslation(store.TypeTopic, topic.ID)
}

// TopicEdited forgets the cached title results and queues the title again
func (p *Processor) TopicEdited(ctx context.Context, topic *store.Topic) error {
	if err := p.svc.ResetCache(ctx, topic); err != nil {
		return err
	}
	return p.TopicCreated(ctx, topic)
}

// Result is the answer to a translation request
type Result struct {
	Translation      string `json:"translation"`
	DetectedLang     string `json:"detected_lang"`
	TitleTranslation string `json:"title_translation,omitempty"`
}

// TranslatePost translates a post into locale on behalf of user. For the
// first post of a topic the title is translated too.
func (p *Processor) TranslatePost(ctx context.Context, user *store.User, postID int64, locale string) (*Result, error) {
	if !p.cfg.Enabled {
		return nil, ErrDisabled
	}
	if user == nil {
		return nil, ErrUserNotInGroup
	}
	if !user.Staff {
		if err := p.limiter.allow(user.ID); err != nil {
			return nil, err
		}
	}
	if locale == "" {
		locale = p.cfg.DefaultLocale
	}

	post, err := p.records.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	g := guardian.New(p.cfg, user)
	if !g.UserGroupAllowTranslate() {
		return nil, ErrUserNotInGroup
	}
	author, err := p.author(ctx, post.UserID)
	if err != nil {
		return nil, err
	}
	if !g.PosterGroupAllowTranslate(author) {
		return nil, ErrPosterNotInGroup
	}

	detected, translation, err := p.svc.Translate(ctx, post, locale)
	if err != nil {
		return nil, err
	}
	result := &Result{Translation: translation, DetectedLang: detected}

	if post.IsFirstPost() {
		topic, err := p.records.GetTopic(ctx, post.TopicID)
		if err != nil {
			return nil, err
		}
		if _, title, err := p.svc.Translate(ctx, topic, locale); err != nil {
			log.WithError(err).WithField("topic", topic.ID).Warn("Title translation failed")
		} else {
			result.TitleTranslation = title
		}
	}

	return result, nil
}
