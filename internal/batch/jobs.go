package batch

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"codeberg.org/snonux/posttranslate/internal/config"
	"codeberg.org/snonux/posttranslate/internal/store"
	"codeberg.org/snonux/posttranslate/internal/translator"
)

// detectConcurrency bounds parallel detection calls per batch
const detectConcurrency = 4

// Records loads forum content
type Records interface {
	GetPost(ctx context.Context, id int64) (*store.Post, error)
	GetTopic(ctx context.Context, id int64) (*store.Topic, error)
	FirstPost(ctx context.Context, topicID int64) (*store.Post, error)
}

// Revision tells clients showing a topic that a post has new translations
type Revision struct {
	TopicID int64
	PostID  int64
}

// Jobs holds the background job implementations
type Jobs struct {
	cfg     *config.Config
	records Records
	svc     *translator.Service

	// Notify receives a revision after a record was translated
	Notify func(Revision)
}

// NewJobs creates the job runner
func NewJobs(cfg *config.Config, records Records, svc *translator.Service) *Jobs {
	return &Jobs{
		cfg:     cfg,
		records: records,
		svc:     svc,
		Notify: func(r Revision) {
			log.WithFields(log.Fields{"topic": r.TopicID, "post": r.PostID}).Debug("Translations revised")
		},
	}
}

// TranslateTranslatable translates a post or topic into every automatic
// target locale. Failures for one locale are logged and the rest continue.
func (j *Jobs) TranslateTranslatable(ctx context.Context, recordType string, id int64) error {
	if !j.cfg.AutomaticTranslationEnabled() {
		return nil
	}

	var (
		translatable translator.Translatable
		revision     Revision
	)
	switch recordType {
	case store.TypePost:
		post, err := j.records.GetPost(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		translatable = post
		revision = Revision{TopicID: post.TopicID, PostID: post.ID}

	case store.TypeTopic:
		topic, err := j.records.GetTopic(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		translatable = topic
		revision = Revision{TopicID: topic.ID}
		if first, err := j.records.FirstPost(ctx, topic.ID); err == nil {
			revision.PostID = first.ID
		}

	default:
		return fmt.Errorf("unknown translatable type: %s", recordType)
	}

	for _, locale := range j.cfg.AutomaticTargetLanguages {
		if _, _, err := j.svc.Translate(ctx, translatable, locale); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"type":   recordType,
				"id":     id,
				"locale": locale,
			}).Warn("Automatic translation failed")
		}
	}

	if j.Notify != nil {
		j.Notify(revision)
	}
	return nil
}

// DetectPending detects the language of up to one batch of queued posts
// and returns how many were detected. Posts that fail are logged and dropped.
func (j *Jobs) DetectPending(ctx context.Context) (int, error) {
	if !j.cfg.Enabled {
		return 0, nil
	}

	size := j.cfg.DetectBatchSize
	if size <= 0 {
		size = 100
	}
	ids, err := j.svc.PendingDetections(ctx, size)
	if err != nil {
		return 0, err
	}

	detected := make([]bool, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detectConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			post, err := j.records.GetPost(gctx, id)
			if err != nil {
				log.WithError(err).WithField("post", id).Warn("Skipping post queued for detection")
				return nil
			}
			if _, err := j.svc.Detect(gctx, post); err != nil {
				log.WithError(err).WithField("post", id).Warn("Language detection failed")
				return nil
			}
			detected[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	count := 0
	for _, ok := range detected {
		if ok {
			count++
		}
	}
	return count, nil
}
