package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"codeberg.org/snonux/posttranslate/internal/batch"
	"codeberg.org/snonux/posttranslate/internal/config"
	"codeberg.org/snonux/posttranslate/internal/kvstore"
	"codeberg.org/snonux/posttranslate/internal/logging"
	"codeberg.org/snonux/posttranslate/internal/models"
	"codeberg.org/snonux/posttranslate/internal/problemcheck"
	"codeberg.org/snonux/posttranslate/internal/processor"
	"codeberg.org/snonux/posttranslate/internal/server"
	"codeberg.org/snonux/posttranslate/internal/store"
	"codeberg.org/snonux/posttranslate/internal/translator"
)

const (
	queueWorkers       = 4
	queueCapacity      = 256
	detectPendingEvery = time.Minute
)

// app implements the cli subcommands on top of the real stores
type app struct {
	out io.Writer

	cfg      *config.Config
	kv       kvstore.Store
	st       *store.Store
	provider translator.Provider
	svc      *translator.Service
}

func (a *app) writer() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}

// setup loads the configuration and opens the key/value store and provider
func (a *app) setup(ctx context.Context) error {
	a.cfg = config.Load(viper.GetViper())

	if err := logging.Setup(a.cfg.LogFile, a.cfg.LogMaxSizeMB); err != nil {
		return err
	}
	if a.cfg.VerboseLogs {
		log.SetLevel(log.DebugLevel)
	}

	if a.cfg.RedisAddr != "" {
		kv, err := kvstore.NewRedis(ctx, a.cfg.RedisAddr)
		if err != nil {
			return err
		}
		a.kv = kv
	} else {
		a.kv = kvstore.NewMemory()
	}

	provider, err := translator.NewProvider(ctx, a.cfg, a.kv)
	if err != nil {
		return err
	}
	a.provider = provider
	return nil
}

// openStore opens the content database and builds the translation service on it
func (a *app) openStore(ctx context.Context) error {
	if err := a.setup(ctx); err != nil {
		return err
	}

	st, err := store.Open(a.cfg.DatabasePath)
	if err != nil {
		return err
	}
	a.st = st
	a.svc = translator.NewService(a.provider, st, a.kv, a.cfg.MaxCharactersPerTranslation,
		logging.NewVerboseLogger(a.cfg.VerboseLogs))
	return nil
}

func (a *app) close() {
	if a.st != nil {
		if err := a.st.Close(); err != nil {
			log.Warnf("Failed to close store: %v", err)
		}
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			log.Warnf("Failed to close key/value store: %v", err)
		}
	}
}

func (a *app) Serve(ctx context.Context, addr string) error {
	if err := a.openStore(ctx); err != nil {
		return err
	}
	defer a.close()

	// Background work stops before the store closes
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.provider.IsAvailable(); err != nil {
		log.Warnf("Translator not ready: %v", err)
	}

	queue := batch.NewQueue(ctx, queueWorkers, queueCapacity)
	defer queue.Close()
	queue.OnJobComplete(func(job *batch.Job) {
		if job.Error != nil {
			log.WithField("job", job.Name).Errorf("Job failed: %v", job.Error)
		}
	})

	jobs := batch.NewJobs(a.cfg, a.st, a.svc)
	proc := processor.NewProcessor(a.cfg, a.st, a.svc, jobs, queue)
	checker := problemcheck.NewChecker(a.cfg, a.svc)

	ticker := time.NewTicker(detectPendingEvery)
	defer ticker.Stop()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		detectPendingLoop(ctx, jobs, queue, ticker.C)
	}()
	defer func() {
		cancel()
		<-loopDone
	}()

	return server.New(a.cfg, a.st, a.svc, proc, checker).ListenAndServe(ctx, addr)
}

// pendingDetector is the part of batch.Jobs the detection loop needs
type pendingDetector interface {
	DetectPending(ctx context.Context) (int, error)
}

// detectPendingLoop runs pending detection on every tick and logs the
// queue statistics until ctx is canceled
func detectPendingLoop(ctx context.Context, jobs pendingDetector, queue *batch.Queue, tick <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			if n, err := jobs.DetectPending(ctx); err != nil {
				log.Errorf("Pending detection failed: %v", err)
			} else if n > 0 {
				log.Infof("Detected language of %d posts", n)
			}

			queued, processing, completed, failed := queue.Status()
			log.WithFields(log.Fields{
				"queued":     queued,
				"processing": processing,
				"completed":  completed,
				"failed":     failed,
			}).Debug("Job queue")
		}
	}
}

func (a *app) Translate(ctx context.Context, text, from, to string) error {
	if err := a.setup(ctx); err != nil {
		return err
	}
	defer a.close()

	if err := a.provider.IsAvailable(); err != nil {
		return err
	}

	if from == "" {
		detected, err := a.provider.Detect(ctx, text)
		if err != nil {
			return fmt.Errorf("failed to detect language: %w", err)
		}
		from = detected
	}

	if translator.LocaleMatches(from, to) {
		fmt.Fprintln(a.writer(), text)
		return nil
	}

	supported, err := a.provider.TranslateSupported(ctx, from, to)
	if err != nil {
		return err
	}
	if !supported {
		return fmt.Errorf("%w: %s to %s", translator.ErrFailed, from, to)
	}

	translated, err := a.provider.Translate(ctx, text, from, to)
	if err != nil {
		return fmt.Errorf("failed to translate: %w", err)
	}
	fmt.Fprintf(a.writer(), "[%s] %s\n", from, translated)
	return nil
}

func (a *app) Detect(ctx context.Context, text string) error {
	if err := a.setup(ctx); err != nil {
		return err
	}
	defer a.close()

	if err := a.provider.IsAvailable(); err != nil {
		return err
	}

	locale, err := a.provider.Detect(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to detect language: %w", err)
	}
	fmt.Fprintln(a.writer(), locale)
	return nil
}

func (a *app) Check(ctx context.Context) error {
	if err := a.openStore(ctx); err != nil {
		return err
	}
	defer a.close()

	problems, err := problemcheck.NewChecker(a.cfg, a.svc).Run(ctx)
	if err != nil {
		return err
	}

	w := a.writer()
	if !a.cfg.Enabled {
		fmt.Fprintln(w, "Translator is disabled")
	}
	if len(problems) == 0 {
		fmt.Fprintf(w, "No problems found (provider: %s)\n", a.provider.Name())
		return nil
	}
	for _, p := range problems {
		fmt.Fprintf(w, "%s: %s\n", p.Identifier, p.Message)
	}
	return errors.New("translator has problems")
}

func (a *app) ListModels(ctx context.Context) error {
	cfg := config.Load(viper.GetViper())
	if cfg.AIBackend != translator.BackendOpenAI {
		return fmt.Errorf("listing models needs the %s backend, configured: %s", translator.BackendOpenAI, cfg.AIBackend)
	}

	chatModels, err := models.NewLister(cfg.AIAPIKey, cfg.AIBaseURL).ChatModels(ctx)
	if err != nil {
		return err
	}
	models.Print(a.writer(), chatModels, cfg.AIModel)
	return nil
}

func (a *app) DetectPending(ctx context.Context) error {
	if err := a.openStore(ctx); err != nil {
		return err
	}
	defer a.close()

	n, err := batch.NewJobs(a.cfg, a.st, a.svc).DetectPending(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.writer(), "Detected language of %d posts\n", n)
	return nil
}
