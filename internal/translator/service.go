package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"codeberg.org/snonux/posttranslate/internal"
	"codeberg.org/snonux/posttranslate/internal/kvstore"
	"codeberg.org/snonux/posttranslate/internal/logging"
)

// Custom field names holding cached results
const (
	DetectedLangField   = "post_detected_lang"
	TranslatedTextField = "translated_text"
)

var (
	// LangDetectNeededKey is the set of post ids still waiting for detection
	LangDetectNeededKey = internal.KeyFor("lang_detect_needed")

	lastErrorKey = internal.KeyFor("translator-error")
)

// FieldStore persists per record custom fields
type FieldStore interface {
	GetField(ctx context.Context, recordType string, recordID int64, name string) (string, bool, error)
	SetField(ctx context.Context, recordType string, recordID int64, name, value string) error
	DeleteField(ctx context.Context, recordType string, recordID int64, name string) error
}

// Translatable is a post or topic
type Translatable interface {
	RecordType() string
	RecordID() int64
	// DetectionText is the text used for language detection
	DetectionText() string
	// TranslationText is the text sent for translation
	TranslationText() string
}

// Service detects and translates records through one provider and caches
// the results in custom fields
type Service struct {
	provider Provider
	fields   FieldStore
	kv       kvstore.Store
	maxChars int
	verbose  *logging.VerboseLogger

	mu sync.Mutex // serializes translated_text updates
}

// NewService creates a translation service. maxChars truncates translation
// text, 0 disables truncation.
func NewService(provider Provider, fields FieldStore, kv kvstore.Store, maxChars int, verbose *logging.VerboseLogger) *Service {
	return &Service{
		provider: provider,
		fields:   fields,
		kv:       kv,
		maxChars: maxChars,
		verbose:  verbose,
	}
}

// Provider returns the provider in use
func (s *Service) Provider() Provider {
	return s.provider
}

// DetectedLocale returns the cached detected locale without calling the provider
func (s *Service) DetectedLocale(ctx context.Context, t Translatable) (string, bool, error) {
	locale, ok, err := s.fields.GetField(ctx, t.RecordType(), t.RecordID(), DetectedLangField)
	if err != nil {
		return "", false, fmt.Errorf("failed to read detected locale: %w", err)
	}
	return locale, ok && locale != "", nil
}

// Detect returns the locale of t, asking the provider only when nothing is cached
func (s *Service) Detect(ctx context.Context, t Translatable) (string, error) {
	if locale, ok, err := s.DetectedLocale(ctx, t); err != nil || ok {
		return locale, err
	}

	text := t.DetectionText()
	if text == "" {
		return "", nil
	}

	locale, err := s.provider.Detect(ctx, internal.TruncateRunes(text, s.provider.DetectionLimit()))
	if err != nil {
		s.recordError(ctx, err)
		return "", err
	}
	s.clearError(ctx)
	s.verbose.Logf("detected %s for %s %d", locale, t.RecordType(), t.RecordID())

	if err := s.fields.SetField(ctx, t.RecordType(), t.RecordID(), DetectedLangField, locale); err != nil {
		return "", fmt.Errorf("failed to save detected locale: %w", err)
	}
	return locale, nil
}

// Translate returns the detected locale and the text of t in locale.
// Text already in the target language comes back unchanged.
func (s *Service) Translate(ctx context.Context, t Translatable, locale string) (string, string, error) {
	detected, err := s.Detect(ctx, t)
	if err != nil {
		return "", "", err
	}
	if LocaleMatches(detected, locale) {
		return detected, t.TranslationText(), nil
	}

	if cached, ok, err := s.TranslationFor(ctx, t, locale); err != nil {
		return "", "", err
	} else if ok {
		s.verbose.Logf("cached %s translation for %s %d", locale, t.RecordType(), t.RecordID())
		return detected, cached, nil
	}

	if detected == "" {
		return "", "", unsupportedPair("unknown", locale)
	}
	supported, err := s.provider.TranslateSupported(ctx, detected, locale)
	if errors.Is(err, ErrLocaleNotSupported) {
		return "", "", err
	}
	if err != nil {
		s.recordError(ctx, err)
		return "", "", err
	}
	if !supported {
		return "", "", unsupportedPair(detected, locale)
	}

	text := t.TranslationText()
	if limit := s.provider.LengthLimit(); limit > 0 && utf8.RuneCountInString(text) > limit {
		return "", "", ErrTooLong
	}
	if s.maxChars > 0 {
		text = internal.TruncateRunes(text, s.maxChars)
	}

	translated, err := s.provider.Translate(ctx, text, detected, locale)
	if err != nil {
		if !errors.Is(err, ErrLocaleNotSupported) && !errors.Is(err, ErrFailed) {
			s.recordError(ctx, err)
		}
		return "", "", err
	}
	s.clearError(ctx)

	if err := s.saveTranslation(ctx, t, locale, translated); err != nil {
		return "", "", err
	}
	return detected, translated, nil
}

// Translations returns every cached translation of t keyed by locale
func (s *Service) Translations(ctx context.Context, t Translatable) (map[string]string, error) {
	value, ok, err := s.fields.GetField(ctx, t.RecordType(), t.RecordID(), TranslatedTextField)
	if err != nil {
		return nil, fmt.Errorf("failed to read translations: %w", err)
	}

	translations := make(map[string]string)
	if !ok || value == "" {
		return translations, nil
	}
	if err := json.Unmarshal([]byte(value), &translations); err != nil {
		return nil, fmt.Errorf("failed to decode translations: %w", err)
	}
	return translations, nil
}

// TranslationFor returns the cached translation of t for locale
func (s *Service) TranslationFor(ctx context.Context, t Translatable, locale string) (string, bool, error) {
	translations, err := s.Translations(ctx, t)
	if err != nil {
		return "", false, err
	}
	text, ok := translations[HostLocale(locale)]
	return text, ok, nil
}

func (s *Service) saveTranslation(ctx context.Context, t Translatable, locale, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	translations, err := s.Translations(ctx, t)
	if err != nil {
		return err
	}
	translations[HostLocale(locale)] = text

	data, err := json.Marshal(translations)
	if err != nil {
		return fmt.Errorf("failed to encode translations: %w", err)
	}
	if err := s.fields.SetField(ctx, t.RecordType(), t.RecordID(), TranslatedTextField, string(data)); err != nil {
		return fmt.Errorf("failed to save translation: %w", err)
	}
	return nil
}

// ResetCache forgets the detected locale and all translations of t
func (s *Service) ResetCache(ctx context.Context, t Translatable) error {
	for _, name := range []string{DetectedLangField, TranslatedTextField} {
		if err := s.fields.DeleteField(ctx, t.RecordType(), t.RecordID(), name); err != nil {
			return fmt.Errorf("failed to reset %s: %w", name, err)
		}
	}
	return nil
}

// QueueDetection marks posts for the background detection job
func (s *Service) QueueDetection(ctx context.Context, postIDs ...int64) error {
	members := make([]string, 0, len(postIDs))
	for _, id := range postIDs {
		members = append(members, strconv.FormatInt(id, 10))
	}
	return s.kv.SAdd(ctx, LangDetectNeededKey, members...)
}

// PendingDetections removes and returns up to n queued post ids
func (s *Service) PendingDetections(ctx context.Context, n int) ([]int64, error) {
	members, err := s.kv.SPopN(ctx, LangDetectNeededKey, n)
	if err != nil {
		return nil, fmt.Errorf("failed to pop pending detections: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			log.WithField("member", m).Warn("Ignoring malformed post id in detection queue")
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// LastError returns the message of the most recent failed provider call,
// cleared again by the next successful one
func (s *Service) LastError(ctx context.Context) (string, bool, error) {
	return s.kv.Get(ctx, lastErrorKey)
}

func (s *Service) recordError(ctx context.Context, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if kvErr := s.kv.SetEx(ctx, lastErrorKey, err.Error(), 0); kvErr != nil {
		log.WithError(kvErr).Warn("Failed to record translator error")
	}
}

func (s *Service) clearError(ctx context.Context) {
	if err := s.kv.Del(ctx, lastErrorKey); err != nil {
		log.WithError(err).Warn("Failed to clear translator error")
	}
}
