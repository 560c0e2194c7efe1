package translator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"codeberg.org/snonux/posttranslate/internal/config"
	"codeberg.org/snonux/posttranslate/internal/kvstore"
	"codeberg.org/snonux/posttranslate/internal/logging"
)

// Provider names as used in the translator.provider setting
const (
	ProviderMicrosoft      = "Microsoft"
	ProviderGoogle         = "Google"
	ProviderYandex         = "Yandex"
	ProviderLibreTranslate = "LibreTranslate"
	ProviderAmazon         = "Amazon"
	ProviderDiscourseAI    = "DiscourseAi"
)

// DetectionCharLimit is how much text providers get for language detection
const DetectionCharLimit = 1000

// Provider is one external translation API.
// Locales passed in and returned are forum locales ("pt_BR"); each
// provider maps them to its own language codes.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Detect returns the locale of text
	Detect(ctx context.Context, text string) (string, error)

	// Translate translates HTML text from one locale to another
	Translate(ctx context.Context, text, from, to string) (string, error)

	// TranslateSupported reports whether the provider handles the pair
	TranslateSupported(ctx context.Context, from, to string) (bool, error)

	// DetectionLimit is the number of characters sent for detection
	DetectionLimit() int

	// LengthLimit is the largest text accepted for translation, 0 for none
	LengthLimit() int

	// IsAvailable checks that the provider is configured
	IsAvailable() error
}

// NewProvider creates the provider selected in cfg, wrapped in a circuit
// breaker. A configured fallback provider takes over on failures.
func NewProvider(ctx context.Context, cfg *config.Config, kv kvstore.Store) (Provider, error) {
	primary, err := newNamedProvider(ctx, cfg, cfg.Provider, kv)
	if err != nil {
		return nil, err
	}
	if cfg.FallbackProvider == "" || cfg.FallbackProvider == cfg.Provider {
		return primary, nil
	}

	fallback, err := newNamedProvider(ctx, cfg, cfg.FallbackProvider, kv)
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback provider: %w", err)
	}
	return NewProviderWithFallback(primary, fallback), nil
}

func newNamedProvider(ctx context.Context, cfg *config.Config, name string, kv kvstore.Store) (Provider, error) {
	verbose := logging.NewVerboseLogger(cfg.VerboseLogs)
	client := &http.Client{Timeout: 30 * time.Second}

	var p Provider
	switch name {
	case ProviderMicrosoft:
		p = NewMicrosoft(MicrosoftConfig{
			SubscriptionKey: cfg.AzureSubscriptionKey,
			Region:          cfg.AzureRegion,
			HTTPClient:      client,
		}, kv, verbose)

	case ProviderGoogle:
		p = NewGoogle(GoogleConfig{APIKey: cfg.GoogleAPIKey, HTTPClient: client}, verbose)

	case ProviderYandex:
		p = NewYandex(YandexConfig{APIKey: cfg.YandexAPIKey, HTTPClient: client}, verbose)

	case ProviderLibreTranslate:
		p = NewLibreTranslate(LibreTranslateConfig{
			Endpoint:   cfg.LibreTranslateEndpoint,
			APIKey:     cfg.LibreTranslateAPIKey,
			HTTPClient: client,
		}, verbose)

	case ProviderAmazon:
		p = NewAmazon(AmazonConfig{
			Region:          cfg.AmazonRegion,
			AccessKeyID:     cfg.AmazonAccessKeyID,
			SecretAccessKey: cfg.AmazonSecretAccessKey,
			HTTPClient:      client,
		}, verbose)

	case ProviderDiscourseAI:
		completer, err := NewCompleter(ctx, CompleterConfig{
			Backend: cfg.AIBackend,
			Model:   cfg.AIModel,
			APIKey:  cfg.AIAPIKey,
			BaseURL: cfg.AIBaseURL,
		})
		if err != nil {
			return nil, err
		}
		p = NewDiscourseAI(completer, verbose)

	default:
		return nil, fmt.Errorf("unknown translation provider: %s", name)
	}

	return WithCircuitBreaker(p), nil
}

// ProviderWithFallback wraps a primary provider with a fallback option
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
}

// NewProviderWithFallback creates a provider that falls back to secondary if primary fails
func NewProviderWithFallback(primary, fallback Provider) Provider {
	return &ProviderWithFallback{
		primary:  primary,
		fallback: fallback,
	}
}

func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

func (p *ProviderWithFallback) Detect(ctx context.Context, text string) (string, error) {
	locale, err := p.primary.Detect(ctx, text)
	if err == nil {
		return locale, nil
	}
	p.logFallback("detect", err)
	return p.fallback.Detect(ctx, text)
}

func (p *ProviderWithFallback) Translate(ctx context.Context, text, from, to string) (string, error) {
	translated, err := p.primary.Translate(ctx, text, from, to)
	if err == nil {
		return translated, nil
	}
	p.logFallback("translate", err)
	return p.fallback.Translate(ctx, text, from, to)
}

// TranslateSupported is true when either provider handles the pair
func (p *ProviderWithFallback) TranslateSupported(ctx context.Context, from, to string) (bool, error) {
	ok, err := p.primary.TranslateSupported(ctx, from, to)
	if err == nil && ok {
		return true, nil
	}
	return p.fallback.TranslateSupported(ctx, from, to)
}

func (p *ProviderWithFallback) DetectionLimit() int {
	return p.primary.DetectionLimit()
}

// LengthLimit returns the stricter of both limits
func (p *ProviderWithFallback) LengthLimit() int {
	a, b := p.primary.LengthLimit(), p.fallback.LengthLimit()
	switch {
	case a == 0:
		return b
	case b == 0 || a < b:
		return a
	default:
		return b
	}
}

// IsAvailable checks if at least one provider is available
func (p *ProviderWithFallback) IsAvailable() error {
	primaryErr := p.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := p.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}

func (p *ProviderWithFallback) logFallback(op string, err error) {
	log.WithFields(log.Fields{
		"primary":  p.primary.Name(),
		"fallback": p.fallback.Name(),
	}).Warnf("%s failed: %v, falling back", op, err)
}
