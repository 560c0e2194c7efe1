package translator

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"codeberg.org/snonux/posttranslate/internal"
	"codeberg.org/snonux/posttranslate/internal/logging"
)

// libreTranslateLanguages maps forum locales to LibreTranslate codes
var libreTranslateLanguages = map[string]string{
	"ar": "ar", "az": "az", "bg": "bg", "bn": "bn", "ca": "ca", "cs": "cs",
	"da": "da", "de": "de", "el": "el", "en": "en", "en_GB": "en",
	"en_US": "en", "eo": "eo", "es": "es", "et": "et", "fa": "fa",
	"fa_IR": "fa", "fi": "fi", "fr": "fr", "ga": "ga", "he": "he", "hi": "hi",
	"hu": "hu", "id": "id", "it": "it", "ja": "ja", "ko": "ko", "lt": "lt",
	"lv": "lv", "ms": "ms", "nb_NO": "nb", "nl": "nl", "pl": "pl",
	"pl_PL": "pl", "pt": "pt", "pt_BR": "pt", "ro": "ro", "ru": "ru",
	"sk": "sk", "sl": "sl", "sq": "sq", "sv": "sv", "th": "th", "tl": "tl",
	"tr": "tr", "tr_TR": "tr", "uk": "uk", "ur": "ur", "zh_CN": "zh",
	"zh_TW": "zt",
}

// LibreTranslateConfig configures a LibreTranslate instance
type LibreTranslateConfig struct {
	Endpoint   string
	APIKey     string // optional on self-hosted instances
	HTTPClient *http.Client
}

// LibreTranslate talks to a LibreTranslate server
type LibreTranslate struct {
	cfg     LibreTranslateConfig
	verbose *logging.VerboseLogger

	mu        sync.Mutex
	languages []string
}

// NewLibreTranslate creates a LibreTranslate provider
func NewLibreTranslate(cfg LibreTranslateConfig, verbose *logging.VerboseLogger) *LibreTranslate {
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &LibreTranslate{cfg: cfg, verbose: verbose}
}

func (l *LibreTranslate) Name() string        { return ProviderLibreTranslate }
func (l *LibreTranslate) DetectionLimit() int { return DetectionCharLimit }
func (l *LibreTranslate) LengthLimit() int    { return 0 }

func (l *LibreTranslate) IsAvailable() error {
	if l.cfg.Endpoint == "" {
		return notConfigured(ProviderLibreTranslate, "libretranslate.endpoint")
	}
	return nil
}

func (l *LibreTranslate) result(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	if err := l.IsAvailable(); err != nil {
		return nil, err
	}
	if form != nil && l.cfg.APIKey != "" {
		form.Set("api_key", l.cfg.APIKey)
	}

	endpoint := l.cfg.Endpoint + path
	l.verbose.Logf("LibreTranslate request %s %s", method, endpoint)

	status, body, err := do(ctx, l.cfg.HTTPClient, ProviderLibreTranslate, request{method: method, url: endpoint, form: form})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, responseError(ProviderLibreTranslate, status, body, "error")
	}
	return body, nil
}

// Detect returns the first candidate of /detect
func (l *LibreTranslate) Detect(ctx context.Context, text string) (string, error) {
	body, err := l.result(ctx, http.MethodPost, "/detect", url.Values{"q": {internal.TruncateRunes(text, DetectionCharLimit)}})
	if err != nil {
		return "", err
	}
	return field(ProviderLibreTranslate, body, "0.language")
}

// Translate posts an HTML translation request
func (l *LibreTranslate) Translate(ctx context.Context, text, from, to string) (string, error) {
	target, ok := lookupLocale(libreTranslateLanguages, to)
	if !ok {
		return "", localeNotSupported(to)
	}

	body, err := l.result(ctx, http.MethodPost, "/translate", url.Values{
		"q":      {text},
		"source": {from},
		"target": {target},
		"format": {"html"},
	})
	if err != nil {
		return "", err
	}
	return field(ProviderLibreTranslate, body, "translatedText")
}

// TranslateSupported requires the server to list both the source and target codes
func (l *LibreTranslate) TranslateSupported(ctx context.Context, from, to string) (bool, error) {
	target, ok := lookupLocale(libreTranslateLanguages, to)
	if !ok {
		return false, localeNotSupported(to)
	}

	codes, err := l.serverLanguages(ctx)
	if err != nil {
		return false, err
	}

	hasSource, hasTarget := false, false
	for _, code := range codes {
		hasSource = hasSource || strings.EqualFold(code, from)
		hasTarget = hasTarget || code == target
	}
	return hasSource && hasTarget, nil
}

func (l *LibreTranslate) serverLanguages(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	cached := l.languages
	l.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	body, err := l.result(ctx, http.MethodGet, "/languages", nil)
	if err != nil {
		return nil, err
	}

	var codes []string
	for _, code := range gjson.GetBytes(body, "#.code").Array() {
		codes = append(codes, code.String())
	}

	l.mu.Lock()
	l.languages = codes
	l.mu.Unlock()
	return codes, nil
}
