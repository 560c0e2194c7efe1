package translator

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"codeberg.org/snonux/posttranslate/internal"
	"codeberg.org/snonux/posttranslate/internal/logging"
)

const yandexAPIURL = "https://translate.yandex.net/api/v1.5/tr.json"

// yandexLanguages maps forum locales to Yandex language codes
var yandexLanguages = map[string]string{
	"af": "af", "ar": "ar", "az": "az", "be": "be", "bg": "bg", "bn": "bn",
	"bs": "bs", "bs_BA": "bs", "ca": "ca", "cs": "cs", "cy": "cy", "da": "da",
	"de": "de", "el": "el", "en": "en", "en_GB": "en", "en_US": "en",
	"eo": "eo", "es": "es", "et": "et", "eu": "eu", "fa": "fa", "fa_IR": "fa",
	"fi": "fi", "fr": "fr", "ga": "ga", "gl": "gl", "gu": "gu", "he": "he",
	"hi": "hi", "hr": "hr", "ht": "ht", "hu": "hu", "hy": "hy", "id": "id",
	"is": "is", "it": "it", "ja": "ja", "ka": "ka", "kk": "kk", "km": "km",
	"kn": "kn", "ko": "ko", "ky": "ky", "la": "la", "lo": "lo", "lt": "lt",
	"lv": "lv", "mg": "mg", "mk": "mk", "ml": "ml", "mn": "mn", "mr": "mr",
	"ms": "ms", "mt": "mt", "my": "my", "nb_NO": "no", "ne": "ne", "nl": "nl",
	"pa": "pa", "pl": "pl", "pl_PL": "pl", "pt": "pt", "pt_BR": "pt",
	"ro": "ro", "ru": "ru", "si": "si", "sk": "sk", "sl": "sl", "sq": "sq",
	"sr": "sr", "sv": "sv", "sw": "sw", "ta": "ta", "te": "te", "tg": "tg",
	"th": "th", "tl": "tl", "tr": "tr", "tr_TR": "tr", "tt": "tt", "uk": "uk",
	"ur": "ur", "uz": "uz", "vi": "vi", "zh_CN": "zh", "zh_TW": "zh",
}

// YandexConfig configures the Yandex Translate client
type YandexConfig struct {
	APIKey     string
	APIURL     string // defaults to the public v1.5 endpoint
	HTTPClient *http.Client
}

// Yandex talks to the Yandex Translate JSON API
type Yandex struct {
	cfg     YandexConfig
	verbose *logging.VerboseLogger
}

// NewYandex creates a Yandex provider
func NewYandex(cfg YandexConfig, verbose *logging.VerboseLogger) *Yandex {
	if cfg.APIURL == "" {
		cfg.APIURL = yandexAPIURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Yandex{cfg: cfg, verbose: verbose}
}

func (y *Yandex) Name() string        { return ProviderYandex }
func (y *Yandex) DetectionLimit() int { return DetectionCharLimit }
func (y *Yandex) LengthLimit() int    { return 0 }

func (y *Yandex) IsAvailable() error {
	if y.cfg.APIKey == "" {
		return notConfigured(ProviderYandex, "yandex.api_key")
	}
	return nil
}

// result posts form to path with the key and extra parameters in the query string
func (y *Yandex) result(ctx context.Context, path string, query, form url.Values) ([]byte, error) {
	if err := y.IsAvailable(); err != nil {
		return nil, err
	}
	query.Set("key", y.cfg.APIKey)

	endpoint := strings.TrimSuffix(y.cfg.APIURL, "/") + path + "?" + query.Encode()
	y.verbose.Logf("Yandex request %s%s", y.cfg.APIURL, path)

	status, body, err := do(ctx, y.cfg.HTTPClient, ProviderYandex, request{url: endpoint, form: form})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, responseError(ProviderYandex, status, body, "message")
	}
	return body, nil
}

// Detect returns the "lang" member of the detect response
func (y *Yandex) Detect(ctx context.Context, text string) (string, error) {
	query := url.Values{"text": {internal.TruncateRunes(text, DetectionCharLimit)}}
	body, err := y.result(ctx, "/detect", query, url.Values{})
	if err != nil {
		return "", err
	}
	return field(ProviderYandex, body, "lang")
}

// Translate sends the text as a form body, the pair as "from-to"
func (y *Yandex) Translate(ctx context.Context, text, from, to string) (string, error) {
	target, ok := lookupLocale(yandexLanguages, to)
	if !ok {
		return "", localeNotSupported(to)
	}

	query := url.Values{
		"lang":   {from + "-" + target},
		"format": {"html"},
	}
	body, err := y.result(ctx, "/translate", query, url.Values{"text": {text}})
	if err != nil {
		return "", err
	}
	return field(ProviderYandex, body, "text.0")
}

// TranslateSupported checks both sides against the language table
func (y *Yandex) TranslateSupported(_ context.Context, from, to string) (bool, error) {
	if _, ok := lookupLocale(yandexLanguages, to); !ok {
		return false, localeNotSupported(to)
	}
	_, ok := lookupLocale(yandexLanguages, from)
	return ok, nil
}
