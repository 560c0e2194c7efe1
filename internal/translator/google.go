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

const (
	googleAPIURL      = "https://translation.googleapis.com/language/translate/v2"
	googleLengthLimit = 5000
)

// googleLanguages maps forum locales to Cloud Translation codes
var googleLanguages = map[string]string{
	"af": "af", "ar": "ar", "az": "az", "be": "be", "bg": "bg", "bn": "bn",
	"bs": "bs", "bs_BA": "bs", "ca": "ca", "cs": "cs", "cy": "cy", "da": "da",
	"de": "de", "el": "el", "en": "en", "en_GB": "en", "en_US": "en",
	"eo": "eo", "es": "es", "et": "et", "eu": "eu", "fa": "fa", "fa_IR": "fa",
	"fi": "fi", "fil": "tl", "fr": "fr", "ga": "ga", "gl": "gl", "gu": "gu",
	"he": "iw", "hi": "hi", "hr": "hr", "ht": "ht", "hu": "hu", "hy": "hy",
	"id": "id", "is": "is", "it": "it", "ja": "ja", "ka": "ka", "kk": "kk",
	"km": "km", "kn": "kn", "ko": "ko", "lo": "lo", "lt": "lt", "lv": "lv",
	"mk": "mk", "ml": "ml", "mn": "mn", "mr": "mr", "ms": "ms", "mt": "mt",
	"my": "my", "nb_NO": "no", "ne": "ne", "nl": "nl", "pa": "pa", "pl": "pl",
	"pl_PL": "pl", "pt": "pt", "pt_BR": "pt", "ro": "ro", "ru": "ru",
	"si": "si", "sk": "sk", "sl": "sl", "so": "so", "sq": "sq", "sr": "sr",
	"sv": "sv", "sw": "sw", "ta": "ta", "te": "te", "tg": "tg", "th": "th",
	"tr": "tr", "tr_TR": "tr", "uk": "uk", "ur": "ur", "uz": "uz", "vi": "vi",
	"yi": "yi", "zh_CN": "zh-CN", "zh_TW": "zh-TW", "zu": "zu",
}

// GoogleConfig configures the Cloud Translation v2 client
type GoogleConfig struct {
	APIKey     string
	APIURL     string // defaults to the public v2 endpoint
	Referer    string
	HTTPClient *http.Client
}

// Google talks to Google Cloud Translation v2 (basic edition)
type Google struct {
	cfg     GoogleConfig
	verbose *logging.VerboseLogger

	mu        sync.Mutex
	languages map[string][]string // target code -> source codes
}

// NewGoogle creates a Google Cloud Translation provider
func NewGoogle(cfg GoogleConfig, verbose *logging.VerboseLogger) *Google {
	if cfg.APIURL == "" {
		cfg.APIURL = googleAPIURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Google{cfg: cfg, verbose: verbose, languages: make(map[string][]string)}
}

func (g *Google) Name() string        { return ProviderGoogle }
func (g *Google) DetectionLimit() int { return DetectionCharLimit }
func (g *Google) LengthLimit() int    { return googleLengthLimit }

func (g *Google) IsAvailable() error {
	if g.cfg.APIKey == "" {
		return notConfigured(ProviderGoogle, "google.api_key")
	}
	return nil
}

// result posts a form to path and returns the "data" member of the response
func (g *Google) result(ctx context.Context, path string, form url.Values) (gjson.Result, error) {
	if err := g.IsAvailable(); err != nil {
		return gjson.Result{}, err
	}
	form.Set("key", g.cfg.APIKey)

	headers := map[string]string{}
	if g.cfg.Referer != "" {
		headers["Referer"] = g.cfg.Referer
	}

	endpoint := strings.TrimSuffix(g.cfg.APIURL, "/") + path
	g.verbose.Logf("Google request %s", endpoint)

	status, body, err := do(ctx, g.cfg.HTTPClient, ProviderGoogle, request{url: endpoint, form: form, headers: headers})
	if err != nil {
		return gjson.Result{}, err
	}
	if status != http.StatusOK {
		return gjson.Result{}, responseError(ProviderGoogle, status, body, "error.message")
	}

	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		return gjson.Result{}, &Error{Provider: ProviderGoogle, StatusCode: status, Message: "unexpected response: missing data"}
	}
	return data, nil
}

// Detect returns the first detection Google lists for the text
func (g *Google) Detect(ctx context.Context, text string) (string, error) {
	data, err := g.result(ctx, "/detect", url.Values{"q": {internal.TruncateRunes(text, DetectionCharLimit)}})
	if err != nil {
		return "", err
	}

	locale := data.Get("detections.0.0.language").String()
	if locale == "" {
		return "", &Error{Provider: ProviderGoogle, StatusCode: http.StatusOK, Message: "no language detected"}
	}
	return locale, nil
}

// Translate translates HTML from the detected language into to
func (g *Google) Translate(ctx context.Context, text, from, to string) (string, error) {
	target, ok := lookupLocale(googleLanguages, to)
	if !ok {
		return "", localeNotSupported(to)
	}

	data, err := g.result(ctx, "", url.Values{
		"q":      {text},
		"source": {from},
		"target": {target},
		"format": {"html"},
	})
	if err != nil {
		return "", err
	}

	translated := data.Get("translations.0.translatedText")
	if !translated.Exists() {
		return "", &Error{Provider: ProviderGoogle, StatusCode: http.StatusOK, Message: "unexpected response: missing translation"}
	}
	return translated.String(), nil
}

// TranslateSupported asks the languages endpoint which sources can be
// translated into the target. Answers are cached per target.
func (g *Google) TranslateSupported(ctx context.Context, from, to string) (bool, error) {
	target, ok := lookupLocale(googleLanguages, to)
	if !ok {
		return false, localeNotSupported(to)
	}

	sources, err := g.supportedSources(ctx, target)
	if err != nil {
		return false, err
	}
	for _, code := range sources {
		if strings.EqualFold(code, from) {
			return true, nil
		}
	}
	return false, nil
}

func (g *Google) supportedSources(ctx context.Context, target string) ([]string, error) {
	g.mu.Lock()
	cached, ok := g.languages[target]
	g.mu.Unlock()
	if ok {
		return cached, nil
	}

	data, err := g.result(ctx, "/languages", url.Values{"target": {target}})
	if err != nil {
		return nil, err
	}

	var codes []string
	for _, lang := range data.Get("languages.#.language").Array() {
		codes = append(codes, lang.String())
	}

	g.mu.Lock()
	g.languages[target] = codes
	g.mu.Unlock()
	return codes, nil
}
