package translator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"codeberg.org/snonux/posttranslate/internal"
	"codeberg.org/snonux/posttranslate/internal/kvstore"
	"codeberg.org/snonux/posttranslate/internal/logging"
)

const (
	microsoftIssueTokenURL = "https://api.cognitive.microsoft.com/sts/v1.0/issueToken"
	microsoftAPIURL        = "https://api.cognitive.microsofttranslator.com"
	microsoftLengthLimit   = 5000
	microsoftTokenTTL      = 8 * time.Minute
	microsoftAPIVersion    = "3.0"
)

// microsoftLanguages maps forum locales to Translator language codes
var microsoftLanguages = map[string]string{
	"af": "af", "am": "am", "ar": "ar", "as": "as", "az": "az", "ba": "ba",
	"bg": "bg", "bn": "bn", "bo": "bo", "bs": "bs", "bs_BA": "bs-Latn",
	"ca": "ca", "cs": "cs", "cy": "cy", "da": "da", "de": "de", "dv": "dv",
	"el": "el", "en": "en", "en_US": "en", "en_GB": "en", "es": "es",
	"et": "et", "eu": "eu", "fa_IR": "fa", "fi": "fi", "fj": "fj",
	"fr": "fr", "fr_CA": "fr-CA", "ga": "ga", "gl": "gl", "gu": "gu",
	"he": "he", "hi": "hi", "hr": "hr", "ht": "ht", "hu": "hu", "hy": "hy",
	"id": "id", "is": "is", "it": "it", "iu": "iu", "ja": "ja", "ka": "ka",
	"kk": "kk", "km": "km", "kn": "kn", "ko": "ko", "ku": "ku", "ky": "ky",
	"lo": "lo", "lt": "lt", "lv": "lv", "mg": "mg", "mi": "mi", "mk": "mk",
	"ml": "ml", "mr": "mr", "ms": "ms", "mt": "mt", "my": "my", "nb_NO": "nb",
	"ne": "ne", "nl": "nl", "or": "or", "pa": "pa", "pl_PL": "pl",
	"ps": "ps", "pt": "pt-PT", "pt_BR": "pt", "ro": "ro", "ru": "ru",
	"sk": "sk", "sl": "sl", "sm": "sm", "so": "so", "sq": "sq",
	"sr": "sr-Cyrl", "sv": "sv", "sw": "sw", "ta": "ta", "te": "te",
	"th": "th", "ti": "ti", "tk": "tk", "to": "to", "tr_TR": "tr",
	"tt": "tt", "ty": "ty", "ug": "ug", "uk": "uk", "ur": "ur", "uz": "uz",
	"vi": "vi", "zh_CN": "zh-Hans", "zh_TW": "zh-Hant", "zu": "zu",
}

// MicrosoftConfig configures the Azure Translator client
type MicrosoftConfig struct {
	SubscriptionKey string
	Region          string // "global" or an Azure region such as "westeurope"
	TokenURL        string // defaults to the public issueToken endpoint
	APIURL          string // defaults to the public Translator endpoint
	HTTPClient      *http.Client
}

// Microsoft talks to Azure Translator v3 with a cached bearer token
type Microsoft struct {
	cfg     MicrosoftConfig
	kv      kvstore.Store
	verbose *logging.VerboseLogger
}

// NewMicrosoft creates a Microsoft Translator provider
func NewMicrosoft(cfg MicrosoftConfig, kv kvstore.Store, verbose *logging.VerboseLogger) *Microsoft {
	if cfg.TokenURL == "" {
		cfg.TokenURL = microsoftIssueTokenURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = microsoftAPIURL
	}
	if cfg.Region == "" {
		cfg.Region = "global"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Microsoft{cfg: cfg, kv: kv, verbose: verbose}
}

func (m *Microsoft) Name() string        { return ProviderMicrosoft }
func (m *Microsoft) DetectionLimit() int { return microsoftLengthLimit }
func (m *Microsoft) LengthLimit() int    { return microsoftLengthLimit }

func (m *Microsoft) IsAvailable() error {
	if m.cfg.SubscriptionKey == "" {
		return notConfigured(ProviderMicrosoft, "microsoft.subscription_key")
	}
	return nil
}

// TokenCacheKey is where the bearer token is kept between requests
func (m *Microsoft) TokenCacheKey() string {
	return internal.KeyFor("microsoft-translator")
}

// issueTokenURL adds the subscription key and, outside the global
// region, the region subdomain required by multi-service resources
func (m *Microsoft) issueTokenURL() (string, error) {
	u, err := url.Parse(m.cfg.TokenURL)
	if err != nil {
		return "", fmt.Errorf("invalid token url: %w", err)
	}
	if m.cfg.Region != "global" {
		u.Host = m.cfg.Region + "." + u.Host
	}
	q := u.Query()
	q.Set("Subscription-Key", m.cfg.SubscriptionKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// accessToken returns the cached token or issues a new one
func (m *Microsoft) accessToken(ctx context.Context) (string, error) {
	if token, ok, err := m.kv.Get(ctx, m.TokenCacheKey()); err == nil && ok {
		return token, nil
	}
	if err := m.IsAvailable(); err != nil {
		return "", err
	}

	tokenURL, err := m.issueTokenURL()
	if err != nil {
		return "", err
	}

	status, body, err := do(ctx, m.cfg.HTTPClient, ProviderMicrosoft, request{url: tokenURL})
	if err != nil {
		return "", err
	}

	token := strings.TrimSpace(string(body))
	switch {
	case status == http.StatusOK && token != "":
		if err := m.kv.SetEx(ctx, m.TokenCacheKey(), token, microsoftTokenTTL); err != nil {
			return "", fmt.Errorf("failed to cache access token: %w", err)
		}
		return token, nil
	case token == "":
		return "", ErrMissingToken
	default:
		return "", m.responseError(status, body)
	}
}

func (m *Microsoft) responseError(status int, body []byte) error {
	code := gjson.GetBytes(body, "error.code")
	msg := gjson.GetBytes(body, "error.message")
	if code.Exists() && msg.Exists() {
		return &Error{Provider: ProviderMicrosoft, StatusCode: status, Message: fmt.Sprintf("%s: %s", code.String(), msg.String())}
	}
	return responseError(ProviderMicrosoft, status, body, "error.message", "message")
}

func (m *Microsoft) call(ctx context.Context, path string, query url.Values, text string) ([]byte, error) {
	token, err := m.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	query.Set("api-version", microsoftAPIVersion)
	endpoint := strings.TrimSuffix(m.cfg.APIURL, "/") + path + "?" + query.Encode()
	m.verbose.Logf("Microsoft request %s", endpoint)

	status, body, err := do(ctx, m.cfg.HTTPClient, ProviderMicrosoft, request{
		url:     endpoint,
		headers: map[string]string{"Authorization": "Bearer " + token},
		json:    []map[string]string{{"Text": text}},
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, m.responseError(status, body)
	}
	return body, nil
}

// Detect calls /detect and returns the top language
func (m *Microsoft) Detect(ctx context.Context, text string) (string, error) {
	body, err := m.call(ctx, "/detect", url.Values{}, internal.TruncateRunes(text, microsoftLengthLimit))
	if err != nil {
		return "", err
	}
	return field(ProviderMicrosoft, body, "0.language")
}

// Translate calls /translate with HTML text type
func (m *Microsoft) Translate(ctx context.Context, text, from, to string) (string, error) {
	target, ok := lookupLocale(microsoftLanguages, to)
	if !ok {
		return "", localeNotSupported(to)
	}
	if len([]rune(text)) > microsoftLengthLimit {
		return "", ErrTooLong
	}

	query := url.Values{}
	query.Set("from", from)
	query.Set("to", target)
	query.Set("textType", "html")

	body, err := m.call(ctx, "/translate", query, text)
	if err != nil {
		return "", err
	}
	return field(ProviderMicrosoft, body, "0.translations.0.text")
}

// TranslateSupported accepts a source that is either a forum locale or a
// Translator code, and a target that maps to a Translator code
func (m *Microsoft) TranslateSupported(_ context.Context, from, to string) (bool, error) {
	if _, ok := lookupLocale(microsoftLanguages, to); !ok {
		return false, localeNotSupported(to)
	}
	if _, ok := microsoftLanguages[HostLocale(from)]; ok {
		return true, nil
	}
	for _, code := range microsoftLanguages {
		if strings.EqualFold(code, from) {
			return true, nil
		}
	}
	return false, nil
}
