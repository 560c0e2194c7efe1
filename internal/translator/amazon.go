package translator

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/translate"
	"github.com/aws/aws-sdk-go-v2/service/translate/types"
	"github.com/aws/smithy-go"

	"codeberg.org/snonux/posttranslate/internal"
	"codeberg.org/snonux/posttranslate/internal/logging"
)

// AWS Translate accepts at most 10000 bytes per TranslateText call
const amazonLengthLimit = 10000

// amazonLanguages maps forum locales to AWS Translate language codes
var amazonLanguages = map[string]string{
	"af": "af", "am": "am", "ar": "ar", "az": "az", "bg": "bg", "bn": "bn",
	"bs": "bs", "bs_BA": "bs", "ca": "ca", "cs": "cs", "cy": "cy", "da": "da",
	"de": "de", "el": "el", "en": "en", "en_GB": "en", "en_US": "en",
	"es": "es", "es_MX": "es-MX", "et": "et", "fa": "fa", "fa_IR": "fa",
	"fi": "fi", "fr": "fr", "fr_CA": "fr-CA", "ga": "ga", "gu": "gu",
	"he": "he", "hi": "hi", "hr": "hr", "ht": "ht", "hu": "hu", "hy": "hy",
	"id": "id", "is": "is", "it": "it", "ja": "ja", "ka": "ka", "kk": "kk",
	"kn": "kn", "ko": "ko", "lt": "lt", "lv": "lv", "mk": "mk", "ml": "ml",
	"mn": "mn", "mr": "mr", "ms": "ms", "mt": "mt", "nb_NO": "no", "nl": "nl",
	"pa": "pa", "pl": "pl", "pl_PL": "pl", "ps": "ps", "pt": "pt-PT",
	"pt_BR": "pt", "ro": "ro", "ru": "ru", "si": "si", "sk": "sk", "sl": "sl",
	"so": "so", "sq": "sq", "sr": "sr", "sv": "sv", "sw": "sw", "ta": "ta",
	"te": "te", "th": "th", "tl": "tl", "tr": "tr", "tr_TR": "tr", "uk": "uk",
	"ur": "ur", "uz": "uz", "vi": "vi", "zh_CN": "zh", "zh_TW": "zh-TW",
}

// AmazonConfig configures the AWS Translate client. Empty credentials
// leave the provider unconfigured.
type AmazonConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // overrides the regional endpoint
	HTTPClient      *http.Client
}

// Amazon translates through AWS Translate
type Amazon struct {
	cfg     AmazonConfig
	client  *translate.Client
	verbose *logging.VerboseLogger
}

// NewAmazon creates an AWS Translate provider
func NewAmazon(cfg AmazonConfig, verbose *logging.VerboseLogger) *Amazon {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}

	awsCfg := aws.Config{
		Region:     cfg.Region,
		HTTPClient: cfg.HTTPClient,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		RetryMaxAttempts: 1,
	}

	client := translate.NewFromConfig(awsCfg, func(o *translate.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &Amazon{cfg: cfg, client: client, verbose: verbose}
}

func (a *Amazon) Name() string        { return ProviderAmazon }
func (a *Amazon) DetectionLimit() int { return DetectionCharLimit }
func (a *Amazon) LengthLimit() int    { return amazonLengthLimit }

func (a *Amazon) IsAvailable() error {
	if a.cfg.AccessKeyID == "" || a.cfg.SecretAccessKey == "" {
		return notConfigured(ProviderAmazon, "amazon.access_key_id and amazon.secret_access_key")
	}
	return nil
}

func (a *Amazon) translateText(ctx context.Context, text, from, to string) (*translate.TranslateTextOutput, error) {
	if err := a.IsAvailable(); err != nil {
		return nil, err
	}

	a.verbose.Logf("Amazon TranslateText %s -> %s in %s", from, to, a.cfg.Region)
	out, err := a.client.TranslateText(ctx, &translate.TranslateTextInput{
		Text:               aws.String(text),
		SourceLanguageCode: aws.String(from),
		TargetLanguageCode: aws.String(to),
	})
	if err != nil {
		return nil, a.convertError(err, from, to)
	}
	return out, nil
}

// convertError turns SDK errors into the package's error values
func (a *Amazon) convertError(err error, from, to string) error {
	var unsupported *types.UnsupportedLanguagePairException
	if errors.As(err, &unsupported) {
		return unsupportedPair(from, to)
	}
	var tooLong *types.TextSizeLimitExceededException
	if errors.As(err, &tooLong) {
		return ErrTooLong
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	translatorErr := &Error{Provider: ProviderAmazon, Message: err.Error()}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		translatorErr.Message = apiErr.ErrorCode() + ": " + apiErr.ErrorMessage()
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		translatorErr.StatusCode = respErr.HTTPStatusCode()
	}
	return translatorErr
}

// Detect lets AWS auto-detect the source while translating a sample to English
func (a *Amazon) Detect(ctx context.Context, text string) (string, error) {
	out, err := a.translateText(ctx, internal.TruncateRunes(text, DetectionCharLimit), "auto", "en")
	if err != nil {
		return "", err
	}
	return aws.ToString(out.SourceLanguageCode), nil
}

func (a *Amazon) Translate(ctx context.Context, text, from, to string) (string, error) {
	target, ok := lookupLocale(amazonLanguages, to)
	if !ok {
		return "", localeNotSupported(to)
	}
	if len(text) > amazonLengthLimit {
		return "", ErrTooLong
	}

	out, err := a.translateText(ctx, text, from, target)
	if err != nil {
		return "", err
	}
	return aws.ToString(out.TranslatedText), nil
}

func (a *Amazon) TranslateSupported(_ context.Context, from, to string) (bool, error) {
	if _, ok := lookupLocale(amazonLanguages, to); !ok {
		return false, localeNotSupported(to)
	}
	for _, code := range amazonLanguages {
		if LocaleMatches(code, from) {
			return true, nil
		}
	}
	return false, nil
}
