package config

import (
	"os"

	"github.com/spf13/viper"

	"codeberg.org/snonux/posttranslate/internal"
)

// Config holds the site settings
type Config struct {
	Enabled                      bool
	Provider                     string
	FallbackProvider             string
	VerboseLogs                  bool
	AutomaticTargetLanguages     []string
	ExperimentalTopicTranslation bool
	RestrictByGroup              []string
	RestrictByPosterGroup        []string
	MaxCharactersPerTranslation  int
	DetectBatchSize              int
	DefaultLocale                string

	// Provider credentials
	AzureSubscriptionKey   string
	AzureRegion            string
	GoogleAPIKey           string
	YandexAPIKey           string
	LibreTranslateEndpoint string
	LibreTranslateAPIKey   string
	AmazonRegion           string
	AmazonAccessKeyID      string
	AmazonSecretAccessKey  string
	AIBackend              string // "openai" or "gemini"
	AIModel                string
	AIAPIKey               string
	AIBaseURL              string

	// Infrastructure
	DatabasePath string
	RedisAddr    string
	ServerAddr   string
	LogFile      string
	LogMaxSizeMB int
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("translator.enabled", false)
	v.SetDefault("translator.provider", "Microsoft")
	v.SetDefault("translator.max_characters_per_translation", 5000)
	v.SetDefault("translator.detect_batch_size", 100)
	v.SetDefault("translator.default_locale", "en")
	v.SetDefault("microsoft.region", "global")
	v.SetDefault("amazon.region", "us-east-1")
	v.SetDefault("ai.backend", "openai")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("store.database", "./posttranslate.db")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.max_size_mb", 10)
}

// Load reads the settings from v. Provider keys found in the environment
// take precedence over the configuration file.
func Load(v *viper.Viper) *Config {
	SetDefaults(v)

	cfg := &Config{
		Enabled:                      v.GetBool("translator.enabled"),
		Provider:                     v.GetString("translator.provider"),
		FallbackProvider:             v.GetString("translator.fallback_provider"),
		VerboseLogs:                  v.GetBool("translator.verbose_logs"),
		AutomaticTargetLanguages:     internal.SplitList(v.GetString("translator.automatic_target_languages")),
		ExperimentalTopicTranslation: v.GetBool("translator.experimental_topic_translation"),
		RestrictByGroup:              internal.SplitList(v.GetString("translator.restrict_by_group")),
		RestrictByPosterGroup:        internal.SplitList(v.GetString("translator.restrict_by_poster_group")),
		MaxCharactersPerTranslation:  v.GetInt("translator.max_characters_per_translation"),
		DetectBatchSize:              v.GetInt("translator.detect_batch_size"),
		DefaultLocale:                v.GetString("translator.default_locale"),

		AzureSubscriptionKey:   keyFromEnv("AZURE_TRANSLATOR_KEY", v.GetString("microsoft.subscription_key")),
		AzureRegion:            v.GetString("microsoft.region"),
		GoogleAPIKey:           keyFromEnv("GOOGLE_TRANSLATE_API_KEY", v.GetString("google.api_key")),
		YandexAPIKey:           keyFromEnv("YANDEX_API_KEY", v.GetString("yandex.api_key")),
		LibreTranslateEndpoint: v.GetString("libretranslate.endpoint"),
		LibreTranslateAPIKey:   v.GetString("libretranslate.api_key"),
		AmazonRegion:           v.GetString("amazon.region"),
		AmazonAccessKeyID:      keyFromEnv("AWS_ACCESS_KEY_ID", v.GetString("amazon.access_key_id")),
		AmazonSecretAccessKey:  keyFromEnv("AWS_SECRET_ACCESS_KEY", v.GetString("amazon.secret_access_key")),
		AIBackend:              v.GetString("ai.backend"),
		AIModel:                v.GetString("ai.model"),
		AIBaseURL:              v.GetString("ai.base_url"),

		DatabasePath: v.GetString("store.database"),
		RedisAddr:    v.GetString("redis.addr"),
		ServerAddr:   v.GetString("server.addr"),
		LogFile:      v.GetString("log.file"),
		LogMaxSizeMB: v.GetInt("log.max_size_mb"),
	}

	if cfg.AIBackend == "gemini" {
		cfg.AIAPIKey = keyFromEnv("GEMINI_API_KEY", v.GetString("ai.api_key"))
	} else {
		cfg.AIAPIKey = keyFromEnv("OPENAI_API_KEY", v.GetString("ai.api_key"))
	}

	return cfg
}

// AutomaticTranslationEnabled reports whether new content is translated in the background
func (c *Config) AutomaticTranslationEnabled() bool {
	return c.Enabled && len(c.AutomaticTargetLanguages) > 0
}

func keyFromEnv(envName, fallback string) string {
	if key := os.Getenv(envName); key != "" {
		return key
	}
	return fallback
}
