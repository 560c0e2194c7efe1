package config

import (
	"os"
	"reflect"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load(viper.New())

	if cfg.Enabled {
		t.Error("Expected translator to be disabled by default")
	}
	if cfg.Provider != "Microsoft" {
		t.Errorf("Expected default provider Microsoft, got %s", cfg.Provider)
	}
	if cfg.MaxCharactersPerTranslation != 5000 {
		t.Errorf("Expected max characters 5000, got %d", cfg.MaxCharactersPerTranslation)
	}
	if cfg.DetectBatchSize != 100 {
		t.Errorf("Expected detect batch size 100, got %d", cfg.DetectBatchSize)
	}
	if cfg.AzureRegion != "global" {
		t.Errorf("Expected region global, got %s", cfg.AzureRegion)
	}
	if cfg.ServerAddr != ":8080" {
		t.Errorf("Expected server addr :8080, got %s", cfg.ServerAddr)
	}
	if cfg.AutomaticTranslationEnabled() {
		t.Error("Automatic translation should be off without target languages")
	}
}

func TestLoadLists(t *testing.T) {
	v := viper.New()
	v.Set("translator.enabled", true)
	v.Set("translator.automatic_target_languages", "de|fr")
	v.Set("translator.restrict_by_group", "staff|trust_level_1")

	cfg := Load(v)

	if !reflect.DeepEqual(cfg.AutomaticTargetLanguages, []string{"de", "fr"}) {
		t.Errorf("Unexpected target languages: %v", cfg.AutomaticTargetLanguages)
	}
	if !reflect.DeepEqual(cfg.RestrictByGroup, []string{"staff", "trust_level_1"}) {
		t.Errorf("Unexpected groups: %v", cfg.RestrictByGroup)
	}
	if !cfg.AutomaticTranslationEnabled() {
		t.Error("Expected automatic translation to be enabled")
	}
}

func TestLoadKeyPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		envKey   string
		cfgKey   string
		expected string
	}{
		{"from environment", "env-key", "config-key", "env-key"},
		{"from config when no env", "", "config-key", "config-key"},
		{"empty when neither set", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envKey != "" {
				os.Setenv("GOOGLE_TRANSLATE_API_KEY", tt.envKey)
				defer os.Unsetenv("GOOGLE_TRANSLATE_API_KEY")
			} else {
				os.Unsetenv("GOOGLE_TRANSLATE_API_KEY")
			}

			v := viper.New()
			if tt.cfgKey != "" {
				v.Set("google.api_key", tt.cfgKey)
			}

			if got := Load(v).GoogleAPIKey; got != tt.expected {
				t.Errorf("GoogleAPIKey = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestLoadAIKeyFollowsBackend(t *testing.T) {
	os.Setenv("GEMINI_API_KEY", "gemini-key")
	defer os.Unsetenv("GEMINI_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")

	v := viper.New()
	v.Set("ai.backend", "gemini")

	if got := Load(v).AIAPIKey; got != "gemini-key" {
		t.Errorf("AIAPIKey = %q, want gemini-key", got)
	}
}
