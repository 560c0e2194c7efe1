// Package problemcheck reports translator configuration and runtime
// problems to administrators.
package problemcheck

import (
	"context"
	"fmt"

	"codeberg.org/snonux/posttranslate/internal/config"
	"codeberg.org/snonux/posttranslate/internal/translator"
)

// Problem identifiers
const (
	MissingTranslatorAPIKey = "missing_translator_api_key"
	TranslatorError         = "translator_error"
)

// Problem is one admin dashboard entry
type Problem struct {
	Identifier string `json:"identifier"`
	Message    string `json:"message"`
}

// ErrorSource returns the last recorded provider error
type ErrorSource interface {
	LastError(ctx context.Context) (string, bool, error)
}

// Checker runs all problem checks
type Checker struct {
	cfg    *config.Config
	errors ErrorSource
}

// NewChecker creates a checker
func NewChecker(cfg *config.Config, errors ErrorSource) *Checker {
	return &Checker{cfg: cfg, errors: errors}
}

// Run returns the current problems, none when the translator is disabled
func (c *Checker) Run(ctx context.Context) ([]Problem, error) {
	problems := []Problem{}
	if !c.cfg.Enabled {
		return problems, nil
	}

	if p, ok := c.MissingAPIKey(); ok {
		problems = append(problems, p)
	}

	p, ok, err := c.LastTranslatorError(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		problems = append(problems, p)
	}
	return problems, nil
}

// MissingAPIKey reports a selected provider without credentials
func (c *Checker) MissingAPIKey() (Problem, bool) {
	setting := ""
	switch c.cfg.Provider {
	case translator.ProviderMicrosoft:
		if c.cfg.AzureSubscriptionKey == "" {
			setting = "microsoft.subscription_key"
		}
	case translator.ProviderGoogle:
		if c.cfg.GoogleAPIKey == "" {
			setting = "google.api_key"
		}
	case translator.ProviderYandex:
		if c.cfg.YandexAPIKey == "" {
			setting = "yandex.api_key"
		}
	case translator.ProviderLibreTranslate:
		if c.cfg.LibreTranslateEndpoint == "" {
			setting = "libretranslate.endpoint"
		}
	case translator.ProviderAmazon:
		if c.cfg.AmazonAccessKeyID == "" || c.cfg.AmazonSecretAccessKey == "" {
			setting = "amazon.access_key_id and amazon.secret_access_key"
		}
	case translator.ProviderDiscourseAI:
		if c.cfg.AIAPIKey == "" {
			setting = "ai.api_key"
		}
	}

	if setting == "" {
		return Problem{}, false
	}
	return Problem{
		Identifier: MissingTranslatorAPIKey,
		Message:    fmt.Sprintf("The %s translator is enabled but %s is not set.", c.cfg.Provider, setting),
	}, true
}

// LastTranslatorError reports the most recent failed provider call
func (c *Checker) LastTranslatorError(ctx context.Context) (Problem, bool, error) {
	msg, ok, err := c.errors.LastError(ctx)
	if err != nil {
		return Problem{}, false, fmt.Errorf("failed to read translator error: %w", err)
	}
	if !ok {
		return Problem{}, false, nil
	}
	return Problem{
		Identifier: TranslatorError,
		Message:    fmt.Sprintf("The %s translator failed: %s", c.cfg.Provider, msg),
	}, true, nil
}
