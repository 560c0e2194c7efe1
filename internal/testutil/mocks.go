package testutil

import (
	"context"
	"fmt"
	"sync"

	"codeberg.org/snonux/posttranslate/internal/translator"
)

// MockProvider is a translator.Provider answering from maps. Unknown text is
// detected as DefaultLocale and translated to "<to>: <text>".
type MockProvider struct {
	DefaultLocale string
	Locales       map[string]string // text -> detected locale
	Unsupported   map[string]bool   // target locale -> unsupported
	Errors        map[string]error  // text -> error on detect and translate
	Limit         int

	mu    sync.Mutex
	Calls []string
}

var _ translator.Provider = (*MockProvider)(nil)

func (m *MockProvider) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

// CallCount returns the number of recorded calls
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func (m *MockProvider) Name() string        { return "Mock" }
func (m *MockProvider) DetectionLimit() int { return translator.DetectionCharLimit }
func (m *MockProvider) LengthLimit() int    { return m.Limit }
func (m *MockProvider) IsAvailable() error  { return nil }

// Detect mocks language detection
func (m *MockProvider) Detect(_ context.Context, text string) (string, error) {
	m.record("Detect: " + text)

	if err, ok := m.Errors[text]; ok {
		return "", err
	}
	if locale, ok := m.Locales[text]; ok {
		return locale, nil
	}
	return m.DefaultLocale, nil
}

// Translate mocks translating text
func (m *MockProvider) Translate(_ context.Context, text, from, to string) (string, error) {
	m.record(fmt.Sprintf("Translate: %s (%s->%s)", text, from, to))

	if err, ok := m.Errors[text]; ok {
		return "", err
	}
	return fmt.Sprintf("%s: %s", to, text), nil
}

// TranslateSupported rejects targets listed in Unsupported
func (m *MockProvider) TranslateSupported(_ context.Context, _, to string) (bool, error) {
	return !m.Unsupported[to], nil
}
