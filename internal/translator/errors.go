package translator

import (
	"errors"
	"fmt"
)

var (
	// ErrFailed means the provider cannot translate between the detected and target locale
	ErrFailed = errors.New("translation failed")
	// ErrTooLong means the text exceeds what the provider accepts in one request
	ErrTooLong = errors.New("text is too long to translate")
	// ErrLocaleNotSupported means the target locale has no provider language code
	ErrLocaleNotSupported = errors.New("locale is not supported by the translator")
	// ErrMissingToken means the token endpoint answered without a token
	ErrMissingToken = errors.New("translator did not return an access token")
	// ErrNotConfigured means the provider credentials are missing
	ErrNotConfigured = errors.New("translator is not configured")
)

// Error is a failed provider call. Message carries the provider's own error text.
type Error struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Provider + ": " + e.Message
}

// clientError reports whether the provider rejected the request itself
// rather than failing to serve it
func (e *Error) clientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

func unsupportedPair(from, to string) error {
	return fmt.Errorf("%w: cannot translate from %s to %s", ErrFailed, from, to)
}

func localeNotSupported(locale string) error {
	return fmt.Errorf("%w: %s", ErrLocaleNotSupported, locale)
}

func notConfigured(provider, setting string) error {
	return fmt.Errorf("%w: %s requires %s", ErrNotConfigured, provider, setting)
}
