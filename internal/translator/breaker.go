package translator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	log "github.com/sirupsen/logrus"
)

// breakerProvider stops calling a provider that keeps failing. Only
// transport errors and server side failures count; rejected requests and
// unsupported languages do not trip the breaker.
type breakerProvider struct {
	Provider
	cb *gobreaker.CircuitBreaker
}

// WithCircuitBreaker wraps p so that five consecutive failures pause calls for a minute
func WithCircuitBreaker(p Provider) Provider {
	return withBreakerSettings(p, 5, time.Minute)
}

func withBreakerSettings(p Provider, maxFailures uint32, openFor time.Duration) Provider {
	settings := gobreaker.Settings{
		Name:    p.Name(),
		Timeout: openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithField("provider", name).Warnf("circuit breaker %s -> %s", from, to)
		},
	}
	return &breakerProvider{Provider: p, cb: gobreaker.NewCircuitBreaker(settings)}
}

func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.clientError()
	}
	// Sentinels describe the request, not the provider's health
	return errors.Is(err, ErrFailed) || errors.Is(err, ErrTooLong) ||
		errors.Is(err, ErrLocaleNotSupported) || errors.Is(err, ErrNotConfigured)
}

func (b *breakerProvider) Detect(ctx context.Context, text string) (string, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.Provider.Detect(ctx, text)
	})
	if err != nil {
		return "", b.wrap(err)
	}
	return res.(string), nil
}

func (b *breakerProvider) Translate(ctx context.Context, text, from, to string) (string, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.Provider.Translate(ctx, text, from, to)
	})
	if err != nil {
		return "", b.wrap(err)
	}
	return res.(string), nil
}

func (b *breakerProvider) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &Error{Provider: b.Name(), Message: fmt.Sprintf("temporarily unavailable: %v", err)}
	}
	return err
}
