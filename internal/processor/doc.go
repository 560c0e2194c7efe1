// Package processor reacts to forum events and serves explicit translation
// requests. New and edited content is queued for language detection and,
// when automatic target languages are configured, for translation.
package processor
