// Package batch runs background work: translating new and edited content
// into the automatic target locales, and detecting the language of posts
// queued by the post processor.
package batch
