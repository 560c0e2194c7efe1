// Package server exposes the forum content and translation endpoints over
// HTTP with gin. The current user is taken from the X-User-Id header.
package server
