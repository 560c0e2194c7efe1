// Package render builds the post and topic payloads returned to clients.
// When experimental topic translation is on, cooked text and titles are
// swapped for the viewer's cached translation unless the client asked for
// the original.
package render
