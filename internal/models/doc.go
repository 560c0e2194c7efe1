// Package models lists the chat models available to the AI translation
// backend so that ai.model can be set to one the API key can use.
package models
