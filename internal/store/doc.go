// Package store persists users, topics, posts and their custom fields in a
// SQLite database. Custom fields carry the detected language and cached
// translations of each post and topic.
package store
