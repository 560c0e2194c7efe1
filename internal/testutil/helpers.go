package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"codeberg.org/snonux/posttranslate/internal/config"
	"codeberg.org/snonux/posttranslate/internal/store"
)

// OpenTestStore opens a fresh SQLite store in a temporary directory
func OpenTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "forum.db"))
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// NewTestConfig returns an enabled configuration with no credentials
func NewTestConfig() *config.Config {
	return &config.Config{
		Enabled:                     true,
		Provider:                    "Microsoft",
		MaxCharactersPerTranslation: 5000,
		DetectBatchSize:             100,
		DefaultLocale:               "en",
	}
}

// Forum is a small seeded forum
type Forum struct {
	Admin  *store.User
	Author *store.User
	Reader *store.User
	Topic  *store.Topic
	Post   *store.Post // first post of Topic
}

// SeedForum creates three users and a German topic with one post
func SeedForum(t *testing.T, st *store.Store) *Forum {
	t.Helper()
	ctx := context.Background()

	f := &Forum{
		Admin:  &store.User{Username: "admin", Staff: true, Groups: []string{"staff"}},
		Author: &store.User{Username: "hans", Groups: []string{"trust_level_1"}},
		Reader: &store.User{Username: "jane", Groups: []string{"trust_level_1"}},
	}
	for _, u := range []*store.User{f.Admin, f.Author, f.Reader} {
		if err := st.CreateUser(ctx, u); err != nil {
			t.Fatalf("Failed to create user %s: %v", u.Username, err)
		}
	}

	f.Topic = &store.Topic{UserID: f.Author.ID, Title: "Guten Tag"}
	if err := st.CreateTopic(ctx, f.Topic); err != nil {
		t.Fatalf("Failed to create topic: %v", err)
	}

	f.Post = &store.Post{TopicID: f.Topic.ID, UserID: f.Author.ID, Raw: "Wie geht es dir?", PostType: store.PostTypeRegular}
	if err := st.CreatePost(ctx, f.Post); err != nil {
		t.Fatalf("Failed to create post: %v", err)
	}
	return f
}
