package store

import "strings"

// Record types used as custom field owners
const (
	TypePost  = "Post"
	TypeTopic = "Topic"
)

// Post types
const (
	PostTypeRegular     = 1
	PostTypeModerator   = 2
	PostTypeSmallAction = 3
	PostTypeWhisper     = 4
)

// User is a forum account
type User struct {
	ID       int64
	Username string
	Groups   []string
	Staff    bool
}

// InAnyGroups reports whether the user belongs to at least one of groups
func (u *User) InAnyGroups(groups []string) bool {
	if u == nil {
		return false
	}
	for _, want := range groups {
		for _, have := range u.Groups {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

// Topic is a discussion thread; its title is translatable
type Topic struct {
	ID     int64
	UserID int64
	Title  string
}

func (t *Topic) RecordType() string      { return TypeTopic }
func (t *Topic) RecordID() int64         { return t.ID }
func (t *Topic) DetectionText() string   { return t.Title }
func (t *Topic) TranslationText() string { return t.Title }

// Post is a single reply. Raw is the author's markdown, Cooked the rendered HTML.
type Post struct {
	ID         int64
	TopicID    int64
	UserID     int64
	PostNumber int
	Raw        string
	Cooked     string
	PostType   int
}

func (p *Post) RecordType() string      { return TypePost }
func (p *Post) RecordID() int64         { return p.ID }
func (p *Post) DetectionText() string   { return p.Raw }
func (p *Post) TranslationText() string { return p.Cooked }

// IsFirstPost reports whether the post opens its topic
func (p *Post) IsFirstPost() bool {
	return p.PostNumber == 1
}
