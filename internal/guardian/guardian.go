// Package guardian decides who may detect and translate which content.
package guardian

import (
	"strings"

	"codeberg.org/snonux/posttranslate/internal/config"
	"codeberg.org/snonux/posttranslate/internal/store"
	"codeberg.org/snonux/posttranslate/internal/translator"
)

// Guardian answers permission questions for one viewer. A nil user is anonymous.
type Guardian struct {
	cfg  *config.Config
	user *store.User
}

// New creates a guardian for user
func New(cfg *config.Config, user *store.User) *Guardian {
	return &Guardian{cfg: cfg, user: user}
}

// User returns the viewer
func (g *Guardian) User() *store.User {
	return g.user
}

// CanDetectLanguage reports whether post is worth a detection call:
// it has raw text, is not a small action, and its author may be translated
func (g *Guardian) CanDetectLanguage(post *store.Post, author *store.User) bool {
	if post == nil || strings.TrimSpace(post.Raw) == "" {
		return false
	}
	if post.PostType == store.PostTypeSmallAction {
		return false
	}
	return len(g.cfg.RestrictByPosterGroup) == 0 || author.InAnyGroups(g.cfg.RestrictByPosterGroup)
}

// UserGroupAllowTranslate reports whether the viewer may request translations
func (g *Guardian) UserGroupAllowTranslate() bool {
	if g.user == nil {
		return false
	}
	return len(g.cfg.RestrictByGroup) == 0 || g.user.InAnyGroups(g.cfg.RestrictByGroup)
}

// PosterGroupAllowTranslate reports whether content by author may be
// translated. Staff may translate anything.
func (g *Guardian) PosterGroupAllowTranslate(author *store.User) bool {
	if g.user != nil && g.user.Staff {
		return true
	}
	if author == nil {
		return false
	}
	return len(g.cfg.RestrictByPosterGroup) == 0 || author.InAnyGroups(g.cfg.RestrictByPosterGroup)
}

// CanTranslate reports whether the viewer should be offered a translation of
// post, given its detected locale and the viewer's locale
func (g *Guardian) CanTranslate(post *store.Post, author *store.User, detected, locale string) bool {
	if !g.cfg.Enabled || post == nil {
		return false
	}
	if !g.UserGroupAllowTranslate() {
		return false
	}
	if detected != "" && translator.LocaleMatches(detected, locale) {
		return false
	}
	return g.PosterGroupAllowTranslate(author)
}
