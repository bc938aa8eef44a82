package service

import "github.com/sakif/blog/internal/model"

// CanMutate reports whether id may edit or delete article.
//
// True only for an authenticated identity whose name is exactly the
// article's creator name. Anonymous visitors can change nothing, and
// anonymous articles (nil CreatorName) can be changed by nobody.
//
// Ownership is by display name, not user ID: two accounts that share a name
// own each other's articles. Handlers use this to decide whether to show the
// edit and delete controls; ArticleService uses it to enforce them.
func CanMutate(id model.Identity, article *model.Article) bool {
	if article == nil || article.CreatorName == nil || !id.Authenticated() {
		return false
	}
	return *article.CreatorName == id.Name
}
