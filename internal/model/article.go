package model

import "time"

// Article is a blog post.
//
// Title, Intro and Text are the only mutable fields. ID, CreatedAt and
// CreatorName are fixed at creation.
//
// WHY CreatorName *string?
// An article written by an anonymous visitor has no creator at all, which is
// different from a creator whose name is "". A nil pointer maps to SQL NULL
// and makes that distinction impossible to lose: such an article can never be
// edited or deleted by anyone.
//
// CreatorName is a copy of User.Name taken when the article was created, not
// a foreign key. Renaming a user (not possible today) would orphan their
// articles, and two users who share a display name share ownership.
type Article struct {
	ID          string    `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Intro       string    `json:"intro"       db:"intro"`
	Text        string    `json:"text"        db:"text"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	CreatorName *string   `json:"creatorName" db:"creator_name"`
}

// Creator returns the creator's name, or "" for an anonymous article.
// Handy in templates, where dereferencing a pointer is awkward.
func (a Article) Creator() string {
	if a.CreatorName == nil {
		return ""
	}
	return *a.CreatorName
}
