package model

// Identity is who is making the current request.
//
// It is either authenticated (UserID and Name set) or anonymous (the zero
// value). Handlers read it once from the request context and pass it
// explicitly to the services that need it; nothing looks it up implicitly.
type Identity struct {
	UserID string
	Name   string
}

// Anonymous is the identity of a visitor without a valid session.
var Anonymous = Identity{}

// Authenticated reports whether the identity belongs to a logged-in user.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}
