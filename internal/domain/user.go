package domain

// User is the acting principal of a search or index request. Authentication
// happens upstream; this module only needs the identity and the admin flag.
// The zero value is the anonymous user.
type User struct {
	ID    int64
	Admin bool
}

// Anonymous reports whether the user is unauthenticated.
func (u User) Anonymous() bool { return u.ID == 0 }

// AnonymousUser returns the unauthenticated principal.
func AnonymousUser() User { return User{} }
