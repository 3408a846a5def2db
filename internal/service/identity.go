package service

import "strings"

// Identity is the authenticated caller as established by the auth layer in
// front of this service. The zero value is an anonymous caller.
type Identity struct {
	UserID string
}

// NewIdentity trims the user ID; blank IDs produce an anonymous identity
func NewIdentity(userID string) Identity {
	return Identity{UserID: strings.TrimSpace(userID)}
}

// Anonymous reports whether no user is attached
func (i Identity) Anonymous() bool {
	return i.UserID == ""
}
