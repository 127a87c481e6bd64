package models

// Identity ties a session to its user row and records whether that user
// was synthesized for an unauthenticated connection. Both kinds are the
// same entity to the message and visit models; the flag is kept for
// future auth policy.
type Identity struct {
	User  *User
	Guest bool
}

func Registered(u *User) Identity { return Identity{User: u} }

func GuestOf(u *User) Identity { return Identity{User: u, Guest: true} }
