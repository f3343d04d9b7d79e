package model

import "time"

// User is the owner of the bearer token.
type User struct {
	CreatedAt time.Time
	FirstName *string
	LastName  *string
	Raw       Raw
	ID        string
	Email     string
}

// FullName joins whichever name parts are present.
func (u User) FullName() string {
	switch {
	case u.FirstName != nil && u.LastName != nil:
		return *u.FirstName + " " + *u.LastName
	case u.FirstName != nil:
		return *u.FirstName
	case u.LastName != nil:
		return *u.LastName
	default:
		return ""
	}
}
