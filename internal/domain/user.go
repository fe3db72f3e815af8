package domain

import (
	"time"
)

// User represents a registered account. Plans and sessions are scoped by its ID.
type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`    // Should be unique
	PasswordHash string    `bson:"passwordHash" json:"-"` // Never expose this via JSON
	MemberSince  string    `bson:"memberSince" json:"memberSince"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Identity is the safe projection of a User handed to clients and to the
// plan lifecycle engine. It never carries credentials.
type Identity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	MemberSince string `json:"memberSince"`
}

// Identity returns the credential-free view of the user.
func (u *User) Identity() Identity {
	return Identity{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		MemberSince: u.MemberSince,
	}
}
