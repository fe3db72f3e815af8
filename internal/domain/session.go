package domain

import "time"

// Session is a stored login. A persistent session ("remember me") outlives the
// short default lifetime; either kind is removed on logout.
type Session struct {
	ID         string    `bson:"_id" json:"id"`
	UserID     string    `bson:"userId" json:"userId"`
	Persistent bool      `bson:"persistent" json:"persistent"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	ExpiresAt  time.Time `bson:"expiresAt" json:"expiresAt"`
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
