package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExpiredSessionRetention is how long a session record outlives its expiry
// before stores may drop it. Within that window a refresh is answered as
// expired rather than unknown.
const ExpiredSessionRetention = time.Hour

// Session is the refresh record of one login. Rotation rewrites the token
// pair and expiry in place, so a login never owns more than one live record.
type Session struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	AccessToken   string    `json:"-" gorm:"not null"`
	RefreshToken  string    `json:"-" gorm:"uniqueIndex;not null"`
	OwnerUsername string    `json:"ownerUsername" gorm:"column:owner_username;not null"`
	ExpiresAt     time.Time `json:"expiresAt" gorm:"index;not null"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (s *Session) ExpiredAt(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
