package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID             uuid.UUID                      `json:"id" gorm:"type:uuid;primary_key"`
	Username       string                         `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash   string                         `json:"-" gorm:"not null"`
	LastModifiedAt time.Time                      `json:"lastModifiedAt" gorm:"not null"`
	OwnedItemIDs   datatypes.JSONSlice[uuid.UUID] `json:"ownedItemIds" gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt      time.Time                      `json:"createdAt"`
}

// FreshnessMark is the instant every access token must not predate.
func (u *User) FreshnessMark() time.Time {
	return u.LastModifiedAt
}

// Touch advances LastModifiedAt to now, keeping it strictly increasing at
// millisecond resolution so tokens minted before the call are always stale.
func (u *User) Touch(now time.Time) {
	next := now.UTC().Truncate(time.Millisecond)
	if !next.After(u.LastModifiedAt) {
		next = u.LastModifiedAt.Add(time.Millisecond)
	}
	u.LastModifiedAt = next
}

func (u *User) OwnsItem(id uuid.UUID) bool {
	return slices.Contains(u.OwnedItemIDs, id)
}

func (u *User) AddItem(id uuid.UUID) {
	u.OwnedItemIDs = append(u.OwnedItemIDs, id)
}

// RemoveItem drops the first occurrence of id and reports whether it was present.
func (u *User) RemoveItem(id uuid.UUID) bool {
	i := slices.Index(u.OwnedItemIDs, id)
	if i < 0 {
		return false
	}
	u.OwnedItemIDs = slices.Delete(u.OwnedItemIDs, i, i+1)
	return true
}
