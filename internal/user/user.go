package user

import (
	"time"
)

// User is the profile document of an authenticated account
type User struct {
	UID         string    `firestore:"uid" json:"uid"` // identity provider UID
	Email       string    `firestore:"email" json:"email"`
	DisplayName string    `firestore:"displayName" json:"displayName"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
	LastLoginAt time.Time `firestore:"lastLoginAt" json:"lastLoginAt"`
}

// Name returns the display name, falling back to the email
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}
