package domain

import "time"

// Token represents issued access token metadata.
type Token struct {
	AccessToken string
	SubjectID   string
	Role        UserRole
	ExpiresAt   time.Time
}
