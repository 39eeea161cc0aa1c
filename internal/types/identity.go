package types

import "time"

// Identity is an authenticated user as reported by the identity provider.
type Identity struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	PictureURL string    `json:"picture_url,omitempty"`
	Provider   string    `json:"provider"`
	SignedInAt time.Time `json:"signed_in_at"`
}
