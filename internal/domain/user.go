package domain

import "time"

// User is a chat participant referenced by transcript messages.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	EmailAddress string    `json:"email_address"`
	AvatarURL    string    `json:"avatar_url"`
	Type         string    `json:"type"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserEnvelope is the payload of users/{id}.json.
type UserEnvelope struct {
	User *User `json:"user"`
}
