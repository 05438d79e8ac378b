// Package model defines domain entities for the application.
package model

import "time"

// User is a registered account. Username and email are globally unique.
// PasswordHash holds the encoded Argon2id hash and is never serialized.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
