package model

type Admin struct {
	Username string `json:"username" validate:"required"`
	// Bcrypt hash, never the plaintext password.
	PasswordHash string `json:"-"`
}
