package dto

import "github.com/google/uuid"

// UserProfile is the public view of a user. CurrentLevel is always derived
// from CurrentXP.
type UserProfile struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	CurrentXP      int       `json:"current_xp"`
	CurrentLevel   int       `json:"current_level"`
	XPIntoLevel    int       `json:"xp_into_level"`
	XPForNextLevel int       `json:"xp_for_next_level"`
}

type DeleteAccountRequest struct {
	Password string `json:"password"`
}

type ChangeUsernameRequest struct {
	Username string `json:"username"`
}

type ChangeEmailRequest struct {
	Email string `json:"email"`
}

type ChangePasswordRequest struct {
	Password string `json:"password"`
}
