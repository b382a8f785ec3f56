package services

import (
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/progression"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrQuestNotFound      = fmt.Errorf("quest %w", ErrNotFound)
	ErrGameNotFound       = fmt.Errorf("game %w", ErrNotFound)
	ErrEmailTaken         = errors.New("email already registered")
	ErrAlreadyCompleted   = errors.New("quest already completed")
	ErrQuestExpired       = errors.New("quest has expired")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidArgument    = progression.ErrInvalidArgument
)

// invalidInput decorates ErrInvalidInput with a message safe to show users.
func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
