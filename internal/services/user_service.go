package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/dto"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/models"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/progression"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	store    repository.Store
	curve    progression.Curve
	hashCost int
}

func NewUserService(store repository.Store, curve progression.Curve) *UserService {
	return &UserService{store: store, curve: curve, hashCost: bcrypt.DefaultCost}
}

// ListUsers returns every profile except reserved system accounts.
func (s *UserService) ListUsers(ctx context.Context) ([]dto.UserProfile, error) {
	users, err := s.store.ListUsers(ctx, models.RoleSystem)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserProfile, len(users))
	for i := range users {
		out[i] = toProfile(&users[i], s.curve)
	}
	return out, nil
}

func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*dto.UserProfile, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := toProfile(user, s.curve)
	return &profile, nil
}

func (s *UserService) ChangeUsername(ctx context.Context, userID uuid.UUID, username string) error {
	name, err := cleanUsername(username)
	if err != nil {
		return err
	}
	return s.update(ctx, userID, repository.UserChanges{Username: &name}, "change_username")
}

func (s *UserService) ChangeEmail(ctx context.Context, userID uuid.UUID, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if existing, err := s.store.FindUserByEmail(ctx, normalized); err == nil {
		if existing.ID == userID {
			return nil
		}
		return ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return s.update(ctx, userID, repository.UserChanges{Email: &normalized}, "change_email")
}

// ChangePassword stores a new hash and revokes every outstanding refresh token.
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	hashed := string(hash)

	return s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := updateUser(ctx, tx, userID, repository.UserChanges{PasswordHash: &hashed}); err != nil {
			return err
		}
		if err := tx.RevokeUserRefreshTokens(ctx, userID); err != nil {
			return fmt.Errorf("failed to revoke refresh tokens: %w", err)
		}
		slog.Info("user updated", "user_id", userID.String(), "action", "change_password")
		return nil
	})
}

func (s *UserService) update(ctx context.Context, userID uuid.UUID, changes repository.UserChanges, action string) error {
	if err := updateUser(ctx, s.store, userID, changes); err != nil {
		return err
	}
	slog.Info("user updated", "user_id", userID.String(), "action", action)
	return nil
}

func (s *UserService) findUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func updateUser(ctx context.Context, store repository.Store, userID uuid.UUID, changes repository.UserChanges) error {
	err := store.UpdateUser(ctx, userID, changes)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrEmailTaken
	default:
		return fmt.Errorf("failed to update user: %w", err)
	}
}
