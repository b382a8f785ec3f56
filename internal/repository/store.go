package repository

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// UserChanges lists the profile fields to overwrite. Nil fields are left alone.
type UserChanges struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// Store is the transactional record store behind every service.
//
// Calls made on the Store passed to WithTx's callback belong to that
// transaction; returning an error from the callback rolls all of them back.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// LockUser reads the user and holds a write lock on it until the
	// surrounding transaction ends.
	LockUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, excludeRoles ...string) ([]models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, changes UserChanges) error
	UpdateProgress(ctx context.Context, id uuid.UUID, xp, level int) error
	// DeleteUser removes the user together with its completions and tokens.
	DeleteUser(ctx context.Context, id uuid.UUID) error

	ListGames(ctx context.Context) ([]models.Game, error)
	FindGameByID(ctx context.Context, id uint) (*models.Game, error)
	ListQuests(ctx context.Context, gameID uint) ([]models.Quest, error)
	FindQuestByID(ctx context.Context, id uint) (*models.Quest, error)
	ListQuestsNotCompletedBy(ctx context.Context, userID uuid.UUID) ([]models.Quest, error)
	SeedCatalog(ctx context.Context, games []models.Game, quests []models.Quest) error

	CompletionExists(ctx context.Context, userID uuid.UUID, questID uint) (bool, error)
	// CreateCompletion returns ErrDuplicate when the (user, quest) pair exists.
	CreateCompletion(ctx context.Context, completion *models.QuestCompletion) error
	// ListCompletedQuests returns completions in insertion order.
	ListCompletedQuests(ctx context.Context, userID uuid.UUID) ([]models.CompletedQuest, error)

	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindActiveRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeUserRefreshTokens(ctx context.Context, userID uuid.UUID) error
}
