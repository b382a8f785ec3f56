package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

// GormStore is the postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *GormStore) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) LockUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) ListUsers(ctx context.Context, excludeRoles ...string) ([]models.User, error) {
	var users []models.User
	q := s.db.WithContext(ctx).Order("created_at ASC")
	if len(excludeRoles) > 0 {
		q = q.Where("role NOT IN ?", excludeRoles)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *GormStore) UpdateUser(ctx context.Context, id uuid.UUID, changes UserChanges) error {
	updates := map[string]interface{}{}
	if changes.Username != nil {
		updates["username"] = *changes.Username
	}
	if changes.Email != nil {
		updates["email"] = *changes.Email
	}
	if changes.PasswordHash != nil {
		updates["password_hash"] = *changes.PasswordHash
	}
	if len(updates) == 0 {
		return nil
	}
	return s.updateUserColumns(ctx, id, updates)
}

func (s *GormStore) UpdateProgress(ctx context.Context, id uuid.UUID, xp, level int) error {
	return s.updateUserColumns(ctx, id, map[string]interface{}{
		"current_xp":    xp,
		"current_level": level,
	})
}

func (s *GormStore) updateUserColumns(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.WithTx(ctx, func(txStore Store) error {
		tx := txStore.(*GormStore).db
		if err := tx.Where("user_id = ?", id).Delete(&models.QuestCompletion{}).Error; err != nil {
			return fmt.Errorf("failed to delete completions: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete refresh tokens: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&models.User{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *GormStore) ListGames(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&games).Error; err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

func (s *GormStore) FindGameByID(ctx context.Context, id uint) (*models.Game, error) {
	var game models.Game
	if err := s.db.WithContext(ctx).First(&game, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &game, nil
}

// ListQuests lists every quest, or only the quests of gameID when it is non-zero.
func (s *GormStore) ListQuests(ctx context.Context, gameID uint) ([]models.Quest, error) {
	var quests []models.Quest
	q := s.db.WithContext(ctx).Order("id ASC")
	if gameID != 0 {
		q = q.Where("game_id = ?", gameID)
	}
	if err := q.Find(&quests).Error; err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}
	return quests, nil
}

func (s *GormStore) FindQuestByID(ctx context.Context, id uint) (*models.Quest, error) {
	var quest models.Quest
	if err := s.db.WithContext(ctx).First(&quest, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &quest, nil
}

func (s *GormStore) ListQuestsNotCompletedBy(ctx context.Context, userID uuid.UUID) ([]models.Quest, error) {
	var quests []models.Quest
	completed := s.db.Model(&models.QuestCompletion{}).Select("quest_id").Where("user_id = ?", userID)
	err := s.db.WithContext(ctx).
		Where("id NOT IN (?)", completed).
		Order("id ASC").
		Find(&quests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list available quests: %w", err)
	}
	return quests, nil
}

// SeedCatalog upserts games and quests by id in a single transaction.
func (s *GormStore) SeedCatalog(ctx context.Context, games []models.Game, quests []models.Quest) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}
		if len(games) > 0 {
			if err := tx.Omit(clause.Associations).Clauses(upsert).Create(&games).Error; err != nil {
				return fmt.Errorf("failed to seed games: %w", err)
			}
		}
		if len(quests) > 0 {
			if err := tx.Omit(clause.Associations).Clauses(upsert).CreateInBatches(&quests, 100).Error; err != nil {
				return fmt.Errorf("failed to seed quests: %w", err)
			}
		}
		return nil
	})
}

func (s *GormStore) CompletionExists(ctx context.Context, userID uuid.UUID, questID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.QuestCompletion{}).
		Where("user_id = ? AND quest_id = ?", userID, questID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check completion: %w", err)
	}
	return count > 0, nil
}

func (s *GormStore) CreateCompletion(ctx context.Context, completion *models.QuestCompletion) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(completion).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *GormStore) ListCompletedQuests(ctx context.Context, userID uuid.UUID) ([]models.CompletedQuest, error) {
	var rows []models.CompletedQuest
	err := s.db.WithContext(ctx).
		Table("quest_completions AS qc").
		Select(`qc.id AS completion_id, qc.quest_id, q.name AS quest_name, q.rewards,
			qc.game_id, g.name AS game_name, qc.completed_at`).
		Joins("JOIN quests q ON q.id = qc.quest_id").
		Joins("JOIN games g ON g.id = qc.game_id").
		Where("qc.user_id = ?", userID).
		Order("qc.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list completed quests: %w", err)
	}
	return rows, nil
}

func (s *GormStore) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(token).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *GormStore) FindActiveRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := s.db.WithContext(ctx).
		Where("token_hash = ? AND revoked = false AND expires_at > ?", tokenHash, time.Now()).
		First(&token).Error
	if err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

// RevokeRefreshToken revokes an unrevoked token and reports ErrNotFound when
// no such token was left to revoke.
func (s *GormStore) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	res := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked = false", tokenHash).
		Update("revoked", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) RevokeUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = false", userID).
		Update("revoked", true).Error
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// IsUniqueViolation reports whether err is a unique constraint failure,
// either translated by gorm or raw from the postgres driver.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
