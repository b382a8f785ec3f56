package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/catalog"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/dto"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/models"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/progression"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/repository"
	"github.com/google/uuid"
)

const (
	rejectAlreadyCompleted = "already_completed"
	rejectUserNotFound     = "user_not_found"
	rejectQuestNotFound    = "quest_not_found"
	rejectQuestExpired     = "quest_expired"
)

type QuestService struct {
	store    repository.Store
	cache    *catalog.Cache
	curve    progression.Curve
	awards   progression.AwardPolicy
	recorder metrics.Recorder
	now      func() time.Time
}

func NewQuestService(store repository.Store, cache *catalog.Cache, curve progression.Curve, awards progression.AwardPolicy, recorder metrics.Recorder) *QuestService {
	if cache == nil {
		cache = catalog.NewCache(0)
	}
	if awards == nil {
		awards = progression.FlatAward{XP: progression.DefaultAwardXP}
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &QuestService{
		store:    store,
		cache:    cache,
		curve:    curve,
		awards:   awards,
		recorder: recorder,
		now:      time.Now,
	}
}

func (s *QuestService) ListGames(ctx context.Context) ([]dto.GameResponse, error) {
	games, err := s.store.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.GameResponse, len(games))
	for i, g := range games {
		out[i] = dto.GameResponse{ID: g.ID, Name: g.Name}
	}
	return out, nil
}

// ListGameQuests lists the quests of one game.
func (s *QuestService) ListGameQuests(ctx context.Context, gameID uint) ([]dto.QuestSummary, error) {
	if _, err := s.store.FindGameByID(ctx, gameID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to find game: %w", err)
	}
	quests, err := s.store.ListQuests(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return toSummaries(quests), nil
}

// SearchQuests fuzzy-matches query against every quest name.
func (s *QuestService) SearchQuests(ctx context.Context, query string) ([]dto.QuestSummary, error) {
	quests, err := s.store.ListQuests(ctx, 0)
	if err != nil {
		return nil, err
	}
	return toSummaries(catalog.Search(quests, query)), nil
}

// ListAvailableQuests returns every unexpired quest the user has not completed.
func (s *QuestService) ListAvailableQuests(ctx context.Context, userID uuid.UUID) ([]dto.QuestSummary, error) {
	if _, err := s.store.FindUserByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	quests, err := s.store.ListQuestsNotCompletedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	open := quests[:0:0]
	for _, q := range quests {
		if !q.Expired(now) {
			open = append(open, q)
		}
	}
	return toSummaries(open), nil
}

// CompleteQuest records that userID finished questID and awards XP.
//
// All checks and both writes run in one transaction. The user row is locked
// first so completions of different quests by the same user serialise their
// XP update; the unique (user, quest) index decides races on the same quest.
func (s *QuestService) CompleteQuest(ctx context.Context, userID uuid.UUID, questID uint) (*dto.CompletionResult, error) {
	var result dto.CompletionResult

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		quest, err := s.cache.Quest(ctx, tx, questID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrQuestNotFound
			}
			return fmt.Errorf("failed to find quest: %w", err)
		}

		done, err := tx.CompletionExists(ctx, userID, questID)
		if err != nil {
			return err
		}
		if done {
			return ErrAlreadyCompleted
		}

		now := s.now()
		if quest.Expired(now) {
			return ErrQuestExpired
		}

		award := s.awards.Award(*quest)
		progress, err := s.curve.Apply(user.CurrentXP, user.CurrentLevel, award)
		if err != nil {
			return fmt.Errorf("failed to apply xp: %w", err)
		}

		completion := models.QuestCompletion{
			UserID:      userID,
			QuestID:     quest.ID,
			GameID:      quest.GameID,
			CompletedAt: now,
		}
		if err := tx.CreateCompletion(ctx, &completion); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyCompleted
			}
			return fmt.Errorf("failed to record completion: %w", err)
		}

		if err := tx.UpdateProgress(ctx, userID, progress.XP, progress.Level); err != nil {
			return fmt.Errorf("failed to update progress: %w", err)
		}

		result = dto.CompletionResult{
			QuestID:     quest.ID,
			GameID:      quest.GameID,
			XPAwarded:   award,
			NewXP:       progress.XP,
			NewLevel:    progress.Level,
			LeveledUp:   progress.LeveledUp,
			CompletedAt: now,
		}
		return nil
	})
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}

	s.recorder.RecordCompletion(result.GameID, result.XPAwarded)
	if result.LeveledUp {
		s.recorder.RecordLevelUp(result.NewLevel)
	}
	slog.Info("quest completed",
		"user_id", userID.String(),
		"quest_id", questID,
		"xp_awarded", result.XPAwarded,
		"new_xp", result.NewXP,
		"new_level", result.NewLevel,
	)
	return &result, nil
}

// ListCompletedQuests groups the user's completions by game. Groups are in
// game id order; quests inside a group keep completion order.
func (s *QuestService) ListCompletedQuests(ctx context.Context, userID uuid.UUID) (*dto.CompletedQuestsResponse, error) {
	if _, err := s.store.FindUserByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	rows, err := s.store.ListCompletedQuests(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dto.CompletedQuestsResponse{
		UserID: userID,
		Games:  groupByGame(rows),
	}, nil
}

// ReloadCatalog reseeds from path and drops cached quests.
func (s *QuestService) ReloadCatalog(ctx context.Context, path string) error {
	file, err := catalog.LoadFromFile(path)
	if err != nil {
		return err
	}
	if err := catalog.Seed(ctx, s.store, file); err != nil {
		return err
	}
	s.cache.Purge()
	return nil
}

// CachedQuests reports how many quests are held in the lookup cache.
func (s *QuestService) CachedQuests() int {
	return s.cache.Len()
}

func (s *QuestService) recordRejection(err error) {
	switch {
	case errors.Is(err, ErrAlreadyCompleted):
		s.recorder.RecordRejection(rejectAlreadyCompleted)
	case errors.Is(err, ErrUserNotFound):
		s.recorder.RecordRejection(rejectUserNotFound)
	case errors.Is(err, ErrQuestNotFound):
		s.recorder.RecordRejection(rejectQuestNotFound)
	case errors.Is(err, ErrQuestExpired):
		s.recorder.RecordRejection(rejectQuestExpired)
	default:
		slog.Error("quest completion failed", "action", "complete_quest", "error", err)
	}
}

func groupByGame(rows []models.CompletedQuest) []dto.CompletedGameGroup {
	groups := []dto.CompletedGameGroup{}
	index := make(map[uint]int)
	for _, r := range rows {
		i, ok := index[r.GameID]
		if !ok {
			i = len(groups)
			index[r.GameID] = i
			groups = append(groups, dto.CompletedGameGroup{GameID: r.GameID, GameName: r.GameName})
		}
		groups[i].Quests = append(groups[i].Quests, dto.CompletedQuestSummary{
			ID:          r.QuestID,
			Name:        r.QuestName,
			Rewards:     r.Rewards,
			CompletedAt: r.CompletedAt,
		})
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].GameID < groups[j].GameID })
	return groups
}

func toSummaries(quests []models.Quest) []dto.QuestSummary {
	out := make([]dto.QuestSummary, len(quests))
	for i, q := range quests {
		out[i] = dto.QuestSummary{
			ID:           q.ID,
			GameID:       q.GameID,
			Name:         q.Name,
			Description:  q.Description,
			Requirements: q.Requirements,
			Instructions: q.Instructions,
			Rewards:      q.Rewards,
			IsDaily:      q.IsDaily,
			ExpiresAt:    q.ExpiresAt,
		}
	}
	return out
}
