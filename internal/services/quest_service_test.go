package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/models"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/progression"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteQuest_AwardsXP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.register(t, "a@example.com")

	res, err := f.quests.CompleteQuest(ctx, userID, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, res.XPAwarded)
	assert.Equal(t, 10, res.NewXP)
	assert.Equal(t, 0, res.NewLevel)
	assert.False(t, res.LeveledUp)
	assert.Equal(t, uint(1), res.GameID)

	profile, err := f.users.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 10, profile.CurrentXP)
	assert.Equal(t, 0, profile.CurrentLevel)
	assert.Equal(t, 10, profile.XPIntoLevel)
	assert.Equal(t, 90, profile.XPForNextLevel)
}

func TestCompleteQuest_LevelUpAfterTenQuests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.register(t, "a@example.com")

	for id := uint(1); id <= 10; id++ {
		res, err := f.quests.CompleteQuest(ctx, userID, id)
		require.NoError(t, err)
		assert.Equal(t, id == 10, res.LeveledUp, "quest %d", id)
	}

	profile, err := f.users.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 100, profile.CurrentXP)
	assert.Equal(t, 1, profile.CurrentLevel)
	assert.Equal(t, []int{1}, f.recorder.levelUps)
	assert.Equal(t, 10, f.recorder.completions)
}

func TestCompleteQuest_Twice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.register(t, "a@example.com")

	_, err := f.quests.CompleteQuest(ctx, userID, 3)
	require.NoError(t, err)

	_, err = f.quests.CompleteQuest(ctx, userID, 3)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	profile, err := f.users.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 10, profile.CurrentXP, "no XP for the second attempt")
	assert.Equal(t, 1, f.recorder.rejections[rejectAlreadyCompleted])

	rows, err := f.store.ListCompletedQuests(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCompleteQuest_UnknownUserOrQuest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.register(t, "a@example.com")

	_, err := f.quests.CompleteQuest(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.quests.CompleteQuest(ctx, userID, 999)
	assert.ErrorIs(t, err, ErrQuestNotFound)

	profile, err := f.users.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, profile.CurrentXP)
}

func TestCompleteQuest_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.register(t, "a@example.com")

	past := time.Now().Add(-time.Hour)
	require.NoError(t, f.store.SeedCatalog(ctx, nil, []models.Quest{
		{ID: 50, GameID: 1, Name: "Evento", ExpiresAt: &past},
	}))

	_, err := f.quests.CompleteQuest(ctx, userID, 50)
	assert.ErrorIs(t, err, ErrQuestExpired)
	assert.Equal(t, 1, f.recorder.rejections[rejectQuestExpired])

	available, err := f.quests.ListAvailableQuests(ctx, userID)
	require.NoError(t, err)
	for _, q := range available {
		assert.NotEqual(t, uint(50), q.ID, "expired quests are not offered")
	}
}

func TestCompleteQuest_AlreadyCompletedWinsOverExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.register(t, "a@example.com")

	now := time.Now()
	expires := now.Add(time.Hour)
	require.NoError(t, f.store.SeedCatalog(ctx, nil, []models.Quest{
		{ID: 60, GameID: 1, Name: "Weekend event", ExpiresAt: &expires},
	}))
	_, err := f.quests.CompleteQuest(ctx, userID, 60)
	require.NoError(t, err)

	f.quests.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = f.quests.CompleteQuest(ctx, userID, 60)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.Equal(t, 1, f.recorder.rejections[rejectAlreadyCompleted])
	assert.Zero(t, f.recorder.rejections[rejectQuestExpired])
}

func TestCompleteQuest_RewardTextPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.register(t, "a@example.com")

	svc := NewQuestService(f.store, nil, progression.NewCurve(100), progression.RewardTextAward{Fallback: 10}, nil)
	res, err := svc.CompleteQuest(ctx, userID, 1)
	require.NoError(t, err)
	assert.Equal(t, 50, res.XPAwarded)

	res, err = svc.CompleteQuest(ctx, userID, 2)
	require.NoError(t, err)
	assert.Equal(t, 100, res.NewXP)
	assert.Equal(t, 1, res.NewLevel)
	assert.True(t, res.LeveledUp)
}

// failingProgressStore fails every progress update made inside a transaction.
type failingProgressStore struct {
	repository.Store
}

func (s failingProgressStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(failingProgressStore{Store: tx})
	})
}

func (failingProgressStore) UpdateProgress(context.Context, uuid.UUID, int, int) error {
	return errors.New("disk full")
}

func TestCompleteQuest_AtomicOnProgressFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.register(t, "a@example.com")

	svc := NewQuestService(failingProgressStore{Store: f.store}, nil, progression.NewCurve(100), nil, nil)
	_, err := svc.CompleteQuest(ctx, userID, 1)
	require.Error(t, err)

	done, err := f.store.CompletionExists(ctx, userID, 1)
	require.NoError(t, err)
	assert.False(t, done, "completion is rolled back with the failed XP update")

	// The quest can still be completed once the store recovers.
	_, err = f.quests.CompleteQuest(ctx, userID, 1)
	assert.NoError(t, err)
}

func TestCompleteQuest_ConcurrentDifferentQuests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.register(t, "a@example.com")

	var wg sync.WaitGroup
	errs := make(chan error, 12)
	for id := uint(1); id <= 12; id++ {
		wg.Add(1)
		go func(questID uint) {
			defer wg.Done()
			_, err := f.quests.CompleteQuest(ctx, userID, questID)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	profile, err := f.users.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 120, profile.CurrentXP, "every award is counted")
	assert.Equal(t, 1, profile.CurrentLevel)
}

func TestCompleteQuest_ConcurrentSameQuest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.register(t, "a@example.com")

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, rejected := 0, 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.quests.CompleteQuest(ctx, userID, 5)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, ErrAlreadyCompleted) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, rejected)

	profile, err := f.users.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 10, profile.CurrentXP)
}

func TestListAvailableQuests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.register(t, "a@example.com")

	available, err := f.quests.ListAvailableQuests(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, available, 15)

	_, err = f.quests.CompleteQuest(ctx, userID, 1)
	require.NoError(t, err)
	_, err = f.quests.CompleteQuest(ctx, userID, 14)
	require.NoError(t, err)

	available, err = f.quests.ListAvailableQuests(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, available, 13)
	for _, q := range available {
		assert.NotContains(t, []uint{1, 14}, q.ID)
	}

	_, err = f.quests.ListAvailableQuests(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListCompletedQuests_GroupedByGame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.register(t, "a@example.com")

	for _, id := range []uint{13, 4, 2, 15} {
		_, err := f.quests.CompleteQuest(ctx, userID, id)
		require.NoError(t, err)
	}

	resp, err := f.quests.ListCompletedQuests(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, resp.UserID)
	require.Len(t, resp.Games, 2)

	assert.Equal(t, uint(1), resp.Games[0].GameID)
	assert.Equal(t, "Hogwarts Legacy", resp.Games[0].GameName)
	require.Len(t, resp.Games[0].Quests, 2)
	assert.Equal(t, uint(4), resp.Games[0].Quests[0].ID, "completion order inside a game")
	assert.Equal(t, uint(2), resp.Games[0].Quests[1].ID)

	assert.Equal(t, uint(2), resp.Games[1].GameID)
	require.Len(t, resp.Games[1].Quests, 2)
	assert.Equal(t, uint(13), resp.Games[1].Quests[0].ID)
}

func TestListCompletedQuests_Empty(t *testing.T) {
	f := newFixture(t)
	userID := f.register(t, "a@example.com")

	resp, err := f.quests.ListCompletedQuests(context.Background(), userID)
	require.NoError(t, err)
	assert.NotNil(t, resp.Games)
	assert.Empty(t, resp.Games)

	_, err = f.quests.ListCompletedQuests(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListGamesAndQuests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	games, err := f.quests.ListGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "Hogwarts Legacy", games[0].Name)

	quests, err := f.quests.ListGameQuests(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, quests, 3)

	_, err = f.quests.ListGameQuests(ctx, 9)
	assert.ErrorIs(t, err, ErrGameNotFound)

	found, err := f.quests.SearchQuests(ctx, "quest 13")
	require.NoError(t, err)
	require.NotEmpty(t, found)
	assert.Equal(t, uint(13), found[0].ID)
}

func TestReloadCatalog_PurgesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.register(t, "a@example.com")

	_, err := f.quests.CompleteQuest(ctx, userID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, f.quests.CachedQuests())

	err = f.quests.ReloadCatalog(ctx, "../../catalog.yaml")
	require.NoError(t, err)
	assert.Equal(t, 0, f.quests.CachedQuests())

	games, err := f.quests.ListGames(ctx)
	require.NoError(t, err)
	assert.Len(t, games, 7)

	assert.Error(t, f.quests.ReloadCatalog(ctx, "missing.yaml"))
}

func TestNewQuestService_Defaults(t *testing.T) {
	svc := NewQuestService(repository.NewMemoryStore(), nil, progression.NewCurve(0), nil, nil)
	assert.NotNil(t, svc.cache)
	assert.IsType(t, progression.FlatAward{}, svc.awards)
	assert.Equal(t, 0, svc.CachedQuests())

}

func TestCompleteQuest_EndToEndScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.register(t, "a@example.com")

	a, err := f.quests.CompleteQuest(ctx, userID, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, a.NewXP)

	b, err := f.quests.CompleteQuest(ctx, userID, 13)
	require.NoError(t, err)
	assert.Equal(t, 20, b.NewXP)
	assert.GreaterOrEqual(t, b.NewLevel, a.NewLevel)

	_, err = f.quests.CompleteQuest(ctx, userID, 1)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	profile, err := f.users.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 20, profile.CurrentXP)
	assert.Equal(t, b.NewLevel, profile.CurrentLevel)

	available, err := f.quests.ListAvailableQuests(ctx, userID)
	require.NoError(t, err)
	for _, q := range available {
		assert.NotEqual(t, uint(1), q.ID)
	}

	completed, err := f.quests.ListCompletedQuests(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, completed.Games)
	assert.Equal(t, uint(1), completed.Games[0].GameID)
	assert.Equal(t, "Hogwarts Legacy", completed.Games[0].GameName)
	assert.Equal(t, uint(1), completed.Games[0].Quests[0].ID)
}
