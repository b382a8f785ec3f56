package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/catalog"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/config"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/dto"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/models"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/progression"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// recorder captures metric calls.
type recorder struct {
	mu            sync.Mutex
	completions   int
	xp            int
	rejections    map[string]int
	levelUps      []int
	registrations int
}

func newRecorder() *recorder {
	return &recorder{rejections: map[string]int{}}
}

func (r *recorder) RecordCompletion(_ uint, xp int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completions++
	r.xp += xp
}

func (r *recorder) RecordRejection(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections[reason]++
}

func (r *recorder) RecordLevelUp(level int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levelUps = append(r.levelUps, level)
}

func (r *recorder) RecordRegistration() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations++
}

func (r *recorder) RecordRequest(string, string, int, time.Duration) {}

type fixture struct {
	store    *repository.MemoryStore
	auth     *AuthService
	users    *UserService
	quests   *QuestService
	recorder *recorder
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
	}
}

// newFixture seeds two games: game 1 with quests 1-12, game 2 with quests 13-15.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()

	games := []models.Game{{ID: 1, Name: "Hogwarts Legacy"}, {ID: 2, Name: "Undertale"}}
	var quests []models.Quest
	for i := uint(1); i <= 15; i++ {
		game := uint(1)
		if i > 12 {
			game = 2
		}
		quests = append(quests, models.Quest{ID: i, GameID: game, Name: fmt.Sprintf("Quest %d", i), Rewards: "50 XP"})
	}
	require.NoError(t, store.SeedCatalog(context.Background(), games, quests))

	rec := newRecorder()
	curve := progression.NewCurve(progression.DefaultXPPerLevel)
	auth := NewAuthService(store, testConfig(), curve, rec)
	auth.hashCost = bcrypt.MinCost
	users := NewUserService(store, curve)
	users.hashCost = bcrypt.MinCost

	return &fixture{
		store:    store,
		auth:     auth,
		users:    users,
		quests:   NewQuestService(store, catalog.NewCache(16), curve, nil, rec),
		recorder: rec,
	}
}

func (f *fixture) register(t *testing.T, email string) uuid.UUID {
	t.Helper()
	resp, err := f.auth.Register(context.Background(), &dto.RegisterRequest{
		Username: "player",
		Email:    email,
		Password: "correct-horse",
	})
	require.NoError(t, err)
	return resp.User.ID
}
