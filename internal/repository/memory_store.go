package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/models"
	"github.com/google/uuid"
)

type completionKey struct {
	userID  uuid.UUID
	questID uint
}

type memoryState struct {
	users       map[uuid.UUID]models.User
	games       map[uint]models.Game
	quests      map[uint]models.Quest
	completions []models.QuestCompletion
	completed   map[completionKey]struct{}
	tokens      map[string]models.RefreshToken
	nextID      uint
}

func newMemoryState() *memoryState {
	return &memoryState{
		users:     make(map[uuid.UUID]models.User),
		games:     make(map[uint]models.Game),
		quests:    make(map[uint]models.Quest),
		completed: make(map[completionKey]struct{}),
		tokens:    make(map[string]models.RefreshToken),
		nextID:    1,
	}
}

func (st *memoryState) clone() *memoryState {
	c := &memoryState{
		users:       make(map[uuid.UUID]models.User, len(st.users)),
		games:       make(map[uint]models.Game, len(st.games)),
		quests:      make(map[uint]models.Quest, len(st.quests)),
		completions: append([]models.QuestCompletion(nil), st.completions...),
		completed:   make(map[completionKey]struct{}, len(st.completed)),
		tokens:      make(map[string]models.RefreshToken, len(st.tokens)),
		nextID:      st.nextID,
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.games {
		c.games[k] = v
	}
	for k, v := range st.quests {
		c.quests[k] = v
	}
	for k := range st.completed {
		c.completed[k] = struct{}{}
	}
	for k, v := range st.tokens {
		c.tokens[k] = v
	}
	return c
}

// MemoryStore is an in-process Store. Transactions run one at a time against
// a private copy of the state, which replaces the shared state on commit.
type MemoryStore struct {
	mu    *sync.RWMutex
	state *memoryState
	// inTx is set on the Store handed to a WithTx callback; the writer lock
	// is already held and reads go straight to the private copy.
	inTx bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mu: &sync.RWMutex{}, state: newMemoryState()}
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &MemoryStore{mu: s.mu, state: s.state.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// read runs fn against the current state under the read lock.
func (s *MemoryStore) read(fn func(st *memoryState) error) error {
	if s.inTx {
		return fn(s.state)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

// write runs fn as its own transaction unless already inside one.
func (s *MemoryStore) write(ctx context.Context, fn func(st *memoryState) error) error {
	return s.WithTx(ctx, func(tx Store) error {
		return fn(tx.(*MemoryStore).state)
	})
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.write(ctx, func(st *memoryState) error {
		for _, u := range st.users {
			if u.Email == user.Email {
				return fmt.Errorf("%w: email %s", ErrDuplicate, user.Email)
			}
		}
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		if user.Role == "" {
			user.Role = models.RoleUser
		}
		now := time.Now()
		user.CreatedAt, user.UpdatedAt = now, now
		st.users[user.ID] = *user
		return nil
	})
}

func (s *MemoryStore) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var out models.User
	err := s.read(func(st *memoryState) error {
		u, ok := st.users[id]
		if !ok {
			return ErrNotFound
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LockUser is a plain read: inside WithTx the writer lock is already held.
func (s *MemoryStore) LockUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.FindUserByID(ctx, id)
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var out models.User
	err := s.read(func(st *memoryState) error {
		for _, u := range st.users {
			if u.Email == email {
				out = u
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemoryStore) ListUsers(ctx context.Context, excludeRoles ...string) ([]models.User, error) {
	excluded := make(map[string]bool, len(excludeRoles))
	for _, r := range excludeRoles {
		excluded[r] = true
	}
	var users []models.User
	err := s.read(func(st *memoryState) error {
		for _, u := range st.users {
			if !excluded[u.Role] {
				users = append(users, u)
			}
		}
		return nil
	})
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].Email < users[j].Email
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, err
}

func (s *MemoryStore) UpdateUser(ctx context.Context, id uuid.UUID, changes UserChanges) error {
	return s.write(ctx, func(st *memoryState) error {
		u, ok := st.users[id]
		if !ok {
			return ErrNotFound
		}
		if changes.Email != nil {
			for otherID, other := range st.users {
				if otherID != id && other.Email == *changes.Email {
					return fmt.Errorf("%w: email %s", ErrDuplicate, *changes.Email)
				}
			}
			u.Email = *changes.Email
		}
		if changes.Username != nil {
			u.Username = *changes.Username
		}
		if changes.PasswordHash != nil {
			u.PasswordHash = *changes.PasswordHash
		}
		u.UpdatedAt = time.Now()
		st.users[id] = u
		return nil
	})
}

func (s *MemoryStore) UpdateProgress(ctx context.Context, id uuid.UUID, xp, level int) error {
	return s.write(ctx, func(st *memoryState) error {
		u, ok := st.users[id]
		if !ok {
			return ErrNotFound
		}
		u.CurrentXP, u.CurrentLevel = xp, level
		u.UpdatedAt = time.Now()
		st.users[id] = u
		return nil
	})
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.write(ctx, func(st *memoryState) error {
		if _, ok := st.users[id]; !ok {
			return ErrNotFound
		}
		kept := st.completions[:0:0]
		for _, c := range st.completions {
			if c.UserID == id {
				delete(st.completed, completionKey{userID: id, questID: c.QuestID})
				continue
			}
			kept = append(kept, c)
		}
		st.completions = kept
		for hash, t := range st.tokens {
			if t.UserID == id {
				delete(st.tokens, hash)
			}
		}
		delete(st.users, id)
		return nil
	})
}

func (s *MemoryStore) ListGames(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	err := s.read(func(st *memoryState) error {
		for _, g := range st.games {
			games = append(games, g)
		}
		return nil
	})
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, err
}

func (s *MemoryStore) FindGameByID(ctx context.Context, id uint) (*models.Game, error) {
	var out models.Game
	err := s.read(func(st *memoryState) error {
		g, ok := st.games[id]
		if !ok {
			return ErrNotFound
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemoryStore) ListQuests(ctx context.Context, gameID uint) ([]models.Quest, error) {
	var quests []models.Quest
	err := s.read(func(st *memoryState) error {
		for _, q := range st.quests {
			if gameID == 0 || q.GameID == gameID {
				quests = append(quests, q)
			}
		}
		return nil
	})
	sortQuests(quests)
	return quests, err
}

func (s *MemoryStore) FindQuestByID(ctx context.Context, id uint) (*models.Quest, error) {
	var out models.Quest
	err := s.read(func(st *memoryState) error {
		q, ok := st.quests[id]
		if !ok {
			return ErrNotFound
		}
		out = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemoryStore) ListQuestsNotCompletedBy(ctx context.Context, userID uuid.UUID) ([]models.Quest, error) {
	var quests []models.Quest
	err := s.read(func(st *memoryState) error {
		for _, q := range st.quests {
			if _, done := st.completed[completionKey{userID: userID, questID: q.ID}]; !done {
				quests = append(quests, q)
			}
		}
		return nil
	})
	sortQuests(quests)
	return quests, err
}

func (s *MemoryStore) SeedCatalog(ctx context.Context, games []models.Game, quests []models.Quest) error {
	return s.write(ctx, func(st *memoryState) error {
		for _, g := range games {
			g.Quests = nil
			st.games[g.ID] = g
		}
		for _, q := range quests {
			st.quests[q.ID] = q
		}
		return nil
	})
}

func (s *MemoryStore) CompletionExists(ctx context.Context, userID uuid.UUID, questID uint) (bool, error) {
	var exists bool
	err := s.read(func(st *memoryState) error {
		_, exists = st.completed[completionKey{userID: userID, questID: questID}]
		return nil
	})
	return exists, err
}

func (s *MemoryStore) CreateCompletion(ctx context.Context, completion *models.QuestCompletion) error {
	return s.write(ctx, func(st *memoryState) error {
		key := completionKey{userID: completion.UserID, questID: completion.QuestID}
		if _, exists := st.completed[key]; exists {
			return fmt.Errorf("%w: completion %s/%d", ErrDuplicate, completion.UserID, completion.QuestID)
		}
		if _, ok := st.users[completion.UserID]; !ok {
			return fmt.Errorf("completion references unknown user %s", completion.UserID)
		}
		if _, ok := st.quests[completion.QuestID]; !ok {
			return fmt.Errorf("completion references unknown quest %d", completion.QuestID)
		}
		completion.ID = st.nextID
		st.nextID++
		st.completions = append(st.completions, *completion)
		st.completed[key] = struct{}{}
		return nil
	})
}

func (s *MemoryStore) ListCompletedQuests(ctx context.Context, userID uuid.UUID) ([]models.CompletedQuest, error) {
	var rows []models.CompletedQuest
	err := s.read(func(st *memoryState) error {
		for _, c := range st.completions {
			if c.UserID != userID {
				continue
			}
			q := st.quests[c.QuestID]
			rows = append(rows, models.CompletedQuest{
				CompletionID: c.ID,
				QuestID:      c.QuestID,
				QuestName:    q.Name,
				Rewards:      q.Rewards,
				GameID:       c.GameID,
				GameName:     st.games[c.GameID].Name,
				CompletedAt:  c.CompletedAt,
			})
		}
		return nil
	})
	return rows, err
}

func (s *MemoryStore) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return s.write(ctx, func(st *memoryState) error {
		if _, exists := st.tokens[token.TokenHash]; exists {
			return ErrDuplicate
		}
		if token.ID == uuid.Nil {
			token.ID = uuid.New()
		}
		token.CreatedAt = time.Now()
		st.tokens[token.TokenHash] = *token
		return nil
	})
}

func (s *MemoryStore) FindActiveRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var out models.RefreshToken
	err := s.read(func(st *memoryState) error {
		t, ok := st.tokens[tokenHash]
		if !ok || !t.Active(time.Now()) {
			return ErrNotFound
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemoryStore) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return s.write(ctx, func(st *memoryState) error {
		t, ok := st.tokens[tokenHash]
		if !ok || t.Revoked {
			return ErrNotFound
		}
		t.Revoked = true
		st.tokens[tokenHash] = t
		return nil
	})
}

func (s *MemoryStore) RevokeUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	return s.write(ctx, func(st *memoryState) error {
		for hash, t := range st.tokens {
			if t.UserID == userID && !t.Revoked {
				t.Revoked = true
				st.tokens[hash] = t
			}
		}
		return nil
	})
}

func sortQuests(quests []models.Quest) {
	sort.Slice(quests, func(i, j int) bool { return quests[i].ID < quests[j].ID })
}
