package services

import (
	"context"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/dto"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.auth.Register(ctx, &dto.RegisterRequest{
		Username: "  <b>Neo</b> ",
		Email:    " Neo@Example.COM ",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "Neo", resp.User.Username)
	assert.Equal(t, "neo@example.com", resp.User.Email)
	assert.Equal(t, 0, resp.User.CurrentXP)
	assert.Equal(t, 0, resp.User.CurrentLevel)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, 1, f.recorder.registrations)

	stored, err := f.store.FindUserByEmail(ctx, "neo@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct-horse")))

	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, stored.ID.String(), claims["sub"])
	assert.Equal(t, models.RoleUser, claims["role"])
}

func TestRegister_EmailTaken(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@example.com")

	_, err := f.auth.Register(context.Background(), &dto.RegisterRequest{
		Username: "other", Email: "A@example.com", Password: "correct-horse",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_InvalidInput(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  dto.RegisterRequest
	}{
		{"empty username", dto.RegisterRequest{Username: " ", Email: "a@example.com", Password: "correct-horse"}},
		{"markup only username", dto.RegisterRequest{Username: "<i></i>", Email: "a@example.com", Password: "correct-horse"}},
		{"bad email", dto.RegisterRequest{Username: "a", Email: "not-an-email", Password: "correct-horse"}},
		{"display name email", dto.RegisterRequest{Username: "a", Email: "A <a@example.com>", Password: "correct-horse"}},
		{"short password", dto.RegisterRequest{Username: "a", Email: "a@example.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Register(context.Background(), &tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.register(t, "a@example.com")

	resp, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "A@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, userID, resp.User.ID)

	_, err = f.auth.Login(ctx, &dto.LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_SystemAccountRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateUser(ctx, &models.User{
		Username: "system", Email: "system@questlog.local", PasswordHash: string(hash), Role: models.RoleSystem,
	}))

	_, err = f.auth.Login(ctx, &dto.LoginRequest{Email: "system@questlog.local", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "reserved account with the right password")
	_, err = f.auth.Login(ctx, &dto.LoginRequest{Email: "system@questlog.local", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "reserved account with a wrong password")
}

func TestRefresh_RotatesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.auth.Register(ctx, &dto.RegisterRequest{Username: "a", Email: "a@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	second, err := f.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken, "a used token cannot be replayed")

	require.NoError(t, f.auth.Logout(ctx, &dto.LogoutRequest{RefreshToken: second.RefreshToken}))
	_, err = f.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: second.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = f.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: "garbage"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_ConcurrentSameToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.auth.Register(ctx, &dto.RegisterRequest{Username: "a", Email: "a@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	const attempts = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  int
		rejected int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.auth.Refresh(ctx, &dto.RefreshRequest{RefreshToken: first.RefreshToken})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners++
			} else if assert.ErrorIs(t, err, ErrInvalidToken) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, attempts-1, rejected)
}

func TestLogout_UnknownTokenIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.auth.Register(ctx, &dto.RegisterRequest{Username: "a", Email: "a@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, &dto.LogoutRequest{RefreshToken: first.RefreshToken}))
	require.NoError(t, f.auth.Logout(ctx, &dto.LogoutRequest{RefreshToken: first.RefreshToken}))
	require.NoError(t, f.auth.Logout(ctx, &dto.LogoutRequest{RefreshToken: "garbage"}))
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.register(t, "a@example.com")
	otherID := f.register(t, "b@example.com")

	_, err := f.quests.CompleteQuest(ctx, userID, 1)
	require.NoError(t, err)
	_, err = f.quests.CompleteQuest(ctx, otherID, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, f.auth.DeleteAccount(ctx, userID, ""), ErrInvalidCredentials, "an empty password is a mismatch")
	assert.ErrorIs(t, f.auth.DeleteAccount(ctx, userID, "wrong-password"), ErrInvalidCredentials)

	require.NoError(t, f.auth.DeleteAccount(ctx, userID, "correct-horse"))

	_, err = f.users.Profile(ctx, userID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	rows, err := f.store.ListCompletedQuests(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = f.store.ListCompletedQuests(ctx, otherID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.ErrorIs(t, f.auth.DeleteAccount(ctx, uuid.New(), "correct-horse"), ErrUserNotFound)
}
