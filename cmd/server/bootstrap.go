package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/config"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/database"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/models"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// backend is an opened store plus the gorm handle behind it, if any.
type backend struct {
	store repository.Store
	db    *gorm.DB
}

func (b *backend) Close() {
	if b.db == nil {
		return
	}
	if err := database.Close(b.db); err != nil {
		slog.Error("database close error", "error", err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openBackend connects the configured store and migrates the schema.
func openBackend(cfg *config.Config) (*backend, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		slog.Warn("using in-memory store; data is lost on exit")
		return &backend{store: repository.NewMemoryStore()}, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return &backend{store: repository.NewGormStore(db), db: db}, nil
}

// ensureSystemAccount creates the reserved account that owns the catalog.
// It cannot log in and is hidden from user listings.
func ensureSystemAccount(ctx context.Context, store repository.Store, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := store.FindUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(base64.StdEncoding.EncodeToString(secret)), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	err = store.CreateUser(ctx, &models.User{
		Username:     "system",
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleSystem,
	})
	if err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return err
	}
	slog.Info("system account ready", "email", email)
	return nil
}
