package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/models"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/repository"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type QuestEntry struct {
	ID           uint       `json:"id" yaml:"id" toml:"id"`
	Name         string     `json:"name" yaml:"name" toml:"name"`
	Description  string     `json:"description" yaml:"description" toml:"description"`
	Requirements string     `json:"requirements" yaml:"requirements" toml:"requirements"`
	Instructions string     `json:"instructions" yaml:"instructions" toml:"instructions"`
	Rewards      string     `json:"rewards" yaml:"rewards" toml:"rewards"`
	IsDaily      bool       `json:"is_daily" yaml:"is_daily" toml:"is_daily"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty" toml:"expires_at,omitempty"`
}

type GameEntry struct {
	ID     uint         `json:"id" yaml:"id" toml:"id"`
	Name   string       `json:"name" yaml:"name" toml:"name"`
	Quests []QuestEntry `json:"quests" yaml:"quests" toml:"quests"`
}

// File is the on-disk quest catalog.
type File struct {
	Games []GameEntry `json:"games" yaml:"games" toml:"games"`
}

// LoadFromFile reads a catalog in YAML, TOML or JSON, chosen by extension.
func LoadFromFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	file, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return file, nil
}

// Parse decodes catalog data. ext is a file extension such as ".yaml".
func Parse(ext string, data []byte) (*File, error) {
	var file File
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	case ".toml":
		err = toml.Unmarshal(data, &file)
	case ".json":
		err = json.Unmarshal(data, &file)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	if err != nil {
		return nil, err
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate checks ids are positive and unique and names are present.
func (f *File) Validate() error {
	var errs []error
	gameIDs := make(map[uint]bool)
	questIDs := make(map[uint]bool)
	for _, g := range f.Games {
		if g.ID == 0 {
			errs = append(errs, fmt.Errorf("game %q: id must be positive", g.Name))
		} else if gameIDs[g.ID] {
			errs = append(errs, fmt.Errorf("game %d: duplicate id", g.ID))
		}
		gameIDs[g.ID] = true
		if strings.TrimSpace(g.Name) == "" {
			errs = append(errs, fmt.Errorf("game %d: name is required", g.ID))
		}
		for _, q := range g.Quests {
			if q.ID == 0 {
				errs = append(errs, fmt.Errorf("game %d quest %q: id must be positive", g.ID, q.Name))
			} else if questIDs[q.ID] {
				errs = append(errs, fmt.Errorf("quest %d: duplicate id", q.ID))
			}
			questIDs[q.ID] = true
			if strings.TrimSpace(q.Name) == "" {
				errs = append(errs, fmt.Errorf("quest %d: name is required", q.ID))
			}
		}
	}
	return errors.Join(errs...)
}

// Models flattens the catalog into rows ready for the store.
func (f *File) Models() ([]models.Game, []models.Quest) {
	games := make([]models.Game, 0, len(f.Games))
	var quests []models.Quest
	for _, g := range f.Games {
		games = append(games, models.Game{ID: g.ID, Name: g.Name})
		for _, q := range g.Quests {
			quests = append(quests, models.Quest{
				ID:           q.ID,
				GameID:       g.ID,
				Name:         q.Name,
				Description:  q.Description,
				Requirements: q.Requirements,
				Instructions: q.Instructions,
				Rewards:      q.Rewards,
				IsDaily:      q.IsDaily,
				ExpiresAt:    q.ExpiresAt,
			})
		}
	}
	return games, quests
}

// Seed writes the catalog in one transaction; nothing is kept on failure.
func Seed(ctx context.Context, store repository.Store, file *File) error {
	games, quests := file.Models()
	err := store.WithTx(ctx, func(tx repository.Store) error {
		return tx.SeedCatalog(ctx, games, quests)
	})
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	slog.Info("catalog seeded", "games", len(games), "quests", len(quests))
	return nil
}
