package catalog

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/models"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/repository"
	lru "github.com/hashicorp/golang-lru"
)

const defaultCacheSize = 512

// Cache keeps recently used quests in memory. Quests are immutable between
// seeding runs, so entries never go stale until Purge is called.
type Cache struct {
	quests *lru.Cache
}

func NewCache(size int) *Cache {
	if size <= 0 {
		size = defaultCacheSize
	}
	quests, _ := lru.New(size)
	return &Cache{quests: quests}
}

// Quest returns the quest from the cache, loading it through store on a miss.
func (c *Cache) Quest(ctx context.Context, store repository.Store, id uint) (*models.Quest, error) {
	if cached, ok := c.quests.Get(id); ok {
		q := cached.(models.Quest)
		return &q, nil
	}
	q, err := store.FindQuestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.quests.Add(id, *q)
	return q, nil
}

func (c *Cache) Len() int {
	return c.quests.Len()
}

// Purge drops every cached quest; call after reseeding.
func (c *Cache) Purge() {
	c.quests.Purge()
}
