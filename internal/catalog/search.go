package catalog

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/models"
	"github.com/sahilm/fuzzy"
)

// questSource implements fuzzy.Source over quest names.
type questSource []models.Quest

func (s questSource) Len() int { return len(s) }

func (s questSource) String(i int) string { return strings.ToLower(s[i].Name) }

// Search returns the quests whose names fuzzily match query, best match first.
// An empty query matches nothing.
func Search(quests []models.Quest, query string) []models.Quest {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(quests) == 0 {
		return nil
	}
	matches := fuzzy.FindFrom(query, questSource(quests))
	results := make([]models.Quest, len(matches))
	for i, m := range matches {
		results[i] = quests[m.Index]
	}
	return results
}
