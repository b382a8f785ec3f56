package dto

// HealthResponse reports store reachability and the size of the quest cache.
type HealthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	DB           string `json:"db"`
	Games        int    `json:"games"`
	CachedQuests int    `json:"cached_quests"`
}
