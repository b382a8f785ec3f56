package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	pgBatchSize  = 50
	pgFlushEvery = 5 * time.Second
)

// PGHandler is an slog.Handler that batches ERROR+ logs into system_logs.
// A batch is written every pgFlushEvery or as soon as pgBatchSize entries
// are waiting, whichever comes first.
type PGHandler struct {
	db     *gorm.DB
	mu     sync.Mutex
	buffer []models.SystemLog
	kick   chan struct{}
	done   chan struct{}
	exited chan struct{}
}

func NewPGHandler(db *gorm.DB) *PGHandler {
	h := &PGHandler{
		db:     db,
		buffer: make([]models.SystemLog, 0, pgBatchSize),
		kick:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go h.flushLoop()
	return h
}

func (h *PGHandler) flushLoop() {
	defer close(h.exited)
	ticker := time.NewTicker(pgFlushEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		case <-h.kick:
		case <-h.done:
			h.flush()
			return
		}
		h.flush()
	}
}

func (h *PGHandler) flush() {
	h.mu.Lock()
	batch := h.buffer
	h.buffer = make([]models.SystemLog, 0, pgBatchSize)
	h.mu.Unlock()
	if len(batch) == 0 {
		return
	}

	if err := h.db.CreateInBatches(batch, pgBatchSize).Error; err != nil {
		// Warn stays below this handler's threshold so the failure is not fed back in.
		slog.Warn("failed to flush system logs", "error", err, "count", len(batch))
	}
}

// Stop flushes what is buffered and returns once the flush loop has exited.
func (h *PGHandler) Stop() {
	close(h.done)
	<-h.exited
}

// Enabled only handles ERROR and above.
func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *PGHandler) Handle(_ context.Context, record slog.Record) error {
	entry := toSystemLog(record)

	h.mu.Lock()
	h.buffer = append(h.buffer, entry)
	full := len(h.buffer) >= pgBatchSize
	h.mu.Unlock()

	if full {
		select {
		case h.kick <- struct{}{}:
		default:
		}
	}
	return nil
}

// toSystemLog lifts the well-known attributes into columns and keeps the
// rest as JSON in Extra.
func toSystemLog(record slog.Record) models.SystemLog {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := map[string]any{}
	record.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "request_id":
			entry.RequestID = a.Value.String()
		case "method":
			entry.Method = a.Value.String()
		case "path":
			entry.Path = a.Value.String()
		case "user_id":
			s := a.Value.String()
			entry.UserID = &s
		case "quest_id":
			if id, ok := asUint(a.Value); ok {
				entry.QuestID = &id
			}
		case "action":
			entry.Action = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		case "latency_ms":
			if f, ok := a.Value.Any().(float64); ok {
				entry.LatencyMs = int(math.Round(f))
			}
		default:
			extra[a.Key] = a.Value.Any()
		}
		return true
	})

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}
	return entry
}

// WithAttrs returns a view sharing this handler's buffer and flush loop.
func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &pgView{parent: h, attrs: append([]slog.Attr(nil), attrs...)}
}

func (h *PGHandler) WithGroup(name string) slog.Handler {
	return h
}

// pgView carries bound attributes for a PGHandler without copying its lock.
type pgView struct {
	parent *PGHandler
	attrs  []slog.Attr
}

func (v *pgView) Enabled(ctx context.Context, level slog.Level) bool {
	return v.parent.Enabled(ctx, level)
}

func (v *pgView) Handle(ctx context.Context, record slog.Record) error {
	r := record.Clone()
	r.AddAttrs(v.attrs...)
	return v.parent.Handle(ctx, r)
}

func (v *pgView) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &pgView{parent: v.parent, attrs: append(append([]slog.Attr(nil), v.attrs...), attrs...)}
}

func (v *pgView) WithGroup(string) slog.Handler {
	return v
}

func asUint(v slog.Value) (uint, bool) {
	switch v.Kind() {
	case slog.KindUint64:
		return uint(v.Uint64()), true
	case slog.KindInt64:
		if v.Int64() >= 0 {
			return uint(v.Int64()), true
		}
	}
	return 0, false
}
