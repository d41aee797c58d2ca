// Package store persists reply patterns per guild.
package store

import (
	"context"
	"sync"

	"github.com/ARF-DEV/caffeine_reply_bot/model"
)

// Store loads and saves a guild's reply patterns. Save always receives the
// complete ordered set and replaces whatever was stored before.
type Store interface {
	Load(ctx context.Context, guildID string) ([]model.ReplyPatternRecord, error)
	Save(ctx context.Context, guildID string, patterns []model.ReplyPatternRecord) error
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps patterns for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	guilds map[string][]model.ReplyPatternRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{guilds: map[string][]model.ReplyPatternRecord{}}
}

func (ms *MemoryStore) Load(_ context.Context, guildID string) ([]model.ReplyPatternRecord, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return cloneRecords(ms.guilds[guildID]), nil
}

func (ms *MemoryStore) Save(_ context.Context, guildID string, patterns []model.ReplyPatternRecord) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if len(patterns) == 0 {
		delete(ms.guilds, guildID)
		return nil
	}
	ms.guilds[guildID] = cloneRecords(patterns)
	return nil
}

func cloneRecords(in []model.ReplyPatternRecord) []model.ReplyPatternRecord {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.ReplyPatternRecord, len(in))
	copy(out, in)
	return out
}
