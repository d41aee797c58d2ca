package messages

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ARF-DEV/caffeine_reply_bot/internal/store"
	"github.com/ARF-DEV/caffeine_reply_bot/model"
)

// GuildMessageHandler owns the ordered reply patterns of one guild.
// Triggers are unique within a guild and the first inserted match wins.
type GuildMessageHandler struct {
	guildID  string
	mx       sync.RWMutex
	patterns []ReplyPattern

	// loaded turns true after the first successful store load. persist
	// writes nothing before then.
	loadMx    sync.Mutex
	loaded    atomic.Bool
	nextLoad  time.Time
	loadRetry time.Duration

	// saveMx orders snapshots written to the store
	saveMx sync.Mutex
	store  store.Store
	log    *zap.Logger
}

func newGuildMessageHandler(guildID string, s store.Store, log *zap.Logger, loadRetry time.Duration) *GuildMessageHandler {
	gh := &GuildMessageHandler{
		guildID:   guildID,
		store:     s,
		loadRetry: loadRetry,
		log:       log.With(zap.String("guild_id", guildID)),
	}
	if s == nil {
		gh.loaded.Store(true)
	}
	return gh
}

func (gh *GuildMessageHandler) GuildID() string {
	return gh.guildID
}

// AddReplyPattern appends pattern and reports true, or reports false and
// changes nothing when its trigger is already registered.
func (gh *GuildMessageHandler) AddReplyPattern(ctx context.Context, pattern ReplyPattern) bool {
	gh.mx.Lock()
	for _, p := range gh.patterns {
		if p.trigger == pattern.trigger {
			gh.mx.Unlock()
			return false
		}
	}
	gh.patterns = append(gh.patterns, pattern)
	gh.mx.Unlock()

	gh.persist(ctx)
	return true
}

// RemoveReplyPattern deletes the pattern with the given trigger and
// reports whether one existed.
func (gh *GuildMessageHandler) RemoveReplyPattern(ctx context.Context, trigger string) bool {
	gh.mx.Lock()
	idx := -1
	for i, p := range gh.patterns {
		if p.trigger == trigger {
			idx = i
			break
		}
	}
	if idx < 0 {
		gh.mx.Unlock()
		return false
	}
	gh.patterns = append(gh.patterns[:idx:idx], gh.patterns[idx+1:]...)
	gh.mx.Unlock()

	gh.persist(ctx)
	return true
}

// ListReplyPatterns returns a copy of the patterns in insertion order.
func (gh *GuildMessageHandler) ListReplyPatterns() []ReplyPattern {
	gh.mx.RLock()
	defer gh.mx.RUnlock()

	out := make([]ReplyPattern, len(gh.patterns))
	copy(out, gh.patterns)
	return out
}

// FindMatch returns the earliest inserted pattern matching content.
func (gh *GuildMessageHandler) FindMatch(content string) (ReplyPattern, bool) {
	gh.mx.RLock()
	defer gh.mx.RUnlock()

	for _, p := range gh.patterns {
		if p.Matches(content) {
			return p, true
		}
	}
	return ReplyPattern{}, false
}

// ensureLoaded reads the guild's patterns from the store until one load
// succeeds. After a failure the next attempt waits for loadRetry.
func (gh *GuildMessageHandler) ensureLoaded(ctx context.Context) {
	if gh.loaded.Load() {
		return
	}
	gh.loadMx.Lock()
	defer gh.loadMx.Unlock()
	if gh.loaded.Load() || time.Now().Before(gh.nextLoad) {
		return
	}

	if err := gh.load(ctx); err != nil {
		gh.nextLoad = time.Now().Add(gh.loadRetry)
		gh.log.Error("failed to load reply patterns, changes stay unsaved until a retry succeeds",
			zap.Duration("retry_in", gh.loadRetry),
			zap.Error(err))
	}
}

// load replaces the in-memory patterns with the stored ones. Patterns added
// while the store was unreachable are appended after them and saved.
func (gh *GuildMessageHandler) load(ctx context.Context) error {
	records, err := gh.store.Load(ctx, gh.guildID)
	if err != nil {
		return errors.Wrap(err, "load reply patterns")
	}

	patterns := make([]ReplyPattern, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		p, err := patternFromRecord(r)
		if err != nil {
			gh.log.Warn("skipping stored reply pattern", zap.String("trigger", r.Trigger), zap.Error(err))
			continue
		}
		if _, dup := seen[p.trigger]; dup {
			gh.log.Warn("skipping duplicate stored trigger", zap.String("trigger", r.Trigger))
			continue
		}
		seen[p.trigger] = struct{}{}
		patterns = append(patterns, p)
	}

	unsaved := 0
	gh.mx.Lock()
	for _, p := range gh.patterns {
		if _, dup := seen[p.trigger]; dup {
			continue
		}
		seen[p.trigger] = struct{}{}
		patterns = append(patterns, p)
		unsaved++
	}
	gh.patterns = patterns
	gh.loaded.Store(true)
	gh.mx.Unlock()

	gh.log.Debug("loaded reply patterns",
		zap.Int("patterns", len(patterns)),
		zap.Int("unsaved", unsaved))
	if unsaved > 0 {
		gh.persist(ctx)
	}
	return nil
}

// persist writes the current snapshot. Failures are logged and the
// in-memory state is kept.
func (gh *GuildMessageHandler) persist(ctx context.Context) {
	if gh.store == nil {
		return
	}
	if !gh.loaded.Load() {
		gh.log.Warn("reply patterns not saved, store has not been loaded yet")
		return
	}
	gh.saveMx.Lock()
	defer gh.saveMx.Unlock()

	snapshot := gh.ListReplyPatterns()
	records := make([]model.ReplyPatternRecord, len(snapshot))
	for i, p := range snapshot {
		records[i] = p.record(gh.guildID, i)
	}
	if err := gh.store.Save(ctx, gh.guildID, records); err != nil {
		gh.log.Error("failed to save reply patterns", zap.Error(err))
	}
}
