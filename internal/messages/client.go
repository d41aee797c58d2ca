package messages

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/ARF-DEV/caffeine_reply_bot/internal/store"
)

// Sender is the part of *discordgo.Session used to post replies.
type Sender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ Sender = (*discordgo.Session)(nil)

// defaultLoadRetry is how long a guild waits before reading the store
// again after a failed load.
const defaultLoadRetry = 5 * time.Second

type Option func(*ClientMessageHandler)

// WithStore loads each guild's patterns from s on first use and saves
// them after every change.
func WithStore(s store.Store) Option {
	return func(ch *ClientMessageHandler) { ch.store = s }
}

func WithLogger(log *zap.Logger) Option {
	return func(ch *ClientMessageHandler) { ch.log = log }
}

func WithLoadRetry(d time.Duration) Option {
	return func(ch *ClientMessageHandler) { ch.loadRetry = d }
}

// ClientMessageHandler maps guild IDs to their GuildMessageHandler and
// answers incoming messages. Build one per session and pass it to whoever
// needs it.
type ClientMessageHandler struct {
	mx        sync.Mutex
	handlers  map[string]*GuildMessageHandler
	store     store.Store
	log       *zap.Logger
	loadRetry time.Duration
}

func NewClientMessageHandler(opts ...Option) *ClientMessageHandler {
	ch := &ClientMessageHandler{
		handlers:  map[string]*GuildMessageHandler{},
		log:       zap.NewNop(),
		loadRetry: defaultLoadRetry,
	}
	for _, opt := range opts {
		opt(ch)
	}
	return ch
}

// GetGuildMessageHandler returns the handler for guildID, creating and
// loading it on first use. Handlers are never evicted, so the map grows by
// one entry per guild that has sent a message or used /reply.
func (ch *ClientMessageHandler) GetGuildMessageHandler(ctx context.Context, guildID string) *GuildMessageHandler {
	ch.mx.Lock()
	gh, found := ch.handlers[guildID]
	if !found {
		gh = newGuildMessageHandler(guildID, ch.store, ch.log, ch.loadRetry)
		ch.handlers[guildID] = gh
		ch.log.Debug("guild handler created",
			zap.String("guild_id", guildID),
			zap.Int("guilds", len(ch.handlers)))
	}
	ch.mx.Unlock()

	gh.ensureLoaded(ctx)
	return gh
}

// Guilds returns how many guilds have a handler.
func (ch *ClientMessageHandler) Guilds() int {
	ch.mx.Lock()
	defer ch.mx.Unlock()
	return len(ch.handlers)
}

// HandleMessage replies in the message's channel when its content matches
// one of the guild's patterns. Direct messages and bot authors are ignored.
// Send failures are logged only.
func (ch *ClientMessageHandler) HandleMessage(ctx context.Context, s Sender, msg *discordgo.MessageCreate) {
	if msg == nil || msg.Message == nil {
		return
	}
	if msg.GuildID == "" || msg.Author == nil || msg.Author.Bot {
		return
	}

	pattern, found := ch.GetGuildMessageHandler(ctx, msg.GuildID).FindMatch(msg.Content)
	if !found {
		return
	}

	_, err := s.ChannelMessageSendComplex(msg.ChannelID, &discordgo.MessageSend{
		Content: pattern.Response(),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		ch.log.Warn("failed to send auto reply",
			zap.String("guild_id", msg.GuildID),
			zap.String("channel_id", msg.ChannelID),
			zap.String("trigger", pattern.Trigger()),
			zap.Error(err))
	}
}
