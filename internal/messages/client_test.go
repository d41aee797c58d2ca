package messages

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ARF-DEV/caffeine_reply_bot/internal/store"
	"github.com/ARF-DEV/caffeine_reply_bot/model"
)

type modelRecord = model.ReplyPatternRecord

type failingStore struct {
	mu    sync.Mutex
	loads int
	saves int
}

func (fs *failingStore) Load(context.Context, string) ([]model.ReplyPatternRecord, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.loads++
	return nil, errors.New("store down")
}

func (fs *failingStore) Save(context.Context, string, []model.ReplyPatternRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.saves++
	return errors.New("store down")
}

// flakyStore fails the first failLoads loads and then reads from Store.
type flakyStore struct {
	store.Store
	mu        sync.Mutex
	failLoads int
	loads     int
}

func (fs *flakyStore) Load(ctx context.Context, guildID string) ([]model.ReplyPatternRecord, error) {
	fs.mu.Lock()
	fs.loads++
	fail := fs.failLoads > 0
	if fail {
		fs.failLoads--
	}
	fs.mu.Unlock()

	if fail {
		return nil, errors.New("store down")
	}
	return fs.Store.Load(ctx, guildID)
}

func (fs *flakyStore) loadCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.loads
}

type sentMessage struct {
	channelID string
	data      *discordgo.MessageSend
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (fs *fakeSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.sent = append(fs.sent, sentMessage{channelID: channelID, data: data})
	if fs.err != nil {
		return nil, fs.err
	}
	return &discordgo.Message{ChannelID: channelID, Content: data.Content}, nil
}

func newMessage(guildID, channelID, content string, bot bool) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		GuildID:   guildID,
		ChannelID: channelID,
		Content:   content,
		Author:    &discordgo.User{ID: "u1", Bot: bot},
	}}
}

func TestClientMessageHandler_GetGuildMessageHandlerIsStable(t *testing.T) {
	ch := NewClientMessageHandler()
	ctx := context.Background()

	a := ch.GetGuildMessageHandler(ctx, "g1")
	b := ch.GetGuildMessageHandler(ctx, "g1")
	c := ch.GetGuildMessageHandler(ctx, "g2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "g1", a.GuildID())
	assert.Equal(t, 2, ch.Guilds())
}

func TestClientMessageHandler_FailedLoadRetryIsThrottled(t *testing.T) {
	fs := &failingStore{}
	ch := NewClientMessageHandler(WithStore(fs), WithLoadRetry(time.Hour))
	ctx := context.Background()

	gh := ch.GetGuildMessageHandler(ctx, "g1")
	ch.GetGuildMessageHandler(ctx, "g1")

	assert.Empty(t, gh.ListReplyPatterns())
	assert.Equal(t, 1, fs.loads)
}

func TestClientMessageHandler_GuildsAreIsolated(t *testing.T) {
	ch := NewClientMessageHandler()
	ctx := context.Background()

	ch.GetGuildMessageHandler(ctx, "a").AddReplyPattern(ctx, mustPattern(t, "ping", "pong A", false))
	ch.GetGuildMessageHandler(ctx, "b").AddReplyPattern(ctx, mustPattern(t, "ping", "pong B", false))

	sender := &fakeSender{}
	ch.HandleMessage(ctx, sender, newMessage("a", "c1", "ping", false))
	ch.HandleMessage(ctx, sender, newMessage("b", "c2", "ping", false))
	ch.HandleMessage(ctx, sender, newMessage("c", "c3", "ping", false))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "c1", sender.sent[0].channelID)
	assert.Equal(t, "pong A", sender.sent[0].data.Content)
	assert.Equal(t, "c2", sender.sent[1].channelID)
	assert.Equal(t, "pong B", sender.sent[1].data.Content)
}

func TestClientMessageHandler_HandleMessage(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		msg     *discordgo.MessageCreate
		wantOut string
	}{
		{"match replies", newMessage("g1", "c1", "well hello there", false), "hi"},
		{"no match", newMessage("g1", "c1", "goodbye", false), ""},
		{"direct message ignored", newMessage("", "c1", "hello", false), ""},
		{"bot author ignored", newMessage("g1", "c1", "hello", true), ""},
		{"nil author ignored", &discordgo.MessageCreate{Message: &discordgo.Message{GuildID: "g1", Content: "hello"}}, ""},
		{"nil message ignored", &discordgo.MessageCreate{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := NewClientMessageHandler()
			ch.GetGuildMessageHandler(ctx, "g1").AddReplyPattern(ctx, mustPattern(t, "hello", "hi", false))

			sender := &fakeSender{}
			ch.HandleMessage(ctx, sender, tt.msg)

			if tt.wantOut == "" {
				assert.Empty(t, sender.sent)
				return
			}
			require.Len(t, sender.sent, 1)
			assert.Equal(t, tt.msg.ChannelID, sender.sent[0].channelID)
			assert.Equal(t, tt.wantOut, sender.sent[0].data.Content)
			assert.Equal(t,
				[]discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
				sender.sent[0].data.AllowedMentions.Parse)
		})
	}
}

func TestClientMessageHandler_SendFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ch := NewClientMessageHandler(WithLogger(zap.New(core)))
	ctx := context.Background()
	gh := ch.GetGuildMessageHandler(ctx, "g1")
	gh.AddReplyPattern(ctx, mustPattern(t, "hello", "hi", true))

	sender := &fakeSender{err: errors.New("missing permissions")}
	assert.NotPanics(t, func() {
		ch.HandleMessage(ctx, sender, newMessage("g1", "c1", "hello", false))
	})

	require.Equal(t, 1, logs.FilterMessage("failed to send auto reply").Len())
	_, found := gh.FindMatch("hello")
	assert.True(t, found)

	sender.err = nil
	ch.HandleMessage(ctx, sender, newMessage("g1", "c1", "hello", false))
	assert.Len(t, sender.sent, 2)
}

func TestClientMessageHandler_RetriesLoadAfterStoreRecovers(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, ms.Save(ctx, "g1", []modelRecord{
		{Trigger: "a", Response: "1"},
		{Trigger: "b", Response: "2"},
	}))
	fs := &flakyStore{Store: ms, failLoads: 1}
	ch := NewClientMessageHandler(WithStore(fs), WithLoadRetry(0))

	sender := &fakeSender{}
	ch.HandleMessage(ctx, sender, newMessage("g1", "c1", "a", false))
	assert.Empty(t, sender.sent)

	ch.HandleMessage(ctx, sender, newMessage("g1", "c1", "a", false))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "1", sender.sent[0].data.Content)

	ch.GetGuildMessageHandler(ctx, "g1").AddReplyPattern(ctx, mustPattern(t, "c", "3", false))
	records, err := ms.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestClientMessageHandler_RestoresFromStore(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()

	first := NewClientMessageHandler(WithStore(ms))
	first.GetGuildMessageHandler(ctx, "g1").AddReplyPattern(ctx, mustPattern(t, "hello", "hi", true))

	second := NewClientMessageHandler(WithStore(ms))
	sender := &fakeSender{}
	second.HandleMessage(ctx, sender, newMessage("g1", "c1", "hello", false))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "hi", sender.sent[0].data.Content)
}
