package commands

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 2016-04-30 11:18:25 UTC
const testSnowflake = "175928847299117063"

func infoInteraction(guildID, sub string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	i := replyInteraction(guildID, sub, opts...)
	data := i.Data.(discordgo.ApplicationCommandInteractionData)
	data.Name = infoCommandName
	i.Data = data
	return i
}

func userOpt(name, userID string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionUser,
		Value: userID,
	}
}

func withResolved(i *discordgo.InteractionCreate, resolved *discordgo.ApplicationCommandInteractionDataResolved) *discordgo.InteractionCreate {
	data := i.Data.(discordgo.ApplicationCommandInteractionData)
	data.Resolved = resolved
	i.Data = data
	return i
}

func newInfoManager(t *testing.T, guilds ...*discordgo.Guild) *Manager {
	t.Helper()
	state := discordgo.NewState()
	for _, g := range guilds {
		require.NoError(t, state.GuildAdd(g))
	}
	m := NewManager(zap.NewNop())
	m.Add(NewInfoCommand(state))
	return m
}

func TestInfoCommand_User(t *testing.T) {
	m := newInfoManager(t)
	r := &fakeResponder{}
	joined := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)

	i := withResolved(infoInteraction("g1", subUser, userOpt(optTarget, testSnowflake)),
		&discordgo.ApplicationCommandInteractionDataResolved{
			Users: map[string]*discordgo.User{testSnowflake: {ID: testSnowflake, Username: "ringo"}},
			Members: map[string]*discordgo.Member{testSnowflake: {
				JoinedAt: joined,
				Roles:    []string{"g1", "r1", "r2"},
			}},
		})
	m.HandleInteraction(context.Background(), r, i)

	data := r.last(t)
	assert.Zero(t, data.Flags&discordgo.MessageFlagsEphemeral)
	assert.Equal(t, "**ringo**"+
		"\nUser ID: "+testSnowflake+
		"\nAccount created: <t:1462015105:R>"+
		"\nJoined server: <t:1672628645:R>"+
		"\nRoles (2): <@&r1>, <@&r2>", data.Content)
	assert.Empty(t, data.AllowedMentions.Parse)
}

func TestInfoCommand_UserWithoutRoles(t *testing.T) {
	m := newInfoManager(t)
	r := &fakeResponder{}

	i := withResolved(infoInteraction("g1", subUser, userOpt(optTarget, "u1")),
		&discordgo.ApplicationCommandInteractionDataResolved{
			Users:   map[string]*discordgo.User{"u1": {ID: "u1", Username: "nobody"}},
			Members: map[string]*discordgo.Member{"u1": {}},
		})
	m.HandleInteraction(context.Background(), r, i)

	content := r.last(t).Content
	assert.Contains(t, content, "Joined server: -")
	assert.Contains(t, content, "Roles (0): none")
}

func TestInfoCommand_UserMissing(t *testing.T) {
	m := newInfoManager(t)
	ctx := context.Background()

	r := &fakeResponder{}
	m.HandleInteraction(ctx, r, infoInteraction("g1", subUser, userOpt(optTarget, "u1")))
	assert.Equal(t, msgUserNotFound, r.last(t).Content)

	r = &fakeResponder{}
	i := withResolved(infoInteraction("g1", subUser, userOpt(optTarget, "u1")),
		&discordgo.ApplicationCommandInteractionDataResolved{
			Users: map[string]*discordgo.User{"u1": {ID: "u1", Username: "left"}},
		})
	m.HandleInteraction(ctx, r, i)
	data := r.last(t)
	assert.Equal(t, msgNotMember, data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, data.Flags)
}

func TestInfoCommand_Server(t *testing.T) {
	m := newInfoManager(t, &discordgo.Guild{
		ID:                       testSnowflake,
		Name:                     "Caffeine",
		MemberCount:              42,
		PremiumSubscriptionCount: 3,
		Channels: []*discordgo.Channel{
			{ID: "c1", Type: discordgo.ChannelTypeGuildText},
			{ID: "c2", Type: discordgo.ChannelTypeGuildText},
			{ID: "c3", Type: discordgo.ChannelTypeGuildVoice},
		},
		Roles: []*discordgo.Role{{ID: testSnowflake}, {ID: "r1"}},
	})
	r := &fakeResponder{}

	m.HandleInteraction(context.Background(), r, infoInteraction(testSnowflake, subServer))

	assert.Equal(t, "**Caffeine**"+
		"\nMembers: 42"+
		"\nCreated: <t:1462015105:R>"+
		"\nChannels: 3 (voice: 1)"+
		"\nRoles: 2"+
		"\nBoosts: 3 boosts", r.last(t).Content)
}

func TestInfoCommand_ServerNotCached(t *testing.T) {
	m := newInfoManager(t)
	r := &fakeResponder{}

	m.HandleInteraction(context.Background(), r, infoInteraction("g1", subServer))

	data := r.last(t)
	assert.Equal(t, msgServerUnavailable, data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, data.Flags)
}

func TestInfoCommand_NotInGuild(t *testing.T) {
	m := newInfoManager(t)
	r := &fakeResponder{}

	m.HandleInteraction(context.Background(), r, infoInteraction("", subServer))
	assert.Equal(t, msgNotInGuild, r.last(t).Content)
}

func TestManager_RegisterAllCommands(t *testing.T) {
	m, _ := newTestManager()
	m.Add(NewInfoCommand(discordgo.NewState()), NewIPInfoCommand(&fakeLookup{}))
	reg := &fakeRegistrar{}

	require.NoError(t, m.Register(context.Background(), reg, "app", ""))
	require.Len(t, reg.got, 3)
	assert.Equal(t, infoCommandName, reg.got[0].Name)
	assert.Equal(t, ipInfoCommandName, reg.got[1].Name)
	assert.Equal(t, replyCommandName, reg.got[2].Name)
}
