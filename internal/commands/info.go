package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ARF-DEV/caffeine_reply_bot/utils"
)

const (
	infoCommandName = "info"

	subUser   = "user"
	subServer = "server"
	optTarget = "target"

	msgUserNotFound      = "That user could not be found."
	msgNotMember         = "That user is not a member of this server."
	msgServerUnavailable = "Server information is not available yet, try again in a moment."
)

// GuildState reads cached guilds. *discordgo.State satisfies it.
type GuildState interface {
	Guild(guildID string) (*discordgo.Guild, error)
}

var _ GuildState = (*discordgo.State)(nil)

// InfoCommand is /info with user and server subcommands.
type InfoCommand struct {
	state GuildState
}

func NewInfoCommand(state GuildState) *InfoCommand {
	return &InfoCommand{state: state}
}

func (ic *InfoCommand) Definition() *discordgo.ApplicationCommand {
	dmPermission := false
	return &discordgo.ApplicationCommand{
		Name:         infoCommandName,
		Description:  "Look up server or user information",
		DMPermission: &dmPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subUser,
				Description: "Show information about a member",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionUser,
						Name:        optTarget,
						Description: "Member to look up",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subServer,
				Description: "Show information about this server",
			},
		},
	}
}

func (ic *InfoCommand) Execute(ctx context.Context, r Responder, i *discordgo.InteractionCreate) error {
	if i.GuildID == "" {
		return respond(ctx, r, i, msgNotInGuild, true)
	}

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return respond(ctx, r, i, msgUnknownSub, true)
	}
	sub := data.Options[0]

	switch sub.Name {
	case subUser:
		var userID string
		if o, ok := optionMap(sub.Options)[optTarget]; ok {
			userID, _ = o.Value.(string)
		}
		if data.Resolved == nil || data.Resolved.Users[userID] == nil {
			return respond(ctx, r, i, msgUserNotFound, true)
		}
		member := data.Resolved.Members[userID]
		if member == nil {
			return respond(ctx, r, i, msgNotMember, true)
		}
		content := formatUserInfo(data.Resolved.Users[userID], member, i.GuildID)
		return respond(ctx, r, i, utils.TruncateMessage(content, utils.MessageLimit), false)

	case subServer:
		guild, err := ic.state.Guild(i.GuildID)
		if err != nil {
			return respond(ctx, r, i, msgServerUnavailable, true)
		}
		return respond(ctx, r, i, utils.TruncateMessage(formatServerInfo(guild), utils.MessageLimit), false)
	}

	return respond(ctx, r, i, msgUnknownSub, true)
}

// relativeTime renders t as a Discord timestamp such as "3 years ago".
func relativeTime(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

func snowflakeTime(id string) string {
	t, err := discordgo.SnowflakeTimestamp(id)
	if err != nil {
		return "-"
	}
	return relativeTime(t)
}

func formatUserInfo(user *discordgo.User, member *discordgo.Member, guildID string) string {
	roles := make([]string, 0, len(member.Roles))
	for _, id := range member.Roles {
		// @everyone shares the guild ID
		if id == guildID {
			continue
		}
		roles = append(roles, "<@&"+id+">")
	}
	roleList := "none"
	if len(roles) > 0 {
		roleList = strings.Join(roles, ", ")
	}

	joined := "-"
	if !member.JoinedAt.IsZero() {
		joined = relativeTime(member.JoinedAt)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**", user.Username)
	fmt.Fprintf(&sb, "\nUser ID: %s", user.ID)
	fmt.Fprintf(&sb, "\nAccount created: %s", snowflakeTime(user.ID))
	fmt.Fprintf(&sb, "\nJoined server: %s", joined)
	fmt.Fprintf(&sb, "\nRoles (%d): %s", len(roles), roleList)
	return sb.String()
}

func formatServerInfo(guild *discordgo.Guild) string {
	voice := 0
	for _, c := range guild.Channels {
		if c.Type == discordgo.ChannelTypeGuildVoice {
			voice++
		}
	}
	boosts := "none"
	if guild.PremiumSubscriptionCount > 0 {
		boosts = fmt.Sprintf("%d boosts", guild.PremiumSubscriptionCount)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**", guild.Name)
	fmt.Fprintf(&sb, "\nMembers: %d", guild.MemberCount)
	fmt.Fprintf(&sb, "\nCreated: %s", snowflakeTime(guild.ID))
	fmt.Fprintf(&sb, "\nChannels: %d (voice: %d)", len(guild.Channels), voice)
	fmt.Fprintf(&sb, "\nRoles: %d", len(guild.Roles))
	fmt.Fprintf(&sb, "\nBoosts: %s", boosts)
	return sb.String()
}
