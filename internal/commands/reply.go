package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/ARF-DEV/caffeine_reply_bot/internal/messages"
	"github.com/ARF-DEV/caffeine_reply_bot/utils"
)

const (
	replyCommandName = "reply"

	subAdd    = "add"
	subRemove = "remove"
	subList   = "list"

	optMessage         = "message"
	optReply           = "reply"
	optPerfectMatching = "perfect-matching"

	msgNotInGuild    = "This command can only be used in a server."
	msgAdded         = "Reply pattern added."
	msgAlreadyExists = "A reply pattern for that message already exists."
	msgInvalid       = "Both the message and the reply must be non-empty."
	msgRemoved       = "Reply pattern removed:"
	msgNotFound      = "There is no reply pattern for that message."
	msgListHeader    = "Reply patterns:"
	msgListEmpty     = "No reply patterns are registered in this server."
	msgUnknownSub    = "Unknown subcommand."
)

var manageGuild int64 = discordgo.PermissionManageServer

// ReplyCommand is /reply with add, remove and list subcommands.
type ReplyCommand struct {
	handler *messages.ClientMessageHandler
}

func NewReplyCommand(handler *messages.ClientMessageHandler) *ReplyCommand {
	return &ReplyCommand{handler: handler}
}

func (rc *ReplyCommand) Definition() *discordgo.ApplicationCommand {
	dmPermission := false
	return &discordgo.ApplicationCommand{
		Name:                     replyCommandName,
		Description:              "Manage automatic replies for this server",
		DefaultMemberPermissions: &manageGuild,
		DMPermission:             &dmPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subAdd,
				Description: "Add an automatic reply",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        optMessage,
						Description: "Message text that triggers the reply",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        optReply,
						Description: "Text to reply with",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        optPerfectMatching,
						Description: "Only reply when the whole message equals the trigger",
						Required:    false,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subRemove,
				Description: "Remove an automatic reply",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        optMessage,
						Description: "Trigger text of the reply to remove",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        subList,
				Description: "List automatic replies",
			},
		},
	}
}

func (rc *ReplyCommand) Execute(ctx context.Context, r Responder, i *discordgo.InteractionCreate) error {
	if i.GuildID == "" {
		return respond(ctx, r, i, msgNotInGuild, true)
	}

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return respond(ctx, r, i, msgUnknownSub, true)
	}
	sub := data.Options[0]
	opts := optionMap(sub.Options)
	gh := rc.handler.GetGuildMessageHandler(ctx, i.GuildID)

	switch sub.Name {
	case subAdd:
		perfect := false
		if o, ok := opts[optPerfectMatching]; ok {
			perfect = o.BoolValue()
		}
		pattern, err := messages.NewReplyPattern(stringOpt(opts, optMessage), stringOpt(opts, optReply), perfect)
		if errors.Is(err, messages.ErrInvalidPattern) {
			return respond(ctx, r, i, msgInvalid, true)
		}
		if err != nil {
			return err
		}
		if !gh.AddReplyPattern(ctx, pattern) {
			return respond(ctx, r, i, msgAlreadyExists, true)
		}
		return respond(ctx, r, i, utils.TruncateMessage(msgAdded+"\n"+pattern.String(), utils.MessageLimit), false)

	case subRemove:
		trigger := stringOpt(opts, optMessage)
		if !gh.RemoveReplyPattern(ctx, trigger) {
			return respond(ctx, r, i, msgNotFound, true)
		}
		return respond(ctx, r, i, utils.TruncateMessage(fmt.Sprintf("%s `%s`", msgRemoved, trigger), utils.MessageLimit), false)

	case subList:
		return respond(ctx, r, i, formatPatternList(gh.ListReplyPatterns()), true)
	}

	return respond(ctx, r, i, msgUnknownSub, true)
}

func formatPatternList(patterns []messages.ReplyPattern) string {
	if len(patterns) == 0 {
		return msgListEmpty
	}
	var sb strings.Builder
	sb.WriteString(msgListHeader)
	for idx, p := range patterns {
		fmt.Fprintf(&sb, "\n%d. %s", idx+1, p)
	}
	return utils.TruncateMessage(sb.String(), utils.MessageLimit)
}

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func stringOpt(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if o, ok := opts[name]; ok {
		return o.StringValue()
	}
	return ""
}
