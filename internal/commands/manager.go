// Package commands registers slash commands and dispatches interactions
// to them.
package commands

import (
	"context"
	"sort"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type (
	// Command is one slash command.
	Command interface {
		Definition() *discordgo.ApplicationCommand
		Execute(ctx context.Context, r Responder, i *discordgo.InteractionCreate) error
	}

	// Responder answers interactions. *discordgo.Session satisfies it.
	Responder interface {
		InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
		InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	}

	// Registrar publishes command definitions. *discordgo.Session satisfies it.
	Registrar interface {
		ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	}

	Manager struct {
		mx       sync.RWMutex
		commands map[string]Command
		log      *zap.Logger
	}
)

var (
	_ Responder = (*discordgo.Session)(nil)
	_ Registrar = (*discordgo.Session)(nil)
)

func NewManager(log *zap.Logger) *Manager {
	return &Manager{
		commands: map[string]Command{},
		log:      log,
	}
}

// Add registers cmds by name. A later command replaces an earlier one with
// the same name.
func (m *Manager) Add(cmds ...Command) {
	m.mx.Lock()
	defer m.mx.Unlock()
	for _, cmd := range cmds {
		m.commands[cmd.Definition().Name] = cmd
	}
}

func (m *Manager) Len() int {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return len(m.commands)
}

// Definitions returns the command definitions sorted by name.
func (m *Manager) Definitions() []*discordgo.ApplicationCommand {
	m.mx.RLock()
	defer m.mx.RUnlock()

	defs := make([]*discordgo.ApplicationCommand, 0, len(m.commands))
	for _, cmd := range m.commands {
		defs = append(defs, cmd.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Register overwrites the application's commands with the managed set.
// An empty guildID registers global commands.
func (m *Manager) Register(ctx context.Context, r Registrar, appID, guildID string) error {
	defs := m.Definitions()
	registered, err := r.ApplicationCommandBulkOverwrite(appID, guildID, defs, discordgo.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "register slash commands")
	}
	m.log.Info("slash commands registered",
		zap.Int("commands", len(registered)),
		zap.String("guild_id", guildID))
	return nil
}

// HandleInteraction runs the command named by an application command
// interaction. Other interaction types and unknown names are ignored.
func (m *Manager) HandleInteraction(ctx context.Context, r Responder, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	name := i.ApplicationCommandData().Name

	m.mx.RLock()
	cmd, found := m.commands[name]
	m.mx.RUnlock()
	if !found {
		m.log.Debug("unknown command", zap.String("command", name))
		return
	}

	if err := cmd.Execute(ctx, r, i); err != nil {
		m.log.Error("command failed",
			zap.String("command", name),
			zap.String("guild_id", i.GuildID),
			zap.Error(err))
	}
}

func respond(ctx context.Context, r Responder, i *discordgo.InteractionCreate, content string, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Content: content,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{},
		},
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx))
	return errors.Wrapf(err, "respond to %s", i.ApplicationCommandData().Name)
}

// deferResponse acknowledges i so the reply can be sent later with
// editResponse.
func deferResponse(ctx context.Context, r Responder, i *discordgo.InteractionCreate) error {
	err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx))
	return errors.Wrapf(err, "defer response to %s", i.ApplicationCommandData().Name)
}

func editResponse(ctx context.Context, r Responder, i *discordgo.InteractionCreate, content string) error {
	_, err := r.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{},
		},
	}, discordgo.WithContext(ctx))
	return errors.Wrapf(err, "edit response to %s", i.ApplicationCommandData().Name)
}
