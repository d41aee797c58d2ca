package bot

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/ARF-DEV/caffeine_reply_bot/config"
	"github.com/ARF-DEV/caffeine_reply_bot/internal/commands"
	"github.com/ARF-DEV/caffeine_reply_bot/internal/messages"
)

type (
	DisBot struct {
		session      *discordgo.Session
		cfg          config.Config
		log          *zap.Logger
		replies      *messages.ClientMessageHandler
		cmds         *commands.Manager
		msgCreateFns []discordMsgCreateFn

		mx           sync.Mutex
		stopActivity context.CancelFunc
		activityDone chan struct{}
	}

	discordMsgCreateFn func(ctx context.Context, s *discordgo.Session, msg *discordgo.MessageCreate)
)

const (
	intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentMessageContent

	sysLogReady    = "Bot is up and running."
	sysLogShutdown = "Bot is shutting down."
)
