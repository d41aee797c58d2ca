package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ARF-DEV/caffeine_reply_bot/config"
	"github.com/ARF-DEV/caffeine_reply_bot/internal/activity"
	"github.com/ARF-DEV/caffeine_reply_bot/internal/commands"
	"github.com/ARF-DEV/caffeine_reply_bot/internal/messages"
)

const handlerTimeout = 15 * time.Second

func NewDisBot(cfg config.Config, replies *messages.ClientMessageHandler, cmds *commands.Manager, log *zap.Logger) (*DisBot, error) {
	b, err := discordgo.New("Bot " + cfg.DiscordAppKey)
	if err != nil {
		return nil, errors.Wrap(err, "create discord session")
	}
	disBot := DisBot{
		session: b,
		cfg:     cfg,
		log:     log,
		replies: replies,
		cmds:    cmds,
	}
	disBot.insertMsgCreateFn(disBot.autoReply)
	disBot.init()

	return &disBot, nil
}

func (db *DisBot) insertMsgCreateFn(f discordMsgCreateFn) {
	db.msgCreateFns = append(db.msgCreateFns, f)
}

func (db *DisBot) autoReply(ctx context.Context, s *discordgo.Session, msg *discordgo.MessageCreate) {
	db.replies.HandleMessage(ctx, s, msg)
}

// State is the session's gateway cache of guilds, channels and roles.
func (db *DisBot) State() *discordgo.State {
	return db.session.State
}

func (db *DisBot) Open() error {
	return errors.Wrap(db.session.Open(), "open discord session")
}

// Close posts the shutdown notice, stops the presence rotation and closes
// the gateway connection.
func (db *DisBot) Close(ctx context.Context) error {
	db.sysLog(ctx, sysLogShutdown)

	db.mx.Lock()
	stop, done := db.stopActivity, db.activityDone
	db.stopActivity, db.activityDone = nil, nil
	db.mx.Unlock()
	if stop != nil {
		stop()
		<-done
	}

	return errors.Wrap(db.session.Close(), "close discord session")
}

func (db *DisBot) init() {
	db.session.Identify.Intents = intents
	db.session.AddHandler(db.onReady)
	db.session.AddHandler(db.onInteractionCreate)
	db.session.AddHandler(db.onMessageCreate)
}

func (db *DisBot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	db.log.Info("logged in",
		zap.String("user", r.User.String()),
		zap.Int("guilds", len(r.Guilds)))

	if err := activity.SetLoading(s); err != nil {
		db.log.Warn("failed to set loading presence", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	db.log.Info("registering commands", zap.Int("commands", db.cmds.Len()))
	if err := db.cmds.Register(ctx, s, r.User.ID, db.cfg.CommandGuild); err != nil {
		db.log.Error("failed to register commands", zap.Error(err))
	}
	db.sysLog(ctx, sysLogReady)
	db.startActivity(s)
}

func (db *DisBot) startActivity(s *discordgo.Session) {
	db.mx.Lock()
	defer db.mx.Unlock()

	// a fresh Ready after reconnect replaces the running rotation
	if db.stopActivity != nil {
		db.stopActivity()
		<-db.activityDone
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	db.stopActivity, db.activityDone = cancel, done

	rotator := activity.NewRotator(s,
		db.cfg.Activity.Messages,
		time.Duration(db.cfg.Activity.Interval),
		func() int { return guildCount(s) },
		db.log.Named("activity"))
	go func() {
		defer close(done)
		rotator.Run(ctx)
	}()
}

func (db *DisBot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	db.cmds.HandleInteraction(ctx, s, i)
}

func (db *DisBot) onMessageCreate(s *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || (s.State.User != nil && msg.Author.ID == s.State.User.ID) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	for _, handler := range db.msgCreateFns {
		handler(ctx, s, msg)
	}
}

func (db *DisBot) sysLog(ctx context.Context, content string) {
	if db.cfg.SyslogChannel == "" {
		return
	}
	if _, err := db.session.ChannelMessageSend(db.cfg.SyslogChannel, content, discordgo.WithContext(ctx)); err != nil {
		db.log.Warn("failed to send syslog message",
			zap.String("channel_id", db.cfg.SyslogChannel),
			zap.Error(err))
	}
}

func guildCount(s *discordgo.Session) int {
	s.State.RLock()
	defer s.State.RUnlock()
	return len(s.State.Guilds)
}
