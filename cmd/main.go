package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ARF-DEV/caffeine_reply_bot/config"
	"github.com/ARF-DEV/caffeine_reply_bot/internal/bot"
	"github.com/ARF-DEV/caffeine_reply_bot/internal/commands"
	"github.com/ARF-DEV/caffeine_reply_bot/internal/ipinfo"
	"github.com/ARF-DEV/caffeine_reply_bot/internal/logging"
	"github.com/ARF-DEV/caffeine_reply_bot/internal/messages"
	"github.com/ARF-DEV/caffeine_reply_bot/internal/store"
	"github.com/ARF-DEV/caffeine_reply_bot/utils"
)

func main() {
	configPath := flag.String("config", "./config.json", "path to the JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("bot stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	log.Debug("effective config", zap.String("config", utils.JSONString(cfg.Masked())))

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	patternStore, storeCloser, err := store.Open(startCtx, cfg.Store, log.Named("store"))
	if err != nil {
		return err
	}
	defer func() {
		if err := storeCloser.Close(); err != nil {
			log.Warn("failed to close store", zap.Error(err))
		}
	}()
	log.Info("reply pattern store ready", zap.String("driver", cfg.Store.Driver))

	replies := messages.NewClientMessageHandler(
		messages.WithStore(patternStore),
		messages.WithLogger(log.Named("messages")),
	)

	cmds := commands.NewManager(log.Named("commands"))
	cmds.Add(commands.NewReplyCommand(replies))

	disBot, err := bot.NewDisBot(cfg, replies, cmds, log.Named("bot"))
	if err != nil {
		return err
	}
	cmds.Add(
		commands.NewInfoCommand(disBot.State()),
		commands.NewIPInfoCommand(ipinfo.NewClient(cfg.IPInfoToken)),
	)
	log.Info("commands loaded", zap.Int("commands", cmds.Len()))
	if err := disBot.Open(); err != nil {
		return err
	}

	log.Info("running")
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	log.Info("shutting down")
	stopCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	return disBot.Close(stopCtx)
}
