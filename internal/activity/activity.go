// Package activity keeps the bot's presence line up to date.
package activity

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	loadingName  = "Starting up"
	loadingState = "Registering commands"
)

// StatusUpdater is the part of *discordgo.Session that changes presence.
type StatusUpdater interface {
	UpdateStatusComplex(usd discordgo.UpdateStatusData) error
}

var _ StatusUpdater = (*discordgo.Session)(nil)

// SetLoading shows a do-not-disturb presence while the bot starts up.
func SetLoading(s StatusUpdater) error {
	return s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: string(discordgo.StatusDoNotDisturb),
		Activities: []*discordgo.Activity{{
			Name:  loadingName,
			State: loadingState,
			Type:  discordgo.ActivityTypeGame,
		}},
	})
}

// Rotator cycles through messages as the bot's activity. "{guilds}" in a
// message is replaced with the current guild count.
type Rotator struct {
	s        StatusUpdater
	messages []string
	interval time.Duration
	guilds   func() int
	log      *zap.Logger
	idx      int
}

func NewRotator(s StatusUpdater, messages []string, interval time.Duration, guilds func() int, log *zap.Logger) *Rotator {
	return &Rotator{
		s:        s,
		messages: messages,
		interval: interval,
		guilds:   guilds,
		log:      log,
	}
}

// Run sets the first message right away and then rotates every interval
// until ctx is done. With no messages it only sets the online status.
func (r *Rotator) Run(ctx context.Context) {
	r.next()
	if len(r.messages) < 2 || r.interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.next()
		}
	}
}

func (r *Rotator) next() {
	usd := discordgo.UpdateStatusData{Status: string(discordgo.StatusOnline)}
	if len(r.messages) > 0 {
		usd.Activities = []*discordgo.Activity{{
			Name: r.render(r.messages[r.idx%len(r.messages)]),
			Type: discordgo.ActivityTypeGame,
		}}
		r.idx++
	}
	if err := r.s.UpdateStatusComplex(usd); err != nil {
		r.log.Warn("failed to update presence", zap.Error(err))
	}
}

func (r *Rotator) render(msg string) string {
	if r.guilds == nil || !strings.Contains(msg, "{guilds}") {
		return msg
	}
	return strings.ReplaceAll(msg, "{guilds}", strconv.Itoa(r.guilds()))
}
