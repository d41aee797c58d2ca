// Package messages holds the per-guild auto-reply patterns and the handler
// that answers incoming chat messages with them.
package messages

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/ARF-DEV/caffeine_reply_bot/model"
)

// ErrInvalidPattern is returned when a trigger or response is empty.
var ErrInvalidPattern = errors.New("invalid reply pattern")

// ReplyPattern is a trigger text and the response sent when a message
// matches it. Values are immutable once built with NewReplyPattern.
type ReplyPattern struct {
	trigger      string
	response     string
	perfectMatch bool
}

func NewReplyPattern(trigger, response string, perfectMatch bool) (ReplyPattern, error) {
	if trigger == "" {
		return ReplyPattern{}, errors.Wrap(ErrInvalidPattern, "trigger is empty")
	}
	if response == "" {
		return ReplyPattern{}, errors.Wrap(ErrInvalidPattern, "response is empty")
	}
	return ReplyPattern{
		trigger:      trigger,
		response:     response,
		perfectMatch: perfectMatch,
	}, nil
}

func (p ReplyPattern) Trigger() string    { return p.trigger }
func (p ReplyPattern) Response() string   { return p.response }
func (p ReplyPattern) PerfectMatch() bool { return p.perfectMatch }

// Matches reports whether content fires this pattern. Comparison is
// case-sensitive and content is not trimmed.
func (p ReplyPattern) Matches(content string) bool {
	if p.perfectMatch {
		return content == p.trigger
	}
	return strings.Contains(content, p.trigger)
}

func (p ReplyPattern) String() string {
	s := fmt.Sprintf("`%s` → %s", p.trigger, p.response)
	if p.perfectMatch {
		s += " (perfect match)"
	}
	return s
}

func (p ReplyPattern) record(guildID string, position int) model.ReplyPatternRecord {
	return model.ReplyPatternRecord{
		GuildID:      guildID,
		Position:     position,
		Trigger:      p.trigger,
		Response:     p.response,
		PerfectMatch: p.perfectMatch,
	}
}

func patternFromRecord(r model.ReplyPatternRecord) (ReplyPattern, error) {
	return NewReplyPattern(r.Trigger, r.Response, r.PerfectMatch)
}
