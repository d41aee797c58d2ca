package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/ARF-DEV/caffeine_reply_bot/internal/ipinfo"
	"github.com/ARF-DEV/caffeine_reply_bot/utils"
)

const (
	ipInfoCommandName = "ipinfo"
	optIP             = "ip"

	msgIPInvalid      = "That is not a valid public IP address."
	msgIPLookupFailed = "The IP lookup failed, try again later."
)

// IPLookup resolves details for an IP address. *ipinfo.Client satisfies it.
type IPLookup interface {
	Lookup(ctx context.Context, ip string) (ipinfo.Info, error)
}

var _ IPLookup = (*ipinfo.Client)(nil)

// IPInfoCommand is /ipinfo.
type IPInfoCommand struct {
	lookup IPLookup
}

func NewIPInfoCommand(lookup IPLookup) *IPInfoCommand {
	return &IPInfoCommand{lookup: lookup}
}

func (ic *IPInfoCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        ipInfoCommandName,
		Description: "Look up an IP address",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        optIP,
				Description: "IP address to look up",
				Required:    true,
			},
		},
	}
}

// Execute defers the response while the lookup runs, then edits it with
// the result.
func (ic *IPInfoCommand) Execute(ctx context.Context, r Responder, i *discordgo.InteractionCreate) error {
	if err := deferResponse(ctx, r, i); err != nil {
		return err
	}

	ip := stringOpt(optionMap(i.ApplicationCommandData().Options), optIP)
	info, err := ic.lookup.Lookup(ctx, ip)
	switch {
	case errors.Is(err, ipinfo.ErrInvalidIP):
		return editResponse(ctx, r, i, msgIPInvalid)
	case err != nil:
		if editErr := editResponse(ctx, r, i, msgIPLookupFailed); editErr != nil {
			return editErr
		}
		return errors.Wrapf(err, "lookup %q", ip)
	}

	return editResponse(ctx, r, i, utils.TruncateMessage(formatIPInfo(ip, info), utils.MessageLimit))
}

func formatIPInfo(ip string, info ipinfo.Info) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**", strings.TrimSpace(ip))
	if info.Hostname != "" {
		fmt.Fprintf(&sb, "\nHostname: %s", info.Hostname)
	}
	fmt.Fprintf(&sb, "\nCountry: %s", orDash(info.Country))
	fmt.Fprintf(&sb, "\nCity: %s", orDash(info.City))
	fmt.Fprintf(&sb, "\nRegion: %s", orDash(info.Region))
	fmt.Fprintf(&sb, "\nOrg: %s", orDash(info.Org))
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
