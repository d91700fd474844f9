package discord

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/discordgo"
)

// userOf: en guild viene en Member, en DM en User.
func userOf(ic *discordgo.InteractionCreate) *discordgo.User {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User
	}
	return ic.User
}

func displayNameOf(ic *discordgo.InteractionCreate) string {
	if ic.Member != nil {
		if n := memberName(ic.Member); n != "" {
			return n
		}
	}
	if u := userOf(ic); u != nil {
		if u.GlobalName != "" {
			return u.GlobalName
		}
		return u.Username
	}
	return ""
}

// avatarURLOf sólo devuelve avatares reales (los default no aportan al logo).
func avatarURLOf(u *discordgo.User) string {
	if u == nil || u.Avatar == "" {
		return ""
	}
	return u.AvatarURL("128")
}

func commandOption(ic *discordgo.InteractionCreate, name string) *discordgo.ApplicationCommandInteractionDataOption {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return nil
	}
	for _, o := range ic.ApplicationCommandData().Options {
		if o.Name == name {
			return o
		}
	}
	return nil
}

func optStr(ic *discordgo.InteractionCreate, name string) (string, bool) {
	if o := commandOption(ic, name); o != nil && o.Type == discordgo.ApplicationCommandOptionString {
		return o.StringValue(), true
	}
	return "", false
}

func optBool(ic *discordgo.InteractionCreate, name string) (bool, bool) {
	if o := commandOption(ic, name); o != nil && o.Type == discordgo.ApplicationCommandOptionBoolean {
		return o.BoolValue(), true
	}
	return false, false
}

func optInt(ic *discordgo.InteractionCreate, name string) (int, bool) {
	if o := commandOption(ic, name); o != nil && o.Type == discordgo.ApplicationCommandOptionInteger {
		return int(o.IntValue()), true
	}
	return 0, false
}

func optFloat(ic *discordgo.InteractionCreate, name string) (*float64, bool) {
	if o := commandOption(ic, name); o != nil && o.Type == discordgo.ApplicationCommandOptionNumber {
		v := o.FloatValue()
		return &v, true
	}
	return nil, false
}

func fmtUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	default:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
}

// eventTitle: "qr_generated" -> "Qr Generated"
func eventTitle(eventType string) string {
	parts := strings.Split(eventType, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		rs := []rune(strings.ToLower(p))
		rs[0] = unicode.ToUpper(rs[0])
		parts[i] = string(rs)
	}
	return strings.Join(parts, " ")
}

func clampDays(d int) int {
	switch {
	case d <= 0:
		return 7
	case d > 90:
		return 90
	}
	return d
}

func secondsCeil(d time.Duration) int {
	s := int(d / time.Second)
	if d%time.Second != 0 {
		s++
	}
	return s
}
