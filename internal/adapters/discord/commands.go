package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/upi-rooms-bot/internal/app/upi"
)

var (
	minAmount = 0.01
	maxAmount = 999999.99
	minDays   = 1.0
	dmAllowed = false
)

// nombres de comandos
const (
	cmdSetup         = "setup"
	cmdMyUPI         = "myupi"
	cmdDeleteUPI     = "deleteupi"
	cmdUserAnalytics = "useranalytics"
	cmdPing          = "ping"
	cmdBotStats      = "botstats"
	cmdTempChannels  = "tempchannels"
	cmdCleanup       = "cleanup"
	cmdBroadcast     = "broadcast"
)

// comandos sólo para BOT_OWNER_ID
var ownerCommands = map[string]bool{
	cmdBotStats:     true,
	cmdTempChannels: true,
	cmdCleanup:      true,
	cmdBroadcast:    true,
}

var Commands = []*discordgo.ApplicationCommand{
	{
		Name:         cmdSetup,
		Description:  "🎯 Set UPI ID and generate a payment QR",
		DMPermission: &dmAllowed,
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "upi_id", Description: "📱 Your UPI ID (e.g., john@okhdfcbank)", Required: true, MaxLength: upi.MaxIDLength},
			{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "👤 Beneficiary name", MaxLength: 50},
			{Type: discordgo.ApplicationCommandOptionNumber, Name: "amount", Description: "💰 Amount (₹0.01 - ₹9,99,999.99)", MinValue: &minAmount, MaxValue: maxAmount},
			{Type: discordgo.ApplicationCommandOptionString, Name: "note", Description: "📝 Payment note (max 100 chars)", MaxLength: 100},
			{Type: discordgo.ApplicationCommandOptionString, Name: "color", Description: "🎨 QR color (hex, e.g., #000000)", MaxLength: 7},
		},
	},
	{
		Name:         cmdMyUPI,
		Description:  "📊 View your encrypted UPI profile",
		DMPermission: &dmAllowed,
	},
	{
		Name:         cmdDeleteUPI,
		Description:  "🗑️ Permanently delete your UPI data",
		DMPermission: &dmAllowed,
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionBoolean, Name: "confirm", Description: "Skip the confirmation button"},
		},
	},
	{
		Name:         cmdUserAnalytics,
		Description:  "📈 View your usage analytics",
		DMPermission: &dmAllowed,
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "days", Description: "Days to look back (default 7)", MinValue: &minDays, MaxValue: 90},
		},
	},
	{
		Name:        cmdPing,
		Description: "🏓 Check bot latency",
	},
	{
		Name:         cmdBotStats,
		Description:  "View bot statistics (Owner only)",
		DMPermission: &dmAllowed,
	},
	{
		Name:         cmdTempChannels,
		Description:  "List all temporary channels (Owner only)",
		DMPermission: &dmAllowed,
	},
	{
		Name:         cmdCleanup,
		Description:  "Force cleanup of empty temp channels (Owner only)",
		DMPermission: &dmAllowed,
	},
	{
		Name:         cmdBroadcast,
		Description:  "Broadcast message to temp channels (Owner only)",
		DMPermission: &dmAllowed,
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "message", Description: "Message to broadcast", Required: true, MaxLength: 1500},
		},
	},
}

// custom ids de componentes
const (
	btnDeleteConfirm = "deleteupi_confirm"
	btnDeleteCancel  = "deleteupi_cancel"
)
