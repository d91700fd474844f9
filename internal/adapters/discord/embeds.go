package discord

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/upi-rooms-bot/internal/app/service"
	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

const (
	colorRed    = 0xED4245
	colorOrange = 0xE67E22
	colorGreen  = 0x57F287
	colorBlue   = 0x3498DB

	qrFileName   = "upi_qr.png"
	footerSetup  = "UPI Bot | Encrypted & Secure"
	footerIcon   = "https://cdn.discordapp.com/embed/avatars/0.png"
	maxListRooms = 10
)

func nowStamp() string { return time.Now().UTC().Format(time.RFC3339) }

func rateLimitedEmbed(retry time.Duration) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⏱️ Rate Limited",
		Description: fmt.Sprintf("Too many requests! Try again in **%ds**.", secondsCeil(retry)),
		Color:       colorOrange,
	}
}

func cooldownEmbed(remaining time.Duration) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⏱️ Cooldown Active",
		Description: fmt.Sprintf("Please wait **%ds** before using this again.", secondsCeil(remaining)),
		Color:       colorOrange,
	}
}

func invalidInputEmbed(msg string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Invalid Input",
		Description: "```" + msg + "```",
		Color:       colorRed,
		Fields: []*discordgo.MessageEmbedField{{
			Name:  "📋 Examples",
			Value: "• `john@okhdfcbank`\n• `smith@paytm`\n• `user@ybl`",
		}},
	}
}

func failureEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Generation Failed",
		Description: "Something went wrong. Please try again or contact support.",
		Color:       colorRed,
	}
}

func setupEmbed(res *service.SetupResult, user *discordgo.User) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       "💸 UPI Payment QR Generated",
		Description: fmt.Sprintf("**UPI ID:** `%s`", res.UPIID),
		Color:       colorGreen,
		Timestamp:   nowStamp(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👤 Beneficiary", Value: "```" + res.Name + "```", Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: footerSetup, IconURL: footerIcon},
	}
	if res.Amount > 0 {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "💰 Amount", Value: fmt.Sprintf("```₹%.2f```", res.Amount), Inline: true})
	}
	if res.Note != "" {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "📝 Note", Value: "```" + res.Note + "```"})
	}
	if len(res.Warnings) > 0 {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "⚠️ Warnings", Value: strings.Join(res.Warnings, "\n")})
	}
	e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
		Name:  "📱 How to Pay?",
		Value: "1️⃣ Scan QR with any UPI app\n2️⃣ Verify details carefully\n3️⃣ Enter UPI PIN to pay\n4️⃣ Payment done! ✅",
	})
	if user != nil {
		e.Author = &discordgo.MessageEmbedAuthor{Name: "Generated for " + user.Username, IconURL: avatarURLOf(user)}
	}
	return e
}

func profileEmbed(v *service.ProfileView) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       "📊 Your UPI Profile",
		Description: "Your data is encrypted and secure 🔒",
		Color:       colorBlue,
		Timestamp:   nowStamp(),
		Footer:      &discordgo.MessageEmbedFooter{Text: "UPI Bot | All data encrypted"},
	}
	if p := v.Profile; p != nil {
		e.Fields = append(e.Fields,
			&discordgo.MessageEmbedField{Name: "UPI ID", Value: "`" + p.UPIID + "`"},
			&discordgo.MessageEmbedField{Name: "Name", Value: "```" + orDash(p.Name) + "```", Inline: true},
		)
		if p.Note != "" {
			e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Note", Value: "```" + p.Note + "```"})
		}
		if !p.Decrypted {
			e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "⚠️ Notice", Value: "Some fields could not be decrypted. Run `/setup` again to refresh them."})
		}
	}
	e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
		Name: "📈 Statistics",
		Value: fmt.Sprintf("QR Generated: **%d**\nUsage Count: **%d**\nProfile Created: <t:%d:R>",
			v.Stats.QRGenerated, v.Stats.UsageCount, v.Stats.CreatedAt.Unix()),
	})
	return e
}

func noProfileEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ No Profile Found",
		Description: "Use `/setup` to create your UPI profile.",
		Color:       colorRed,
	}
}

func deleteConfirmEmbed() (*discordgo.MessageEmbed, discordgo.MessageComponent) {
	e := &discordgo.MessageEmbed{
		Title:       "⚠️ Confirm Deletion",
		Description: "This will **permanently delete** your UPI data!\n\nPress **Delete** to confirm, or use `/deleteupi confirm:true`.",
		Color:       colorOrange,
	}
	row := discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Label: "🗑️ Delete", Style: discordgo.DangerButton, CustomID: btnDeleteConfirm},
		discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: btnDeleteCancel},
	}}
	return e, row
}

func deletedEmbed(existed bool) *discordgo.MessageEmbed {
	if !existed {
		return &discordgo.MessageEmbed{
			Title:       "❌ Nothing to Delete",
			Description: "No UPI data found for your account.",
			Color:       colorOrange,
		}
	}
	return &discordgo.MessageEmbed{
		Title:       "✅ Data Deleted",
		Description: "Your UPI data has been **permanently deleted** from our database.\n\nYou can create a new profile anytime using `/setup`",
		Color:       colorGreen,
		Timestamp:   nowStamp(),
	}
}

func analyticsEmbed(days int, counts map[string]int64) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("📈 Your Analytics (Last %d days)", days),
		Color:     colorBlue,
		Timestamp: nowStamp(),
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: eventTitle(k), Value: fmt.Sprintf("**%d**", counts[k]), Inline: true})
	}
	return e
}

type botStats struct {
	Uptime      time.Duration
	Servers     int
	Users       int
	Records     int64
	QRTotal     int64
	TempRooms   int
	LoggedRooms int64 // log de auditoría; -1 si no se pudo leer
	VoiceUsers  int
	Metrics     service.MetricsSnapshot
	DatabaseMB  float64
	StatsFailed bool
}

func botStatsEmbed(b botStats) *discordgo.MessageEmbed {
	records := fmt.Sprint(b.Records)
	if b.StatsFailed {
		records = "n/a"
	}
	logged := fmt.Sprint(b.LoggedRooms)
	if b.LoggedRooms < 0 {
		logged = "n/a"
	}
	return &discordgo.MessageEmbed{
		Title:     "🤖 Bot Statistics",
		Color:     colorBlue,
		Timestamp: nowStamp(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "⏱️ Uptime", Value: fmtUptime(b.Uptime), Inline: true},
			{Name: "🏢 Servers", Value: fmt.Sprint(b.Servers), Inline: true},
			{Name: "👥 Total Users", Value: fmt.Sprint(b.Users), Inline: true},
			{Name: "💾 UPI Records", Value: records, Inline: true},
			{Name: "🎤 Temp Channels", Value: fmt.Sprint(b.TempRooms), Inline: true},
			{Name: "🗂️ Temp Channels Logged", Value: logged, Inline: true},
			{Name: "🔊 Voice Users", Value: fmt.Sprint(b.VoiceUsers), Inline: true},
			{Name: "📱 QR Generated", Value: fmt.Sprintf("%d (session %d)", b.QRTotal, b.Metrics.QRGenerated), Inline: true},
			{Name: "⚙️ Commands", Value: fmt.Sprint(b.Metrics.CommandsProcessed), Inline: true},
			{Name: "❗ Errors", Value: fmt.Sprint(b.Metrics.ErrorsLogged), Inline: true},
			{Name: "🗄️ Database", Value: fmt.Sprintf("%.2f MB", b.DatabaseMB), Inline: true},
		},
	}
}

type roomRow struct {
	Name  string
	Guild string
	Users int
	Room  domain.TempChannel
}

func tempChannelsEmbed(rows []roomRow, now time.Time) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:     "📋 Temporary Channels",
		Color:     colorOrange,
		Timestamp: nowStamp(),
	}
	for i, r := range rows {
		if i == maxListRooms {
			e.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("… and %d more", len(rows)-maxListRooms)}
			break
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("#%d %s", i+1, r.Name),
			Value: fmt.Sprintf("**Guild:** %s\n**Owner:** <@%s>\n**Users:** %d\n**Age:** %s\n**ID:** %s",
				r.Guild, r.Room.OwnerUserID, r.Users, fmtUptime(r.Room.Age(now)), r.Room.ChannelID),
		})
	}
	return e
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
