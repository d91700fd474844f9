package discord

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slashWith(opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{Name: cmdSetup, Options: opts},
		Member: &discordgo.Member{
			Nick: "Johnny",
			User: &discordgo.User{ID: "42", Username: "john", Avatar: "abc"},
		},
	}}
}

func TestOptionHelpers(t *testing.T) {
	ic := slashWith(
		&discordgo.ApplicationCommandInteractionDataOption{Name: "upi_id", Type: discordgo.ApplicationCommandOptionString, Value: "john@ybl"},
		&discordgo.ApplicationCommandInteractionDataOption{Name: "amount", Type: discordgo.ApplicationCommandOptionNumber, Value: 150.5},
		&discordgo.ApplicationCommandInteractionDataOption{Name: "days", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(14)},
		&discordgo.ApplicationCommandInteractionDataOption{Name: "confirm", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
	)

	s, ok := optStr(ic, "upi_id")
	assert.True(t, ok)
	assert.Equal(t, "john@ybl", s)

	amt, ok := optFloat(ic, "amount")
	require.True(t, ok)
	assert.InDelta(t, 150.5, *amt, 1e-9)

	d, ok := optInt(ic, "days")
	assert.True(t, ok)
	assert.Equal(t, 14, d)

	c, ok := optBool(ic, "confirm")
	assert.True(t, ok)
	assert.True(t, c)

	_, ok = optStr(ic, "note")
	assert.False(t, ok)
	amt, ok = optFloat(slashWith(), "amount")
	assert.False(t, ok)
	assert.Nil(t, amt)
}

func TestUserAndDisplayName(t *testing.T) {
	ic := slashWith()
	assert.Equal(t, "42", userOf(ic).ID)
	assert.Equal(t, "Johnny", displayNameOf(ic))

	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{User: &discordgo.User{ID: "7", Username: "solo", GlobalName: "Solo G"}}}
	assert.Equal(t, "7", userOf(dm).ID)
	assert.Equal(t, "Solo G", displayNameOf(dm))
}

func TestAvatarURLOf(t *testing.T) {
	assert.Empty(t, avatarURLOf(nil))
	assert.Empty(t, avatarURLOf(&discordgo.User{ID: "1"}))
	assert.Contains(t, avatarURLOf(&discordgo.User{ID: "1", Avatar: "abc"}), "cdn.discordapp.com/avatars/1/abc")
}

func TestFmtUptime(t *testing.T) {
	assert.Equal(t, "0m 0s", fmtUptime(-time.Second))
	assert.Equal(t, "2m 5s", fmtUptime(125*time.Second))
	assert.Equal(t, "1h 1m 1s", fmtUptime(time.Hour+time.Minute+time.Second))
	assert.Equal(t, "2d 3h 4m", fmtUptime(51*time.Hour+4*time.Minute+59*time.Second))
}

func TestEventTitle(t *testing.T) {
	assert.Equal(t, "Qr Generated", eventTitle("qr_generated"))
	assert.Equal(t, "Temp Channel Created", eventTitle("temp_channel_created"))
	assert.Equal(t, "Upi Saved", eventTitle("UPI_SAVED"))
}

func TestClampDaysAndSecondsCeil(t *testing.T) {
	assert.Equal(t, 7, clampDays(0))
	assert.Equal(t, 30, clampDays(30))
	assert.Equal(t, 90, clampDays(365))

	assert.Equal(t, 20, secondsCeil(20*time.Second))
	assert.Equal(t, 20, secondsCeil(19*time.Second+time.Millisecond))
}
