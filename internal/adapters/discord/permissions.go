package discord

import "github.com/bwmarrin/discordgo"

func (r *Router) isOwner(ic *discordgo.InteractionCreate) bool {
	u := userOf(ic)
	return u != nil && r.cfg.OwnerID != "" && u.ID == r.cfg.OwnerID
}

// requireOwner responde "Owner only" y devuelve false si no es el dueño del bot.
func (r *Router) requireOwner(ic *discordgo.InteractionCreate) bool {
	if r.isOwner(ic) {
		return true
	}
	r.replyEphemeral(ic, "⛔ Owner only.")
	return false
}

// voiceRoomAccess: dentro del chat de un canal de voz, sólo el dueño de la sala de pago
// puede usar /setup. Fuera de canales de voz no aplica.
func (r *Router) voiceRoomAccess(ic *discordgo.InteractionCreate, userID string) (*discordgo.MessageEmbed, bool) {
	ch, err := r.safeGetChannel(ic.ChannelID)
	if err != nil || ch == nil || ch.Type != discordgo.ChannelTypeGuildVoice {
		return nil, true
	}
	owner, tracked := r.rooms.Owned(ic.ChannelID)
	return roomAccessEmbed(tracked, owner, userID)
}

func roomAccessEmbed(tracked bool, owner, userID string) (*discordgo.MessageEmbed, bool) {
	if !tracked {
		return &discordgo.MessageEmbed{
			Title:       "❌ Invalid Channel",
			Description: "This command can only be used in temporary payment channels!",
			Color:       colorRed,
		}, false
	}
	if owner != userID {
		return &discordgo.MessageEmbed{
			Title:       "🔒 Access Denied",
			Description: "Only the channel owner can use commands here!",
			Color:       colorRed,
		}, false
	}
	return nil, true
}

func (r *Router) safeGetChannel(id string) (*discordgo.Channel, error) {
	if ch, err := r.s.State.Channel(id); err == nil && ch != nil {
		return ch, nil
	}
	ch, err := r.s.Channel(id)
	if err != nil {
		return nil, err
	}
	_ = r.s.State.ChannelAdd(ch)
	return ch, nil
}
