package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (r *Router) handleMessageComponent(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
	data := ic.MessageComponentData()
	user := userOf(ic)
	if user == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	switch data.CustomID {
	case btnDeleteConfirm:
		if !r.clicks.Allow(user.ID) {
			r.respondEphemeral(ic, "⏳ Please wait a second…")
			return
		}
		// el mensaje con el botón es efímero: sólo lo ve quien pidió /deleteupi
		existed, err := r.payments.Delete(ctx, user.ID)
		if err != nil {
			r.metrics.ErrorLogged()
			r.log.Error("delete profile (button)", zap.String("user", user.ID), zap.Error(err))
			r.updateComponentMessage(ic, &discordgo.MessageEmbed{
				Title:       "❌ Deletion Failed",
				Description: "Failed to delete data. Please try again later.",
				Color:       colorRed,
			})
			return
		}
		r.updateComponentMessage(ic, deletedEmbed(existed))

	case btnDeleteCancel:
		r.updateComponentMessage(ic, &discordgo.MessageEmbed{
			Title:       "❎ Deletion Cancelled",
			Description: "Your UPI data was not touched.",
			Color:       colorBlue,
		})
	}
}
