package discord

import (
	"bytes"
	"errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Defer efímero (para trabajos >3s)
func (r *Router) deferEphemeral(ic *discordgo.InteractionCreate) error {
	err := r.s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		r.log.Warn("defer ephemeral", zap.Error(err))
	}
	return err
}

func (r *Router) replyEphemeral(ic *discordgo.InteractionCreate, content string, embeds ...*discordgo.MessageEmbed) {
	r.followup(ic, &discordgo.WebhookParams{Content: content, Embeds: embeds, Flags: discordgo.MessageFlagsEphemeral})
}

func (r *Router) replyEmbed(ic *discordgo.InteractionCreate, e *discordgo.MessageEmbed, components ...discordgo.MessageComponent) {
	r.followup(ic, &discordgo.WebhookParams{
		Embeds:     []*discordgo.MessageEmbed{e},
		Components: components,
		Flags:      discordgo.MessageFlagsEphemeral,
	})
}

// replyPNG manda el QR como adjunto, referenciado desde el embed.
func (r *Router) replyPNG(ic *discordgo.InteractionCreate, e *discordgo.MessageEmbed, name string, png []byte) {
	e.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + name}
	r.followup(ic, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{e},
		Files:  []*discordgo.File{{Name: name, ContentType: "image/png", Reader: bytes.NewReader(png)}},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

func (r *Router) followup(ic *discordgo.InteractionCreate, params *discordgo.WebhookParams) {
	_, err := r.s.FollowupMessageCreate(ic.Interaction, true, params)
	if err == nil {
		return
	}
	// Fallback sólo si todavía no hay respuesta (webhook desconocido)
	var reqErr *discordgo.RESTError
	if errors.As(err, &reqErr) && reqErr.Message != nil && reqErr.Message.Code == discordgo.ErrCodeUnknownWebhook {
		_ = r.s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content:    params.Content,
				Embeds:     params.Embeds,
				Components: params.Components,
				Files:      params.Files,
				Flags:      discordgo.MessageFlagsEphemeral,
			},
		})
		return
	}
	r.log.Warn("followup", zap.Error(err))
}

// updateComponentMessage reemplaza el mensaje del botón (confirmación de /deleteupi).
func (r *Router) updateComponentMessage(ic *discordgo.InteractionCreate, e *discordgo.MessageEmbed) {
	err := r.s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{e},
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		r.log.Warn("update component message", zap.Error(err))
	}
}

// respondEphemeral responde directo, sin defer previo.
func (r *Router) respondEphemeral(ic *discordgo.InteractionCreate, content string) {
	err := r.s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		r.log.Warn("respond ephemeral", zap.Error(err))
	}
}
