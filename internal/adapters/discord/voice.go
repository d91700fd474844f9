package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// EnsureLobbyPresence mantiene al bot conectado a los lobbies (job voice-monitor).
// Discord permite una conexión de voz por guild: si ya está lista en un lobby, alcanza.
func (r *Router) EnsureLobbyPresence(ctx context.Context) error {
	joined := 0
	for _, id := range r.rooms.Lobbies() {
		if err := ctx.Err(); err != nil {
			return err
		}
		ch, err := r.safeGetChannel(id)
		if err != nil || ch.Type != discordgo.ChannelTypeGuildVoice {
			r.log.Warn("lobby channel not found", zap.String("channel", id), zap.Error(err))
			continue
		}

		r.s.RLock()
		vc := r.s.VoiceConnections[ch.GuildID]
		r.s.RUnlock()

		if vc != nil {
			vc.RLock()
			ready, current := vc.Ready, vc.ChannelID
			vc.RUnlock()
			if ready && r.rooms.IsLobby(current) {
				continue
			}
			if !ready {
				r.log.Info("🔄 voice connection not ready, reconnecting", zap.String("channel", id))
				_ = vc.Disconnect()
			}
		}

		if _, err := r.s.ChannelVoiceJoin(ch.GuildID, id, true, true); err != nil {
			r.metrics.ErrorLogged()
			r.log.Error("join lobby", zap.String("channel", id), zap.String("name", ch.Name), zap.Error(err))
			continue
		}
		joined++
		r.log.Info("🔊 connected to lobby", zap.String("channel", id), zap.String("name", ch.Name))
	}
	if joined > 0 {
		r.log.Debug("voice monitor", zap.Int("joined", joined))
	}
	return nil
}
