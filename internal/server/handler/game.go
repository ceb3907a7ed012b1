package handler

import (
	"github.com/rs/zerolog/log"

	"github.com/palemoky/podorank/internal/game"
	"github.com/palemoky/podorank/internal/game/session"
	"github.com/palemoky/podorank/internal/protocol"
	"github.com/palemoky/podorank/internal/protocol/codec"
	"github.com/palemoky/podorank/internal/types"
)

// handleStartRound 房主开始回合：广播回合信息并启动倒计时
func (h *Handler) handleStartRound(client types.ClientInterface, msg *protocol.Message) {
	// 维护模式下不再开始新回合
	if h.server.IsMaintenanceMode() {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeServerMaintenance))
		return
	}

	payload, err := codec.ParsePayload[protocol.StartRoundPayload](msg)
	if err != nil || payload.RoomID == "" {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	roomID := payload.RoomID

	round, err := h.game.StartRound(roomID, client.GetID())
	if err != nil {
		sendError(client, err)
		return
	}

	h.server.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgRoundStart, round))

	h.game.StartCountdown(roomID, round.Duration,
		func(timeLeft int) {
			h.server.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgTimerUpdate, protocol.TimerUpdatePayload{
				TimeLeft: timeLeft,
			}))
		},
		func(result *game.RoundResult, err error) {
			if err != nil {
				log.Error().Err(err).Str("room", roomID).Msg("倒计时结束时无法结算回合")
				return
			}
			h.server.BroadcastToRoom(roomID, codec.MustNewMessage(protocol.MsgRoundEnd, result))
		},
	)
}

// handleMoveCharacter 转发角色位置，不回复发送者
func (h *Handler) handleMoveCharacter(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.MoveCharacterPayload](msg)
	if err != nil || payload.RoomID == "" || payload.RoomID != client.GetRoom() {
		return
	}

	pos := session.Position{X: payload.Position.X, Y: payload.Position.Y}
	if h.game.HasActiveRound(payload.RoomID) {
		applied, ok := h.game.UpdatePlayerPosition(payload.RoomID, client.GetID(), pos, payload.Seq)
		if !ok {
			return // 过期的位置
		}
		pos = applied
	}

	h.server.BroadcastToRoom(payload.RoomID, codec.MustNewMessage(protocol.MsgCharacterMove, protocol.CharacterMovePayload{
		PlayerID: client.GetID(),
		Position: protocol.Position{X: pos.X, Y: pos.Y},
	}), client.GetID())
}

// handleSelectWine 记录选择并广播给房间所有人
func (h *Handler) handleSelectWine(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.SelectWinePayload](msg)
	if err != nil || payload.RoomID == "" {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	if payload.RoomID != client.GetRoom() {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeNotInRoom))
		return
	}

	if err := h.game.SelectWine(payload.RoomID, client.GetID(), payload.WineID); err != nil {
		sendError(client, err)
		return
	}

	h.server.BroadcastToRoom(payload.RoomID, codec.MustNewMessage(protocol.MsgSelectionUpdate, protocol.SelectionUpdatePayload{
		PlayerID: client.GetID(),
		WineID:   payload.WineID,
	}))
}
