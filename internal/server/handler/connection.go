package handler

import (
	"time"

	"github.com/palemoky/podorank/internal/protocol"
	"github.com/palemoky/podorank/internal/protocol/codec"
	"github.com/palemoky/podorank/internal/types"
)

// handlePing 处理心跳消息
func (h *Handler) handlePing(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	// 立即回复 pong
	client.SendMessage(codec.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

// HandleDisconnect 连接断开：退出广播分组，玩家仍保留在房间中
func (h *Handler) HandleDisconnect(client types.ClientInterface) {
	if roomID := client.GetRoom(); roomID != "" {
		h.server.LeaveGroup(roomID, client.GetID())
	}

	h.game.HandleDisconnect(client.GetID())
}
