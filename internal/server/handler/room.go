package handler

import (
	"github.com/palemoky/podorank/internal/protocol"
	"github.com/palemoky/podorank/internal/protocol/codec"
	"github.com/palemoky/podorank/internal/types"
)

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeServerMaintenance))
		return
	}

	payload, err := codec.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil || payload.RoomID == "" {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	player, err := h.game.JoinRoom(payload.RoomID, client.GetID(), payload.Nickname, payload.IsMaster)
	if err != nil {
		sendError(client, err)
		return
	}

	// 切换房间时先退出旧分组
	if prev := client.GetRoom(); prev != "" && prev != payload.RoomID {
		h.server.LeaveGroup(prev, client.GetID())
	}
	client.SetRoom(payload.RoomID)

	// 通知房间内其他玩家
	h.server.BroadcastToRoom(payload.RoomID, codec.MustNewMessage(protocol.MsgPlayerJoined, player))
	h.server.JoinGroup(payload.RoomID, client)

	// 回复完整房间状态
	room, err := h.game.GetRoom(payload.RoomID)
	if err != nil {
		sendError(client, err)
		return
	}
	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomState, room))

}
