package types

import (
	"github.com/palemoky/podorank/internal/protocol"
)

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	IsMaintenanceMode() bool
	GetOnlineCount() int
	RoomBroadcaster
}

// RoomBroadcaster 按房间分组广播
type RoomBroadcaster interface {
	JoinGroup(roomID string, client ClientInterface)
	LeaveGroup(roomID, clientID string)
	// BroadcastToRoom 广播给房间内所有连接，exceptIDs 中的连接除外
	BroadcastToRoom(roomID string, msg *protocol.Message, exceptIDs ...string)
}

// ClientInterface 定义客户端接口
type ClientInterface interface {
	GetID() string
	GetRoom() string
	SetRoom(roomID string)
	SendMessage(msg *protocol.Message)
	Close()
}
