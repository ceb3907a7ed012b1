package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgPing MessageType = "ping" // 心跳 ping

	MsgJoinRoom      MessageType = "join-room"      // 加入房间
	MsgStartRound    MessageType = "start-round"    // 开始回合（仅房主）
	MsgMoveCharacter MessageType = "move-character" // 移动角色
	MsgSelectWine    MessageType = "select-wine"    // 选择葡萄酒
)

// 服务端 → 客户端 消息类型
const (
	MsgConnected MessageType = "connected" // 连接成功
	MsgPong      MessageType = "pong"      // 心跳 pong

	MsgPlayerJoined    MessageType = "player-joined"    // 其他玩家加入
	MsgRoomState       MessageType = "room-state"       // 房间完整状态
	MsgRoundStart      MessageType = "round-start"      // 回合开始
	MsgTimerUpdate     MessageType = "timer-update"     // 倒计时
	MsgRoundEnd        MessageType = "round-end"        // 回合结果
	MsgCharacterMove   MessageType = "character-move"   // 其他玩家移动
	MsgSelectionUpdate MessageType = "selection-update" // 选择更新

	MsgError MessageType = "error" // 错误消息
)
