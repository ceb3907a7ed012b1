package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// Position 二维坐标
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomID   string `json:"roomId"`
	Nickname string `json:"nickname"`
	IsMaster bool   `json:"isMaster,omitempty"`
}

// StartRoundPayload 开始回合请求
type StartRoundPayload struct {
	RoomID string `json:"roomId"`
}

// MoveCharacterPayload 移动请求
type MoveCharacterPayload struct {
	RoomID   string   `json:"roomId"`
	Position Position `json:"position"`
	Seq      uint64   `json:"seq,omitempty"` // 可选的单调序号，用于丢弃乱序的旧位置
}

// SelectWinePayload 选酒请求
type SelectWinePayload struct {
	RoomID string `json:"roomId"`
	WineID int    `json:"wineId"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID string `json:"playerId"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"clientTimestamp"`
	ServerTimestamp int64 `json:"serverTimestamp"`
}

// TimerUpdatePayload 倒计时更新
type TimerUpdatePayload struct {
	TimeLeft int `json:"timeLeft"`
}

// CharacterMovePayload 角色移动广播
type CharacterMovePayload struct {
	PlayerID string   `json:"playerId"`
	Position Position `json:"position"`
}

// SelectionUpdatePayload 选择更新广播
type SelectionUpdatePayload struct {
	PlayerID string `json:"playerId"`
	WineID   int    `json:"wineId"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
