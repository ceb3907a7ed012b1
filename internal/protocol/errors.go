package protocol

// 错误码
const (
	ErrCodeUnknown    = 1000
	ErrCodeInvalidMsg = 1001
	ErrCodeRateLimit  = 1002 // 速率限制

	ErrCodeRoomNotFound    = 2001
	ErrCodeSessionNotFound = 2002 // 本轮会话不存在
	ErrCodeNotInRoom       = 2003
	ErrCodeGameStarted     = 2004 // 游戏已开始
	ErrCodeNicknameTaken   = 2005
	ErrCodeInvalidNickname = 2006
	ErrCodeNotEnoughWines  = 2007
	ErrCodeInvalidWine     = 2008
	ErrCodeRoomCodeFailed  = 2009 // 房间号生成失败

	ErrCodeNotMaster          = 3001
	ErrCodeAllRoundsCompleted = 3002
	ErrCodeInvalidSelection   = 3003

	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:            "Unknown error",
	ErrCodeInvalidMsg:         "Invalid message format",
	ErrCodeRateLimit:          "Too many requests",
	ErrCodeRoomNotFound:       "Room not found",
	ErrCodeSessionNotFound:    "Room or round state not found",
	ErrCodeNotInRoom:          "You are not in this room",
	ErrCodeGameStarted:        "Game already started",
	ErrCodeNicknameTaken:      "Nickname already taken",
	ErrCodeInvalidNickname:    "Nickname must be 1-10 characters",
	ErrCodeNotEnoughWines:     "At least 2 wines are required",
	ErrCodeInvalidWine:        "Invalid wine list",
	ErrCodeRoomCodeFailed:     "Failed to generate room code",
	ErrCodeNotMaster:          "Only the master can start rounds",
	ErrCodeAllRoundsCompleted: "All rounds completed",
	ErrCodeInvalidSelection:   "Wine is not part of this round",
	ErrCodeServerMaintenance:  "Server under maintenance",
}
