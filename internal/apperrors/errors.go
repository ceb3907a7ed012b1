package apperrors

import (
	"errors"
	"net/http"

	"github.com/palemoky/podorank/internal/protocol"
)

// Kind 错误类别
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindAuthorization
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	default:
		return "unknown"
	}
}

// GameError 游戏错误（房间、回合与传输层共享）
type GameError struct {
	Kind    Kind
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

func newError(kind Kind, code int) *GameError {
	return &GameError{Kind: kind, Code: code, Message: protocol.ErrorMessages[code]}
}

// 预定义错误
var (
	ErrRoomNotFound       = newError(KindNotFound, protocol.ErrCodeRoomNotFound)
	ErrSessionNotFound    = newError(KindNotFound, protocol.ErrCodeSessionNotFound)
	ErrNotEnoughWines     = newError(KindValidation, protocol.ErrCodeNotEnoughWines)
	ErrInvalidWine        = newError(KindValidation, protocol.ErrCodeInvalidWine)
	ErrInvalidNickname    = newError(KindValidation, protocol.ErrCodeInvalidNickname)
	ErrInvalidSelection   = newError(KindValidation, protocol.ErrCodeInvalidSelection)
	ErrNicknameTaken      = newError(KindConflict, protocol.ErrCodeNicknameTaken)
	ErrGameAlreadyStarted = newError(KindConflict, protocol.ErrCodeGameStarted)
	ErrNotMaster          = newError(KindAuthorization, protocol.ErrCodeNotMaster)
	ErrAllRoundsCompleted = newError(KindState, protocol.ErrCodeAllRoundsCompleted)
	ErrRoomCodeExhausted  = newError(KindUnknown, protocol.ErrCodeRoomCodeFailed)
)

// KindOf 返回错误类别，非 GameError 返回 KindUnknown
func KindOf(err error) Kind {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr.Kind
	}
	return KindUnknown
}

// CodeOf 返回协议错误码
func CodeOf(err error) int {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr.Code
	}
	return protocol.ErrCodeUnknown
}

// HTTPStatus 将错误映射为 HTTP 状态码
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict, KindState:
		return http.StatusConflict
	case KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
