package handler

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/podorank/internal/apperrors"
	"github.com/palemoky/podorank/internal/game"
	"github.com/palemoky/podorank/internal/protocol"
	"github.com/palemoky/podorank/internal/protocol/codec"
	"github.com/palemoky/podorank/internal/types"
)

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server       types.ServerInterface
	Orchestrator *game.Orchestrator
}

// Handler 消息处理器
type Handler struct {
	server   types.ServerInterface
	game     *game.Orchestrator
	handlers map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server: deps.Server,
		game:   deps.Orchestrator,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgJoinRoom: h.handleJoinRoom,

		// 游戏操作
		protocol.MsgStartRound:    h.handleStartRound,
		protocol.MsgMoveCharacter: h.handleMoveCharacter,
		protocol.MsgSelectWine:    h.handleSelectWine,
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	log.Warn().Str("conn", client.GetID()).Str("type", string(msg.Type)).Int("payload", len(msg.Payload)).Msg("⚠️ 未知消息类型")
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// sendError 将错误只回复给发起请求的连接
func sendError(client types.ClientInterface, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(codec.NewErrorMessage(gameErr.Code))
		return
	}
	log.Error().Err(err).Str("conn", client.GetID()).Msg("处理消息失败")
	client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
}
