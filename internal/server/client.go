package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/podorank/internal/protocol"
	"github.com/palemoky/podorank/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	sendBufferSize = 256
)

// Client 一个 WebSocket 连接
type Client struct {
	ID     string // 连接 ID，同时作为玩家 ID
	RoomID string // 当前所在房间 ID
	IP     string

	server  *Server
	conn    *websocket.Conn
	send    chan []byte
	limiter *MessageLimiter

	mu     sync.RWMutex
	closed bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn, ip string) *Client {
	limit := s.config.Security.MessageLimit
	return &Client{
		ID:      uuid.New().String(),
		IP:      ip,
		server:  s,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		limiter: NewMessageLimiter(limit.MaxPerSecond, limit.Burst, limit.MaxWarnings),
	}
}

// ReadPump 从 WebSocket 读取消息，退出时清理连接
func (c *Client) ReadPump() {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("conn", c.ID).Msg("[PANIC] readPump panic recovered")
		}
		c.server.handler.HandleDisconnect(c)
		c.server.unregisterClient(c)
		c.server.releaseSlot()
		// 关闭发送通道后 WritePump 发完剩余消息再关闭连接
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn", c.ID).Msg("读取错误")
			}
			return
		}

		allowed, disconnect := c.limiter.Allow()
		if disconnect {
			log.Warn().Str("conn", c.ID).Str("ip", c.IP).Int("warnings", c.limiter.Warnings()).Msg("🚫 客户端因多次超速被断开连接")
			return
		}
		if !allowed {
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeRateLimit))
			continue
		}

		msg, err := codec.Decode(message)
		if err != nil {
			log.Debug().Err(err).Str("conn", c.ID).Msg("消息解析错误")
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}

		c.server.handler.Handle(c, msg)
	}
}

// WritePump 向 WebSocket 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// GetID 获取连接 ID
func (c *Client) GetID() string {
	return c.ID
}

// SendMessage 发送消息给客户端，缓冲区满时关闭连接
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := codec.Encode(msg)
	if err != nil {
		log.Error().Err(err).Str("type", string(msg.Type)).Msg("消息编码错误")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		log.Warn().Str("conn", c.ID).Msg("发送缓冲区已满")
		c.closed = true
		close(c.send)
	}
}

// Close 关闭发送通道，WritePump 随后发送关闭帧
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// SetRoom 设置客户端所在房间
func (c *Client) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.RoomID = roomID
}

// GetRoom 获取客户端所在房间
func (c *Client) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.RoomID
}
