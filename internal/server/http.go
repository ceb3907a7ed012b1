package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/podorank/internal/apperrors"
	"github.com/palemoky/podorank/internal/game/room"
	"github.com/palemoky/podorank/internal/protocol"
	"github.com/palemoky/podorank/internal/protocol/codec"
)

// CreateRoomRequest 创建房间请求
type CreateRoomRequest struct {
	MasterID string      `json:"masterId"`
	Wines    []room.Wine `json:"wines"`
}

// Router 构建 HTTP 路由
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	corsCfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
		MaxAge: 12 * time.Hour,
	}
	if origins := s.originChecker.Origins(); len(origins) == 1 && origins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", s.handleHealth)
	r.GET("/ws", s.handleWebSocket)

	api := r.Group("/api")
	api.POST("/rooms", s.handleCreateRoom)
	api.GET("/rooms/:roomId", s.handleGetRoom)
	api.GET("/rooms/:roomId/stats", s.handleGetRoomStats)

	return r
}

// requestLogger 以 zerolog 记录每个请求
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("HTTP 请求")
	}
}

// writeError 按错误类别返回 HTTP 状态码
func writeError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("请求处理失败")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": apperrors.CodeOf(err)})
}

// handleHealth 健康检查
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleCreateRoom 创建房间
func (s *Server) handleCreateRoom(c *gin.Context) {
	if s.IsMaintenanceMode() {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error": protocol.ErrorMessages[protocol.ErrCodeServerMaintenance],
			"code":  protocol.ErrCodeServerMaintenance,
		})
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": protocol.ErrorMessages[protocol.ErrCodeInvalidMsg],
			"code":  protocol.ErrCodeInvalidMsg,
		})
		return
	}

	r, err := s.game.CreateRoom(req.MasterID, req.Wines)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// handleGetRoom 获取房间
func (s *Server) handleGetRoom(c *gin.Context) {
	r, err := s.game.GetRoom(c.Param("roomId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// handleGetRoomStats 获取房间统计
func (s *Server) handleGetRoomStats(c *gin.Context) {
	stats, err := s.game.GetRoomStats(c.Param("roomId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// handleWebSocket 升级为 WebSocket 连接
func (s *Server) handleWebSocket(c *gin.Context) {
	clientIP := GetClientIP(c.Request)

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		log.Info().Str("ip", clientIP).Msg("🔧 维护模式，拒绝新连接")
		c.String(http.StatusServiceUnavailable, "Server is under maintenance, please try again later")
		return
	}

	if !s.originChecker.Check(c.Request) {
		log.Warn().Str("origin", c.Request.Header.Get("Origin")).Str("ip", clientIP).Msg("🚫 来源验证失败")
		c.String(http.StatusForbidden, "Origin not allowed")
		return
	}

	if !s.connLimiter.Allow(clientIP) {
		c.String(http.StatusTooManyRequests, "Too Many Requests")
		return
	}

	// 名额在读协程退出时释放
	if !s.acquireSlot() {
		log.Warn().Int("max", s.maxConnections).Str("ip", clientIP).Msg("🚫 达到最大连接数限制")
		c.String(http.StatusServiceUnavailable, "Server Full")
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.releaseSlot()
		log.Warn().Err(err).Str("ip", clientIP).Msg("WebSocket 升级失败")
		return
	}

	client := NewClient(s, conn, clientIP)
	s.registerClient(client)
	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID: client.ID,
	}))

	log.Info().Str("conn", client.ID).Str("ip", clientIP).Msg("✅ 连接已建立")

	go client.WritePump()
	go client.ReadPump()
}
