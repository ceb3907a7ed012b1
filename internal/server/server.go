package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/podorank/internal/config"
	"github.com/palemoky/podorank/internal/game"
	"github.com/palemoky/podorank/internal/game/countdown"
	"github.com/palemoky/podorank/internal/game/room"
	"github.com/palemoky/podorank/internal/game/session"
	"github.com/palemoky/podorank/internal/server/handler"
	"github.com/palemoky/podorank/internal/server/storage"
	"github.com/palemoky/podorank/internal/types"
)

const (
	storageTimeout = 5 * time.Second
	statsInterval  = 30 * time.Second
)

// Server HTTP 与 WebSocket 服务器
type Server struct {
	config     *config.Config
	redis      *redis.Client
	redisStore *storage.RedisStore
	archive    *storage.PostgresArchive
	game       *game.Orchestrator
	handler    *handler.Handler
	httpServer *http.Server
	upgrader   websocket.Upgrader

	clients   map[string]*Client
	clientsMu sync.RWMutex

	groups   map[string]map[string]types.ClientInterface // roomID -> connID -> client
	groupsMu sync.RWMutex

	// 安全组件
	originChecker *OriginChecker
	connLimiter   *ConnRateLimiter

	// 连接控制
	maxConnections int
	semaphore      chan struct{}

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	done     chan struct{}
	doneOnce sync.Once
}

// NewServer 创建服务器实例，Redis 与 PostgreSQL 按配置启用
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{
		config:         cfg,
		clients:        make(map[string]*Client),
		groups:         make(map[string]map[string]types.ClientInterface),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		connLimiter:    NewConnRateLimiter(cfg.Security.ConnLimit.MaxPerSecond, cfg.Security.ConnLimit.Burst),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
		done:           make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}

	var roomOpts []room.Option
	if cfg.Redis.Enabled {
		if err := s.connectRedis(ctx); err != nil {
			return nil, err
		}
		roomOpts = append(roomOpts, room.WithPersister(s.redisStore))
	}
	rooms := room.NewRoomManager(nil, roomOpts...)

	if s.redisStore != nil {
		restoreCtx, cancel := context.WithTimeout(ctx, storageTimeout)
		if _, err := rooms.Restore(restoreCtx, s.redisStore); err != nil {
			log.Error().Err(err).Msg("恢复房间快照失败")
		}
		cancel()
	}

	gameOpts := []game.Option{
		game.WithScheduler(countdown.NewScheduler(cfg.Game.TickIntervalDuration())),
	}
	if cfg.Game.WorldWidth > 0 && cfg.Game.WorldHeight > 0 {
		gameOpts = append(gameOpts, game.WithBounds(session.Bounds{MaxX: cfg.Game.WorldWidth, MaxY: cfg.Game.WorldHeight}))
	}
	if cfg.Postgres.DSN != "" {
		if err := s.connectPostgres(ctx); err != nil {
			s.closeStorage()
			return nil, err
		}
		gameOpts = append(gameOpts, game.WithArchiver(s.archive))
	}
	s.game = game.NewOrchestrator(rooms, gameOpts...)

	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:       s,
		Orchestrator: s.game,
	})

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info().
		Int("max_connections", cfg.Server.MaxConnections).
		Int("conn_per_second", cfg.Security.ConnLimit.MaxPerSecond).
		Int("msg_per_second", cfg.Security.MessageLimit.MaxPerSecond).
		Strs("origins", cfg.Security.AllowedOrigins).
		Bool("redis", s.redisStore != nil).
		Bool("postgres", s.archive != nil).
		Msg("🔒 服务器配置")

	return s, nil
}

func (s *Server) connectRedis(ctx context.Context) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     s.config.Redis.Addr,
		Password: s.config.Redis.Password,
		DB:       s.config.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis 连接失败: %w", err)
	}

	s.redis = rdb
	s.redisStore = storage.NewRedisStore(rdb)
	return nil
}

func (s *Server) connectPostgres(ctx context.Context) error {
	initCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	archive, err := storage.NewPostgresArchive(initCtx, s.config.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("postgres 连接失败: %w", err)
	}
	if err := archive.Init(initCtx); err != nil {
		archive.Close()
		return fmt.Errorf("postgres 建表失败: %w", err)
	}
	s.archive = archive
	return nil
}

// Game 游戏编排器
func (s *Server) Game() *game.Orchestrator {
	return s.game
}

// Start 启动服务器，阻塞直到关闭
func (s *Server) Start() error {
	go s.monitorStats()

	log.Info().Str("addr", s.httpServer.Addr).Int("cpus", runtime.NumCPU()).Msgf("🚀 服务器启动在 ws://%s/ws", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown 停止接受请求，关闭所有连接、倒计时与存储
func (s *Server) Shutdown(ctx context.Context) error {
	s.doneOnce.Do(func() { close(s.done) })

	err := s.httpServer.Shutdown(ctx)

	s.clientsMu.RLock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clientsMu.RUnlock()

	s.game.Shutdown()
	s.closeStorage()

	log.Info().Msg("服务器已关闭")
	return err
}

func (s *Server) closeStorage() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.archive != nil {
		s.archive.Close()
	}
}

// acquireSlot 占用一个连接名额，满员返回 false
func (s *Server) acquireSlot() bool {
	select {
	case s.semaphore <- struct{}{}:
		return true
	default:
		return false
	}
}

// releaseSlot 释放连接名额，在连接读协程退出时调用
func (s *Server) releaseSlot() {
	select {
	case <-s.semaphore:
	default:
	}
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[client.ID]; ok {
		delete(s.clients, client.ID)
		log.Info().Str("conn", client.ID).Str("ip", client.IP).Msg("❌ 连接已断开")
	}
}
