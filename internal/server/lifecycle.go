package server

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/podorank/internal/game/room"
)

const shutdownCheckInterval = 500 * time.Millisecond

// monitorStats 定期记录服务器状态，并清理建连限速记录
func (s *Server) monitorStats() {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.logStats()
			s.connLimiter.Prune(limiterIdleTTL)
		}
	}
}

func (s *Server) logStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	rooms := s.game.Rooms()
	log.Info().
		Int("online", s.GetOnlineCount()).
		Int("goroutines", runtime.NumGoroutine()).
		Int("active_conns", len(s.semaphore)).
		Int("max_conns", s.maxConnections).
		Int("rooms", rooms.Count()).
		Int("rooms_in_progress", rooms.CountByStatus(room.StatusInProgress)).
		Int("active_rounds", s.game.ActiveRounds()).
		Float64("mem_mb", float64(m.Alloc)/1024/1024).
		Msg("📊 [监控]")
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接、新房间与新加入
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	s.BroadcastMaintenance("👷🏻‍♂️ 维护模式：停止新的房间创建")
	log.Info().Msg("🔧 进入维护模式：停止新连接和房间创建")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 进入维护模式，等待进行中的回合结束后关闭
func (s *Server) GracefulShutdown(timeout time.Duration) error {
	s.EnterMaintenanceMode()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(shutdownCheckInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		active := s.game.ActiveRounds()
		if active == 0 {
			log.Info().Msg("✅ 所有回合已结束")
			break
		}
		log.Info().Int("rounds", active).Msg("⏳ 等待回合结束...")
		<-ticker.C
	}

	if active := s.game.ActiveRounds(); active > 0 {
		log.Warn().Int("rounds", active).Msg("⚠️ 超时，仍有回合进行中，强制关闭")
		s.BroadcastMaintenance(fmt.Sprintf("🚧 服务器停机维护，%d 个回合被中断", active))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Shutdown(ctx)
}
