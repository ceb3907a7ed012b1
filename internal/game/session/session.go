package session

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/palemoky/podorank/internal/apperrors"
)

// Position 玩家在场景中的二维坐标
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds 世界边界，零值表示不限制
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// IsZero 是否未设置边界
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

// Clamp 将坐标限制在边界内
func (b Bounds) Clamp(p Position) Position {
	if b.IsZero() {
		return p
	}
	return Position{
		X: min(max(p.X, b.MinX), b.MaxX),
		Y: min(max(p.Y, b.MinY), b.MaxY),
	}
}

// Selection 一条选酒记录
type Selection struct {
	PlayerID string `json:"playerId"`
	WineID   int    `json:"wineId"`
}

// Session 单个房间当前回合的临时状态，回合开始时创建，回合结束时丢弃
type Session struct {
	RoomID    string
	RoundNum  int
	StartedAt time.Time

	wines  map[int]bool // 本回合可选的酒款 ID
	bounds Bounds

	positions  map[string]Position
	seqs       map[string]uint64
	selections map[string]int

	mu sync.RWMutex
}

// New 创建回合会话
func New(roomID string, roundNum int, wineIDs []int, bounds Bounds) *Session {
	wines := make(map[int]bool, len(wineIDs))
	for _, id := range wineIDs {
		wines[id] = true
	}
	return &Session{
		RoomID:     roomID,
		RoundNum:   roundNum,
		StartedAt:  time.Now(),
		wines:      wines,
		bounds:     bounds,
		positions:  make(map[string]Position),
		seqs:       make(map[string]uint64),
		selections: make(map[string]int),
	}
}

// RecordPosition 记录玩家最新位置（后写覆盖）
//
// seq 为 0 表示客户端未携带序号；携带序号时，不大于已记录序号的更新会被丢弃。
// 返回值表示该位置是否被采纳，以及采纳后的（可能被裁剪的）坐标。
func (s *Session) RecordPosition(playerID string, pos Position, seq uint64) (Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq > 0 {
		if last, ok := s.seqs[playerID]; ok && seq <= last {
			return s.positions[playerID], false
		}
		s.seqs[playerID] = seq
	}

	pos = s.bounds.Clamp(pos)
	s.positions[playerID] = pos
	return pos, true
}

// RecordSelection 记录玩家选择（后写覆盖），拒绝不在本回合中的酒款
func (s *Session) RecordSelection(playerID string, wineID int) error {
	if !s.OffersWine(wineID) {
		return apperrors.ErrInvalidSelection
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections[playerID] = wineID
	return nil
}

// Position 返回玩家最后位置
func (s *Session) Position(playerID string) (Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.positions[playerID]
	return pos, ok
}

// Positions 返回全部位置的副本
func (s *Session) Positions() map[string]Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Position, len(s.positions))
	for id, pos := range s.positions {
		out[id] = pos
	}
	return out
}

// SnapshotSelections 返回按 playerID 排序的选择快照，与到达顺序无关
func (s *Session) SnapshotSelections() []Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Selection, 0, len(s.selections))
	for id, wineID := range s.selections {
		out = append(out, Selection{PlayerID: id, WineID: wineID})
	}
	slices.SortFunc(out, func(a, b Selection) int {
		return strings.Compare(a.PlayerID, b.PlayerID)
	})
	return out
}

// OffersWine 本回合是否提供该酒款
func (s *Session) OffersWine(wineID int) bool {
	return s.wines[wineID]
}

// WineIDs 本回合提供的酒款 ID（升序）
func (s *Session) WineIDs() []int {
	ids := make([]int, 0, len(s.wines))
	for id := range s.wines {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
