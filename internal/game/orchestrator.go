package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/podorank/internal/apperrors"
	"github.com/palemoky/podorank/internal/game/countdown"
	"github.com/palemoky/podorank/internal/game/room"
	"github.com/palemoky/podorank/internal/game/round"
	"github.com/palemoky/podorank/internal/game/session"
	"github.com/palemoky/podorank/internal/server/storage"
)

const (
	minWines          = 2
	maxNicknameLength = 10
	unknownWineName   = "Unknown"
	archiveTimeout    = 5 * time.Second
)

// PlayerColors 玩家颜色，按加入顺序分配，每 20 人循环一次
var PlayerColors = [...]string{
	"#FF5733", "#33FF57", "#3357FF", "#FF33F5", "#F5FF33",
	"#33FFF5", "#FF8C33", "#8C33FF", "#33FF8C", "#FF3333",
	"#33FFFF", "#FFFF33", "#FF33FF", "#33FF33", "#3333FF",
	"#FF6B6B", "#6B6BFF", "#6BFF6B", "#FFB86B", "#6BFFB8",
}

// GameRound 回合开始时下发给客户端的快照
type GameRound struct {
	RoomID    string      `json:"roomId"`
	RoundNum  int         `json:"roundNum"`
	WineIDs   []int       `json:"wineIds"`
	Wines     []room.Wine `json:"wines"`
	Duration  int         `json:"duration"`
	StartTime time.Time   `json:"startTime"`
}

// WineChoice 回合结果中单个玩家的选择
type WineChoice struct {
	WineID   int    `json:"wineId"`
	WineName string `json:"wineName"`
}

// RoundResult 回合结果，selections 以昵称为键
type RoundResult struct {
	RoomID     string                `json:"roomId"`
	RoundNum   int                   `json:"roundNum"`
	Selections map[string]WineChoice `json:"selections"`
	IsGameOver bool                  `json:"isGameOver"`
}

// RoundArchiver 回合结束后的归档（如 PostgreSQL），失败只记录日志
type RoundArchiver interface {
	ArchiveRound(ctx context.Context, room *storage.RoomData, round *storage.ArchivedRound) error
}

// DisconnectHook 连接断开时回调，房间参与者列表保持不变
type DisconnectHook func(roomID, connID string)

// Option 编排器选项
type Option func(*Orchestrator)

// WithSessionStore 替换回合会话存储
func WithSessionStore(store session.Store) Option {
	return func(o *Orchestrator) { o.sessions = store }
}

// WithScheduler 替换倒计时调度器
func WithScheduler(s *countdown.Scheduler) Option {
	return func(o *Orchestrator) { o.scheduler = s }
}

// WithArchiver 设置回合归档
func WithArchiver(a RoundArchiver) Option {
	return func(o *Orchestrator) { o.archiver = a }
}

// WithDisconnectHook 设置断线回调
func WithDisconnectHook(h DisconnectHook) Option {
	return func(o *Orchestrator) { o.onDisconnect = h }
}

// WithBounds 设置角色移动边界
func WithBounds(b session.Bounds) Option {
	return func(o *Orchestrator) { o.bounds = b }
}

// WithClock 替换时间来源
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator 游戏编排：加入、开局、移动、选酒、结束回合、断线
type Orchestrator struct {
	rooms     *room.RoomManager
	sessions  session.Store
	scheduler *countdown.Scheduler
	archiver  RoundArchiver

	onDisconnect DisconnectHook
	bounds       session.Bounds
	now          func() time.Time

	connRooms map[string]string // connID -> roomID
	connMu    sync.RWMutex
}

// NewOrchestrator 创建编排器
func NewOrchestrator(rooms *room.RoomManager, opts ...Option) *Orchestrator {
	if rooms == nil {
		rooms = room.NewRoomManager(nil)
	}
	o := &Orchestrator{
		rooms:     rooms,
		sessions:  session.NewMemoryStore(),
		scheduler: countdown.NewScheduler(countdown.DefaultInterval),
		now:       time.Now,
		connRooms: make(map[string]string),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Rooms 房间注册表
func (o *Orchestrator) Rooms() *room.RoomManager {
	return o.rooms
}

// CreateRoom 创建房间，至少 2 款酒，酒款 ID 不可重复且名称不能为空
func (o *Orchestrator) CreateRoom(masterID string, wines []room.Wine) (*room.Room, error) {
	if len(wines) < minWines {
		return nil, apperrors.ErrNotEnoughWines
	}
	seen := make(map[int]bool, len(wines))
	for _, w := range wines {
		if strings.TrimSpace(w.Name) == "" || seen[w.ID] {
			return nil, apperrors.ErrInvalidWine
		}
		seen[w.ID] = true
	}
	return o.rooms.CreateRoom(masterID, wines)
}

// GetRoom 获取房间快照
func (o *Orchestrator) GetRoom(roomID string) (*room.Room, error) {
	return o.rooms.GetRoom(roomID)
}

// GetRoomStats 获取房间统计
func (o *Orchestrator) GetRoomStats(roomID string) (*room.RoomStats, error) {
	return o.rooms.GetRoomStats(roomID)
}

// ValidateNickname 去除首尾空白后长度 1-10 且均为可显示字符
func ValidateNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	n := utf8.RuneCountInString(nickname)
	if n == 0 || n > maxNicknameLength {
		return "", apperrors.ErrInvalidNickname
	}
	for _, r := range nickname {
		if !unicode.IsPrint(r) {
			return "", apperrors.ErrInvalidNickname
		}
	}
	return nickname, nil
}

// JoinRoom 玩家加入房间，asMaster 时将房主转移到该连接
func (o *Orchestrator) JoinRoom(roomID, connID, nickname string, asMaster bool) (*room.Player, error) {
	nickname, err := ValidateNickname(nickname)
	if err != nil {
		return nil, err
	}

	var player room.Player
	_, err = o.rooms.Mutate(roomID, func(r *room.Room) error {
		if r.Status != room.StatusWaiting {
			return apperrors.ErrGameAlreadyStarted
		}
		if r.HasNickname(nickname) {
			return apperrors.ErrNicknameTaken
		}
		player = room.Player{
			PlayerID: connID,
			Nickname: nickname,
			Color:    PlayerColors[len(r.Participants)%len(PlayerColors)],
		}
		r.Participants = append(r.Participants, player)
		if asMaster {
			r.MasterID = connID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.connMu.Lock()
	o.connRooms[connID] = roomID
	o.connMu.Unlock()

	log.Info().Str("room", roomID).Str("conn", connID).Str("nickname", nickname).Bool("master", asMaster).Msg("👤 玩家加入房间")
	return &player, nil
}

// StartRound 房主开始下一回合：取消残留倒计时，选酒，创建新会话
func (o *Orchestrator) StartRound(roomID, connID string) (*GameRound, error) {
	var gr *GameRound
	_, err := o.rooms.Mutate(roomID, func(r *room.Room) error {
		if r.MasterID != connID {
			return apperrors.ErrNotMaster
		}
		next := r.CurrentRound + 1
		if next > round.MaxRounds {
			return apperrors.ErrAllRoundsCompleted
		}

		indices := round.SelectWines(len(r.Wines), next)
		gr = &GameRound{
			RoomID:    roomID,
			RoundNum:  next,
			WineIDs:   make([]int, 0, len(indices)),
			Wines:     make([]room.Wine, 0, len(indices)),
			Duration:  round.Duration(next),
			StartTime: o.now(),
		}
		for _, i := range indices {
			gr.WineIDs = append(gr.WineIDs, r.Wines[i].ID)
			gr.Wines = append(gr.Wines, r.Wines[i])
		}

		o.scheduler.Cancel(roomID)
		sess := session.New(roomID, next, gr.WineIDs, o.bounds)
		sess.StartedAt = gr.StartTime
		o.sessions.Set(roomID, sess)

		r.Status = room.StatusInProgress
		r.CurrentRound = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("room", roomID).Int("round", gr.RoundNum).Ints("wines", gr.WineIDs).Int("duration", gr.Duration).Msg("🍷 回合开始")
	return gr, nil
}

// StartCountdown 启动回合倒计时，到期时结束该回合并回调 onEnd。
// 倒计时期间若已开始新回合，过期的回调不会触发；没有进行中的回合时不启动。
func (o *Orchestrator) StartCountdown(roomID string, seconds int, onTick func(timeLeft int), onEnd func(*RoundResult, error)) {
	sess, ok := o.sessions.Get(roomID)
	if !ok {
		log.Debug().Str("room", roomID).Msg("回合已结束，不再启动倒计时")
		return
	}
	roundNum := sess.RoundNum

	o.scheduler.Start(roomID, seconds, onTick, func() {
		result, err := o.endRound(roomID, roundNum)
		if errors.Is(err, errStaleRound) {
			log.Debug().Str("room", roomID).Int("round", roundNum).Msg("忽略过期的倒计时")
			return
		}
		if onEnd != nil {
			onEnd(result, err)
		}
	})
}

// CancelCountdown 取消房间倒计时
func (o *Orchestrator) CancelCountdown(roomID string) {
	o.scheduler.Cancel(roomID)
}

// UpdatePlayerPosition 记录玩家位置，无进行中的回合时忽略
func (o *Orchestrator) UpdatePlayerPosition(roomID, connID string, pos session.Position, seq uint64) (session.Position, bool) {
	sess, ok := o.sessions.Get(roomID)
	if !ok {
		return pos, false
	}
	return sess.RecordPosition(connID, pos, seq)
}

// SelectWine 记录玩家选择，无进行中的回合时忽略
func (o *Orchestrator) SelectWine(roomID, connID string, wineID int) error {
	sess, ok := o.sessions.Get(roomID)
	if !ok {
		return nil
	}
	return sess.RecordSelection(connID, wineID)
}

// EndRound 手动结束当前回合并取消其倒计时，第 6 回合结束后房间进入 finished
func (o *Orchestrator) EndRound(roomID string) (*RoundResult, error) {
	return o.endRound(roomID, 0)
}

var errStaleRound = errors.New("stale round")

// endRound expectRound 为 0 时不校验回合号
func (o *Orchestrator) endRound(roomID string, expectRound int) (*RoundResult, error) {
	var (
		result  *RoundResult
		archive *storage.ArchivedRound
	)

	updated, err := o.rooms.Mutate(roomID, func(r *room.Room) error {
		sess, ok := o.sessions.Get(roomID)
		if !ok {
			return apperrors.ErrSessionNotFound
		}
		if expectRound > 0 && sess.RoundNum != expectRound {
			return errStaleRound
		}
		if expectRound == 0 {
			o.CancelCountdown(roomID)
		}
		o.sessions.Delete(roomID)

		endedAt := o.now()
		result = &RoundResult{
			RoomID:     roomID,
			RoundNum:   r.CurrentRound,
			Selections: make(map[string]WineChoice),
			IsGameOver: r.CurrentRound >= round.MaxRounds,
		}
		record := room.RoundRecord{RoundNum: r.CurrentRound, EndedAt: endedAt}

		for _, sel := range sess.SnapshotSelections() {
			player, ok := r.FindPlayer(sel.PlayerID)
			if !ok {
				continue
			}
			name := unknownWineName
			if w, ok := r.FindWine(sel.WineID); ok {
				name = w.Name
			}
			result.Selections[player.Nickname] = WineChoice{WineID: sel.WineID, WineName: name}
			record.Selections = append(record.Selections, room.Choice{
				PlayerID: player.PlayerID,
				Nickname: player.Nickname,
				WineID:   sel.WineID,
				WineName: name,
			})
		}
		r.History = append(r.History, record)

		if result.IsGameOver {
			r.Status = room.StatusFinished
			r.FinishedAt = &endedAt
		}

		archive = &storage.ArchivedRound{
			RoomID:    roomID,
			RoundNum:  r.CurrentRound,
			WineIDs:   sess.WineIDs(),
			StartTime: sess.StartedAt,
			EndTime:   endedAt,
		}
		for _, c := range record.Selections {
			archive.Selections = append(archive.Selections, storage.ChoiceData{
				PlayerID: c.PlayerID,
				Nickname: c.Nickname,
				WineID:   c.WineID,
				WineName: c.WineName,
			})
		}
		return nil
	})
	if errors.Is(err, apperrors.ErrRoomNotFound) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("room", roomID).Int("round", result.RoundNum).Int("selections", len(result.Selections)).Bool("gameOver", result.IsGameOver).Msg("🏁 回合结束")
	o.archive(updated, archive)
	return result, nil
}

func (o *Orchestrator) archive(r *room.Room, rec *storage.ArchivedRound) {
	if o.archiver == nil {
		return
	}
	data := r.ToRoomData()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := o.archiver.ArchiveRound(ctx, data, rec); err != nil {
			log.Error().Err(err).Str("room", rec.RoomID).Int("round", rec.RoundNum).Msg("归档回合失败")
		}
	}()
}

// HandleDisconnect 移除连接与房间的映射，玩家仍保留在参与者列表中
func (o *Orchestrator) HandleDisconnect(connID string) (string, bool) {
	o.connMu.Lock()
	roomID, ok := o.connRooms[connID]
	if ok {
		delete(o.connRooms, connID)
	}
	o.connMu.Unlock()

	if !ok {
		return "", false
	}

	log.Info().Str("room", roomID).Str("conn", connID).Msg("👋 玩家断开连接")
	if o.onDisconnect != nil {
		o.onDisconnect(roomID, connID)
	}
	return roomID, true
}

// RoomForConnection 连接所在房间
func (o *Orchestrator) RoomForConnection(connID string) (string, bool) {
	o.connMu.RLock()
	defer o.connMu.RUnlock()
	roomID, ok := o.connRooms[connID]
	return roomID, ok
}

// HasActiveRound 房间是否有进行中的回合
func (o *Orchestrator) HasActiveRound(roomID string) bool {
	_, ok := o.sessions.Get(roomID)
	return ok
}

// ActiveRounds 进行中的回合数
func (o *Orchestrator) ActiveRounds() int {
	return o.sessions.Len()
}

// Shutdown 停止所有倒计时
func (o *Orchestrator) Shutdown() {
	o.scheduler.Stop()
}
