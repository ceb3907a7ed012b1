package room

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/podorank/internal/apperrors"
	"github.com/palemoky/podorank/internal/game/round"
	"github.com/palemoky/podorank/internal/server/storage"
)

const (
	maxCodeAttempts = 16              // 房间号冲突时的最大重试次数
	persistTimeout  = 3 * time.Second // 单次持久化超时
)

// Persister 房间快照持久化（如 Redis），失败只记录日志
type Persister interface {
	SaveRoom(ctx context.Context, roomID string, data *storage.RoomData) error
}

// Loader 启动时恢复房间快照
type Loader interface {
	GetAllRoomIDs(ctx context.Context) ([]string, error)
	LoadRoom(ctx context.Context, roomID string) (*storage.RoomData, error)
}

// Patch 浅合并到房间的字段，nil 表示不修改
type Patch struct {
	MasterID     *string
	Status       *Status
	Participants []Player
	CurrentRound *int
	FinishedAt   *time.Time
	History      []RoundRecord
}

func (p Patch) apply(r *Room) {
	if p.MasterID != nil {
		r.MasterID = *p.MasterID
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Participants != nil {
		r.Participants = p.Participants
	}
	if p.CurrentRound != nil {
		r.CurrentRound = *p.CurrentRound
	}
	if p.FinishedAt != nil {
		t := *p.FinishedAt
		r.FinishedAt = &t
	}
	if p.History != nil {
		r.History = p.History
	}
}

// Option 注册表选项
type Option func(*RoomManager)

// WithPersister 设置房间快照持久化
func WithPersister(p Persister) Option {
	return func(rm *RoomManager) { rm.persister = p }
}

// WithCodeGenerator 替换房间号生成函数
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(rm *RoomManager) { rm.generateCode = gen }
}

// WithClock 替换时间来源
func WithClock(now func() time.Time) Option {
	return func(rm *RoomManager) { rm.now = now }
}

// RoomManager 房间注册表：创建、读取与按房间串行化的整对象更新
type RoomManager struct {
	store        Store
	persister    Persister
	generateCode func() (string, error)
	now          func() time.Time

	locks    map[string]*sync.Mutex // 每个房间一把写锁
	locksMu  sync.Mutex
	createMu sync.Mutex

	savers   map[string]*roomSaver // 每个房间一个快照写入队列
	saversMu sync.Mutex
}

// roomSaver 同一房间的快照按顺序写入，积压时只保留最新一份
type roomSaver struct {
	mu      sync.Mutex
	pending *storage.RoomData
	running bool
}

// NewRoomManager 创建房间管理器，store 为 nil 时使用内存存储
func NewRoomManager(store Store, opts ...Option) *RoomManager {
	if store == nil {
		store = NewMemoryStore()
	}
	rm := &RoomManager{
		store:        store,
		generateCode: GenerateCode,
		now:          time.Now,
		locks:        make(map[string]*sync.Mutex),
		savers:       make(map[string]*roomSaver),
	}
	for _, opt := range opts {
		opt(rm)
	}
	return rm
}

// GenerateCode 生成 6 位大写字母数字房间号
func GenerateCode() (string, error) {
	code := make([]byte, roomCodeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomCodeChars))))
		if err != nil {
			return "", err
		}
		code[i] = roomCodeChars[num.Int64()]
	}
	return string(code), nil
}

// CreateRoom 创建房间，房间号冲突时重新生成
func (rm *RoomManager) CreateRoom(masterID string, wines []Wine) (*Room, error) {
	if len(wines) == 0 {
		return nil, apperrors.ErrNotEnoughWines
	}

	rm.createMu.Lock()
	defer rm.createMu.Unlock()

	code, err := rm.uniqueCode()
	if err != nil {
		return nil, err
	}

	room := &Room{
		RoomID:       code,
		MasterID:     masterID,
		Status:       StatusWaiting,
		Wines:        append([]Wine(nil), wines...),
		Participants: []Player{},
		CurrentRound: 0,
		CreatedAt:    rm.now(),
	}
	rm.store.Set(room)
	rm.persist(room)

	log.Info().Str("room", code).Str("master", masterID).Int("wines", len(wines)).Msg("🏠 房间已创建")

	return room.Clone(), nil
}

func (rm *RoomManager) uniqueCode() (string, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := rm.generateCode()
		if err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		if _, exists := rm.store.Get(code); !exists {
			return code, nil
		}
		log.Warn().Str("room", code).Int("attempt", attempt).Msg("房间号冲突，重新生成")
	}
	return "", apperrors.ErrRoomCodeExhausted
}

// GetRoom 获取房间副本
func (rm *RoomManager) GetRoom(roomID string) (*Room, error) {
	room, ok := rm.store.Get(roomID)
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	return room, nil
}

// UpdateRoom 将 patch 浅合并到房间并整体写回
func (rm *RoomManager) UpdateRoom(roomID string, patch Patch) (*Room, error) {
	return rm.Mutate(roomID, func(r *Room) error {
		patch.apply(r)
		return nil
	})
}

// Mutate 在房间写锁内执行 读取 → 复制 → 修改 → 写回；fn 返回错误时不写回
func (rm *RoomManager) Mutate(roomID string, fn func(r *Room) error) (*Room, error) {
	lock := rm.lockFor(roomID)
	lock.Lock()
	defer lock.Unlock()

	current, ok := rm.store.Get(roomID)
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if next.RoomID != roomID {
		return nil, errors.New("room id cannot be changed")
	}
	if next.CurrentRound < current.CurrentRound || next.CurrentRound > round.MaxRounds {
		return nil, fmt.Errorf("invalid round transition %d -> %d", current.CurrentRound, next.CurrentRound)
	}

	rm.store.Set(next)
	rm.persist(next)
	return next.Clone(), nil
}

// Restore 从持久化快照恢复房间，已存在的房间不覆盖
func (rm *RoomManager) Restore(ctx context.Context, loader Loader) (int, error) {
	ids, err := loader.GetAllRoomIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list rooms: %w", err)
	}

	restored := 0
	for _, id := range ids {
		if _, exists := rm.store.Get(id); exists {
			continue
		}
		data, err := loader.LoadRoom(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("room", id).Msg("恢复房间失败")
			continue
		}
		if data == nil {
			continue
		}
		rm.store.Set(FromRoomData(data))
		restored++
	}

	if restored > 0 {
		log.Info().Int("rooms", restored).Msg("♻️ 已从快照恢复房间")
	}
	return restored, nil
}

// Count 房间数量
func (rm *RoomManager) Count() int {
	return len(rm.store.IDs())
}

// CountByStatus 按状态统计房间数量
func (rm *RoomManager) CountByStatus(status Status) int {
	count := 0
	for _, id := range rm.store.IDs() {
		if r, ok := rm.store.Get(id); ok && r.Status == status {
			count++
		}
	}
	return count
}

func (rm *RoomManager) lockFor(roomID string) *sync.Mutex {
	rm.locksMu.Lock()
	defer rm.locksMu.Unlock()
	lock, ok := rm.locks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		rm.locks[roomID] = lock
	}
	return lock
}

// persist 异步保存快照，调用方需持有房间锁或房间尚未对外可见
func (rm *RoomManager) persist(r *Room) {
	if rm.persister == nil {
		return
	}
	saver := rm.saverFor(r.RoomID)

	saver.mu.Lock()
	defer saver.mu.Unlock()
	saver.pending = r.ToRoomData()
	if !saver.running {
		saver.running = true
		go rm.drain(r.RoomID, saver)
	}
}

// drain 依次写入待保存的快照，直到队列为空
func (rm *RoomManager) drain(roomID string, saver *roomSaver) {
	for {
		saver.mu.Lock()
		data := saver.pending
		saver.pending = nil
		if data == nil {
			saver.running = false
			saver.mu.Unlock()
			return
		}
		saver.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := rm.persister.SaveRoom(ctx, roomID, data); err != nil {
			log.Error().Err(err).Str("room", roomID).Msg("保存房间快照失败")
		}
		cancel()
	}
}

func (rm *RoomManager) saverFor(roomID string) *roomSaver {
	rm.saversMu.Lock()
	defer rm.saversMu.Unlock()
	saver, ok := rm.savers[roomID]
	if !ok {
		saver = &roomSaver{}
		rm.savers[roomID] = saver
	}
	return saver
}
