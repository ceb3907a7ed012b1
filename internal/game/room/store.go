package room

import "sync"

// Store 房间存储，按房间号读写整个房间对象
type Store interface {
	Get(roomID string) (*Room, bool)
	Set(room *Room)
	Delete(roomID string)
	IDs() []string
}

// MemoryStore 进程内房间存储，存取时均复制，避免调用方共享可变状态
type MemoryStore struct {
	rooms map[string]*Room
	mu    sync.RWMutex
}

// NewMemoryStore 创建内存房间存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*Room)}
}

func (m *MemoryStore) Get(roomID string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

func (m *MemoryStore) Set(room *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.RoomID] = room.Clone()
}

func (m *MemoryStore) Delete(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
}

func (m *MemoryStore) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	return ids
}
