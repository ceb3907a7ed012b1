package session

import "sync"

// Store 回合会话存储，按房间号索引
type Store interface {
	Get(roomID string) (*Session, bool)
	Set(roomID string, s *Session)
	Delete(roomID string) (*Session, bool)
	Len() int
}

// MemoryStore 进程内会话存储
type MemoryStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewMemoryStore 创建内存会话存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Get(roomID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[roomID]
	return s, ok
}

func (m *MemoryStore) Set(roomID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[roomID] = s
}

// Delete 删除并返回会话，用于保证同一会话只被结算一次
func (m *MemoryStore) Delete(roomID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[roomID]
	if ok {
		delete(m.sessions, roomID)
	}
	return s, ok
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
