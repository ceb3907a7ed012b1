//go:build !production

package testutil

import (
	"slices"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/podorank/internal/protocol"
	"github.com/palemoky/podorank/internal/types"
)

// MockServer 实现 types.ServerInterface 的 mock
type MockServer struct {
	mock.Mock
}

func (m *MockServer) IsMaintenanceMode() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockServer) GetOnlineCount() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockServer) JoinGroup(roomID string, client types.ClientInterface) {
	m.Called(roomID, client)
}

func (m *MockServer) LeaveGroup(roomID, clientID string) {
	m.Called(roomID, clientID)
}

func (m *MockServer) BroadcastToRoom(roomID string, msg *protocol.Message, exceptIDs ...string) {
	m.Called(roomID, msg, exceptIDs)
}

// FakeServer 内存版房间分组，直接投递到成员的 SendMessage
type FakeServer struct {
	Maintenance bool

	groups map[string][]types.ClientInterface
	mu     sync.Mutex
}

// NewFakeServer 创建 FakeServer
func NewFakeServer() *FakeServer {
	return &FakeServer{groups: make(map[string][]types.ClientInterface)}
}

func (f *FakeServer) IsMaintenanceMode() bool { return f.Maintenance }

func (f *FakeServer) GetOnlineCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, members := range f.groups {
		n += len(members)
	}
	return n
}

func (f *FakeServer) JoinGroup(roomID string, client types.ClientInterface) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[roomID] = append(f.groups[roomID], client)
}

func (f *FakeServer) LeaveGroup(roomID, clientID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[roomID] = slices.DeleteFunc(f.groups[roomID], func(c types.ClientInterface) bool {
		return c.GetID() == clientID
	})
}

func (f *FakeServer) BroadcastToRoom(roomID string, msg *protocol.Message, exceptIDs ...string) {
	f.mu.Lock()
	members := slices.Clone(f.groups[roomID])
	f.mu.Unlock()

	for _, c := range members {
		if slices.Contains(exceptIDs, c.GetID()) {
			continue
		}
		c.SendMessage(msg)
	}
}

// Members 房间分组中的连接 ID
func (f *FakeServer) Members(roomID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.groups[roomID]))
	for _, c := range f.groups[roomID] {
		ids = append(ids, c.GetID())
	}
	return ids
}
