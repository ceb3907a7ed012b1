package server

import (
	"slices"

	"github.com/palemoky/podorank/internal/protocol"
	"github.com/palemoky/podorank/internal/protocol/codec"
	"github.com/palemoky/podorank/internal/types"
)

// GetOnlineCount 获取在线连接数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// JoinGroup 将连接加入房间广播分组
func (s *Server) JoinGroup(roomID string, client types.ClientInterface) {
	s.groupsMu.Lock()
	defer s.groupsMu.Unlock()

	group, ok := s.groups[roomID]
	if !ok {
		group = make(map[string]types.ClientInterface)
		s.groups[roomID] = group
	}
	group[client.GetID()] = client
}

// LeaveGroup 将连接移出房间广播分组，分组为空时删除
func (s *Server) LeaveGroup(roomID, clientID string) {
	s.groupsMu.Lock()
	defer s.groupsMu.Unlock()

	group, ok := s.groups[roomID]
	if !ok {
		return
	}
	delete(group, clientID)
	if len(group) == 0 {
		delete(s.groups, roomID)
	}
}

// GroupSize 房间分组内的连接数
func (s *Server) GroupSize(roomID string) int {
	s.groupsMu.RLock()
	defer s.groupsMu.RUnlock()
	return len(s.groups[roomID])
}

// BroadcastToRoom 广播给房间内的连接，exceptIDs 除外
func (s *Server) BroadcastToRoom(roomID string, msg *protocol.Message, exceptIDs ...string) {
	s.groupsMu.RLock()
	targets := make([]types.ClientInterface, 0, len(s.groups[roomID]))
	for id, c := range s.groups[roomID] {
		if !slices.Contains(exceptIDs, id) {
			targets = append(targets, c)
		}
	}
	s.groupsMu.RUnlock()

	for _, c := range targets {
		c.SendMessage(msg)
	}
}

// Broadcast 广播消息给所有连接
func (s *Server) Broadcast(msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		client.SendMessage(msg)
	}
}

// BroadcastMaintenance 通知所有连接服务器进入维护
func (s *Server) BroadcastMaintenance(text string) {
	s.Broadcast(codec.NewErrorMessageWithText(protocol.ErrCodeServerMaintenance, text))
}
