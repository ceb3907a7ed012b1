package room

import "time"

// WineStat 单款酒的被选统计
type WineStat struct {
	Name            string   `json:"name"`
	SelectedBy      []string `json:"selectedBy"`
	TotalSelections int      `json:"totalSelections"`
}

// PlayerStat 单个玩家（按昵称）的选择统计
type PlayerStat struct {
	Selections     []int       `json:"selections"`
	SelectionCount map[int]int `json:"selectionCount"`
}

// RoomStats 房间统计
type RoomStats struct {
	RoomID      string                `json:"roomId"`
	SessionDate string                `json:"sessionDate"`
	WineStats   map[int]WineStat      `json:"wineStats"`
	PlayerStats map[string]PlayerStat `json:"playerStats"`
	CreatedAt   time.Time             `json:"createdAt"`
}

// BuildStats 根据已结束回合的记录汇总统计
func BuildStats(r *Room) *RoomStats {
	stats := &RoomStats{
		RoomID:      r.RoomID,
		SessionDate: r.CreatedAt.Format(time.DateOnly),
		WineStats:   make(map[int]WineStat, len(r.Wines)),
		PlayerStats: make(map[string]PlayerStat, len(r.Participants)),
		CreatedAt:   r.CreatedAt,
	}

	for _, w := range r.Wines {
		stats.WineStats[w.ID] = WineStat{Name: w.Name, SelectedBy: []string{}}
	}
	for _, p := range r.Participants {
		stats.PlayerStats[p.Nickname] = PlayerStat{Selections: []int{}, SelectionCount: map[int]int{}}
	}

	for _, rec := range r.History {
		for _, c := range rec.Selections {
			ws, ok := stats.WineStats[c.WineID]
			if !ok {
				ws = WineStat{Name: c.WineName, SelectedBy: []string{}}
			}
			ws.SelectedBy = append(ws.SelectedBy, c.Nickname)
			ws.TotalSelections++
			stats.WineStats[c.WineID] = ws

			ps, ok := stats.PlayerStats[c.Nickname]
			if !ok {
				ps = PlayerStat{Selections: []int{}, SelectionCount: map[int]int{}}
			}
			ps.Selections = append(ps.Selections, c.WineID)
			ps.SelectionCount[c.WineID]++
			stats.PlayerStats[c.Nickname] = ps
		}
	}

	return stats
}

// GetRoomStats 获取房间统计
func (rm *RoomManager) GetRoomStats(roomID string) (*RoomStats, error) {
	r, err := rm.GetRoom(roomID)
	if err != nil {
		return nil, err
	}
	return BuildStats(r), nil
}
