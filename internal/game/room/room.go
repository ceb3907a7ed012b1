package room

import (
	"slices"
	"time"
)

const (
	roomCodeLength = 6                                      // 房间号长度
	roomCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" // 房间号字符集
)

// Status 房间状态
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Wine 酒款
type Wine struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Player 房间中的玩家，PlayerID 即连接 ID
type Player struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Color    string `json:"color"`
}

// Choice 某回合中一名玩家的最终选择
type Choice struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	WineID   int    `json:"wineId"`
	WineName string `json:"wineName"`
}

// RoundRecord 已结束回合的记录，用于统计
type RoundRecord struct {
	RoundNum   int       `json:"roundNum"`
	Selections []Choice  `json:"selections"`
	EndedAt    time.Time `json:"endedAt"`
}

// Room 游戏房间
type Room struct {
	RoomID       string        `json:"roomId"`
	MasterID     string        `json:"masterId"`
	Status       Status        `json:"status"`
	Wines        []Wine        `json:"wines"`
	Participants []Player      `json:"participants"`
	CurrentRound int           `json:"currentRound"`
	CreatedAt    time.Time     `json:"createdAt"`
	FinishedAt   *time.Time    `json:"finishedAt"`
	History      []RoundRecord `json:"-"`
}

// Clone 深拷贝房间，注册表只对外暴露副本
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	c.Wines = slices.Clone(r.Wines)
	c.Participants = slices.Clone(r.Participants)
	if c.Wines == nil {
		c.Wines = []Wine{}
	}
	if c.Participants == nil {
		c.Participants = []Player{}
	}
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		c.FinishedAt = &t
	}
	if r.History != nil {
		c.History = make([]RoundRecord, len(r.History))
		for i, rec := range r.History {
			rec.Selections = slices.Clone(rec.Selections)
			c.History[i] = rec
		}
	}
	return &c
}

// FindPlayer 按连接 ID 查找玩家
func (r *Room) FindPlayer(playerID string) (Player, bool) {
	for _, p := range r.Participants {
		if p.PlayerID == playerID {
			return p, true
		}
	}
	return Player{}, false
}

// HasNickname 昵称是否已被占用（区分大小写）
func (r *Room) HasNickname(nickname string) bool {
	return slices.ContainsFunc(r.Participants, func(p Player) bool {
		return p.Nickname == nickname
	})
}

// FindWine 按 ID 查找酒款
func (r *Room) FindWine(wineID int) (Wine, bool) {
	for _, w := range r.Wines {
		if w.ID == wineID {
			return w, true
		}
	}
	return Wine{}, false
}
