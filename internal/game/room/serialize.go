package room

import (
	"time"

	"github.com/palemoky/podorank/internal/server/storage"
)

// ToRoomData 将 Room 转换为可序列化的 RoomData
func (r *Room) ToRoomData() *storage.RoomData {
	data := &storage.RoomData{
		RoomID:       r.RoomID,
		MasterID:     r.MasterID,
		Status:       string(r.Status),
		Wines:        make([]storage.WineData, 0, len(r.Wines)),
		Participants: make([]storage.PlayerData, 0, len(r.Participants)),
		CurrentRound: r.CurrentRound,
		CreatedAt:    r.CreatedAt.Unix(),
	}
	if r.FinishedAt != nil {
		data.FinishedAt = r.FinishedAt.Unix()
	}

	for _, w := range r.Wines {
		data.Wines = append(data.Wines, storage.WineData{ID: w.ID, Name: w.Name, ImageURL: w.ImageURL})
	}
	for _, p := range r.Participants {
		data.Participants = append(data.Participants, storage.PlayerData{ID: p.PlayerID, Nickname: p.Nickname, Color: p.Color})
	}
	for _, rec := range r.History {
		out := storage.RoundRecord{
			RoundNum:   rec.RoundNum,
			Selections: make([]storage.ChoiceData, 0, len(rec.Selections)),
			EndedAt:    rec.EndedAt.Unix(),
		}
		for _, c := range rec.Selections {
			out.Selections = append(out.Selections, storage.ChoiceData{
				PlayerID: c.PlayerID,
				Nickname: c.Nickname,
				WineID:   c.WineID,
				WineName: c.WineName,
			})
		}
		data.History = append(data.History, out)
	}

	return data
}

// FromRoomData 从 RoomData 重建 Room
func FromRoomData(data *storage.RoomData) *Room {
	r := &Room{
		RoomID:       data.RoomID,
		MasterID:     data.MasterID,
		Status:       Status(data.Status),
		Wines:        make([]Wine, 0, len(data.Wines)),
		Participants: make([]Player, 0, len(data.Participants)),
		CurrentRound: data.CurrentRound,
		CreatedAt:    time.Unix(data.CreatedAt, 0),
	}
	if data.FinishedAt != 0 {
		t := time.Unix(data.FinishedAt, 0)
		r.FinishedAt = &t
	}

	for _, w := range data.Wines {
		r.Wines = append(r.Wines, Wine{ID: w.ID, Name: w.Name, ImageURL: w.ImageURL})
	}
	for _, p := range data.Participants {
		r.Participants = append(r.Participants, Player{PlayerID: p.ID, Nickname: p.Nickname, Color: p.Color})
	}
	for _, rec := range data.History {
		out := RoundRecord{
			RoundNum:   rec.RoundNum,
			Selections: make([]Choice, 0, len(rec.Selections)),
			EndedAt:    time.Unix(rec.EndedAt, 0),
		}
		for _, c := range rec.Selections {
			out.Selections = append(out.Selections, Choice{
				PlayerID: c.PlayerID,
				Nickname: c.Nickname,
				WineID:   c.WineID,
				WineName: c.WineName,
			})
		}
		r.History = append(r.History, out)
	}

	return r
}
