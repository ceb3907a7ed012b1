package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoomData_RoundTrip(t *testing.T) {
	t.Parallel()

	finished := time.Unix(1700003600, 0)
	src := &Room{
		RoomID:       "XYZ789",
		MasterID:     "m",
		Status:       StatusFinished,
		Wines:        testWines(),
		Participants: []Player{{PlayerID: "p1", Nickname: "Ann", Color: "#4ECDC4"}},
		CurrentRound: 6,
		CreatedAt:    time.Unix(1700000000, 0),
		FinishedAt:   &finished,
		History: []RoundRecord{{
			RoundNum:   1,
			Selections: []Choice{{PlayerID: "p1", Nickname: "Ann", WineID: 2, WineName: "Merlot"}},
			EndedAt:    time.Unix(1700000030, 0),
		}},
	}

	data := src.ToRoomData()
	assert.Equal(t, "finished", data.Status)
	assert.Equal(t, int64(1700003600), data.FinishedAt)

	got := FromRoomData(data)
	assert.Equal(t, src.RoomID, got.RoomID)
	assert.Equal(t, src.Wines, got.Wines)
	assert.Equal(t, src.Participants, got.Participants)
	assert.Equal(t, src.CurrentRound, got.CurrentRound)
	assert.True(t, src.CreatedAt.Equal(got.CreatedAt))
	if assert.NotNil(t, got.FinishedAt) {
		assert.True(t, finished.Equal(*got.FinishedAt))
	}
	if assert.Len(t, got.History, 1) {
		assert.Equal(t, src.History[0].Selections, got.History[0].Selections)
	}
}

func TestRoomData_NoFinishedAt(t *testing.T) {
	t.Parallel()

	src := &Room{RoomID: "A", Status: StatusWaiting, CreatedAt: time.Unix(1, 0)}
	got := FromRoomData(src.ToRoomData())
	assert.Nil(t, got.FinishedAt)
	assert.Empty(t, got.History)
}

func TestRoom_Clone(t *testing.T) {
	t.Parallel()

	src := &Room{
		RoomID:       "A",
		Wines:        testWines(),
		Participants: []Player{{PlayerID: "p1", Nickname: "Ann"}},
		History:      []RoundRecord{{RoundNum: 1, Selections: []Choice{{PlayerID: "p1"}}}},
	}
	c := src.Clone()
	c.Participants[0].Nickname = "Zed"
	c.History[0].Selections[0].PlayerID = "p9"

	assert.Equal(t, "Ann", src.Participants[0].Nickname)
	assert.Equal(t, "p1", src.History[0].Selections[0].PlayerID)

	empty := (&Room{}).Clone()
	assert.NotNil(t, empty.Wines)
	assert.NotNil(t, empty.Participants)
}
