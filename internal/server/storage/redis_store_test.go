package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client)
	return store, mr
}

func sampleRoomData() *RoomData {
	return &RoomData{
		RoomID:   "ABC123",
		MasterID: "master-1",
		Status:   "in_progress",
		Wines: []WineData{
			{ID: 1, Name: "Pinot"},
			{ID: 2, Name: "Merlot"},
		},
		Participants: []PlayerData{
			{ID: "c1", Nickname: "Alice", Color: "#FF5733"},
		},
		CurrentRound: 1,
		CreatedAt:    time.Now().Unix(),
		History: []RoundRecord{
			{RoundNum: 1, Selections: []ChoiceData{{PlayerID: "c1", Nickname: "Alice", WineID: 1, WineName: "Pinot"}}},
		},
	}
}

func TestRedisStore_SaveLoadRoom(t *testing.T) {
	store, mr := newTestRedisStore(t)
	defer mr.Close()
	ctx := context.Background()

	roomData := sampleRoomData()

	// Save
	err := store.SaveRoom(ctx, roomData.RoomID, roomData)
	assert.NoError(t, err)

	// Load
	loadedData, err := store.LoadRoom(ctx, roomData.RoomID)
	assert.NoError(t, err)
	require.NotNil(t, loadedData)
	assert.Equal(t, roomData.RoomID, loadedData.RoomID)
	assert.Equal(t, roomData.Status, loadedData.Status)
	assert.Equal(t, roomData.Wines, loadedData.Wines)
	assert.Equal(t, roomData.History, loadedData.History)

	// TTL is applied
	assert.Equal(t, roomExpiration, mr.TTL(roomKeyPrefix+roomData.RoomID))
}

func TestRedisStore_SaveNilRoom(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	defer mr.Close()

	assert.NoError(t, store.SaveRoom(context.Background(), "ABC123", nil))
	assert.False(t, mr.Exists(roomKeyPrefix+"ABC123"))
}

func TestRedisStore_LoadMissingRoom(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	defer mr.Close()

	data, err := store.LoadRoom(context.Background(), "NOPE00")
	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestRedisStore_LoadCorruptRoom(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	defer mr.Close()

	require.NoError(t, mr.Set(roomKeyPrefix+"BAD000", "{not json"))

	_, err := store.LoadRoom(context.Background(), "BAD000")
	assert.Error(t, err)
}

func TestRedisStore_GetAllRoomIDs(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	defer mr.Close()
	ctx := context.Background()

	for _, id := range []string{"AAA111", "BBB222"} {
		data := sampleRoomData()
		data.RoomID = id
		require.NoError(t, store.SaveRoom(ctx, id, data))
	}
	require.NoError(t, mr.Set("other:AAA111", "x"))

	ids, err := store.GetAllRoomIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAA111", "BBB222"}, ids)
}
