package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/podorank/internal/apperrors"
	"github.com/palemoky/podorank/internal/server/storage"
)

func testWines() []Wine {
	return []Wine{
		{ID: 1, Name: "Pinot"},
		{ID: 2, Name: "Merlot"},
		{ID: 3, Name: "Syrah"},
	}
}

type capturePersister struct {
	saved chan *storage.RoomData
}

func (c *capturePersister) SaveRoom(_ context.Context, _ string, data *storage.RoomData) error {
	c.saved <- data
	return nil
}

// slowPersister records participant counts in save order; one-player snapshots are slow.
type slowPersister struct {
	mu     sync.Mutex
	counts []int
}

func (p *slowPersister) SaveRoom(_ context.Context, _ string, data *storage.RoomData) error {
	if len(data.Participants) == 1 {
		time.Sleep(50 * time.Millisecond)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts = append(p.counts, len(data.Participants))
	return nil
}

func (p *slowPersister) saved() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.counts...)
}

type failingPersister struct{}

func (failingPersister) SaveRoom(context.Context, string, *storage.RoomData) error {
	return errors.New("redis down")
}

func TestGenerateCode(t *testing.T) {
	t.Parallel()

	for range 50 {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Len(t, code, roomCodeLength)
		for _, c := range code {
			assert.Contains(t, roomCodeChars, string(c))
		}
	}
}

func TestRoomManager_CreateRoom(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	rm := NewRoomManager(nil, WithClock(func() time.Time { return now }))

	r, err := rm.CreateRoom("master-1", testWines())
	require.NoError(t, err)

	assert.Len(t, r.RoomID, roomCodeLength)
	assert.Equal(t, "master-1", r.MasterID)
	assert.Equal(t, StatusWaiting, r.Status)
	assert.Equal(t, 0, r.CurrentRound)
	assert.Empty(t, r.Participants)
	assert.NotNil(t, r.Participants)
	assert.Nil(t, r.FinishedAt)
	assert.Equal(t, now, r.CreatedAt)
	assert.Equal(t, testWines(), r.Wines)
	assert.Equal(t, 1, rm.Count())
}

func TestRoomManager_CreateRoomRequiresWine(t *testing.T) {
	t.Parallel()

	rm := NewRoomManager(nil)
	_, err := rm.CreateRoom("m", nil)
	assert.ErrorIs(t, err, apperrors.ErrNotEnoughWines)
}

func TestRoomManager_CodeCollision(t *testing.T) {
	t.Parallel()

	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	var i int
	gen := func() (string, error) {
		c := codes[i]
		i++
		return c, nil
	}
	rm := NewRoomManager(nil, WithCodeGenerator(gen))

	first, err := rm.CreateRoom("m1", testWines())
	require.NoError(t, err)
	second, err := rm.CreateRoom("m2", testWines())
	require.NoError(t, err)

	assert.Equal(t, "AAAAAA", first.RoomID)
	assert.Equal(t, "BBBBBB", second.RoomID)

	// The first room must not have been overwritten
	got, err := rm.GetRoom("AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "m1", got.MasterID)
}

func TestRoomManager_CodeExhausted(t *testing.T) {
	t.Parallel()

	rm := NewRoomManager(nil, WithCodeGenerator(func() (string, error) { return "ZZZZZZ", nil }))
	_, err := rm.CreateRoom("m1", testWines())
	require.NoError(t, err)

	_, err = rm.CreateRoom("m2", testWines())
	assert.ErrorIs(t, err, apperrors.ErrRoomCodeExhausted)
	assert.Equal(t, 1, rm.Count())
}

func TestRoomManager_GetRoom(t *testing.T) {
	t.Parallel()

	rm := NewRoomManager(nil)

	_, err := rm.GetRoom("NOPE00")
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)

	created, err := rm.CreateRoom("m", testWines())
	require.NoError(t, err)

	// Mutating the returned copy must not leak into the registry
	got, err := rm.GetRoom(created.RoomID)
	require.NoError(t, err)
	got.Participants = append(got.Participants, Player{PlayerID: "x", Nickname: "X"})
	got.Wines[0].Name = "changed"

	again, err := rm.GetRoom(created.RoomID)
	require.NoError(t, err)
	assert.Empty(t, again.Participants)
	assert.Equal(t, "Pinot", again.Wines[0].Name)
}

func TestRoomManager_UpdateRoom(t *testing.T) {
	t.Parallel()

	rm := NewRoomManager(nil)
	r, err := rm.CreateRoom("m", testWines())
	require.NoError(t, err)

	status := StatusInProgress
	round := 1
	updated, err := rm.UpdateRoom(r.RoomID, Patch{Status: &status, CurrentRound: &round})
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, updated.Status)
	assert.Equal(t, 1, updated.CurrentRound)
	assert.Equal(t, "m", updated.MasterID)

	_, err = rm.UpdateRoom("NOPE00", Patch{Status: &status})
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}

func TestRoomManager_MutateRejectsRoundRegression(t *testing.T) {
	t.Parallel()

	rm := NewRoomManager(nil)
	r, err := rm.CreateRoom("m", testWines())
	require.NoError(t, err)

	_, err = rm.Mutate(r.RoomID, func(room *Room) error {
		room.CurrentRound = 7
		return nil
	})
	assert.Error(t, err)

	round := 2
	_, err = rm.UpdateRoom(r.RoomID, Patch{CurrentRound: &round})
	require.NoError(t, err)

	round = 1
	_, err = rm.UpdateRoom(r.RoomID, Patch{CurrentRound: &round})
	assert.Error(t, err)

	got, err := rm.GetRoom(r.RoomID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentRound)
}

func TestRoomManager_MutateErrorDiscardsChanges(t *testing.T) {
	t.Parallel()

	rm := NewRoomManager(nil)
	r, err := rm.CreateRoom("m", testWines())
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = rm.Mutate(r.RoomID, func(room *Room) error {
		room.MasterID = "other"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := rm.GetRoom(r.RoomID)
	require.NoError(t, err)
	assert.Equal(t, "m", got.MasterID)
}

func TestRoomManager_ConcurrentAppends(t *testing.T) {
	t.Parallel()

	rm := NewRoomManager(nil)
	r, err := rm.CreateRoom("m", testWines())
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := rm.Mutate(r.RoomID, func(room *Room) error {
				room.Participants = append(room.Participants, Player{
					PlayerID: fmt.Sprintf("p%d", i),
					Nickname: fmt.Sprintf("n%d", i),
				})
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := rm.GetRoom(r.RoomID)
	require.NoError(t, err)
	assert.Len(t, got.Participants, n)
}

func TestRoomManager_PersistsSnapshots(t *testing.T) {
	t.Parallel()

	p := &capturePersister{saved: make(chan *storage.RoomData, 4)}
	rm := NewRoomManager(nil, WithPersister(p))

	r, err := rm.CreateRoom("m", testWines())
	require.NoError(t, err)

	select {
	case data := <-p.saved:
		assert.Equal(t, r.RoomID, data.RoomID)
		assert.Equal(t, "waiting", data.Status)
	case <-time.After(time.Second):
		t.Fatal("snapshot was not persisted")
	}

	status := StatusInProgress
	_, err = rm.UpdateRoom(r.RoomID, Patch{Status: &status})
	require.NoError(t, err)

	select {
	case data := <-p.saved:
		assert.Equal(t, "in_progress", data.Status)
	case <-time.After(time.Second):
		t.Fatal("update was not persisted")
	}
}

func TestRoomManager_PersistKeepsSnapshotOrder(t *testing.T) {
	t.Parallel()

	p := &slowPersister{}
	rm := NewRoomManager(nil, WithPersister(p))
	r, err := rm.CreateRoom("m", testWines())
	require.NoError(t, err)

	for _, id := range []string{"alice", "bob"} {
		_, err := rm.Mutate(r.RoomID, func(room *Room) error {
			room.Participants = append(room.Participants, Player{PlayerID: id, Nickname: id})
			return nil
		})
		require.NoError(t, err)
	}

	// The slow one-player snapshot must not overwrite the two-player one
	assert.Eventually(t, func() bool {
		saved := p.saved()
		return len(saved) > 0 && saved[len(saved)-1] == 2
	}, time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	saved := p.saved()
	assert.Equal(t, 2, saved[len(saved)-1])
	assert.IsNonDecreasing(t, saved)
}

func TestRoomManager_PersistFailureIsNotSurfaced(t *testing.T) {
	t.Parallel()

	rm := NewRoomManager(nil, WithPersister(failingPersister{}))
	r, err := rm.CreateRoom("m", testWines())
	require.NoError(t, err)

	_, err = rm.GetRoom(r.RoomID)
	assert.NoError(t, err)
}

func TestRoomManager_RestoreFromRedis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()
	store := storage.NewRedisStore(client)

	ctx := context.Background()
	src := &Room{
		RoomID:       "ABC123",
		MasterID:     "m",
		Status:       StatusInProgress,
		Wines:        testWines(),
		Participants: []Player{{PlayerID: "p1", Nickname: "Ann", Color: "#FF6B6B"}},
		CurrentRound: 2,
		CreatedAt:    time.Unix(1700000000, 0),
	}
	require.NoError(t, store.SaveRoom(ctx, src.RoomID, src.ToRoomData()))

	rm := NewRoomManager(nil)
	n, err := rm.Restore(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := rm.GetRoom("ABC123")
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentRound)
	assert.Equal(t, StatusInProgress, got.Status)
	assert.Equal(t, "Ann", got.Participants[0].Nickname)

	// Rooms already in memory are not overwritten
	n, err = rm.Restore(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRoomManager_CountByStatus(t *testing.T) {
	t.Parallel()

	rm := NewRoomManager(nil)
	a, err := rm.CreateRoom("m1", testWines())
	require.NoError(t, err)
	_, err = rm.CreateRoom("m2", testWines())
	require.NoError(t, err)

	status := StatusFinished
	_, err = rm.UpdateRoom(a.RoomID, Patch{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, 1, rm.CountByStatus(StatusWaiting))
	assert.Equal(t, 1, rm.CountByStatus(StatusFinished))
	assert.Equal(t, 0, rm.CountByStatus(StatusInProgress))
}
