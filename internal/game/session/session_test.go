package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/podorank/internal/apperrors"
)

func TestSession_RecordPosition_LastWriteWins(t *testing.T) {
	t.Parallel()

	s := New("ROOM01", 1, []int{1, 2}, Bounds{})

	_, ok := s.RecordPosition("p1", Position{X: 1, Y: 1}, 0)
	assert.True(t, ok)
	_, ok = s.RecordPosition("p1", Position{X: 5, Y: 7}, 0)
	assert.True(t, ok)

	pos, found := s.Position("p1")
	require.True(t, found)
	assert.Equal(t, Position{X: 5, Y: 7}, pos)
}

func TestSession_RecordPosition_DropsStaleSeq(t *testing.T) {
	t.Parallel()

	s := New("ROOM01", 1, []int{1, 2}, Bounds{})

	_, ok := s.RecordPosition("p1", Position{X: 3, Y: 3}, 5)
	assert.True(t, ok)

	// Older and equal sequence numbers are ignored.
	_, ok = s.RecordPosition("p1", Position{X: 1, Y: 1}, 4)
	assert.False(t, ok)
	_, ok = s.RecordPosition("p1", Position{X: 2, Y: 2}, 5)
	assert.False(t, ok)

	pos, _ := s.Position("p1")
	assert.Equal(t, Position{X: 3, Y: 3}, pos)

	_, ok = s.RecordPosition("p1", Position{X: 9, Y: 9}, 6)
	assert.True(t, ok)
	pos, _ = s.Position("p1")
	assert.Equal(t, Position{X: 9, Y: 9}, pos)
}

func TestSession_RecordPosition_Clamps(t *testing.T) {
	t.Parallel()

	s := New("ROOM01", 1, []int{1}, Bounds{MinX: 0, MinY: 0, MaxX: 100, MaxY: 50})

	got, ok := s.RecordPosition("p1", Position{X: -20, Y: 80}, 0)
	assert.True(t, ok)
	assert.Equal(t, Position{X: 0, Y: 50}, got)

	got, _ = s.RecordPosition("p1", Position{X: 40, Y: 10}, 0)
	assert.Equal(t, Position{X: 40, Y: 10}, got)
}

func TestSession_RecordSelection(t *testing.T) {
	t.Parallel()

	s := New("ROOM01", 1, []int{1, 2}, Bounds{})

	require.NoError(t, s.RecordSelection("p1", 1))
	require.NoError(t, s.RecordSelection("p1", 2))
	require.NoError(t, s.RecordSelection("p2", 1))

	err := s.RecordSelection("p3", 99)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSelection)

	assert.Equal(t, []Selection{
		{PlayerID: "p1", WineID: 2},
		{PlayerID: "p2", WineID: 1},
	}, s.SnapshotSelections())
}

func TestSession_SnapshotSelections_IndependentOfArrivalOrder(t *testing.T) {
	t.Parallel()

	a := New("ROOM01", 1, []int{1, 2}, Bounds{})
	b := New("ROOM01", 1, []int{1, 2}, Bounds{})

	require.NoError(t, a.RecordSelection("zed", 1))
	require.NoError(t, a.RecordSelection("amy", 2))

	require.NoError(t, b.RecordSelection("amy", 2))
	require.NoError(t, b.RecordSelection("zed", 1))

	assert.Equal(t, a.SnapshotSelections(), b.SnapshotSelections())
}

func TestSession_ConcurrentUpdates(t *testing.T) {
	t.Parallel()

	s := New("ROOM01", 1, []int{1, 2}, Bounds{})

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("p%d", i)
			for j := range 50 {
				s.RecordPosition(id, Position{X: float64(j), Y: float64(j)}, 0)
			}
			_ = s.RecordSelection(id, 1+i%2)
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Positions(), 20)
	assert.Len(t, s.SnapshotSelections(), 20)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	_, ok := store.Get("ROOM01")
	assert.False(t, ok)

	s := New("ROOM01", 1, []int{1}, Bounds{})
	store.Set("ROOM01", s)
	assert.Equal(t, 1, store.Len())

	got, ok := store.Get("ROOM01")
	require.True(t, ok)
	assert.Same(t, s, got)

	deleted, ok := store.Delete("ROOM01")
	assert.True(t, ok)
	assert.Same(t, s, deleted)

	_, ok = store.Delete("ROOM01")
	assert.False(t, ok)
	assert.Zero(t, store.Len())
}

func TestSession_WineIDs(t *testing.T) {
	t.Parallel()

	s := New("room", 3, []int{9, 2, 5}, Bounds{})
	assert.Equal(t, []int{2, 5, 9}, s.WineIDs())
	assert.False(t, s.StartedAt.IsZero())
}
