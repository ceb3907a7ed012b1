package round

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWineCount_FiveWines(t *testing.T) {
	t.Parallel()

	want := []int{2, 2, 3, 3, 4, 5}
	for i, w := range want {
		assert.Equal(t, w, WineCount(5, i+1), "round %d", i+1)
	}
}

func TestWineCount_Bounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		total int
		round int
		want  int
	}{
		{"two wines every round", 2, 4, 2},
		{"two wines last round", 2, 6, 2},
		{"no wines", 0, 1, 0},
		{"single wine", 1, 3, 1},
		{"large room first round", 20, 1, 2},
		{"large room last round", 20, 6, 20},
		{"large room round five", 20, 5, 14},
		{"out of range falls back to round one", 8, 9, 2},
		{"round zero falls back to round one", 8, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WineCount(tt.total, tt.round))
		})
	}
}

func TestWineCount_NonDecreasing(t *testing.T) {
	t.Parallel()

	for total := 2; total <= 30; total++ {
		prev := 0
		for r := 1; r <= MaxRounds; r++ {
			n := WineCount(total, r)
			assert.GreaterOrEqual(t, n, prev, "total=%d round=%d", total, r)
			assert.LessOrEqual(t, n, total)
			prev = n
		}
		assert.Equal(t, total, WineCount(total, MaxRounds))
	}
}

func TestSelectWines_Deterministic(t *testing.T) {
	t.Parallel()

	for total := 2; total <= 12; total++ {
		for r := 1; r <= MaxRounds; r++ {
			first := SelectWines(total, r)
			second := SelectWines(total, r)
			assert.Equal(t, first, second)
		}
	}
}

func TestSelectWines_ValidIndices(t *testing.T) {
	t.Parallel()

	for total := 2; total <= 12; total++ {
		for r := 1; r <= MaxRounds; r++ {
			indices := SelectWines(total, r)
			assert.Len(t, indices, WineCount(total, r))

			seen := make(map[int]bool)
			for i, idx := range indices {
				assert.GreaterOrEqual(t, idx, 0)
				assert.Less(t, idx, total)
				assert.False(t, seen[idx], "duplicate index %d", idx)
				seen[idx] = true
				if i > 0 {
					assert.Greater(t, idx, indices[i-1], "indices must be ascending")
				}
			}
		}
	}
}

func TestSelectWines_LastRoundShowsAll(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, SelectWines(5, 6))
	assert.Equal(t, []int{0, 1}, SelectWines(2, 1))
}

func TestSelectWines_FiveWineTable(t *testing.T) {
	t.Parallel()

	want := [][]int{{0, 1}, {0, 2}, {1, 2, 3}, {0, 3, 4}, {1, 2, 3, 4}, {0, 1, 2, 3, 4}}
	for i, w := range want {
		assert.Equal(t, w, SelectWines(5, i+1), "round %d", i+1)
	}
	assert.Equal(t, []int{0, 1}, SelectWines(5, 0))

	// Callers may modify the result without affecting later rounds
	got := SelectWines(5, 1)
	got[0] = 4
	assert.Equal(t, []int{0, 1}, SelectWines(5, 1))
}

func TestSelectWines_OutOfRangeMatchesRoundOne(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SelectWines(7, 1), SelectWines(7, 7))
	assert.Equal(t, SelectWines(7, 1), SelectWines(7, -1))
}

func TestSelectWines_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, SelectWines(0, 1))
}

func TestDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 30, Duration(1))
	assert.Equal(t, 20, Duration(6))
	assert.Equal(t, 30, Duration(42))
	assert.Equal(t, 3, ConfigFor(3).RoundNum)
}
