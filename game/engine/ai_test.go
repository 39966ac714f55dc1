package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand always returns the same offset, clamped to n.
type fixedRand int

func (r fixedRand) Intn(n int) int {
	if int(r) >= n {
		return n - 1
	}
	return int(r)
}

func TestParseDifficulty(t *testing.T) {
	assert.Equal(t, Easy, ParseDifficulty("easy"))
	assert.Equal(t, Medium, ParseDifficulty("Medium"))
	assert.Equal(t, Hard, ParseDifficulty(" hard "))
	assert.Equal(t, Easy, ParseDifficulty(""))
	assert.Equal(t, Easy, ParseDifficulty("impossible"))
}

func TestEasyMove(t *testing.T) {
	b := mustBoard(t, "XO.X.O...")

	idx, ok := EasyMove(b, fixedRand(0))
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	idx, ok = EasyMove(b, fixedRand(4))
	require.True(t, ok)
	assert.Equal(t, 8, idx)

	_, ok = EasyMove(mustBoard(t, "XOXXOOOXX"), fixedRand(0))
	assert.False(t, ok)
}

func TestEasyMoveAlwaysEmpty(t *testing.T) {
	rng := NewRand()
	b := mustBoard(t, "X.O.X.O..")
	for i := 0; i < 200; i++ {
		idx, ok := EasyMove(b, rng)
		require.True(t, ok)
		require.Equal(t, Empty, b[idx])
	}
}

func TestMediumMove(t *testing.T) {
	tests := []struct {
		name  string
		board string
		ai    Symbol
		want  int
	}{
		{"takes own win over block", "XX.OO....", O, 5},
		{"blocks single threat", "XX..O....", O, 2},
		{"blocks column threat", "OX..X....", O, 7},
		{"first winning cell in scan order", "XX.OX.O..", X, 2},
		{"falls back to random", "X...O....", X, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := MediumMove(mustBoard(t, tt.board), tt.ai, fixedRand(0))
			require.True(t, ok)
			assert.Equal(t, tt.want, idx)
		})
	}

	_, ok := MediumMove(mustBoard(t, "XOXXOOOXX"), X, fixedRand(0))
	assert.False(t, ok)
}

func TestHardMove(t *testing.T) {
	tests := []struct {
		name  string
		board string
		ai    Symbol
		human Symbol
		want  int
	}{
		{"takes immediate win", "OO.XX....", O, X, 2},
		{"blocks immediate loss", "XX..O....", O, X, 2},
		{"symbols are parameters", "XX..O....", X, O, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustBoard(t, tt.board)
			before := b

			idx, ok := HardMove(b, tt.ai, tt.human)
			require.True(t, ok)
			assert.Equal(t, tt.want, idx)
			assert.Equal(t, before, b)
		})
	}
}

func TestHardMoveNeverTakesOccupiedCell(t *testing.T) {
	for cell := 0; cell < BoardSize; cell++ {
		var b Board
		b[cell] = X
		idx, ok := HardMove(b, O, X)
		require.True(t, ok)
		assert.NotEqual(t, cell, idx)
		assert.Equal(t, Empty, b[idx])
	}
}

func TestHardMoveNoMoveAvailable(t *testing.T) {
	_, ok := HardMove(mustBoard(t, "XOXXOOOXX"), O, X)
	assert.False(t, ok)

	_, ok = HardMove(mustBoard(t, "XXXOO...."), O, X)
	assert.False(t, ok)
}

// playOut explores every opponent reply while the AI answers with HardMove
// and fails if any line of play ends with the opponent winning.
func playOut(t *testing.T, b Board, mover, ai, human Symbol) {
	t.Helper()
	if w := Winner(b); w != Empty {
		require.NotEqual(t, human, w, "AI lost on board %s", b)
		return
	}
	if b.Full() {
		return
	}

	if mover == ai {
		idx, ok := HardMove(b, ai, human)
		require.True(t, ok)
		require.NoError(t, CheckMove(b, idx))
		b[idx] = ai
		playOut(t, b, human, ai, human)
		return
	}

	for _, idx := range b.EmptyCells() {
		next := b
		next[idx] = human
		playOut(t, next, ai, ai, human)
	}
}

func TestHardMoveNeverLoses(t *testing.T) {
	t.Run("human opens", func(t *testing.T) {
		playOut(t, Board{}, X, O, X)
	})
	t.Run("AI opens", func(t *testing.T) {
		playOut(t, Board{}, X, X, O)
	})
}

func TestChooseMove(t *testing.T) {
	b := mustBoard(t, "XX..O....")

	idx, ok := ChooseMove(Hard, b, O, X, fixedRand(0))
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	idx, ok = ChooseMove(Medium, b, O, X, fixedRand(0))
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	idx, ok = ChooseMove(Difficulty("unknown"), b, O, X, fixedRand(0))
	require.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestCheckMove(t *testing.T) {
	b := mustBoard(t, "X........")
	assert.NoError(t, CheckMove(b, 1))
	assert.Error(t, CheckMove(b, 0))
	assert.Error(t, CheckMove(b, 9))
	assert.Error(t, CheckMove(b, -1))
}
