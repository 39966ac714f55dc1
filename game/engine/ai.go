package engine

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
)

// Difficulty selects the AI strategy tier.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty normalizes client input. Unknown values fall back to Easy.
func ParseDifficulty(raw string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(raw))) {
	case Medium:
		return Medium
	case Hard:
		return Hard
	default:
		return Easy
	}
}

// Minimax leaf scores. Depth is not discounted.
const (
	scoreAIWin    = 10
	scoreHumanWin = -10
	scoreNeutral  = 0
)

// Rand is the randomness source used by the easy and medium tiers.
type Rand interface {
	Intn(n int) int
}

// lockedRand is a Rand safe for concurrent use by many sessions.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRand returns a concurrency-safe Rand seeded from the runtime.
func NewRand() Rand {
	return &lockedRand{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// EasyMove picks a uniformly random empty cell. ok is false on a full board.
func EasyMove(b Board, rng Rand) (idx int, ok bool) {
	cells := b.EmptyCells()
	if len(cells) == 0 {
		return 0, false
	}
	return cells[rng.Intn(len(cells))], true
}

// MediumMove wins when it can, blocks when it must, and otherwise plays like
// EasyMove. Cells are scanned in ascending order.
func MediumMove(b Board, ai Symbol, rng Rand) (idx int, ok bool) {
	if i, found := completingCell(b, ai); found {
		return i, true
	}
	if i, found := completingCell(b, ai.Opponent()); found {
		return i, true
	}
	return EasyMove(b, rng)
}

// completingCell returns the first empty cell that gives s three in a row.
func completingCell(b Board, s Symbol) (int, bool) {
	for i := range b {
		if b[i] != Empty {
			continue
		}
		b[i] = s
		won := Winner(b) == s
		b[i] = Empty
		if won {
			return i, true
		}
	}
	return 0, false
}

// HardMove runs a full minimax search for ai against human.
func HardMove(b Board, ai, human Symbol) (idx int, ok bool) {
	if b.Full() || Winner(b) != Empty {
		return 0, false
	}
	_, idx = minimax(&b, ai, ai, human)
	return idx, idx >= 0
}

// minimax scores the position for mover and returns the chosen cell, or -1 at
// a leaf. b is a scratch copy owned by the search; every placement is undone
// before returning.
func minimax(b *Board, mover, ai, human Symbol) (score, idx int) {
	switch Winner(*b) {
	case human:
		return scoreHumanWin, -1
	case ai:
		return scoreAIWin, -1
	}

	maximizing := mover == ai
	best, bestIdx := 0, -1
	for i := range b {
		if b[i] != Empty {
			continue
		}
		b[i] = mover
		s, _ := minimax(b, mover.Opponent(), ai, human)
		b[i] = Empty

		if bestIdx < 0 || (maximizing && s > best) || (!maximizing && s < best) {
			best, bestIdx = s, i
		}
	}
	if bestIdx < 0 {
		return scoreNeutral, -1
	}
	return best, bestIdx
}

// ChooseMove dispatches to the strategy for d.
func ChooseMove(d Difficulty, b Board, ai, human Symbol, rng Rand) (int, bool) {
	switch d {
	case Medium:
		return MediumMove(b, ai, rng)
	case Hard:
		return HardMove(b, ai, human)
	default:
		return EasyMove(b, rng)
	}
}

// CheckMove verifies that an engine-chosen cell is playable on b.
func CheckMove(b Board, idx int) error {
	if !InRange(idx) {
		return fmt.Errorf("cell %d out of range", idx)
	}
	if b[idx] != Empty {
		return fmt.Errorf("cell %d already holds %s", idx, b[idx])
	}
	return nil
}
