package engine

import "fmt"

// Analysis is the engine's view of an arbitrary position.
type Analysis struct {
	Board      string     `json:"board"`
	Rows       []string   `json:"rows"`
	Winner     Symbol     `json:"winner"`
	Full       bool       `json:"full"`
	ToMove     Symbol     `json:"toMove"`
	Difficulty Difficulty `json:"difficulty"`
	// Move is the cell the AI would play, or -1 when the game is over.
	Move int `json:"move"`
}

// SideToMove infers whose turn it is from the piece count, assuming X opened.
func SideToMove(b Board) Symbol {
	x, o := 0, 0
	for _, c := range b {
		switch c {
		case X:
			x++
		case O:
			o++
		}
	}
	if x > o {
		return O
	}
	return X
}

// Analyze reports the winner of b and the move the AI playing ai would pick.
// When ai is Empty the side to move is inferred with SideToMove.
func Analyze(b Board, ai Symbol, d Difficulty, rng Rand) (Analysis, error) {
	if ai == Empty {
		ai = SideToMove(b)
	}
	if !ai.Valid() {
		return Analysis{}, fmt.Errorf("invalid AI symbol %q", ai)
	}

	a := Analysis{
		Board:      b.String(),
		Rows:       b.Rows(),
		Winner:     Winner(b),
		Full:       b.Full(),
		ToMove:     ai,
		Difficulty: d,
		Move:       -1,
	}
	if a.Winner != Empty || a.Full {
		return a, nil
	}
	if idx, ok := ChooseMove(d, b, ai, ai.Opponent(), rng); ok {
		a.Move = idx
	}
	return a, nil
}
