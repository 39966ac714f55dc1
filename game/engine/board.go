package engine

import "fmt"

// Symbol is a mark placed on the board.
type Symbol string

const (
	Empty Symbol = ""
	X     Symbol = "X"
	O     Symbol = "O"
)

// BoardSize is the number of cells on a 3x3 board.
const BoardSize = 9

// Valid reports whether s is one of the two playable symbols.
func (s Symbol) Valid() bool {
	return s == X || s == O
}

// Opponent returns the complementary symbol. Empty maps to Empty.
func (s Symbol) Opponent() Symbol {
	switch s {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// ParseSymbol converts client input into a Symbol.
func ParseSymbol(raw string) (Symbol, error) {
	s := Symbol(raw)
	if !s.Valid() {
		return Empty, fmt.Errorf("invalid symbol %q", raw)
	}
	return s, nil
}

// Board is a row-major 3x3 grid. Index 0 is the top-left cell.
//
// Board is a value type: passing it around copies the cells, so simulations
// never alias a live session board.
type Board [BoardSize]Symbol

// lines lists the winning lines in scan order: rows, columns, diagonals.
var lines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Winner returns the symbol holding three in a row, or Empty when no line is
// complete. Lines are scanned rows first, then columns, then diagonals.
func Winner(b Board) Symbol {
	for _, l := range lines {
		a := b[l[0]]
		if a != Empty && a == b[l[1]] && a == b[l[2]] {
			return a
		}
	}
	return Empty
}

// Full reports whether every cell is occupied.
func (b Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// EmptyCells returns the indexes of empty cells in ascending order.
func (b Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, c := range b {
		if c == Empty {
			cells = append(cells, i)
		}
	}
	return cells
}

// Count returns the number of occupied cells.
func (b Board) Count() int {
	n := 0
	for _, c := range b {
		if c != Empty {
			n++
		}
	}
	return n
}

// InRange reports whether idx addresses a cell on the board.
func InRange(idx int) bool {
	return idx >= 0 && idx < BoardSize
}

// ParseBoard reads a 9 character board description. X and O (either case)
// are marks; '.', '-', '_' and ' ' are empty cells.
func ParseBoard(raw string) (Board, error) {
	var b Board
	if len(raw) != BoardSize {
		return b, fmt.Errorf("board must have %d cells, got %d", BoardSize, len(raw))
	}
	for i, ch := range raw {
		switch ch {
		case 'X', 'x':
			b[i] = X
		case 'O', 'o':
			b[i] = O
		case '.', '-', '_', ' ':
			b[i] = Empty
		default:
			return b, fmt.Errorf("invalid cell %q at index %d", ch, i)
		}
	}
	return b, nil
}

// String renders the board in the same compact form ParseBoard accepts.
func (b Board) String() string {
	out := make([]byte, BoardSize)
	for i, c := range b {
		if c == Empty {
			out[i] = '.'
		} else {
			out[i] = c[0]
		}
	}
	return string(out)
}

// Rows renders the board as three rows for human-readable output.
func (b Board) Rows() []string {
	s := b.String()
	return []string{s[0:3], s[3:6], s[6:9]}
}
