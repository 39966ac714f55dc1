// Package engine provides the board rules and AI opponents for tic-tac-toe.
//
// The engine package implements:
//   - The nine-cell board and its symbols
//   - Win detection over the eight lines
//   - Easy, medium and hard move selection
//
// Core Types:
//
// Board is a fixed array of nine Symbols indexed row-major from the top left.
// Winner reports the symbol holding three in a row, scanning rows, then
// columns, then diagonals. Difficulty selects a strategy for ChooseMove.
//
// Usage:
//
//	b, err := engine.ParseBoard("XX.O.O...")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	idx, ok := engine.ChooseMove(engine.Hard, b, engine.O, engine.X, engine.NewRand())
//
// AI Tiers:
//
// Easy plays a random empty cell. Medium takes an immediate win, otherwise
// blocks the opponent's immediate win, otherwise plays like Easy. Hard runs an
// exhaustive minimax search with scores of +10, -10 and 0 and no depth
// discount; ties go to the lowest cell index. Easy and Medium draw from a Rand
// so tests can pin their choices.
//
// Every function here is pure over its Board argument. Boards are values, so
// callers that pass one in keep their copy unchanged.
package engine
