// Command analyze runs the tic-tac-toe engine on a single board and prints the
// winner, draw status and the move each AI tier would play.
//
//	analyze --board "X.O.X...." --ai O --difficulty hard
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/tictactoe/game/engine"
)

func main() {
	if err := newCommand(os.Stdout, engine.NewRand()).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand(w io.Writer, rng engine.Rand) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "evaluate a tic-tac-toe board",
		UsageText: `analyze --board "X.O.X...." [--ai O] [--difficulty hard] [--json]`,
		Writer:    w,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "board",
				Aliases:  []string{"b"},
				Usage:    "9 cells row-major from the top left: X, O or . for empty",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "ai",
				Usage: "symbol the AI plays (default: inferred from the piece count)",
			},
			&cli.StringFlag{
				Name:    "difficulty",
				Aliases: []string{"d"},
				Usage:   "easy, medium or hard; empty compares all three",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the analysis as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			board, err := engine.ParseBoard(cmd.String("board"))
			if err != nil {
				return err
			}

			ai := engine.Empty
			if raw := cmd.String("ai"); raw != "" {
				if ai, err = engine.ParseSymbol(strings.ToUpper(raw)); err != nil {
					return err
				}
			}

			tiers := []engine.Difficulty{engine.Easy, engine.Medium, engine.Hard}
			if raw := cmd.String("difficulty"); raw != "" {
				tiers = []engine.Difficulty{engine.ParseDifficulty(raw)}
			}

			results := make([]engine.Analysis, 0, len(tiers))
			for _, d := range tiers {
				a, err := engine.Analyze(board, ai, d, rng)
				if err != nil {
					return err
				}
				results = append(results, a)
			}

			if cmd.Bool("json") {
				enc := json.NewEncoder(cmd.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			printAnalysis(cmd.Writer, results)
			return nil
		},
	}
}

func printAnalysis(w io.Writer, results []engine.Analysis) {
	first := results[0]
	for _, row := range first.Rows {
		fmt.Fprintf(w, "  %s\n", row)
	}

	switch {
	case first.Winner != engine.Empty:
		fmt.Fprintf(w, "Winner: %s\n", first.Winner)
		return
	case first.Full:
		fmt.Fprintln(w, "Draw: board is full")
		return
	}

	fmt.Fprintf(w, "%s to move\n", first.ToMove)
	for _, a := range results {
		fmt.Fprintf(w, "  %-6s -> cell %d\n", a.Difficulty, a.Move)
	}
}
