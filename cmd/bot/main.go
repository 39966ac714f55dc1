// Command bot plays tic-tac-toe over the game WebSocket using the local
// engine. It either creates a room (optionally against the server AI) or
// joins one by code, then plays the requested number of games with rematches.
//
//	bot -games 10 -mode ai -difficulty hard -strength hard
//	bot -room k3x9qa -strength medium
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tictactoe/game/engine"
	"github.com/wricardo/mcp-training/tictactoe/game/service"
)

func main() {
	serverURL := flag.String("url", "ws://localhost:5000/ws", "Game server WebSocket URL")
	room := flag.String("room", "", "Join an existing room instead of creating one")
	symbol := flag.String("symbol", "X", "Symbol to play when creating a room")
	mode := flag.String("mode", "ai", "Opponent when creating a room: ai or human")
	difficulty := flag.String("difficulty", "medium", "Server AI difficulty in ai mode")
	strength := flag.String("strength", "hard", "Engine tier the bot plays with")
	games := flag.Int("games", 1, "Number of games to play")
	token := flag.String("token", os.Getenv("TICTACTOE_TOKEN"), "Account token for result tracking")
	delay := flag.Duration("delay", 0, "Pause before each move")
	timeout := flag.Duration("timeout", 10*time.Minute, "Give up after this long")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	logger := zap.Must(zap.NewDevelopment())
	if !*verbose {
		logger = logger.WithOptions(zap.IncreaseLevel(zap.InfoLevel))
	}
	defer logger.Sync() //nolint:errcheck

	sym, err := engine.ParseSymbol(strings.ToUpper(*symbol))
	if err != nil {
		logger.Fatal("invalid symbol", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	opts := Options{
		Room:       *room,
		Symbol:     sym,
		GameMode:   service.ParseMode(*mode),
		Difficulty: engine.ParseDifficulty(*difficulty),
		Strength:   engine.ParseDifficulty(*strength),
		Games:      *games,
		Token:      *token,
		Delay:      *delay,
		OnRoom: func(code string) {
			fmt.Printf("Room code: %s\n", code)
		},
	}

	logger.Info("connecting", zap.String("url", *serverURL))
	bot, err := Dial(ctx, *serverURL, opts, logger)
	if err != nil {
		logger.Fatal("failed to connect", zap.Error(err))
	}
	defer bot.Close()

	tally, err := bot.Play(ctx)
	fmt.Println(tally)
	if err != nil {
		logger.Error("stopped early", zap.Error(err))
		os.Exit(1)
	}
}
