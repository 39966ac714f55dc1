package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/tictactoe/game/engine"
	"github.com/wricardo/mcp-training/tictactoe/game/service"
)

// RoomList is the body of GET /api/rooms.
type RoomList struct {
	Rooms []*service.RoomSummary `json:"rooms"`
	Count int                    `json:"count"`
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	Board      string `json:"board"`
	AISymbol   string `json:"aiSymbol,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Tic-Tac-Toe",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Tic-Tac-Toe - MCP Interface

This is a thin client that proxies all requests to the REST API server.
Games are played by browsers over the /ws WebSocket; these tools observe
live rooms and consult the AI engine.

AVAILABLE TOOLS:
- list_rooms: List live rooms with their mode and status
- get_room: Full state of one room by its 6-character code
- analyze_board: Winner, draw status and the AI's chosen move for any board
- game_rules: Rules, board indexing and AI difficulty tiers`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List all live game rooms",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room",
		Description: "Get the full state of a game room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_code": map[string]interface{}{
					"type":        "string",
					"description": "6-character room code",
				},
			},
			Required: []string{"room_code"},
		},
	}, c.handleGetRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "analyze_board",
		Description: "Evaluate a board and return the move the AI would play",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"board": map[string]interface{}{
					"type":        "string",
					"description": "9 characters, row-major from the top left: X, O or . for empty (e.g. \"X.O.X....\")",
				},
				"ai_symbol": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"X", "O"},
					"description": "Symbol the AI plays (optional, inferred from the piece count)",
				},
				"difficulty": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"easy", "medium", "hard"},
					"description": "AI tier (optional, defaults to easy)",
				},
			},
			Required: []string{"board"},
		},
	}, c.handleAnalyzeBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Get the rules of the game and how boards are described",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall makes an HTTP request to the REST API
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func stringArg(request mcp.CallToolRequest, name string) string {
	args, _ := request.Params.Arguments.(map[string]interface{})
	v, _ := args[name].(string)
	return v
}

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var list RoomList
	if err := c.apiCall(ctx, http.MethodGet, "/api/rooms", nil, &list); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatRoomList(&list)), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := strings.TrimSpace(stringArg(request, "room_code"))
	if code == "" {
		return mcp.NewToolResultError("room_code is required"), nil
	}

	var state service.GameState
	if err := c.apiCall(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(code), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleAnalyzeBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := AnalyzeRequest{
		Board:      stringArg(request, "board"),
		AISymbol:   stringArg(request, "ai_symbol"),
		Difficulty: stringArg(request, "difficulty"),
	}
	if req.Board == "" {
		return mcp.NewToolResultError("board is required"), nil
	}

	var analysis engine.Analysis
	if err := c.apiCall(ctx, http.MethodPost, "/api/analyze", req, &analysis); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatAnalysis(&analysis)), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameRules), nil
}

const gameRules = `TIC-TAC-TOE RULES

BOARD:
Nine cells indexed row-major from the top left:

   0 | 1 | 2
  ---+---+---
   3 | 4 | 5
  ---+---+---
   6 | 7 | 8

Boards are written as 9 characters in that order, X, O or . for empty.

PLAY:
- The room creator picks X or O and moves first.
- Players alternate; a move must target an empty cell on your turn.
- Three in a row, column or diagonal wins. A full board with no line is a draw.
- After a game, both players vote for a rematch. The board resets, the
  players swap symbols, and the other player opens.

AI OPPONENT:
- easy: random empty cell
- medium: wins if it can, blocks if it must, otherwise random
- hard: full minimax search; it never loses
The AI replies about half a second after your move.`

func formatRoomList(list *RoomList) string {
	if len(list.Rooms) == 0 {
		return "No live rooms."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Live rooms (%d):\n", list.Count)
	for _, r := range list.Rooms {
		fmt.Fprintf(&b, "- %s  mode=%s  status=%s  players=%d  created=%s\n",
			r.RoomCode, r.GameMode, r.Status, r.PlayerCount, r.CreatedAt.Format(time.RFC3339))
	}
	return b.String()
}

func formatGameState(state *service.GameState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Room %s (%s", state.RoomCode, state.GameMode)
	if state.GameMode == service.ModeAI {
		fmt.Fprintf(&b, ", %s", state.Difficulty)
	}
	fmt.Fprintf(&b, ")\nStatus: %s\n", state.Status)

	for _, row := range state.Board.Rows() {
		fmt.Fprintf(&b, "  %s\n", row)
	}

	switch state.Outcome {
	case service.OutcomeNone:
		fmt.Fprintf(&b, "Turn: %s (move %d)\n", state.CurrentTurn, state.MoveCount+1)
	case service.OutcomeDraw:
		b.WriteString("Result: draw\n")
	default:
		fmt.Fprintf(&b, "Result: %s wins\n", state.Outcome)
	}

	for _, p := range state.Players {
		fmt.Fprintf(&b, "Player %s plays %s\n", p.ConnID, p.Symbol)
	}
	if len(state.RematchVotes) > 0 {
		fmt.Fprintf(&b, "Rematch votes: %s\n", strings.Join(state.RematchVotes, ", "))
	}
	return b.String()
}

func formatAnalysis(a *engine.Analysis) string {
	var b strings.Builder
	for _, row := range a.Rows {
		fmt.Fprintf(&b, "  %s\n", row)
	}
	switch {
	case a.Winner != engine.Empty:
		fmt.Fprintf(&b, "Winner: %s\n", a.Winner)
	case a.Full:
		b.WriteString("Draw: board is full\n")
	default:
		fmt.Fprintf(&b, "%s to move. %s AI plays cell %d.\n", a.ToMove, a.Difficulty, a.Move)
	}
	return b.String()
}
