// Package mcp provides a Model Context Protocol server for the tic-tac-toe server.
//
// The server is a thin proxy: every tool calls the REST API over HTTP, so the
// same Client works against the in-process API (the /mcp endpoint) or a
// separate server (stdio mode).
//
// MCP Tools:
//   - list_rooms: live rooms with mode, status and player count
//   - get_room: board, turn, outcome and players of one room
//   - analyze_board: winner, draw and the AI's move for an arbitrary board
//   - game_rules: rules, cell indexing and AI tiers
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:5000")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
//
// Playing moves is not exposed here. Moves belong to a WebSocket connection
// holding a seat in the room.
package mcp
