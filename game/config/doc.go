// Package config loads server configuration for the tic-tac-toe server.
//
// Sources are applied in order, each overriding the last:
//   - Built-in defaults (see Default)
//   - An optional YAML file passed to Load
//   - Environment variables such as PORT, JWT_SECRET and AI_DELAY
//
// Command-line flags are applied by the caller after Load returns. A .env file
// is read by main before Load, so its values arrive as environment variables.
//
// Example file:
//
//	host: 0.0.0.0
//	port: 5000
//	aiDelay: 500ms
//	databasePath: tictactoe.db
//	jwtSecret: change-me
//	ngrok:
//	  enabled: false
//
// Account routes are only served when a JWT secret is configured.
package config
