// Package account stores player accounts and their win/loss records.
//
// Accounts live in SQLite through SQLiteStore, which applies the embedded
// migrations on open. Service hashes passwords with bcrypt and issues HS256
// JWTs whose "id" claim is the user ID. Tokens expire after DefaultTokenTTL
// unless configured otherwise.
//
// Every stats update counts as one game played, whatever the delta. Service
// also implements service.ResultRecorder, so finished online games are tallied
// for connections that presented a token.
package account
