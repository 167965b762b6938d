// Package api implements the admin HTTP API and live-tail WebSocket server.
//
// This package provides:
//   - REST endpoints for reading and changing module levels
//   - A WebSocket hub that is also a logq sink, streaming lines to clients
//   - HS256 bearer token authentication with ticket-based WebSocket auth
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Routes
//
//	GET  /api/v1/health
//	GET  /api/v1/stats
//	GET  /api/v1/levels
//	GET  /api/v1/levels/{module}
//	PUT  /api/v1/levels/{module}     {"level":"debug","final":true}
//	GET  /api/v1/default-level
//	PUT  /api/v1/default-level       {"level":"warning"}
//	POST /api/v1/levels/save
//	POST /api/v1/levels/reload
//	POST /api/v1/auth/ws-ticket
//	GET  /api/v1/ws
//
// # Security
//
// When security.jwt.secret is set, mutating routes and /ws require a token
// issued by IssueToken (see "logq token"). With no secret the API is open,
// which is only reasonable on a loopback listener.
//
// # WebSocket
//
// Clients send {"type":"subscribe","payload":{"channels":["log.all"]}}.
// Channels are log.all, log.<LEVEL> (e.g. log.WARNING) and levels.changed.
package api
