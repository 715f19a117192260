package websocket

import "encoding/json"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventSession Event = "session"
	EventPong    Event = "pong"
)

// SessionUpdate carries one session lifecycle event to a monitoring
// recruiter. The payload is the event exactly as published.
type SessionUpdate struct {
	Event   Event           `json:"event"`
	Session json.RawMessage `json:"session"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
