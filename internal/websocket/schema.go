package websocket

import "github.com/stemsi/smartquiz-backend/internal/quiz"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect  Action = "select"
	ActionSubmit  Action = "submit"
	ActionNext    Action = "next"
	ActionAbandon Action = "abandon"
	ActionPing    Action = "ping"
)

// Request is any client message. Option is only read for select.
type Request struct {
	Action Action `json:"action"`
	Option string `json:"option,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState Event = "state"
	EventError Event = "error"
	EventPong  Event = "pong"
)

// StateResponse carries a session snapshot. One is pushed for every
// transition, including timer ticks.
type StateResponse struct {
	Event Event     `json:"event"`
	Data  quiz.View `json:"data"`
}

type ErrorResponse struct {
	Event   Event  `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
