package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/smartquiz-backend/internal/middleware"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stemsi/smartquiz-backend/internal/quiz"
	"github.com/stemsi/smartquiz-backend/internal/response"
	"github.com/stemsi/smartquiz-backend/internal/service"
	ws "github.com/stemsi/smartquiz-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a quiz session over a WebSocket.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:session_id/stream
// Pushes a snapshot on every transition, timer ticks included, and accepts
// select, submit, next, abandon and ping actions.
func (h *WSHandler) SessionStream(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "session_id")
	if !ok {
		return
	}
	who := middleware.GetIdentity(c)

	// Resolve before upgrading so unknown sessions get a plain HTTP error.
	snapshots, unsubscribe, err := h.sessionService.Subscribe(who, sessionID)
	if err != nil {
		failWith(c, err, response.ErrSessionNotFound)
		return
	}
	defer unsubscribe()

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	wsLog := h.log.With().
		Str("session_id", sessionID.String()).
		Str("user_id", who.UserID).
		Logger()
	wsLog.Info().Msg("Learner connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go h.pump(ctx, conn, snapshots, wsLog)

	for {
		var msg ws.Request
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		h.handleAction(ctx, conn, who, sessionID, msg, wsLog)
	}
}

// pump forwards snapshots until the session stream or ctx ends.
func (h *WSHandler) pump(ctx context.Context, conn *ws.Conn, snapshots <-chan quiz.State, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-snapshots:
			if !ok {
				return
			}
			if err := conn.WriteTyped(ws.StateResponse{Event: ws.EventState, Data: quiz.NewView(st)}); err != nil {
				log.Debug().Err(err).Msg("Snapshot write failed")
				return
			}
		}
	}
}

func (h *WSHandler) handleAction(ctx context.Context, conn *ws.Conn, who model.Identity, sessionID uuid.UUID, msg ws.Request, log zerolog.Logger) {
	var err error
	switch msg.Action {
	case ws.ActionPing:
		conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		return
	case ws.ActionSelect:
		_, err = h.sessionService.Select(ctx, who, sessionID, msg.Option)
	case ws.ActionSubmit:
		_, err = h.sessionService.Submit(ctx, who, sessionID)
	case ws.ActionNext:
		_, err = h.sessionService.Next(ctx, who, sessionID)
	case ws.ActionAbandon:
		_, err = h.sessionService.Abandon(ctx, who, sessionID)
	default:
		log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		conn.WriteError(string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action))
		return
	}

	if err != nil {
		_, code := classify(err, response.ErrSessionNotFound)
		if code == response.ErrInternal {
			log.Error().Err(err).Str("action", string(msg.Action)).Msg("Session action failed")
		}
		conn.WriteError(string(code), response.GetMessage(code))
	}
}
