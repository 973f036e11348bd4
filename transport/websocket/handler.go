package websocket

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/rockpaperscissors/game/engine"
	"github.com/wricardo/mcp-training/rockpaperscissors/game/session"
)

// Conn is the part of a WebSocket connection used by a Handler.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// State is the lifecycle stage of a Handler.
type State int

const (
	StateGreeting State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateGreeting:
		return "greeting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Handler runs one game session over one connection. Frames are processed
// strictly in order: the response to a frame is written before the next
// frame is read.
type Handler struct {
	id      string
	conn    Conn
	session *session.Session
	stats   *Stats
	log     *zap.Logger
	state   State

	// encode renders responses; tests replace it to fail.
	encode func(Response) ([]byte, error)
}

// NewHandler creates a handler owning a fresh session that draws opponent
// choices from opponent. stats may be nil.
func NewHandler(conn Conn, opponent engine.ChoiceSource, stats *Stats, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Handler{
		id:      id,
		conn:    conn,
		session: session.New(opponent),
		stats:   stats,
		log:     logger.With(zap.String("conn_id", id)),
		state:   StateGreeting,
		encode:  EncodeResponse,
	}
}

// ID returns the connection identifier used in logs.
func (h *Handler) ID() string {
	return h.id
}

// State returns the current lifecycle stage.
func (h *Handler) State() State {
	return h.state
}

// Serve greets the client and processes frames until the transport fails.
// The connection is always closed when Serve returns.
func (h *Handler) Serve() {
	h.stats.connectionOpened()
	defer func() {
		h.state = StateClosed
		if err := h.conn.Close(); err != nil {
			h.log.Debug("close connection", zap.Error(err))
		}
		h.stats.connectionClosed()
		h.log.Info("connection closed", zap.Uint32("score", h.session.Score()))
	}()

	if err := h.conn.WriteMessage(websocket.TextMessage, []byte(Greeting)); err != nil {
		h.log.Error("send greeting", zap.Error(err))
		return
	}
	h.state = StateActive
	h.log.Info("game started")

	for {
		messageType, data, err := h.conn.ReadMessage()
		if err != nil {
			h.logReadError(err)
			return
		}
		if messageType != websocket.TextMessage {
			h.log.Debug("ignoring non-text frame", zap.Int("type", messageType))
			continue
		}

		frame, err := h.encode(h.respond(data))
		if err != nil {
			h.log.Error("internal fault: closing connection", zap.Error(err))
			return
		}
		if err := h.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			h.log.Error("send response", zap.Error(err))
			return
		}
	}
}

// respond turns one text frame into the response for it.
func (h *Handler) respond(data []byte) Response {
	req, err := DecodeRequest(data)
	if err != nil {
		code := InternalServerError
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			code = decodeErr.Code
		}
		h.stats.requestRejected()
		h.log.Warn("rejected frame",
			zap.ByteString("frame", data),
			zap.Stringer("code", code),
			zap.Error(err),
		)
		return ErrorResponse{Code: code}
	}
	return h.handle(req)
}

// handle plays a decoded request against the session.
func (h *Handler) handle(req Request) Response {
	switch r := req.(type) {
	case PayloadRequest:
		outcome := h.session.PlayTurn(r.Choice)
		h.stats.turnPlayed()
		h.log.Debug("turn played",
			zap.Stringer("choice", r.Choice),
			zap.Stringer("outcome", outcome),
			zap.Uint32("score", h.session.Score()),
		)
		return ResultResponse{TurnResult: outcome, Game: h.session.Snapshot()}
	}

	h.log.Error("unhandled request", zap.String("type", fmt.Sprintf("%T", req)))
	return ErrorResponse{Code: InternalServerError}
}

func (h *Handler) logReadError(err error) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		h.log.Debug("client disconnected", zap.Error(err))
		return
	}
	h.log.Warn("read failed", zap.Error(err))
}
