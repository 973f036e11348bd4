package websocket

import (
	"errors"
	"testing"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wricardo/mcp-training/rockpaperscissors/game/engine"
)

type frame struct {
	messageType int
	data        []byte
}

// fakeConn replays queued frames and then reports a normal close. Once
// failAfter frames have been written, writes fail with writeErr.
type fakeConn struct {
	incoming  []frame
	written   []frame
	writeErr  error
	failAfter int
	closed    bool
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	if len(c.incoming) == 0 {
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
	next := c.incoming[0]
	c.incoming = c.incoming[1:]
	return next.messageType, next.data, nil
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	if c.writeErr != nil && len(c.written) >= c.failAfter {
		return c.writeErr
	}
	c.written = append(c.written, frame{messageType, append([]byte(nil), data...)})
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func text(s string) frame {
	return frame{websocket.TextMessage, []byte(s)}
}

func writtenText(t *testing.T, conn *fakeConn) []string {
	t.Helper()
	out := make([]string, 0, len(conn.written))
	for _, f := range conn.written {
		if f.messageType != websocket.TextMessage {
			t.Fatalf("wrote message type %d, want text", f.messageType)
		}
		out = append(out, string(f.data))
	}
	return out
}

func TestHandlerGreetsFirst(t *testing.T) {
	conn := &fakeConn{}
	h := NewHandler(conn, engine.NewSequenceSource(engine.Rock), nil, nil)

	if h.State() != StateGreeting {
		t.Errorf("initial state = %v, want %v", h.State(), StateGreeting)
	}

	h.Serve()

	got := writtenText(t, conn)
	if len(got) != 1 || got[0] != Greeting {
		t.Errorf("written = %q, want only the greeting", got)
	}
	if !conn.closed {
		t.Error("connection was not closed")
	}
	if h.State() != StateClosed {
		t.Errorf("final state = %v, want %v", h.State(), StateClosed)
	}
}

func TestHandlerPlaysTurnsInOrder(t *testing.T) {
	conn := &fakeConn{incoming: []frame{
		text(`{"Payload":"Rock"}`),
		text(`{"Payload":"Rock"}`),
		text(`{"Payload":"Rock"}`),
	}}
	// Paper beats Rock twice, then Scissors loses to Rock.
	opponent := engine.NewSequenceSource(engine.Paper, engine.Paper, engine.Scissors)
	h := NewHandler(conn, opponent, nil, nil)

	h.Serve()

	want := []string{
		Greeting,
		`{"Result":{"turn_result":"Lose","game":{"score":0}}}`,
		`{"Result":{"turn_result":"Lose","game":{"score":0}}}`,
		`{"Result":{"turn_result":"Win","game":{"score":3}}}`,
	}
	got := writtenText(t, conn)
	if len(got) != len(want) {
		t.Fatalf("written %d frames, want %d: %q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestHandlerRejectedFrameKeepsConnection(t *testing.T) {
	conn := &fakeConn{incoming: []frame{
		text(`{"Payload":"Lizard"}`),
		text("\xff"),
		text(`{"Payload":"Paper"}`),
	}}
	stats := NewStats()
	h := NewHandler(conn, engine.NewSequenceSource(engine.Rock), stats, nil)

	h.Serve()

	want := []string{
		Greeting,
		`{"Error":"InvalidRequest"}`,
		`{"Error":"InternalServerError"}`,
		`{"Result":{"turn_result":"Win","game":{"score":3}}}`,
	}
	got := writtenText(t, conn)
	if len(got) != len(want) {
		t.Fatalf("written %d frames, want %d: %q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %s, want %s", i, got[i], want[i])
		}
	}

	snap := stats.Snapshot()
	if snap.RejectedRequests != 2 {
		t.Errorf("RejectedRequests = %d, want 2", snap.RejectedRequests)
	}
	if snap.TurnsPlayed != 1 {
		t.Errorf("TurnsPlayed = %d, want 1", snap.TurnsPlayed)
	}
}

func TestHandlerIgnoresBinaryFrames(t *testing.T) {
	conn := &fakeConn{incoming: []frame{
		{websocket.BinaryMessage, []byte(`{"Payload":"Rock"}`)},
		text(`{"Payload":"Rock"}`),
	}}
	h := NewHandler(conn, engine.NewSequenceSource(engine.Rock), nil, nil)

	h.Serve()

	got := writtenText(t, conn)
	if len(got) != 2 {
		t.Fatalf("written %d frames, want 2: %q", len(got), got)
	}
	if want := `{"Result":{"turn_result":"Draw","game":{"score":0}}}`; got[1] != want {
		t.Errorf("response = %s, want %s", got[1], want)
	}
}

func TestHandlerGreetingFailure(t *testing.T) {
	conn := &fakeConn{
		incoming: []frame{text(`{"Payload":"Rock"}`)},
		writeErr: errors.New("broken pipe"),
	}
	stats := NewStats()
	h := NewHandler(conn, engine.NewSequenceSource(engine.Rock), stats, nil)

	h.Serve()

	if !conn.closed {
		t.Error("connection was not closed")
	}
	if len(conn.incoming) != 1 {
		t.Error("handler read frames after failing to greet")
	}
	snap := stats.Snapshot()
	if snap.ActiveConnections != 0 || snap.TotalConnections != 1 {
		t.Errorf("stats = %+v, want 0 active and 1 total", snap)
	}
}

func TestHandlerResponseWriteFailure(t *testing.T) {
	conn := &fakeConn{
		incoming: []frame{
			text(`{"Payload":"Rock"}`),
			text(`{"Payload":"Paper"}`),
			text(`{"Payload":"Scissors"}`),
		},
		writeErr:  errors.New("broken pipe"),
		failAfter: 1,
	}
	stats := NewStats()
	h := NewHandler(conn, engine.NewSequenceSource(engine.Scissors), stats, nil)

	h.Serve()

	if got := writtenText(t, conn); len(got) != 1 || got[0] != Greeting {
		t.Errorf("written = %q, want only the greeting", got)
	}
	if !conn.closed {
		t.Error("connection was not closed")
	}
	if len(conn.incoming) != 2 {
		t.Errorf("%d frames left unread, want 2", len(conn.incoming))
	}
	if h.State() != StateClosed {
		t.Errorf("final state = %v, want %v", h.State(), StateClosed)
	}
	snap := stats.Snapshot()
	if snap.TurnsPlayed != 1 || snap.ActiveConnections != 0 {
		t.Errorf("stats = %+v, want 1 turn and 0 active", snap)
	}
}

func TestHandlerEncodeFailureClosesConnection(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	conn := &fakeConn{incoming: []frame{
		text(`{"Payload":"Rock"}`),
		text(`{"Payload":"Rock"}`),
	}}
	h := NewHandler(conn, engine.NewSequenceSource(engine.Rock), nil, zap.New(core))
	h.encode = func(Response) ([]byte, error) {
		return nil, ErrEncodeResponse
	}

	h.Serve()

	if got := writtenText(t, conn); len(got) != 1 {
		t.Errorf("written = %q, want only the greeting", got)
	}
	if !conn.closed {
		t.Error("connection was not closed")
	}
	if len(conn.incoming) != 1 {
		t.Errorf("%d frames left unread, want 1", len(conn.incoming))
	}

	entries := logs.FilterMessageSnippet("internal fault").All()
	if len(entries) != 1 || entries[0].Level != zapcore.ErrorLevel {
		t.Errorf("internal fault entries = %+v, want one at error level", entries)
	}
}

// unknownRequest is a Request variant the handler has no case for.
type unknownRequest struct{}

func (unknownRequest) isRequest() {}

func TestHandlerUnhandledRequest(t *testing.T) {
	h := NewHandler(&fakeConn{}, engine.NewSequenceSource(engine.Rock), nil, nil)

	got := h.handle(unknownRequest{})
	if want := (ErrorResponse{Code: InternalServerError}); got != want {
		t.Errorf("handle() = %+v, want %+v", got, want)
	}
	if h.session.Score() != 0 {
		t.Errorf("score = %d, want 0", h.session.Score())
	}
}

func TestHandlerLogsDisconnect(t *testing.T) {
	tests := []struct {
		name      string
		readErr   error
		wantLevel zapcore.Level
	}{
		{"normal close", &websocket.CloseError{Code: websocket.CloseNormalClosure}, zapcore.DebugLevel},
		{"going away", &websocket.CloseError{Code: websocket.CloseGoingAway}, zapcore.DebugLevel},
		{"abnormal close", &websocket.CloseError{Code: websocket.CloseAbnormalClosure}, zapcore.WarnLevel},
		{"transport error", errors.New("connection reset"), zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			conn := &errConn{err: tt.readErr}
			h := NewHandler(conn, engine.NewSequenceSource(engine.Rock), nil, zap.New(core))

			h.Serve()

			entries := logs.FilterMessageSnippet("disconnected").All()
			entries = append(entries, logs.FilterMessage("read failed").All()...)
			if len(entries) != 1 {
				t.Fatalf("got %d disconnect entries, want 1", len(entries))
			}
			if entries[0].Level != tt.wantLevel {
				t.Errorf("level = %v, want %v", entries[0].Level, tt.wantLevel)
			}
		})
	}
}

func TestHandlerIDsAreUnique(t *testing.T) {
	a := NewHandler(&fakeConn{}, engine.NewSequenceSource(engine.Rock), nil, nil)
	b := NewHandler(&fakeConn{}, engine.NewSequenceSource(engine.Rock), nil, nil)

	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("IDs = %q, %q; want distinct non-empty", a.ID(), b.ID())
	}
}

// errConn fails every read with err.
type errConn struct {
	err error
}

func (c *errConn) ReadMessage() (int, []byte, error) { return 0, nil, c.err }
func (c *errConn) WriteMessage(int, []byte) error { return nil }
func (c *errConn) Close() error { return nil }
