package websocket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/mcp-training/rockpaperscissors/game/engine"
)

// Time allowed to send the close frame when a client disconnects.
const closeWait = time.Second

// ServerError is returned by Client.Play when the server answers with an
// error frame.
type ServerError struct {
	Code ErrorCode
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server rejected request: %s (%d)", e.Code, e.Code.StatusCode())
}

// Client is a game connection seen from the player's side. Round trips are
// serialized, so a Client may be shared between goroutines.
type Client struct {
	conn     *websocket.Conn
	greeting string
	mu       sync.Mutex
}

// Dial connects to a game server and waits for the greeting frame.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	_, greeting, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read greeting: %w", err)
	}

	return &Client{conn: conn, greeting: string(greeting)}, nil
}

// Greeting returns the first frame the server sent.
func (c *Client) Greeting() string {
	return c.greeting
}

// Play sends one turn and returns its result.
func (c *Client) Play(choice engine.Choice) (ResultResponse, error) {
	frame, err := EncodeRequest(PayloadRequest{Choice: choice})
	if err != nil {
		return ResultResponse{}, err
	}

	resp, err := c.RoundTrip(frame)
	if err != nil {
		return ResultResponse{}, err
	}

	switch r := resp.(type) {
	case ResultResponse:
		return r, nil
	case ErrorResponse:
		return ResultResponse{}, &ServerError{Code: r.Code}
	}
	return ResultResponse{}, fmt.Errorf("%w: unexpected response %T", ErrDecodeResponse, resp)
}

// RoundTrip sends a raw text frame and decodes the server's reply.
func (c *Client) RoundTrip(frame []byte) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return nil, fmt.Errorf("send frame: %w", err)
	}

	_, reply, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}

	return DecodeResponse(reply)
}

// Close sends a close frame and releases the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
	return c.conn.Close()
}
