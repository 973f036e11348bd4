package websocket

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/wricardo/mcp-training/rockpaperscissors/game/engine"
	"github.com/wricardo/mcp-training/rockpaperscissors/game/session"
)

// Greeting is the first frame sent to every client.
const Greeting = "Hi!"

const (
	payloadTag = "Payload"
	resultTag  = "Result"
	errorTag   = "Error"
)

var (
	ErrEncodeResponse = errors.New("encode response")
	ErrDecodeResponse = errors.New("decode response")
	ErrEncodeRequest  = errors.New("encode request")

	errNotText = errors.New("frame is not valid UTF-8 text")
)

// ErrorCode classifies a failed request. The numeric value is the status
// code reported to callers that need one.
type ErrorCode int

const (
	InvalidRequest      ErrorCode = 400
	InternalServerError ErrorCode = 500
)

func (c ErrorCode) String() string {
	switch c {
	case InvalidRequest:
		return "InvalidRequest"
	case InternalServerError:
		return "InternalServerError"
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// StatusCode returns the numeric tag of the code.
func (c ErrorCode) StatusCode() int {
	return int(c)
}

// MarshalText implements encoding.TextMarshaler.
func (c ErrorCode) MarshalText() ([]byte, error) {
	switch c {
	case InvalidRequest, InternalServerError:
		return []byte(c.String()), nil
	}
	return nil, fmt.Errorf("unknown error code %d", int(c))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ErrorCode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "InvalidRequest":
		*c = InvalidRequest
	case "InternalServerError":
		*c = InternalServerError
	default:
		return fmt.Errorf("unknown error code %q", string(text))
	}
	return nil
}

// DecodeError is returned when an incoming frame cannot be turned into a
// Request. Code is the value reported back to the client.
type DecodeError struct {
	Code ErrorCode
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Request is a message sent by a client. PayloadRequest is the only variant.
type Request interface {
	isRequest()
}

// PayloadRequest carries the player's choice for one turn.
type PayloadRequest struct {
	Choice engine.Choice
}

func (PayloadRequest) isRequest() {}

// Response is a message sent to a client: either a ResultResponse or an
// ErrorResponse.
type Response interface {
	isResponse()
}

// ResultResponse reports the outcome of a turn and the session state after
// it was applied.
type ResultResponse struct {
	TurnResult engine.Outcome   `json:"turn_result"`
	Game       session.Snapshot `json:"game"`
}

func (ResultResponse) isResponse() {}

// ErrorResponse reports a request that could not be processed.
type ErrorResponse struct {
	Code ErrorCode
}

func (ErrorResponse) isResponse() {}

// DecodeRequest parses a client frame. Frames that are not UTF-8 fail with
// InternalServerError; anything other than {"Payload":"<Choice>"} fails with
// InvalidRequest.
func DecodeRequest(data []byte) (Request, error) {
	if !utf8.Valid(data) {
		return nil, &DecodeError{Code: InternalServerError, Err: errNotText}
	}

	tag, body, err := splitEnvelope(data)
	if err != nil {
		return nil, &DecodeError{Code: InvalidRequest, Err: err}
	}

	switch tag {
	case payloadTag:
		var choice engine.Choice
		if err := json.Unmarshal(body, &choice); err != nil {
			return nil, &DecodeError{Code: InvalidRequest, Err: fmt.Errorf("payload: %w", err)}
		}
		if !choice.Valid() {
			return nil, &DecodeError{Code: InvalidRequest, Err: fmt.Errorf("payload: %w: %s", engine.ErrInvalidChoice, body)}
		}
		return PayloadRequest{Choice: choice}, nil
	}

	return nil, &DecodeError{Code: InvalidRequest, Err: fmt.Errorf("unknown request tag %q", tag)}
}

// EncodeResponse renders a response frame.
func EncodeResponse(resp Response) ([]byte, error) {
	var envelope any
	switch r := resp.(type) {
	case ResultResponse:
		envelope = map[string]ResultResponse{resultTag: r}
	case ErrorResponse:
		envelope = map[string]ErrorCode{errorTag: r.Code}
	default:
		return nil, fmt.Errorf("%w: unsupported response %T", ErrEncodeResponse, resp)
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeResponse, err)
	}
	return data, nil
}

// EncodeRequest renders a request frame as a client would send it.
func EncodeRequest(req Request) ([]byte, error) {
	r, ok := req.(PayloadRequest)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported request %T", ErrEncodeRequest, req)
	}

	data, err := json.Marshal(map[string]engine.Choice{payloadTag: r.Choice})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeRequest, err)
	}
	return data, nil
}

// DecodeResponse parses a server response frame.
func DecodeResponse(data []byte) (Response, error) {
	tag, body, err := splitEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeResponse, err)
	}

	switch tag {
	case resultTag:
		var result ResultResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("%w: result: %v", ErrDecodeResponse, err)
		}
		if !result.TurnResult.Valid() {
			return nil, fmt.Errorf("%w: result: missing turn_result", ErrDecodeResponse)
		}
		return result, nil
	case errorTag:
		var code ErrorCode
		if err := json.Unmarshal(body, &code); err != nil {
			return nil, fmt.Errorf("%w: error: %v", ErrDecodeResponse, err)
		}
		return ErrorResponse{Code: code}, nil
	}

	return nil, fmt.Errorf("%w: unknown response tag %q", ErrDecodeResponse, tag)
}

// splitEnvelope unwraps an externally tagged value: a JSON object with
// exactly one key. Repeated keys are rejected rather than collapsed.
func splitEnvelope(data []byte) (string, json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return "", nil, fmt.Errorf("malformed envelope: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", nil, errors.New("malformed envelope: not a JSON object")
	}

	var (
		tag  string
		body json.RawMessage
		tags int
	)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return "", nil, fmt.Errorf("malformed envelope: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return "", nil, fmt.Errorf("malformed envelope: unexpected %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return "", nil, fmt.Errorf("malformed envelope: %w", err)
		}

		tags++
		if tags > 1 {
			return "", nil, fmt.Errorf("envelope must have exactly one tag, got another %q", key)
		}
		tag, body = key, value
	}

	if _, err := dec.Token(); err != nil {
		return "", nil, fmt.Errorf("malformed envelope: %w", err)
	}
	if tags != 1 {
		return "", nil, errors.New("envelope must have exactly one tag, got 0")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "", nil, errors.New("malformed envelope: trailing data")
	}
	return tag, body, nil
}
