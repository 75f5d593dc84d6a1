package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var nopLogger = zap.NewNop()

// SessionState is the lifecycle of one protocol session.
type SessionState int

const (
	StateUninitialized SessionState = iota
	StateReady
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session carries per-connection protocol state: the handshake state
// machine and what the transport knows about the caller.
type Session struct {
	mu    sync.Mutex
	state SessionState

	// callerIP is the caller address as seen by the transport. Empty
	// when the transport has no network peer (stdio).
	callerIP string
}

func NewSession() *Session {
	return &Session{}
}

// SetCallerIP records the transport-observed caller address.
func (s *Session) SetCallerIP(ip string) {
	s.mu.Lock()
	s.callerIP = ip
	s.mu.Unlock()
}

func (s *Session) CallerIP() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callerIP, len(s.callerIP) > 0
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// initialize moves Uninitialized to Ready. Re-initializing a Ready
// session is tolerated; a Closed session stays closed.
func (s *Session) initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return errors.New("session is closed")
	}
	s.state = StateReady
	return nil
}

func (s *Session) ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateReady
}

// Close moves the session to Closed. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
}

type EngineOpts struct {
	// Registry holds the tool and resource catalogs. Required.
	Registry *Registry

	// ServerName and ServerVersion are reported by initialize.
	ServerName    string
	ServerVersion string

	// Logger is the *zap.Logger for this Engine.
	// A nil Logger will disable logging.
	Logger *zap.Logger
}

func (opts *EngineOpts) Init() error {
	if opts.Registry == nil {
		return errors.New("nil registry")
	}
	if len(opts.ServerName) == 0 {
		opts.ServerName = "ipgeolocation"
	}
	if len(opts.ServerVersion) == 0 {
		opts.ServerVersion = "dev"
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger
	}
	return nil
}

// Engine dispatches protocol messages. It holds no per-session state
// itself, so one Engine serves every transport concurrently.
type Engine struct {
	opts EngineOpts
}

func NewEngine(opts EngineOpts) (*Engine, error) {
	if err := opts.Init(); err != nil {
		return nil, err
	}
	return &Engine{opts: opts}, nil
}

// HandleMessage dispatches one envelope against sess. The returned
// message is nil for notifications. A nil msg (the JSON literal null
// decodes to one) is rejected, never dereferenced.
func (e *Engine) HandleMessage(ctx context.Context, sess *Session, msg *Message) *Message {
	if msg == nil {
		return NewError(nil, CodeInvalidRequest, "invalid request")
	}
	if msg.Jsonrpc != "2.0" || len(msg.Method) == 0 {
		if msg.IsNotification() {
			return nil
		}
		return NewError(msg.ID, CodeInvalidRequest, "invalid request")
	}

	resp := e.dispatch(ctx, sess, msg)
	if msg.IsNotification() {
		// Notifications never produce output, even on failure.
		return nil
	}
	return resp
}

// HandleBatch dispatches an ordered batch against one session. Entries
// are independent: a failure produces its own error response and never
// aborts siblings. Response order mirrors request order, with
// notifications contributing nothing.
func (e *Engine) HandleBatch(ctx context.Context, sess *Session, msgs []*Message) []*Message {
	responses := make([]*Message, 0, len(msgs))
	for _, msg := range msgs {
		if resp := e.HandleMessage(ctx, sess, msg); resp != nil {
			responses = append(responses, resp)
		}
	}
	return responses
}

// HandleRaw parses one JSON value, either a single envelope or a
// batch, and dispatches it. ok is false when nothing should be written
// back (a notification, or an empty batch of notifications).
func (e *Engine) HandleRaw(ctx context.Context, sess *Session, raw []byte) (out []byte, ok bool) {
	trimmed := firstByte(raw)
	if trimmed == '[' {
		var batch []*Message
		if err := json.Unmarshal(raw, &batch); err != nil {
			return mustMarshal(NewError(nil, CodeParseError, "parse error")), true
		}
		if len(batch) == 0 {
			return mustMarshal(NewError(nil, CodeInvalidRequest, "empty batch")), true
		}
		responses := e.HandleBatch(ctx, sess, batch)
		if len(responses) == 0 {
			return nil, false
		}
		return mustMarshal(responses), true
	}

	msg := new(Message)
	if err := json.Unmarshal(raw, &msg); err != nil {
		return mustMarshal(NewError(nil, CodeParseError, "parse error")), true
	}
	resp := e.HandleMessage(ctx, sess, msg)
	if resp == nil {
		return nil, false
	}
	return mustMarshal(resp), true
}

func (e *Engine) dispatch(ctx context.Context, sess *Session, msg *Message) *Message {
	switch msg.Method {
	case "initialize":
		return e.handleInitialize(sess, msg)
	case "initialized", "notifications/initialized":
		// Handshake acknowledgment, no state change needed.
		if msg.ID != nil {
			return NewResponse(msg.ID, map[string]any{})
		}
		return nil
	case "ping":
		return NewResponse(msg.ID, map[string]any{})
	case "tools/list":
		if !sess.ready() {
			return NewError(msg.ID, CodeNotInitialized, "not initialized")
		}
		return NewResponse(msg.ID, map[string]any{"tools": e.opts.Registry.Tools()})
	case "tools/call":
		if !sess.ready() {
			return NewError(msg.ID, CodeNotInitialized, "not initialized")
		}
		return e.handleToolCall(ctx, sess, msg)
	case "resources/list":
		if !sess.ready() {
			return NewError(msg.ID, CodeNotInitialized, "not initialized")
		}
		return NewResponse(msg.ID, map[string]any{"resources": e.opts.Registry.Resources()})
	case "resources/read":
		if !sess.ready() {
			return NewError(msg.ID, CodeNotInitialized, "not initialized")
		}
		return e.handleResourceRead(msg)
	default:
		return NewError(msg.ID, CodeMethodNotFound, fmt.Sprintf("method not found: %s", msg.Method))
	}
}

func (e *Engine) handleInitialize(sess *Session, msg *Message) *Message {
	if err := sess.initialize(); err != nil {
		return NewError(msg.ID, CodeInvalidRequest, err.Error())
	}
	return NewResponse(msg.ID, map[string]any{
		"protocolVersion": ProtocolVersion,
		"serverInfo": map[string]string{
			"name":    e.opts.ServerName,
			"version": e.opts.ServerVersion,
		},
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
		},
	})
}

func (e *Engine) handleToolCall(ctx context.Context, sess *Session, msg *Message) *Message {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return NewError(msg.ID, CodeInvalidParams, "invalid params")
	}

	tool, ok := e.opts.Registry.Tool(params.Name)
	if !ok {
		return NewError(msg.ID, CodeInvalidParams, fmt.Sprintf("unknown tool: %s", params.Name))
	}

	args := params.Arguments
	if args == nil {
		args = map[string]any{}
	}
	if err := ValidateArgs(tool.InputSchema, args); err != nil {
		return NewError(msg.ID, CodeInvalidParams, err.Error())
	}

	e.opts.Logger.Debug("tool call", zap.String("tool", params.Name))
	return NewResponse(msg.ID, tool.Handler(ctx, sess, args))
}

func (e *Engine) handleResourceRead(msg *Message) *Message {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return NewError(msg.ID, CodeInvalidParams, "invalid params")
	}

	res, ok := e.opts.Registry.Resource(params.URI)
	if !ok {
		return NewError(msg.ID, CodeInvalidParams, fmt.Sprintf("unknown resource: %s", params.URI))
	}
	return NewResponse(msg.ID, map[string]any{
		"contents": []map[string]any{{
			"uri":      res.URI,
			"mimeType": res.MIMEType,
			"text":     res.Read(),
		}},
	})
}

func firstByte(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return c
	}
	return 0
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// Responses are built from marshalable values only.
		panic(err)
	}
	return b
}
