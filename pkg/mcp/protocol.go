package mcp

import "encoding/json"

// ProtocolVersion is the protocol revision this server speaks.
const ProtocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// CodeNotInitialized rejects operations before a successful
	// initialize handshake.
	CodeNotInitialized = -32002
)

// Message is a JSON-RPC 2.0 envelope. One struct covers requests,
// notifications and responses; the predicates below tell them apart.
type Message struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (m *Message) IsRequest() bool {
	return len(m.Method) > 0 && m.ID != nil
}

func (m *Message) IsNotification() bool {
	return len(m.Method) > 0 && m.ID == nil
}

func (m *Message) IsResponse() bool {
	return len(m.Method) == 0 && (m.Result != nil || m.Error != nil)
}

func NewResponse(id any, result any) *Message {
	return &Message{Jsonrpc: "2.0", ID: id, Result: result}
}

func NewError(id any, code int, msg string) *Message {
	return &Message{Jsonrpc: "2.0", ID: id, Error: &RPCError{Code: code, Message: msg}}
}

func NewNotification(method string, params any) *Message {
	m := &Message{Jsonrpc: "2.0", Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err == nil {
			m.Params = raw
		}
	}
	return m
}
