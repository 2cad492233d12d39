package transport

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/viant/jsonrpc"
)

// Message is a partially decoded JSON-RPC frame, enough to route a raw body
// before full dispatch.
type Message struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	Id      json.RawMessage `json:"id"`
}

// DecodeMessage parses one JSON-RPC frame.
func DecodeMessage(data []byte) (*Message, error) {
	message := &Message{}
	if err := json.Unmarshal(data, message); err != nil {
		return nil, fmt.Errorf("malformed JSON-RPC message: %w", err)
	}
	if message.Method == "" {
		return nil, fmt.Errorf("malformed JSON-RPC message: missing method")
	}
	return message, nil
}

// IsNotification reports whether the frame carries no request id.
func (m *Message) IsNotification() bool {
	id := strings.TrimSpace(string(m.Id))
	return id == "" || id == "null"
}

// Request converts the frame into a request for dispatch.
func (m *Message) Request() *jsonrpc.Request {
	request := &jsonrpc.Request{Jsonrpc: m.Jsonrpc, Method: m.Method, Params: m.Params}
	var id interface{}
	if err := json.Unmarshal(m.Id, &id); err == nil {
		if number, ok := id.(float64); ok && number == math.Trunc(number) {
			request.Id = int(number)
		} else {
			request.Id = id
		}
	}
	return request
}

// Notification converts the frame into a notification.
func (m *Message) Notification() *jsonrpc.Notification {
	return &jsonrpc.Notification{Method: m.Method, Params: m.Params}
}

// EncodeResponse marshals a response with the protocol envelope.
func EncodeResponse(response *jsonrpc.Response) ([]byte, error) {
	envelope := struct {
		Jsonrpc string          `json:"jsonrpc"`
		Id      interface{}     `json:"id"`
		Result  json.RawMessage `json:"result,omitempty"`
		Error   *jsonrpc.Error  `json:"error,omitempty"`
	}{Jsonrpc: jsonrpc.Version, Id: response.Id, Result: response.Result, Error: response.Error}
	return json.Marshal(&envelope)
}

// EncodeNotification marshals a notification with the protocol envelope.
func EncodeNotification(notification *jsonrpc.Notification) ([]byte, error) {
	envelope := struct {
		Jsonrpc string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}{Jsonrpc: jsonrpc.Version, Method: notification.Method, Params: notification.Params}
	return json.Marshal(&envelope)
}
