package wire

import (
	"bytes"
	"encoding/json"
)

// Message type discriminators. request is the only inbound type the client
// acts on; anything else is ignored for forward compatibility.
const (
	TypeRegister = "register"
	TypePing     = "ping"
	TypeResponse = "response"
	TypeError    = "error"
	TypeRequest  = "request"
)

// RelayErrorCode is the fixed code reported in every error message,
// regardless of the underlying failure.
const RelayErrorCode = 50000001

// CannedHTML is the fixed result payload sent back for every completed relay
// task. The platform's protocol supplies this value pre-encoded; the client
// reports it as-is instead of deriving anything from the fetched body.
const CannedHTML = "JTdCJTIyY291bnRyeSUyMiUzQSUyMklEJTIyJTJDJTIyYXNuJTIyJTNBJTdCJTIyYXNudW0lMjIlM0E5MzQxJTJDJTIyb3JnX25hbWUlMjIlM0ElMjJQVCUyMElORE9ORVNJQSUyMENPTU5FVFMlMjBQTFVTJTIyJTdEJTJDJTIyZ2VvJTIyJTNBJTdCJTIyY2l0eSUyMiUzQSUyMiUyMiUyQyUyMnJlZ2lvbiUyMiUzQSUyMiUyMiUyQyUyMnJlZ2lvbl9uYW1lJTIyJTNBJTIyJTIyJTJDJTIycG9zdGFsX2NvZGUlMjIlM0ElMjIlMjIlMkMlMjJsYXRpdHVkZSUyMiUzQS02LjE3NSUyQyUyMmxvbmdpdHVkZSUyMiUzQTEwNi44Mjg2JTJDJTIydHolMjIlM0ElMjJBc2lhJTJGSmFrYXJ0YSUyMiU3RCU3RA=="

// Register announces a session's identity right after the channel opens.
type Register struct {
	Type string `json:"type"`
	User string `json:"user"`
	Dev  string `json:"dev"`
}

// NewRegister builds a register message for the given user UUID and device id.
func NewRegister(userID, deviceID string) Register {
	return Register{Type: TypeRegister, User: userID, Dev: deviceID}
}

// Ping is the heartbeat message sent on every tick while the channel is open.
type Ping struct {
	Type string `json:"type"`
}

// NewPing builds a heartbeat message.
func NewPing() Ping { return Ping{Type: TypePing} }

// Result is the payload envelope inside a Response.
type Result struct {
	Parsed    string `json:"parsed"`
	HTML      string `json:"html"`
	RawStatus int    `json:"rawStatus"`
}

// Response reports a completed relay task back to the server.
type Response struct {
	Type   string `json:"type"`
	TaskID string `json:"taskid"`
	Result Result `json:"result"`
}

// NewResponse builds a response message carrying the canned result payload
// and the HTTP status observed while executing the task.
func NewResponse(taskID string, rawStatus int) Response {
	return Response{
		Type:   TypeResponse,
		TaskID: taskID,
		Result: Result{Parsed: "", HTML: CannedHTML, RawStatus: rawStatus},
	}
}

// Error reports a failed relay task back to the server.
type Error struct {
	Type      string `json:"type"`
	TaskID    string `json:"taskid"`
	Error     string `json:"error"`
	ErrorCode int    `json:"errorCode"`
	RawStatus int    `json:"rawStatus"`
}

// NewError builds an error message for the given task. The code and status
// are fixed by the protocol; only the message text varies.
func NewError(taskID, msg string) Error {
	return Error{
		Type:      TypeError,
		TaskID:    taskID,
		Error:     msg,
		ErrorCode: RelayErrorCode,
		RawStatus: 500,
	}
}

// Request is the inbound relay task payload.
type Request struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
	Timeout int               `json:"timeout"` // milliseconds
}

// Inbound is the envelope every received frame is decoded into. Data is only
// populated for request messages.
type Inbound struct {
	Type   string  `json:"type"`
	TaskID string  `json:"taskid"`
	Data   Request `json:"data"`
}

// Decode parses one inbound frame. Frames that are not JSON objects return
// ok=false so the caller can log and drop them without closing the channel.
func Decode(frame []byte) (Inbound, bool) {
	trimmed := bytes.TrimSpace(frame)
	if len(trimmed) == 0 || trimmed[0] != '{' || trimmed[len(trimmed)-1] != '}' {
		return Inbound{}, false
	}
	var in Inbound
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return Inbound{}, false
	}
	return in, true
}
