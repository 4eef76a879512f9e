package jsonrpc

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

const Version = "2.0"

// Request is a JSON-RPC request: a method call that expects a Response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      Id              `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Notification is a JSON-RPC notification: a method call with no id and no
// Response.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response carries exactly one of Result or Error, never both — spec.md
// §4.B.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      Id              `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

func NewRequest(id Id, method string, params interface{}) (Request, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return Request{}, err
	}
	return Request{JSONRPC: Version, ID: id, Method: method, Params: raw}, nil
}

func NewNotification(method string, params interface{}) (Notification, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return Notification{}, err
	}
	return Notification{JSONRPC: Version, Method: method, Params: raw}, nil
}

func NewResultResponse(id Id, result interface{}) (Response, error) {
	raw, err := marshalParams(result)
	if err != nil {
		return Response{}, err
	}
	if raw == nil {
		raw = json.RawMessage("null")
	}
	return Response{JSONRPC: Version, ID: id, Result: raw}, nil
}

func NewErrorResponse(id Id, err *Error) Response {
	return Response{JSONRPC: Version, ID: id, Error: err}
}

func marshalParams(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}

// MessageKind discriminates a decoded frame body, spec.md §3 "Incoming
// message".
type MessageKind int

const (
	KindInvalid MessageKind = iota
	KindRequest
	KindNotification
	KindResponse
)

// Incoming is the tagged union over Request | Notification | Response that
// a dispatcher receives off the wire.
type Incoming struct {
	Kind         MessageKind
	Request      Request
	Notification Notification
	Response     Response
}

// Outgoing is the tagged union a driver writes back onto the wire.
type Outgoing struct {
	Kind         MessageKind
	Request      Request
	Notification Notification
	Response     Response
}

func (o Outgoing) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case KindRequest:
		return json.Marshal(o.Request)
	case KindNotification:
		return json.Marshal(o.Notification)
	case KindResponse:
		return json.Marshal(o.Response)
	default:
		return nil, fmt.Errorf("jsonrpc: cannot marshal outgoing message of kind %d", o.Kind)
	}
}

func OutgoingResponse(r Response) Outgoing {
	return Outgoing{Kind: KindResponse, Response: r}
}

func OutgoingRequest(r Request) Outgoing {
	return Outgoing{Kind: KindRequest, Request: r}
}

func OutgoingNotification(n Notification) Outgoing {
	return Outgoing{Kind: KindNotification, Notification: n}
}

// DecodeIncoming classifies a raw JSON object by field presence, per
// spec.md §4.B: {method,id} -> Request, {method} alone -> Notification,
// {id, result|error} -> Response. gjson lets us answer "is this field
// present" without committing to one struct shape up front — grounded on
// the field-presence discriminator the teacher's single LSPMessage struct
// performs implicitly via omitempty.
func DecodeIncoming(raw []byte) (Incoming, error) {
	if !gjson.ValidBytes(raw) {
		return Incoming{}, NewError(CodeParseError, "invalid JSON")
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return Incoming{}, NewError(CodeInvalidRequest, "message is not a JSON object")
	}

	hasMethod := parsed.Get("method").Exists()
	hasID := parsed.Get("id").Exists()
	hasResult := parsed.Get("result").Exists()
	hasError := parsed.Get("error").Exists()

	if hasResult && hasError {
		return Incoming{}, NewError(CodeInvalidRequest, "message has both result and error")
	}

	switch {
	case hasMethod && hasID:
		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return Incoming{}, NewError(CodeInvalidRequest, err.Error())
		}
		return Incoming{Kind: KindRequest, Request: req}, nil
	case hasMethod:
		var note Notification
		if err := json.Unmarshal(raw, &note); err != nil {
			return Incoming{}, NewError(CodeInvalidRequest, err.Error())
		}
		return Incoming{Kind: KindNotification, Notification: note}, nil
	case hasID:
		// id without method: a Response. Per spec.md §4.B, result may be
		// null or entirely absent — both mean success-with-null.
		var resp Response
		if err := json.Unmarshal(raw, &resp); err != nil {
			return Incoming{}, NewError(CodeInvalidRequest, err.Error())
		}
		if !hasResult && !hasError {
			resp.Result = json.RawMessage("null")
		}
		return Incoming{Kind: KindResponse, Response: resp}, nil
	default:
		return Incoming{}, NewError(CodeInvalidRequest, "message matches neither request, notification, nor response shape")
	}
}

// SniffID best-effort extracts an Id from a raw JSON object without
// validating the rest of its shape, so a schema-valid-JSON-but-invalid
// JSON-RPC message can still be answered with a correlated error response
// per spec.md §7 ("frame-level errors become responses only when the
// offending message had a parseable id").
func SniffID(raw []byte) (Id, bool) {
	if !gjson.ValidBytes(raw) {
		return Id{}, false
	}
	result := gjson.GetBytes(raw, "id")
	if !result.Exists() {
		return Id{}, false
	}
	switch result.Type {
	case gjson.Number:
		return NewNumberId(result.Int()), true
	case gjson.String:
		return NewStringId(result.Str), true
	case gjson.Null:
		return NullId, true
	default:
		return Id{}, false
	}
}
