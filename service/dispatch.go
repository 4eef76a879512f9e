package service

import (
	"context"
	"encoding/json"

	"github.com/cmyser/lspcore/jsonrpc"
)

// methodEntry is one row of the dispatch table: spec.md §9 "a table of
// (method_name, fn(&Handler, Value) -> Future<Outgoing>)". notify is set
// for notifications (no result, error is logged and dropped per §4.E.2);
// request is set for requests (result or error becomes the Response).
type methodEntry struct {
	notify  func(ctx context.Context, h Handler, raw json.RawMessage) error
	request func(ctx context.Context, h Handler, token CancelToken, raw json.RawMessage) (interface{}, error)
}

func (e methodEntry) isRequest() bool { return e.request != nil }

func decodeParams(raw json.RawMessage, target interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, target)
}

// invalidParams wraps a params-decode failure as the wire error code a
// handler would report for bad params, spec.md §7.
func invalidParams(err error) error {
	return jsonrpc.NewErrorf(jsonrpc.CodeInvalidParams, "invalid params: %v", err)
}

