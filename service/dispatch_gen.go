// Dispatch table for the Handler interface in handler.go. The entries are
// maintained by hand: a method added to Handler also needs its row here.
// cmd/lspgen checks that every Handler method carries a //lspgen:method
// annotation; it does not generate these entries.

package service

import (
	"context"
	"encoding/json"

	"go.lsp.dev/protocol"
)

var dispatchTable = map[string]methodEntry{
	"initialize": {request: func(ctx context.Context, h Handler, token CancelToken, raw json.RawMessage) (interface{}, error) {
		var p protocol.InitializeParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, invalidParams(err)
		}
		return h.Initialize(ctx, &p)
	}},
	"initialized": {notify: func(ctx context.Context, h Handler, raw json.RawMessage) error {
		var p protocol.InitializedParams
		if err := decodeParams(raw, &p); err != nil {
			return err
		}
		return h.Initialized(ctx, &p)
	}},
	"shutdown": {request: func(ctx context.Context, h Handler, token CancelToken, raw json.RawMessage) (interface{}, error) {
		return nil, h.Shutdown(ctx)
	}},
	"exit": {notify: func(ctx context.Context, h Handler, raw json.RawMessage) error {
		return h.Exit(ctx)
	}},

	"textDocument/didOpen": {notify: func(ctx context.Context, h Handler, raw json.RawMessage) error {
		var p protocol.DidOpenTextDocumentParams
		if err := decodeParams(raw, &p); err != nil {
			return err
		}
		return h.DidOpen(ctx, &p)
	}},
	"textDocument/didChange": {notify: func(ctx context.Context, h Handler, raw json.RawMessage) error {
		var p protocol.DidChangeTextDocumentParams
		if err := decodeParams(raw, &p); err != nil {
			return err
		}
		return h.DidChange(ctx, &p)
	}},
	"textDocument/didClose": {notify: func(ctx context.Context, h Handler, raw json.RawMessage) error {
		var p protocol.DidCloseTextDocumentParams
		if err := decodeParams(raw, &p); err != nil {
			return err
		}
		return h.DidClose(ctx, &p)
	}},
	"textDocument/didSave": {notify: func(ctx context.Context, h Handler, raw json.RawMessage) error {
		var p protocol.DidSaveTextDocumentParams
		if err := decodeParams(raw, &p); err != nil {
			return err
		}
		return h.DidSave(ctx, &p)
	}},
	"workspace/didChangeWatchedFiles": {notify: func(ctx context.Context, h Handler, raw json.RawMessage) error {
		var p protocol.DidChangeWatchedFilesParams
		if err := decodeParams(raw, &p); err != nil {
			return err
		}
		return h.DidChangeWatchedFiles(ctx, &p)
	}},

	"textDocument/completion": {request: func(ctx context.Context, h Handler, token CancelToken, raw json.RawMessage) (interface{}, error) {
		var p protocol.CompletionParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, invalidParams(err)
		}
		return h.Completion(ctx, token, &p)
	}},
	"textDocument/hover": {request: func(ctx context.Context, h Handler, token CancelToken, raw json.RawMessage) (interface{}, error) {
		var p protocol.HoverParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, invalidParams(err)
		}
		return h.Hover(ctx, token, &p)
	}},
	"textDocument/definition": {request: func(ctx context.Context, h Handler, token CancelToken, raw json.RawMessage) (interface{}, error) {
		var p protocol.DefinitionParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, invalidParams(err)
		}
		return h.Definition(ctx, token, &p)
	}},
	"textDocument/references": {request: func(ctx context.Context, h Handler, token CancelToken, raw json.RawMessage) (interface{}, error) {
		var p protocol.ReferenceParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, invalidParams(err)
		}
		return h.References(ctx, token, &p)
	}},
	"textDocument/documentSymbol": {request: func(ctx context.Context, h Handler, token CancelToken, raw json.RawMessage) (interface{}, error) {
		var p protocol.DocumentSymbolParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, invalidParams(err)
		}
		return h.DocumentSymbol(ctx, token, &p)
	}},
	"textDocument/codeAction": {request: func(ctx context.Context, h Handler, token CancelToken, raw json.RawMessage) (interface{}, error) {
		var p protocol.CodeActionParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, invalidParams(err)
		}
		return h.CodeAction(ctx, token, &p)
	}},
	"textDocument/formatting": {request: func(ctx context.Context, h Handler, token CancelToken, raw json.RawMessage) (interface{}, error) {
		var p protocol.DocumentFormattingParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, invalidParams(err)
		}
		return h.Formatting(ctx, token, &p)
	}},
	"textDocument/rename": {request: func(ctx context.Context, h Handler, token CancelToken, raw json.RawMessage) (interface{}, error) {
		var p protocol.RenameParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, invalidParams(err)
		}
		return h.Rename(ctx, token, &p)
	}},
	"workspace/executeCommand": {request: func(ctx context.Context, h Handler, token CancelToken, raw json.RawMessage) (interface{}, error) {
		var p protocol.ExecuteCommandParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, invalidParams(err)
		}
		return h.ExecuteCommand(ctx, token, &p)
	}},
}
