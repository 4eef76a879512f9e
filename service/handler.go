package service

import (
	"context"

	"go.lsp.dev/protocol"

	"github.com/cmyser/lspcore/jsonrpc"
	"github.com/cmyser/lspcore/lspclient"
)

var errMethodNotFound = jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "method not found")

// CancelToken is the shared flag a handler may poll to cooperatively abort
// long-running work, spec.md §3 "Pending inbound entry" / §5
// "Cancellation".
type CancelToken interface {
	// Cancelled reports whether $/cancelRequest has been received for this
	// handler's request id.
	Cancelled() bool
	// Done returns a channel closed at the moment Cancelled() becomes
	// true, so handlers can select on it instead of polling.
	Done() <-chan struct{}
}

// Handler is the fixed, versioned capability set a user implements,
// spec.md §4.F. All methods may suspend (block on ctx, I/O, etc); the
// dispatcher invokes each request method in its own goroutine (serially
// under the single-threaded policy — see WithSingleThreaded) and the
// notification methods one at a time, in receive order, on a single
// worker goroutine.
//
// Every method has a default behavior supplied by UnimplementedHandler:
// notifications no-op, requests answer MethodNotFound, and the four
// lifecycle methods succeed trivially. Embed UnimplementedHandler and
// override only what the server actually does.
type Handler interface {
	// lspgen:method "initialize"
	Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error)
	// lspgen:method "initialized"
	Initialized(ctx context.Context, params *protocol.InitializedParams) error
	// lspgen:method "shutdown"
	Shutdown(ctx context.Context) error
	// lspgen:method "exit"
	Exit(ctx context.Context) error

	// lspgen:method "textDocument/didOpen"
	DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error
	// lspgen:method "textDocument/didChange"
	DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error
	// lspgen:method "textDocument/didClose"
	DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error
	// lspgen:method "textDocument/didSave"
	DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error
	// lspgen:method "workspace/didChangeWatchedFiles"
	DidChangeWatchedFiles(ctx context.Context, params *protocol.DidChangeWatchedFilesParams) error

	// lspgen:method "textDocument/completion"
	Completion(ctx context.Context, token CancelToken, params *protocol.CompletionParams) (*protocol.CompletionList, error)
	// lspgen:method "textDocument/hover"
	Hover(ctx context.Context, token CancelToken, params *protocol.HoverParams) (*protocol.Hover, error)
	// lspgen:method "textDocument/definition"
	Definition(ctx context.Context, token CancelToken, params *protocol.DefinitionParams) ([]protocol.Location, error)
	// lspgen:method "textDocument/references"
	References(ctx context.Context, token CancelToken, params *protocol.ReferenceParams) ([]protocol.Location, error)
	// lspgen:method "textDocument/documentSymbol"
	DocumentSymbol(ctx context.Context, token CancelToken, params *protocol.DocumentSymbolParams) ([]protocol.DocumentSymbol, error)
	// lspgen:method "textDocument/codeAction"
	CodeAction(ctx context.Context, token CancelToken, params *protocol.CodeActionParams) ([]protocol.CodeAction, error)
	// lspgen:method "textDocument/formatting"
	Formatting(ctx context.Context, token CancelToken, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error)
	// lspgen:method "textDocument/rename"
	Rename(ctx context.Context, token CancelToken, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error)

	// lspgen:method "workspace/executeCommand"
	ExecuteCommand(ctx context.Context, token CancelToken, params *protocol.ExecuteCommandParams) (interface{}, error)
}

// Factory constructs a Handler given the client handle, per spec.md §4.F
// ("constructed by a user-supplied factory given the client handle").
type Factory func(client *lspclient.Client) Handler

// UnimplementedHandler supplies the default behaviors of spec.md §4.F.
// Embed it in a concrete handler and override the methods that matter.
type UnimplementedHandler struct{}

func (UnimplementedHandler) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	return &protocol.InitializeResult{}, nil
}
func (UnimplementedHandler) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	return nil
}
func (UnimplementedHandler) Shutdown(ctx context.Context) error { return nil }
func (UnimplementedHandler) Exit(ctx context.Context) error     { return nil }

func (UnimplementedHandler) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	return nil
}
func (UnimplementedHandler) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	return nil
}
func (UnimplementedHandler) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	return nil
}
func (UnimplementedHandler) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	return nil
}
func (UnimplementedHandler) DidChangeWatchedFiles(ctx context.Context, params *protocol.DidChangeWatchedFilesParams) error {
	return nil
}

func (UnimplementedHandler) Completion(ctx context.Context, token CancelToken, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	return nil, errMethodNotFound
}
func (UnimplementedHandler) Hover(ctx context.Context, token CancelToken, params *protocol.HoverParams) (*protocol.Hover, error) {
	return nil, errMethodNotFound
}
func (UnimplementedHandler) Definition(ctx context.Context, token CancelToken, params *protocol.DefinitionParams) ([]protocol.Location, error) {
	return nil, errMethodNotFound
}
func (UnimplementedHandler) References(ctx context.Context, token CancelToken, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	return nil, errMethodNotFound
}
func (UnimplementedHandler) DocumentSymbol(ctx context.Context, token CancelToken, params *protocol.DocumentSymbolParams) ([]protocol.DocumentSymbol, error) {
	return nil, errMethodNotFound
}
func (UnimplementedHandler) CodeAction(ctx context.Context, token CancelToken, params *protocol.CodeActionParams) ([]protocol.CodeAction, error) {
	return nil, errMethodNotFound
}
func (UnimplementedHandler) Formatting(ctx context.Context, token CancelToken, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	return nil, errMethodNotFound
}
func (UnimplementedHandler) Rename(ctx context.Context, token CancelToken, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	return nil, errMethodNotFound
}
func (UnimplementedHandler) ExecuteCommand(ctx context.Context, token CancelToken, params *protocol.ExecuteCommandParams) (interface{}, error) {
	return nil, errMethodNotFound
}
