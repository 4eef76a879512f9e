// Command viewtreelsp serves textDocument/completion, hover, and
// definition, and diagnostics for the view.tree component-definition
// language on top of lspcore.
package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.lsp.dev/protocol"

	"github.com/cmyser/lspcore/internal/viewtree"
	"github.com/cmyser/lspcore/internal/xio"
	"github.com/cmyser/lspcore/lspclient"
	"github.com/cmyser/lspcore/service"
)

// Handler implements service.Handler for the view.tree language, keeping
// an in-memory document store in sync with didOpen/didChange/didClose and
// delegating analysis to the internal/viewtree providers.
type Handler struct {
	service.UnimplementedHandler

	client  *lspclient.Client
	log     zerolog.Logger
	scanner *viewtree.Scanner

	completion *viewtree.CompletionProvider
	definition *viewtree.DefinitionProvider
	hover      *viewtree.HoverProvider
	diagnostic *viewtree.DiagnosticProvider

	docsMu sync.RWMutex
	docs   map[string]*viewtree.TextDocument
}

// NewHandlerFactory returns a service.Factory binding every session's
// Handler to the same workspace root. Each session gets its own Scanner,
// and so its own project index; sessions do not share one.
func NewHandlerFactory(workspaceRoot string, log zerolog.Logger) service.Factory {
	return func(client *lspclient.Client) service.Handler {
		scanner := viewtree.NewScanner(workspaceRoot, log)
		return &Handler{
			client:     client,
			log:        xio.Scoped(log, "viewtree-handler"),
			scanner:    scanner,
			completion: viewtree.NewCompletionProvider(scanner, log),
			definition: viewtree.NewDefinitionProvider(scanner, log),
			hover:      viewtree.NewHoverProvider(scanner, log),
			diagnostic: viewtree.NewDiagnosticProvider(scanner),
			docs:       make(map[string]*viewtree.TextDocument),
		}
	}
}

func (h *Handler) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	root := workspaceRootFrom(params)
	if root != "" {
		h.scanner = viewtree.NewScanner(root, h.log)
		h.completion = viewtree.NewCompletionProvider(h.scanner, h.log)
		h.definition = viewtree.NewDefinitionProvider(h.scanner, h.log)
		h.hover = viewtree.NewHoverProvider(h.scanner, h.log)
		h.diagnostic = viewtree.NewDiagnosticProvider(h.scanner)
	}
	h.log.Info().Str("root", h.scanner.WorkspaceRoot()).Msg("initializing")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncKindIncremental,
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{"$", "_", " ", "\t"},
			},
			DefinitionProvider: true,
			HoverProvider:      true,
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "viewtreelsp",
			Version: "1.0.0",
		},
	}, nil
}

func workspaceRootFrom(params *protocol.InitializeParams) string {
	if params.RootURI != "" {
		return filePathFromURI(string(params.RootURI))
	}
	if len(params.WorkspaceFolders) > 0 {
		return filePathFromURI(string(params.WorkspaceFolders[0].URI))
	}
	return ""
}

func (h *Handler) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	go func() {
		if err := h.scanner.Scan(); err != nil {
			h.log.Warn().Err(err).Msg("initial project scan")
		}
	}()
	return nil
}

func (h *Handler) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := &viewtree.TextDocument{
		URI:        string(params.TextDocument.URI),
		LanguageID: string(params.TextDocument.LanguageID),
		Version:    int(params.TextDocument.Version),
		Text:       params.TextDocument.Text,
	}
	h.storeDocument(doc)
	h.updateIndex(doc)
	h.publishDiagnostics(ctx, doc)
	return nil
}

func (h *Handler) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	doc := h.document(uri)
	if doc == nil {
		return fmt.Errorf("document not found: %s", uri)
	}

	doc.Version = int(params.TextDocument.Version)
	for _, change := range params.ContentChanges {
		if change.Range == (protocol.Range{}) {
			doc.Text = change.Text
		} else {
			doc.Text = applyTextChange(doc.Text, toInternalRange(change.Range), change.Text)
		}
	}

	h.storeDocument(doc)
	h.updateIndex(doc)
	h.publishDiagnostics(ctx, doc)
	return nil
}

func (h *Handler) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	h.docsMu.Lock()
	delete(h.docs, string(params.TextDocument.URI))
	h.docsMu.Unlock()
	return nil
}

func (h *Handler) Completion(ctx context.Context, token service.CancelToken, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	doc := h.document(string(params.TextDocument.URI))
	if doc == nil {
		return &protocol.CompletionList{}, nil
	}

	items, err := h.completion.Provide(doc, toInternalPosition(params.Position))
	if err != nil {
		return nil, err
	}

	out := make([]protocol.CompletionItem, 0, len(items))
	for _, item := range items {
		out = append(out, fromInternalCompletionItem(item))
	}
	return &protocol.CompletionList{Items: out}, nil
}

func (h *Handler) Hover(ctx context.Context, token service.CancelToken, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc := h.document(string(params.TextDocument.URI))
	if doc == nil {
		return nil, nil
	}

	hover, err := h.hover.Provide(doc, toInternalPosition(params.Position))
	if err != nil {
		return nil, err
	}
	return fromInternalHover(hover), nil
}

func (h *Handler) Definition(ctx context.Context, token service.CancelToken, params *protocol.DefinitionParams) ([]protocol.Location, error) {
	doc := h.document(string(params.TextDocument.URI))
	if doc == nil {
		return nil, nil
	}

	locations, err := h.definition.Provide(doc, toInternalPosition(params.Position))
	if err != nil {
		return nil, err
	}

	out := make([]protocol.Location, 0, len(locations))
	for _, loc := range locations {
		out = append(out, fromInternalLocation(loc))
	}
	return out, nil
}

func (h *Handler) publishDiagnostics(ctx context.Context, doc *viewtree.TextDocument) {
	diagnostics, err := h.diagnostic.Provide(doc)
	if err != nil {
		h.log.Warn().Err(err).Str("uri", doc.URI).Msg("validating document")
		return
	}

	out := make([]protocol.Diagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		out = append(out, fromInternalDiagnostic(d))
	}

	version := uint32(doc.Version)
	if err := h.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(doc.URI),
		Version:     version,
		Diagnostics: out,
	}); err != nil {
		h.log.Warn().Err(err).Str("uri", doc.URI).Msg("publishing diagnostics")
	}
}

func (h *Handler) updateIndex(doc *viewtree.TextDocument) {
	if strings.HasSuffix(doc.URI, ".view.tree") || strings.HasSuffix(doc.URI, ".ts") {
		h.scanner.UpdateSingleFile(filePathFromURI(doc.URI), doc.Text)
	}
}

func (h *Handler) storeDocument(doc *viewtree.TextDocument) {
	h.docsMu.Lock()
	h.docs[doc.URI] = doc
	h.docsMu.Unlock()
}

func (h *Handler) document(uri string) *viewtree.TextDocument {
	h.docsMu.RLock()
	defer h.docsMu.RUnlock()
	return h.docs[uri]
}

func toInternalRange(r protocol.Range) viewtree.Range {
	return viewtree.Range{Start: toInternalPosition(r.Start), End: toInternalPosition(r.End)}
}

func applyTextChange(text string, r viewtree.Range, newText string) string {
	lines := strings.Split(text, "\n")
	start := positionToOffset(lines, r.Start)
	end := positionToOffset(lines, r.End)
	return text[:start] + newText + text[end:]
}

func positionToOffset(lines []string, pos viewtree.Position) int {
	offset := 0
	for i := 0; i < pos.Line && i < len(lines); i++ {
		offset += len(lines[i]) + 1
	}
	if pos.Line < len(lines) {
		offset += pos.Character
	}
	return offset
}

func filePathFromURI(uri string) string {
	return lspURIFilename(uri)
}
