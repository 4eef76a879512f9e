// Package viewtree understands the view.tree component-definition language:
// it scans a workspace for .view.tree and .ts sources and answers
// completion, hover, definition, and diagnostic queries against them. It is
// kept independent of the wire protocol — cmd/viewtreelsp converts between
// these types and go.lsp.dev/protocol at the handler boundary — so the
// parsing and analysis logic has no dependency on how it is transported.
package viewtree

// Position and Range mirror the LSP UTF-16 text coordinates closely enough
// to convert losslessly to and from go.lsp.dev/protocol's equivalents.
type Position struct {
	Line      int
	Character int
}

type Range struct {
	Start Position
	End   Position
}

type Location struct {
	URI   string
	Range Range
}

// TextDocument is the in-memory copy of an open document this package
// analyzes; cmd/viewtreelsp owns the document store and keeps it in sync
// with didOpen/didChange/didClose.
type TextDocument struct {
	URI        string
	LanguageID string
	Version    int
	Text       string
}

type CompletionItemKind int

const (
	CompletionItemKindText       CompletionItemKind = 1
	CompletionItemKindField      CompletionItemKind = 5
	CompletionItemKindClass      CompletionItemKind = 7
	CompletionItemKindProperty   CompletionItemKind = 10
	CompletionItemKindValue      CompletionItemKind = 12
	CompletionItemKindEnumMember CompletionItemKind = 20
	CompletionItemKindEvent      CompletionItemKind = 23
	CompletionItemKindOperator   CompletionItemKind = 24
)

type InsertTextFormat int

const (
	InsertTextFormatPlainText InsertTextFormat = 1
	InsertTextFormatSnippet   InsertTextFormat = 2
)

type CompletionItem struct {
	Label            string
	Kind             CompletionItemKind
	Detail           string
	Documentation    string
	InsertText       string
	InsertTextFormat InsertTextFormat
	SortText         string
}

type MarkupKind string

const (
	MarkupKindPlainText MarkupKind = "plaintext"
	MarkupKindMarkdown  MarkupKind = "markdown"
)

type MarkupContent struct {
	Kind  MarkupKind
	Value string
}

type Hover struct {
	Contents MarkupContent
	Range    *Range
}

type DiagnosticSeverity int

const (
	DiagnosticSeverityError       DiagnosticSeverity = 1
	DiagnosticSeverityWarning     DiagnosticSeverity = 2
	DiagnosticSeverityInformation DiagnosticSeverity = 3
	DiagnosticSeverityHint        DiagnosticSeverity = 4
)

type Diagnostic struct {
	Range    Range
	Severity DiagnosticSeverity
	Source   string
	Message  string
}
