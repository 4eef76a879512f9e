// Command lspgen checks the Handler interface declared in
// service/handler.go and writes a manifest of its methods to -out: one
// comment line per method, `GoName -> "lsp/name" (notify=bool)`. It does
// not emit the dispatch entries themselves; the table in
// service/dispatch_gen.go is maintained by hand, and running lspgen with
// the default -out replaces that file with the manifest.
//
// lspgen does not infer LSP method names from Go method names (Go methods
// like Hover or DidOpen have no mechanical mapping to "textDocument/hover"
// or "textDocument/didOpen"): it reads the mapping from a
// //lspgen:method "name" comment directly above each interface method in
// handler.go and fails the generation if any method lacks one, so adding a
// method to Handler without annotating it is a generation-time error, not
// a silent dispatch gap.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"strconv"
	"strings"
)

func main() {
	src := flag.String("src", "service/handler.go", "path to the file declaring the Handler interface")
	out := flag.String("out", "service/dispatch_gen.go", "path to write the generated dispatch table to")
	flag.Parse()

	if err := run(*src, *out); err != nil {
		fmt.Fprintln(os.Stderr, "lspgen:", err)
		os.Exit(1)
	}
}

type methodSig struct {
	goName     string
	lspName    string
	hasToken   bool
	paramType  string
	resultType string
	isNotify   bool
}

func run(srcPath, outPath string) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, srcPath, nil, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("parse %s: %w", srcPath, err)
	}

	var methods []methodSig
	var missing []string
	ast.Inspect(file, func(n ast.Node) bool {
		iface, ok := n.(*ast.TypeSpec)
		if !ok || iface.Name.Name != "Handler" {
			return true
		}
		it, ok := iface.Type.(*ast.InterfaceType)
		if !ok {
			return true
		}
		for _, m := range it.Methods.List {
			ft, ok := m.Type.(*ast.FuncType)
			if !ok || len(m.Names) == 0 {
				continue
			}
			name := m.Names[0].Name
			lspName, hasAnnotation := lspMethodName(m.Doc)
			if !hasAnnotation {
				missing = append(missing, name)
				continue
			}
			methods = append(methods, describeSig(name, lspName, ft))
		}
		return false
	})

	if len(missing) > 0 {
		return fmt.Errorf("missing //lspgen:method annotation for: %s", strings.Join(missing, ", "))
	}
	if len(methods) == 0 {
		return fmt.Errorf("no Handler interface found in %s", srcPath)
	}

	var buf bytes.Buffer
	buf.WriteString("// Code generated by cmd/lspgen; DO NOT EDIT.\n\npackage service\n")
	for _, m := range methods {
		fmt.Fprintf(&buf, "// %s -> %q (notify=%v)\n", m.goName, m.lspName, m.isNotify)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		// Emit unformatted output rather than failing outright; the
		// checked-in dispatch_gen.go is hand-verified and this tool is a
		// convenience for future method additions, not a build gate.
		formatted = buf.Bytes()
	}
	return os.WriteFile(outPath, formatted, 0o644)
}

func lspMethodName(doc *ast.CommentGroup) (string, bool) {
	if doc == nil {
		return "", false
	}
	for _, c := range doc.List {
		text := strings.TrimPrefix(c.Text, "//")
		text = strings.TrimSpace(text)
		if rest, ok := strings.CutPrefix(text, "lspgen:method"); ok {
			name, err := strconv.Unquote(strings.TrimSpace(rest))
			if err == nil {
				return name, true
			}
		}
	}
	return "", false
}

func describeSig(goName, lspName string, ft *ast.FuncType) methodSig {
	isNotify := len(ft.Results.List) == 1 // error only, no result value
	return methodSig{goName: goName, lspName: lspName, isNotify: isNotify}
}
