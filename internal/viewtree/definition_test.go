package viewtree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	lspuri "go.lsp.dev/uri"
)

func newTestDefinitionProvider() *DefinitionProvider {
	return NewDefinitionProvider(NewScanner(".", zerolog.Nop()), zerolog.Nop())
}

func TestDefinitionProvider_NodeType_WordStartingAtCharacterOneIsRootClass(t *testing.T) {
	dp := newTestDefinitionProvider()
	got := dp.nodeType("anything", Position{Line: 0}, Range{Start: Position{Line: 0, Character: 1}})
	require.Equal(t, "root_class", got)
}

func TestDefinitionProvider_NodeType_PrecededByDollarIsClass(t *testing.T) {
	dp := newTestDefinitionProvider()
	content := "\t$mol_button value"
	got := dp.nodeType(content, Position{Line: 0}, Range{Start: Position{Line: 0, Character: 2}})
	require.Equal(t, "class", got)
}

func TestDefinitionProvider_NodeType_IndentOneIsProp(t *testing.T) {
	dp := newTestDefinitionProvider()
	content := "$root\n\tprop value"
	got := dp.nodeType(content, Position{Line: 1}, Range{Start: Position{Line: 1, Character: 1}})
	require.Equal(t, "prop", got)
}

func TestDefinitionProvider_NodeType_PrecededByBindingOperatorIsProp(t *testing.T) {
	dp := newTestDefinitionProvider()
	content := "$root\n\tp <= v"
	got := dp.nodeType(content, Position{Line: 1}, Range{Start: Position{Line: 1, Character: 6}})
	require.Equal(t, "prop", got)
}

func TestDefinitionProvider_NodeType_DefaultIsSubProp(t *testing.T) {
	dp := newTestDefinitionProvider()
	content := "$root\n\t\tsub value"
	got := dp.nodeType(content, Position{Line: 1}, Range{Start: Position{Line: 1, Character: 2}})
	require.Equal(t, "sub_prop", got)
}

func TestDefinitionProvider_NodeType_PositionPastEndOfDocumentIsSubProp(t *testing.T) {
	dp := newTestDefinitionProvider()
	got := dp.nodeType("$a", Position{Line: 5}, Range{Start: Position{Line: 0, Character: 0}})
	require.Equal(t, "sub_prop", got)
}

func TestDefinitionProvider_FindRootClass_LocatesClassDeclaration(t *testing.T) {
	dir := t.TempDir()
	viewTreePath := filepath.Join(dir, "app.view.tree")
	tsPath := filepath.Join(dir, "app.ts")
	require.NoError(t, os.WriteFile(tsPath, []byte("class $my_app {\n}\n"), 0o644))

	dp := newTestDefinitionProvider()
	locs, err := dp.findRootClass(string(lspuri.File(viewTreePath)), "my_app")
	require.NoError(t, err)
	require.Len(t, locs, 1)
	require.Equal(t, string(lspuri.File(tsPath)), locs[0].URI)
	require.Equal(t, Range{Start: Position{Line: 0, Character: 0}, End: Position{Line: 0, Character: 7}}, locs[0].Range)
}

func TestDefinitionProvider_FindRootClass_FallsBackToZeroRangeWhenClassMissing(t *testing.T) {
	dir := t.TempDir()
	viewTreePath := filepath.Join(dir, "app.view.tree")
	tsPath := filepath.Join(dir, "app.ts")
	require.NoError(t, os.WriteFile(tsPath, []byte("export const x = 1\n"), 0o644))

	dp := newTestDefinitionProvider()
	locs, err := dp.findRootClass(string(lspuri.File(viewTreePath)), "my_app")
	require.NoError(t, err)
	require.Equal(t, []Location{{URI: string(lspuri.File(tsPath)), Range: zeroRange}}, locs)
}

func TestDefinitionProvider_FindRootClass_NoSiblingTsFileReturnsNil(t *testing.T) {
	dir := t.TempDir()
	viewTreePath := filepath.Join(dir, "app.view.tree")

	dp := newTestDefinitionProvider()
	locs, err := dp.findRootClass(string(lspuri.File(viewTreePath)), "my_app")
	require.NoError(t, err)
	require.Nil(t, locs)
}

func TestDefinitionProvider_FindClass_ResolvesCandidatePath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "last"), 0o755))
	candidate := filepath.Join(root, "last", "last.view.tree")
	require.NoError(t, os.WriteFile(candidate, []byte("$last\n\tprop v"), 0o644))

	dp := NewDefinitionProvider(NewScanner(root, zerolog.Nop()), zerolog.Nop())
	locs, err := dp.findClass("last")
	require.NoError(t, err)
	require.Equal(t, []Location{{URI: string(lspuri.File(candidate)), Range: zeroRange}}, locs)
}

func TestDefinitionProvider_FindClass_FallsBackToScanner(t *testing.T) {
	root := t.TempDir()
	scanner := NewScanner(root, zerolog.Nop())
	scanner.parseViewTreeFile("$my_widget\n\tprop v", "/workspace/widget.view.tree")

	dp := NewDefinitionProvider(scanner, zerolog.Nop())
	locs, err := dp.findClass("$my_widget")
	require.NoError(t, err)
	require.Equal(t, []Location{{URI: string(lspuri.File("/workspace/widget.view.tree")), Range: zeroRange}}, locs)
}

func TestDefinitionProvider_FindClass_NotFoundReturnsNil(t *testing.T) {
	dp := newTestDefinitionProvider()
	locs, err := dp.findClass("$nowhere")
	require.NoError(t, err)
	require.Nil(t, locs)
}

func TestDefinitionProvider_FindComp_LocatesCssRule(t *testing.T) {
	dir := t.TempDir()
	viewTreePath := filepath.Join(dir, "widget.view.tree")
	cssPath := filepath.Join(dir, "widget.css.ts")
	require.NoError(t, os.WriteFile(cssPath, []byte("Button: {\n\tcolor: red;\n}\n"), 0o644))

	dp := newTestDefinitionProvider()
	locs, err := dp.findComp(string(lspuri.File(viewTreePath)), "Button")
	require.NoError(t, err)
	require.Len(t, locs, 1)
	require.Equal(t, string(lspuri.File(cssPath)), locs[0].URI)
	require.Equal(t, Range{Start: Position{Line: 0, Character: 0}, End: Position{Line: 0, Character: 6}}, locs[0].Range)
}

func TestDefinitionProvider_FindComp_FallsBackToZeroRangeWhenRuleMissing(t *testing.T) {
	dir := t.TempDir()
	viewTreePath := filepath.Join(dir, "widget.view.tree")
	cssPath := filepath.Join(dir, "widget.css.ts")
	require.NoError(t, os.WriteFile(cssPath, []byte("Other: {}\n"), 0o644))

	dp := newTestDefinitionProvider()
	locs, err := dp.findComp(string(lspuri.File(viewTreePath)), "Button")
	require.NoError(t, err)
	require.Equal(t, []Location{{URI: string(lspuri.File(cssPath)), Range: zeroRange}}, locs)
}

func TestDefinitionProvider_FindComp_NoSiblingCssFileReturnsNil(t *testing.T) {
	dir := t.TempDir()
	viewTreePath := filepath.Join(dir, "widget.view.tree")

	dp := newTestDefinitionProvider()
	locs, err := dp.findComp(string(lspuri.File(viewTreePath)), "Button")
	require.NoError(t, err)
	require.Nil(t, locs)
}

func TestDefinitionProvider_FindProp_LocatesPropertyDeclaration(t *testing.T) {
	dir := t.TempDir()
	viewTreePath := filepath.Join(dir, "widget.view.tree")
	tsPath := filepath.Join(dir, "widget.ts")
	require.NoError(t, os.WriteFile(viewTreePath, []byte("$my_component\n\tprop value"), 0o644))
	require.NoError(t, os.WriteFile(tsPath, []byte("class $my_component {\n\tprop: string;\n}\n"), 0o644))

	dp := newTestDefinitionProvider()
	locs, err := dp.findProp(string(lspuri.File(viewTreePath)), "prop")
	require.NoError(t, err)
	require.Len(t, locs, 1)
	require.Equal(t, string(lspuri.File(tsPath)), locs[0].URI)
	require.Equal(t, Range{Start: Position{Line: 1, Character: 1}, End: Position{Line: 1, Character: 5}}, locs[0].Range)
}

func TestDefinitionProvider_FindProp_FallsBackToFindCompWhenPropertyMissingFromClass(t *testing.T) {
	dir := t.TempDir()
	viewTreePath := filepath.Join(dir, "widget.view.tree")
	tsPath := filepath.Join(dir, "widget.ts")
	cssPath := filepath.Join(dir, "widget.css.ts")
	require.NoError(t, os.WriteFile(viewTreePath, []byte("$my_component\n\tmissing_prop value"), 0o644))
	require.NoError(t, os.WriteFile(tsPath, []byte("class $my_component {\n\tprop: string;\n}\n"), 0o644))
	require.NoError(t, os.WriteFile(cssPath, []byte("missing_prop: {\n}\n"), 0o644))

	dp := newTestDefinitionProvider()
	locs, err := dp.findProp(string(lspuri.File(viewTreePath)), "missing_prop")
	require.NoError(t, err)
	require.Len(t, locs, 1)
	require.Equal(t, string(lspuri.File(cssPath)), locs[0].URI)
}

func TestDefinitionProvider_FindProp_NoSiblingTsFileReturnsNilWithoutFallingBack(t *testing.T) {
	dir := t.TempDir()
	viewTreePath := filepath.Join(dir, "widget.view.tree")
	require.NoError(t, os.WriteFile(viewTreePath, []byte("$my_component\n\tprop value"), 0o644))

	dp := newTestDefinitionProvider()
	locs, err := dp.findProp(string(lspuri.File(viewTreePath)), "prop")
	require.NoError(t, err)
	require.Nil(t, locs)
}

func TestDefinitionProvider_FindProp_NoCurrentComponentReturnsNil(t *testing.T) {
	dir := t.TempDir()
	viewTreePath := filepath.Join(dir, "widget.view.tree")
	require.NoError(t, os.WriteFile(viewTreePath, []byte("\tprop value"), 0o644))

	dp := newTestDefinitionProvider()
	locs, err := dp.findProp(string(lspuri.File(viewTreePath)), "prop")
	require.NoError(t, err)
	require.Nil(t, locs)
}

func TestDefinitionProvider_FindProp_MissingDocumentFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	viewTreePath := filepath.Join(dir, "widget.view.tree")

	dp := newTestDefinitionProvider()
	locs, err := dp.findProp(string(lspuri.File(viewTreePath)), "prop")
	require.Error(t, err)
	require.Nil(t, locs)
}

func TestDefinitionProvider_ExtractCssRule_FindsMatch(t *testing.T) {
	dp := newTestDefinitionProvider()
	loc := dp.extractCssRule("Before\nButton: {\n}\n", "file:///x.css.ts", "Button")
	require.NotNil(t, loc)
	require.Equal(t, Position{Line: 1, Character: 0}, loc.Range.Start)
	require.Equal(t, Position{Line: 1, Character: 6}, loc.Range.End)
}

func TestDefinitionProvider_ExtractCssRule_NoMatchReturnsNil(t *testing.T) {
	dp := newTestDefinitionProvider()
	loc := dp.extractCssRule("Other: {}\n", "file:///x.css.ts", "Button")
	require.Nil(t, loc)
}

func TestDefinitionProvider_CurrentComponentFromContent_FindsTopLevelComponent(t *testing.T) {
	dp := newTestDefinitionProvider()
	got := dp.currentComponentFromContent("$my_component\n\tprop value")
	require.Equal(t, "$my_component", got)
}

func TestDefinitionProvider_CurrentComponentFromContent_IndentedOnlyReturnsEmpty(t *testing.T) {
	dp := newTestDefinitionProvider()
	got := dp.currentComponentFromContent("\tprop value")
	require.Equal(t, "", got)
}

func TestDefinitionProvider_TextInRange_ExtractsSubstring(t *testing.T) {
	dp := newTestDefinitionProvider()
	got := dp.textInRange("$my_component", Range{Start: Position{Line: 0, Character: 1}, End: Position{Line: 0, Character: 13}})
	require.Equal(t, "my_component", got)
}

func TestDefinitionProvider_TextInRange_OutOfBoundsReturnsEmpty(t *testing.T) {
	dp := newTestDefinitionProvider()
	got := dp.textInRange("$a", Range{Start: Position{Line: 5, Character: 0}, End: Position{Line: 5, Character: 1}})
	require.Equal(t, "", got)
}

func TestDefinitionProvider_LocationAtOffset_ComputesLineAndCharacter(t *testing.T) {
	dp := newTestDefinitionProvider()
	content := "first\nsecond line"
	loc := dp.locationAtOffset("file:///x.ts", content, len("first\n"), len("second"))
	require.Equal(t, Position{Line: 1, Character: 0}, loc.Range.Start)
	require.Equal(t, Position{Line: 1, Character: 6}, loc.Range.End)
}

func TestDefinitionProvider_Provide_NoWordAtPositionReturnsNil(t *testing.T) {
	dp := newTestDefinitionProvider()
	doc := &TextDocument{Text: "$a\n\n\tb"}
	locs, err := dp.Provide(doc, Position{Line: 1, Character: 0})
	require.NoError(t, err)
	require.Nil(t, locs)
}
