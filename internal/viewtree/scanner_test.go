package viewtree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestScanner_ParseViewTreeFile_IndexesComponentAndProperties(t *testing.T) {
	s := NewScanner(".", zerolog.Nop())
	s.parseViewTreeFile("$my_component\n\tproperty_name value\n\tbinding_prop <= bound_value", "/test/file.view.tree")

	require.True(t, s.HasComponent("$my_component"))
	require.Equal(t, "/test/file.view.tree", s.ComponentFile("$my_component"))

	props := s.PropertiesForComponent("$my_component")
	require.Contains(t, props, "property_name")
	require.Contains(t, props, "binding_prop")
}

func TestScanner_ParseTsFile_IndexesComponentReferences(t *testing.T) {
	s := NewScanner(".", zerolog.Nop())
	s.parseTsFile("export const x = $my_widget\nconst y = $other_widget", "/test/file.ts")

	require.True(t, s.HasComponent("$my_widget"))
	require.True(t, s.HasComponent("$other_widget"))
}

func TestScanner_UpdateSingleFile_ReindexesInPlace(t *testing.T) {
	s := NewScanner(".", zerolog.Nop())
	s.parseViewTreeFile("$old_component\n\tprop value", "/test/file.view.tree")
	require.True(t, s.HasComponent("$old_component"))

	s.UpdateSingleFile("/test/file.view.tree", "$new_component\n\tprop value")
	require.True(t, s.HasComponent("$new_component"))
	// ComponentFile is reassigned away from the stale component on reindex,
	// even though Components itself only grows (never shrinks) until a
	// full Scan.
	require.NotEqual(t, "/test/file.view.tree", s.ComponentFile("$old_component"))
	require.Equal(t, "/test/file.view.tree", s.ComponentFile("$new_component"))
}

func TestScanner_ComponentsStartingWith(t *testing.T) {
	s := NewScanner(".", zerolog.Nop())
	s.parseViewTreeFile("$mol_button\n\tprop value", "/a.view.tree")
	s.parseViewTreeFile("$mol_view\n\tprop value", "/b.view.tree")
	s.parseViewTreeFile("$other\n\tprop value", "/c.view.tree")

	matches := s.ComponentsStartingWith("$mol_")
	require.ElementsMatch(t, []string{"$mol_button", "$mol_view"}, matches)
}

func TestScanner_AllProperties_DeduplicatesAcrossComponents(t *testing.T) {
	s := NewScanner(".", zerolog.Nop())
	s.parseViewTreeFile("$a\n\tshared_prop value", "/a.view.tree")
	s.parseViewTreeFile("$b\n\tshared_prop value\n\tunique_prop value", "/b.view.tree")

	all := s.AllProperties()
	require.Contains(t, all, "shared_prop")
	require.Contains(t, all, "unique_prop")

	count := 0
	for _, p := range all {
		if p == "shared_prop" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestScanner_Scan_WalksWorkspaceRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widget.view.tree"), []byte("$widget\n\tprop value"), 0o644))

	s := NewScanner(dir, zerolog.Nop())
	require.NoError(t, s.Scan())
	require.True(t, s.HasComponent("$widget"))
}

func TestScanner_WorkspaceRoot(t *testing.T) {
	s := NewScanner("/some/root", zerolog.Nop())
	require.Equal(t, "/some/root", s.WorkspaceRoot())
}
