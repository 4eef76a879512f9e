package viewtree

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cmyser/lspcore/internal/xio"
)

// ProjectData is the index a Scanner builds: every component name seen
// across the workspace, the properties observed on each, and which file
// last defined each component.
type ProjectData struct {
	Components          map[string]bool
	ComponentProperties map[string]map[string]bool
	ComponentFiles      map[string]string
	FileComponents      map[string]map[string]bool
	mutex               sync.RWMutex
}

func newProjectData() *ProjectData {
	return &ProjectData{
		Components:          make(map[string]bool),
		ComponentProperties: make(map[string]map[string]bool),
		ComponentFiles:      make(map[string]string),
		FileComponents:      make(map[string]map[string]bool),
	}
}

var (
	indentedPropertyRe = regexp.MustCompile(`^(\s+)([a-zA-Z_][a-zA-Z0-9_?*]*)\s*`)
	bindingPropertyRe  = regexp.MustCompile(`<=\s+([a-zA-Z_][a-zA-Z0-9_?*]*)`)
	tsComponentRe      = regexp.MustCompile(`\$\w+`)
)

// Scanner walks a workspace root for .view.tree and .ts sources and
// indexes the component names and properties they define, so providers can
// answer completion and definition queries against the whole project, not
// just the open document.
type Scanner struct {
	workspaceRoot string
	data          *ProjectData
	log           zerolog.Logger
}

func NewScanner(workspaceRoot string, log zerolog.Logger) *Scanner {
	return &Scanner{
		workspaceRoot: workspaceRoot,
		data:          newProjectData(),
		log:           xio.Scoped(log, "viewtree-scanner"),
	}
}

// Scan rebuilds the project index from disk. It tolerates per-file read
// errors, logging and skipping them, since one unreadable file should not
// prevent the server from answering queries about the rest of the project.
func (s *Scanner) Scan() error {
	s.data = newProjectData()

	if err := s.scanViewTreeFiles(); err != nil {
		s.log.Warn().Err(err).Msg("scanning .view.tree files")
	}
	if err := s.scanTsFiles(); err != nil {
		s.log.Warn().Err(err).Msg("scanning .ts files")
	}

	s.data.mutex.RLock()
	count := len(s.data.Components)
	s.data.mutex.RUnlock()
	s.log.Info().Int("components", count).Msg("project scan complete")
	return nil
}

func (s *Scanner) scanViewTreeFiles() error {
	files, err := s.findFiles(".view.tree")
	if err != nil {
		return fmt.Errorf("find .view.tree files: %w", err)
	}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("reading view.tree file")
			continue
		}
		s.parseViewTreeFile(string(content), path)
	}
	return nil
}

func (s *Scanner) scanTsFiles() error {
	files, err := s.findFiles(".ts")
	if err != nil {
		return fmt.Errorf("find .ts files: %w", err)
	}
	// Cap to bound scan time on large monorepos; the project index degrades
	// gracefully (fewer known components) rather than stalling startup.
	const maxTsFiles = 100
	if len(files) > maxTsFiles {
		files = files[:maxTsFiles]
	}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("reading ts file")
			continue
		}
		s.parseTsFile(string(content), path)
	}
	return nil
}

func (s *Scanner) findFiles(suffix string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.workspaceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if suffix == ".ts" && strings.HasSuffix(path, ".d.ts") {
			return nil
		}
		if strings.HasSuffix(path, suffix) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func (s *Scanner) resetFile(filePath string) {
	if comps, ok := s.data.FileComponents[filePath]; ok {
		for comp := range comps {
			if s.data.ComponentFiles[comp] == filePath {
				delete(s.data.ComponentFiles, comp)
			}
		}
	}
	s.data.FileComponents[filePath] = make(map[string]bool)
}

func (s *Scanner) parseViewTreeFile(content, filePath string) {
	s.data.mutex.Lock()
	defer s.data.mutex.Unlock()
	s.resetFile(filePath)

	var currentComponent string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if !strings.HasPrefix(line, "\t") && !strings.HasPrefix(line, " ") && strings.HasPrefix(trimmed, "$") {
			if fields := strings.Fields(trimmed); len(fields) > 0 && strings.HasPrefix(fields[0], "$") {
				currentComponent = fields[0]
				s.data.Components[currentComponent] = true
				s.data.ComponentFiles[currentComponent] = filePath
				s.data.FileComponents[filePath][currentComponent] = true
				if _, ok := s.data.ComponentProperties[currentComponent]; !ok {
					s.data.ComponentProperties[currentComponent] = make(map[string]bool)
				}
			}
		}

		if currentComponent == "" {
			continue
		}

		if m := indentedPropertyRe.FindStringSubmatch(line); len(m) > 2 && len(m[1]) > 0 {
			if prop := m[2]; prop != "" && !strings.HasPrefix(prop, "$") &&
				prop != "null" && prop != "true" && prop != "false" {
				s.data.ComponentProperties[currentComponent][prop] = true
			}
		}
		if m := bindingPropertyRe.FindStringSubmatch(trimmed); len(m) > 1 {
			if prop := m[1]; prop != "" && !strings.HasPrefix(prop, "$") {
				s.data.ComponentProperties[currentComponent][prop] = true
			}
		}
	}
}

func (s *Scanner) parseTsFile(content, filePath string) {
	matches := tsComponentRe.FindAllString(content, -1)
	if len(matches) == 0 {
		return
	}

	s.data.mutex.Lock()
	defer s.data.mutex.Unlock()
	s.resetFile(filePath)

	for _, m := range matches {
		s.data.Components[m] = true
		if _, ok := s.data.ComponentFiles[m]; !ok {
			s.data.ComponentFiles[m] = filePath // .view.tree definitions take priority when both exist
		}
		s.data.FileComponents[filePath][m] = true
	}
}

// UpdateSingleFile reindexes one file in place, used to keep the project
// index current as didChange/didOpen notifications arrive without a full
// rescan.
func (s *Scanner) UpdateSingleFile(filePath, content string) {
	switch {
	case strings.HasSuffix(filePath, ".view.tree"):
		s.parseViewTreeFile(content, filePath)
	case strings.HasSuffix(filePath, ".ts"):
		s.parseTsFile(content, filePath)
	}
}

func (s *Scanner) ComponentsStartingWith(prefix string) []string {
	s.data.mutex.RLock()
	defer s.data.mutex.RUnlock()
	var out []string
	for c := range s.data.Components {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Scanner) PropertiesForComponent(component string) []string {
	s.data.mutex.RLock()
	defer s.data.mutex.RUnlock()
	props, ok := s.data.ComponentProperties[component]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(props))
	for p := range props {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (s *Scanner) AllProperties() []string {
	s.data.mutex.RLock()
	defer s.data.mutex.RUnlock()
	seen := make(map[string]bool)
	for _, props := range s.data.ComponentProperties {
		for p := range props {
			seen[p] = true
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (s *Scanner) ComponentFile(component string) string {
	s.data.mutex.RLock()
	defer s.data.mutex.RUnlock()
	return s.data.ComponentFiles[component]
}

func (s *Scanner) Components() []string {
	s.data.mutex.RLock()
	defer s.data.mutex.RUnlock()
	out := make([]string, 0, len(s.data.Components))
	for c := range s.data.Components {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (s *Scanner) HasComponent(component string) bool {
	s.data.mutex.RLock()
	defer s.data.mutex.RUnlock()
	return s.data.Components[component]
}

func (s *Scanner) WorkspaceRoot() string { return s.workspaceRoot }
