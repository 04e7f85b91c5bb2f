package ads

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// schemaFileName is the bundled field table's file name; files with this
// suffix are never treated as ad definitions.
const schemaFileName = "ad_fields.yaml"

// Store discovers, loads and persists ad definition files. It owns the raw
// definitions for the duration of a run; persistence is always a full
// rewrite of the raw (never the resolved) structure.
type Store struct {
	root     string
	patterns []string
}

// NewStore creates a store resolving the given glob patterns against root.
func NewStore(root string, patterns []string) *Store {
	return &Store{root: root, patterns: patterns}
}

// Discover expands the configured file patterns (globstar and brace
// semantics) and returns the matching paths as a sorted, deduplicated list
// of absolute paths. Relative patterns are resolved against the store root;
// absolute patterns are honored as-is.
func (s *Store) Discover() ([]string, error) {
	set := map[string]struct{}{}
	fsys := os.DirFS(s.root)
	for _, pattern := range s.patterns {
		var matches []string
		var err error
		if filepath.IsAbs(pattern) {
			matches, err = doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		} else {
			p := strings.TrimPrefix(filepath.ToSlash(pattern), "./")
			var rel []string
			rel, err = doublestar.Glob(fsys, p, doublestar.WithFilesOnly())
			for _, m := range rel {
				matches = append(matches, filepath.Join(s.root, filepath.FromSlash(m)))
			}
		}
		if err != nil {
			return nil, fmt.Errorf("invalid ad file pattern [%s]: %w", pattern, err)
		}
		for _, m := range matches {
			if strings.HasSuffix(m, schemaFileName) {
				continue
			}
			abs, err := filepath.Abs(m)
			if err != nil {
				return nil, fmt.Errorf("resolve ad file path [%s]: %w", m, err)
			}
			set[abs] = struct{}{}
		}
	}

	files := make([]string, 0, len(set))
	for f := range set {
		files = append(files, f)
	}
	slices.Sort(files)
	return files, nil
}

// LoadAll discovers all ad files and returns one entry per file, resolved
// through r, sorted by path.
func (s *Store) LoadAll(r *Resolver) ([]*Entry, error) {
	log.Info().Msg("searching for ad config files...")
	files, err := s.Discover()
	if err != nil {
		return nil, err
	}
	log.Info().Int("count", len(files)).Msg(" -> found ad config files")

	entries := make([]*Entry, 0, len(files))
	for _, file := range files {
		raw, err := LoadRaw(file)
		if err != nil {
			return nil, err
		}
		resolved, err := r.Resolve(raw, file)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &Entry{Path: file, Raw: raw, Resolved: resolved})
	}
	return entries, nil
}

// LoadRaw reads one definition file. YAML and JSON documents are both
// accepted; the document must be a mapping.
func LoadRaw(path string) (RawDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ad file %s: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ad file %s: %w", path, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("ad file %s holds no mapping", path)
	}
	return RawDefinition(raw), nil
}

// Persist writes the raw definition back to path as a full rewrite,
// preserving every field the engine did not explicitly manage.
func (s *Store) Persist(path string, raw RawDefinition) error {
	data, err := yaml.Marshal(map[string]any(raw))
	if err != nil {
		return fmt.Errorf("marshal ad file %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write ad file %s: %w", path, err)
	}
	return nil
}
