package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestName is the optional corpus manifest looked up in a directory.
const ManifestName = "corpus.yaml"

// ErrNoCases is returned when a corpus yields nothing to score.
var ErrNoCases = errors.New("validation corpus has no cases")

// Manifest is the structure of corpus.yaml.
type Manifest struct {
	Files []Entry `yaml:"files"`
}

// Entry is one HTML document of a corpus.
type Entry struct {
	Path        string `yaml:"path"`
	Login       bool   `yaml:"login,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// LoadManifest loads and parses a corpus manifest. Entry paths are made
// relative to the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to parse corpus manifest %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i, e := range m.Files {
		if e.Path == "" {
			return nil, fmt.Errorf("corpus manifest %s: files[%d]: path is required", path, i)
		}
		if !filepath.IsAbs(e.Path) {
			m.Files[i].Path = filepath.Join(dir, e.Path)
		}
	}
	return &m, nil
}

// ResolveCorpus expands paths into corpus entries. A file is used as is.
// A directory with a corpus.yaml contributes the manifest's entries;
// otherwise every .html or .htm file below it, in lexical order.
func ResolveCorpus(paths []string) ([]Entry, error) {
	var out []Entry
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("corpus %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, Entry{Path: p})
			continue
		}

		manifest := filepath.Join(p, ManifestName)
		if _, err := os.Stat(manifest); err == nil {
			m, err := LoadManifest(manifest)
			if err != nil {
				return nil, err
			}
			out = append(out, m.Files...)
			continue
		}

		found, err := htmlFiles(p)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			out = append(out, Entry{Path: f})
		}
	}
	return out, nil
}

func htmlFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".html", ".htm":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
