package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Walker traverses override directories and collects files by extension.
type Walker struct {
	exts map[string]bool
}

// NewWalker creates a Walker accepting the given extensions (with leading
// dot, matched case-insensitively). No extensions accepts every file.
func NewWalker(exts ...string) *Walker {
	w := &Walker{exts: make(map[string]bool, len(exts))}
	for _, ext := range exts {
		w.exts[strings.ToLower(ext)] = true
	}
	return w
}

// FileEntry represents a discovered override file.
type FileEntry struct {
	Path string
	// Ext is the lower-cased extension including the dot.
	Ext string
	// Stem is the file name without its final extension.
	Stem string
}

// Walk discovers all accepted files under root in lexical order.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var entries []FileEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		name := d.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if len(w.exts) > 0 && !w.exts[ext] {
			return nil
		}

		entries = append(entries, FileEntry{
			Path: path,
			Ext:  ext,
			Stem: strings.TrimSuffix(name, filepath.Ext(name)),
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	log.Debug().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}
