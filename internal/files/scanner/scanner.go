// Package scanner discovers JSON data files under a directory tree.
package scanner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vvka-141/songline/internal/files/filesystem"
	"github.com/vvka-141/songline/pkg/songline"
)

// Scanner walks a directory tree and collects JSON file paths.
type Scanner struct {
	fsProvider filesystem.FileSystemProvider
}

// NewScanner creates a scanner backed by the OS filesystem.
func NewScanner() *Scanner {
	return NewScannerWithFS(filesystem.NewOSFileSystem())
}

// NewScannerWithFS creates a scanner with a custom filesystem provider.
// Panics if fsProvider is nil.
func NewScannerWithFS(fsProvider filesystem.FileSystemProvider) *Scanner {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Scanner{fsProvider: fsProvider}
}

// ScanJSONFiles recursively collects all .json files under root and returns
// their absolute paths in lexicographic order. The ordering is part of the
// contract: later files override earlier ones during deduplication, so
// discovery must be deterministic.
func (s *Scanner) ScanJSONFiles(root string) ([]string, error) {
	dir, err := s.fsProvider.Open(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", songline.ErrDataPathNotFound, root, err)
	}

	var paths []string
	err = dir.Walk(func(file filesystem.File, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("failed to walk %s: %w", root, walkErr)
		}
		if file.Info().IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(file.Path()), ".json") {
			paths = append(paths, file.Path())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

var _ songline.FileScanner = (*Scanner)(nil)
