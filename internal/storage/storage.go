package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDataDir is where datasets are written when no directory is configured
const DefaultDataDir = "datasets/raw"

// Storage handles persistence of collected tables
type Storage struct {
	dataDir string
}

// New creates a new Storage instance rooted at dataDir, creating it if needed
func New(dataDir string) (*Storage, error) {
	dir, err := expandHome(dataDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dir,
	}, nil
}

// DataDir returns the resolved data directory
func (s *Storage) DataDir() string {
	return s.dataDir
}

// Path resolves name against the data directory. Absolute paths and ~/ paths are kept.
func (s *Storage) Path(name string) (string, error) {
	expanded, err := expandHome(name)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(expanded) {
		return expanded, nil
	}
	return filepath.Join(s.dataDir, expanded), nil
}

// SaveCSV writes header and rows to name and returns the path written.
// Every row must have the same width as the header.
func (s *Storage) SaveCSV(name string, header []string, rows [][]string) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}

	for i, row := range rows {
		if len(row) != len(header) {
			return "", fmt.Errorf("row %d has %d columns, want %d", i, len(row), len(header))
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close() // nolint:errcheck
		return "", fmt.Errorf("writing header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close() // nolint:errcheck
		return "", fmt.Errorf("writing rows: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", fmt.Errorf("setting file mode: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	return path, nil
}

// LoadCSV reads a table written by SaveCSV and returns its header and rows
func (s *Storage) LoadCSV(name string) ([]string, [][]string, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close() // nolint:errcheck

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("parsing %s: missing header row", path)
	}

	return records[0], records[1:], nil
}

// expandHome expands a leading ~/ to the user's home directory
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
