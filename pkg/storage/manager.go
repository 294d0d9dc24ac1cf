package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// ErrOutsideRoot is returned for paths that would leave the backup root
var ErrOutsideRoot = errors.New("path escapes the backup root")

// Manager owns the backup tree <root>/<site>/<kind>/<question id>.md.
// It remembers which files exist so reruns skip them.
type Manager struct {
	root  string
	known map[string]bool
	mu    sync.RWMutex
}

// NewManager creates the backup root if needed
func NewManager(root string) (*Manager, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backup root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup root: %w", err)
	}

	return &Manager{
		root:  abs,
		known: make(map[string]bool),
	}, nil
}

// Root returns the absolute backup root
func (m *Manager) Root() string {
	return m.root
}

// Path joins parts under the root and rejects results outside it
func (m *Manager) Path(parts ...string) (string, error) {
	target := filepath.Join(append([]string{m.root}, parts...)...)
	rel, err := filepath.Rel(m.root, target)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, target)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, target)
	}
	return target, nil
}

// QuestionPath returns the file a question is stored in
func (m *Manager) QuestionPath(site, kind string, questionID int64) (string, error) {
	return m.Path(site, kind, strconv.FormatInt(questionID, 10)+".md")
}

// IsBackedUp reports whether the question file already exists
func (m *Manager) IsBackedUp(site, kind string, questionID int64) bool {
	path, err := m.QuestionPath(site, kind, questionID)
	if err != nil {
		return false
	}

	m.mu.RLock()
	known := m.known[path]
	m.mu.RUnlock()
	if known {
		return true
	}

	if _, err := os.Stat(path); err == nil {
		m.mu.Lock()
		m.known[path] = true
		m.mu.Unlock()
		return true
	}
	return false
}

// Save writes the question file from r unless it already exists. It reports
// whether a file was written.
func (m *Manager) Save(site, kind string, questionID int64, r io.Reader) (bool, error) {
	path, err := m.QuestionPath(site, kind, questionID)
	if err != nil {
		return false, err
	}
	if m.IsBackedUp(site, kind, questionID) {
		return false, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}

	// Create temporary file first
	out, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return false, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return false, fmt.Errorf("failed to write question file: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return false, fmt.Errorf("failed to close file: %w", closeErr)
	}

	// Atomic rename
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return false, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.known[path] = true
	m.mu.Unlock()

	return true, nil
}

// Scan lists the question ids already stored for site and kind
func (m *Manager) Scan(site, kind string) ([]int64, error) {
	dir, err := m.Path(site, kind)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var ids []int64
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".md" {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(name, ".md"), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)

		m.mu.Lock()
		m.known[filepath.Join(dir, name)] = true
		m.mu.Unlock()
	}
	return ids, nil
}

// KnownCount returns the number of question files seen so far
func (m *Manager) KnownCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.known)
}
