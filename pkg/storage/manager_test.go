package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerSaveAndSkip(t *testing.T) {
	root := t.TempDir()
	manager, err := NewManager(root)
	require.NoError(t, err)

	assert.False(t, manager.IsBackedUp("stackoverflow.com", "questions", 42))

	written, err := manager.Save("stackoverflow.com", "questions", 42, strings.NewReader("first"))
	require.NoError(t, err)
	assert.True(t, written)

	path := filepath.Join(root, "stackoverflow.com", "questions", "42.md")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))
	assert.True(t, manager.IsBackedUp("stackoverflow.com", "questions", 42))

	// an existing file is never rewritten
	written, err = manager.Save("stackoverflow.com", "questions", 42, strings.NewReader("second"))
	require.NoError(t, err)
	assert.False(t, written)
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))

	// kinds are separate
	assert.False(t, manager.IsBackedUp("stackoverflow.com", "answers", 42))

	// no temporary files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestManagerDetectsFilesFromEarlierRuns(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "math.stackexchange.com", "answers")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "7.md"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "8.md"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	manager, err := NewManager(root)
	require.NoError(t, err)

	ids, err := manager.Scan("math.stackexchange.com", "answers")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{7, 8}, ids)
	assert.Equal(t, 2, manager.KnownCount())
	assert.True(t, manager.IsBackedUp("math.stackexchange.com", "answers", 7))

	ids, err = manager.Scan("math.stackexchange.com", "questions")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestManagerRejectsPathsOutsideRoot(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = manager.Path("..", "elsewhere")
	assert.True(t, errors.Is(err, ErrOutsideRoot))

	_, err = manager.Save("../../etc", "questions", 1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrOutsideRoot)

	_, err = manager.QuestionPath("..", "..", 1)
	assert.ErrorIs(t, err, ErrOutsideRoot)

	path, err := manager.Path("stackoverflow.com", "questions")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, manager.Root()))
}

func TestNewManagerCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "q_and_a")
	manager, err := NewManager(root)
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.True(t, filepath.IsAbs(manager.Root()))
}
