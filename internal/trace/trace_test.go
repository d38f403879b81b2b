package trace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileSink_CreatesFileUnderDir(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFileSink(dir, "trace-test.out")
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "trace-test.out"))
	assert.NoError(t, err)
}

func TestSymbol_AppendsOneLinePerWindow(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFileSink(dir, "trace-lines.out")
	require.NoError(t, err)

	s.Symbol([]complex128{1 + 0i, 0 + 1i})
	s.Symbol([]complex128{2 + 0i})
	require.NoError(t, s.Close())

	data, err := os.ReadFile(filepath.Join(dir, "trace-lines.out"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "1 "))
	assert.True(t, strings.HasPrefix(lines[1], "2 "))
}

func TestNewFileSink_RejectsUnwritableDir(t *testing.T) {
	_, err := NewFileSink(filepath.Join(t.TempDir(), "does-not-exist"), "trace.out")
	assert.Error(t, err)
}
