package textfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func readAll(t *testing.T, path string) ([]string, error) {
	t.Helper()
	var lines []string
	err := Lines(path, func(n int, line string) bool {
		require.Equal(t, len(lines), n)
		lines = append(lines, line)
		return true
	})
	return lines, err
}

func TestLines_PlainAndCRLF(t *testing.T) {
	p := writeFile(t, []byte("def helper():\r\n    return 1\n"))
	lines, err := readAll(t, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"def helper():", "    return 1"}, lines)
}

func TestLines_BinaryIsRejected(t *testing.T) {
	p := writeFile(t, []byte("PK\x03\x04\x00\x00binary"))
	_, err := readAll(t, p)
	assert.True(t, errors.Is(err, ErrNotText))
}

func TestLines_NullAfterSniffWindowIsNotBinary(t *testing.T) {
	data := strings.Repeat("a", SniffLen+10) + "\n"
	p := writeFile(t, []byte(data))
	lines, err := readAll(t, p)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestLines_InvalidUTF8(t *testing.T) {
	p := writeFile(t, []byte("ok line\n\xff\xfe\xfd broken\n"))
	_, err := readAll(t, p)
	assert.True(t, errors.Is(err, ErrNotText))
}

func TestLines_UTF8BOMIsStripped(t *testing.T) {
	p := writeFile(t, []byte("\xEF\xBB\xBFhello world\n"))
	lines, err := readAll(t, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world"}, lines)
}

func TestLines_UTF16WithNullsIsRejected(t *testing.T) {
	// "hi\nyo\n" in UTF-16LE with BOM
	data := []byte{0xFF, 0xFE, 'h', 0, 'i', 0, '\n', 0, 'y', 0, 'o', 0, '\n', 0}
	p := writeFile(t, data)
	lines, err := readAll(t, p)
	assert.True(t, errors.Is(err, ErrNotText))
	assert.Empty(t, lines)
}

func TestLines_StopEarly(t *testing.T) {
	p := writeFile(t, []byte("1\n2\n3\n"))
	count := 0
	err := Lines(p, func(n int, line string) bool {
		count++
		return n < 1
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLines_TooLong(t *testing.T) {
	p := writeFile(t, []byte(strings.Repeat("x", MaxLineLength+1)))
	_, err := readAll(t, p)
	assert.True(t, errors.Is(err, ErrLineTooLong))
}

func TestLines_Missing(t *testing.T) {
	err := Lines(filepath.Join(t.TempDir(), "nope"), func(int, string) bool { return true })
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestIsBinary(t *testing.T) {
	assert.False(t, IsBinary([]byte("plain text")))
	assert.True(t, IsBinary([]byte{'a', 0, 'b'}))
	assert.True(t, IsBinary([]byte{0xFE, 0xFF, 0, 'a'}))
	assert.True(t, IsBinary([]byte{0xFF, 0xFE, 'a', 0}))
	assert.False(t, IsBinary(nil))
}
