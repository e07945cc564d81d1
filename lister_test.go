package myftp

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listerFixture(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, dir, "b.txt", []byte("bb"))
	writeFile(t, dir, "a.txt", []byte("a"))
	writeFile(t, dir, ".hidden", nil)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	writeFile(t, filepath.Join(dir, "sub"), "inner.txt", nil)

	return dir
}

func TestNativeLister(t *testing.T) {
	dir := listerFixture(t)

	out, err := NativeLister{}.List(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "a.txt\nb.txt\nsub\n", string(out))

	out, err = NativeLister{ShowHidden: true}.List(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, ".hidden\na.txt\nb.txt\nsub\n", string(out))
}

func TestNativeListerLong(t *testing.T) {
	dir := listerFixture(t)

	out, err := NativeLister{Long: true}.List(context.Background(), dir)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	require.Len(t, lines, 3)

	// -rw-r--r--    1 1000     1000            1 Aug  9 19:46 a.txt
	file := regexp.MustCompile(`^-rw[-rwx]{7} +\d+ +\S+ +\S+ +1 [A-Z][a-z]{2} [ \d]\d +[\d:]+ a\.txt$`)
	dirLine := regexp.MustCompile(`^drwx[-rwx]{6} +\d+ +\S+ +\S+ +\d+ [A-Z][a-z]{2} [ \d]\d +[\d:]+ sub$`)

	assert.Regexp(t, file, lines[0])
	assert.Regexp(t, dirLine, lines[2])
}

func TestNativeListerMissingDir(t *testing.T) {
	_, err := NativeLister{}.List(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestNativeListerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NativeLister{}.List(ctx, listerFixture(t))
	assert.ErrorIs(t, err, context.Canceled)
}
