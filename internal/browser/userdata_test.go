package browser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveUserDataDirPreferred(t *testing.T) {
	preferred := filepath.Join(t.TempDir(), "profile")

	dir, lock, ephemeral, err := resolveUserDataDir(preferred, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer releaseProfileLock(lock)

	assert.Equal(t, preferred, dir)
	assert.False(t, ephemeral)
	assert.DirExists(t, preferred)
}

func TestResolveUserDataDirFallsBackWhenLocked(t *testing.T) {
	preferred := filepath.Join(t.TempDir(), "profile")

	first, firstLock, _, err := resolveUserDataDir(preferred, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer releaseProfileLock(firstLock)
	require.Equal(t, preferred, first)

	second, secondLock, ephemeral, err := resolveUserDataDir(preferred, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer releaseProfileLock(secondLock)

	assert.NotEqual(t, preferred, second)
	assert.True(t, ephemeral, "a contended profile yields a disposable directory")
	assert.True(t, strings.HasPrefix(second, preferred+"-"))
	assert.DirExists(t, second)
}

func TestEnsureDirCreatesMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, ensureDir(dir))
	assert.DirExists(t, dir)
}

func TestEnsureDirRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	assert.Error(t, ensureDir(path))
}

func TestProfileLockIsExclusive(t *testing.T) {
	dir := t.TempDir()

	lock, err := acquireProfileLock(dir)
	require.NoError(t, err)
	defer releaseProfileLock(lock)

	_, err = acquireProfileLock(dir)
	assert.Error(t, err, "the second holder must be refused")
}
