package browser

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// resolveUserDataDir returns a user data directory this process can hold
// exclusively. The preferred directory is tried first; if another live
// instance holds its lock, a freshly minted unique directory is used instead
// so two launches never corrupt one profile's storage. The ephemeral flag
// marks minted directories, which are safe to delete on close.
func resolveUserDataDir(preferred string, log *zap.SugaredLogger) (dir string, lock *os.File, ephemeral bool, err error) {
	if err := ensureDir(preferred); err != nil {
		return "", nil, false, err
	}

	if !chromeHoldsProfile(preferred) {
		if lock, err := acquireProfileLock(preferred); err == nil {
			return preferred, lock, false, nil
		}
	}
	log.Warnf("profile %s is locked by another instance, using a fresh directory", preferred)

	fresh := fmt.Sprintf("%s-%s", preferred, uuid.NewString()[:8])
	if err := ensureDir(fresh); err != nil {
		return "", nil, false, err
	}
	lock, err = acquireProfileLock(fresh)
	if err != nil {
		return "", nil, false, fmt.Errorf("could not lock fallback profile directory: %w", err)
	}
	return fresh, lock, true, nil
}

func ensureDir(dirPath string) error {
	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(dirPath, 0777); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
			}
			return nil
		}
		return fmt.Errorf("failed to check directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory: %s", dirPath)
	}

	// Chrome silently falls back to a temp profile when it cannot write
	testFile := filepath.Join(dirPath, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0666); err != nil {
		return fmt.Errorf("directory exists but is not writable: %s", dirPath)
	}
	os.Remove(testFile)
	return nil
}
