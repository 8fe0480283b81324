//go:build windows

package browser

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// acquireProfileLock takes an exclusive LockFileEx on a pid-stamped marker
// file inside the profile directory.
func acquireProfileLock(dir string) (*os.File, error) {
	lockPath := filepath.Join(dir, "profile.lock")

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("cannot open lock file: %w", err)
	}

	handle := windows.Handle(file.Fd())
	overlapped := &windows.Overlapped{}
	err = windows.LockFileEx(handle, windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, 1, 0, overlapped)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("profile directory already locked")
	}

	file.Truncate(0)
	file.Seek(0, 0)
	fmt.Fprintf(file, "%d\n", os.Getpid())
	file.Sync()

	return file, nil
}

func releaseProfileLock(file *os.File) {
	if file != nil {
		handle := windows.Handle(file.Fd())
		overlapped := &windows.Overlapped{}
		windows.UnlockFileEx(handle, 0, 1, 0, overlapped)
		file.Close()
	}
}

// Chrome's profile marker is a regular file on Windows and carries no pid we
// can probe, so only our own lock file arbitrates here.
func chromeHoldsProfile(dir string) bool {
	return false
}
