//go:build darwin || linux

package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// acquireProfileLock takes an exclusive flock on a pid-stamped marker file
// inside the profile directory. The kernel drops the lock if the holder dies,
// so a crashed run never leaves the profile unusable.
func acquireProfileLock(dir string) (*os.File, error) {
	lockPath := filepath.Join(dir, "profile.lock")

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("cannot open lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
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
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
	}
}

// chromeHoldsProfile reports whether a live Chrome process outside our
// control holds the directory. Chrome marks this with a SingletonLock
// symlink whose target ends in the owning pid.
func chromeHoldsProfile(dir string) bool {
	target, err := os.Readlink(filepath.Join(dir, "SingletonLock"))
	if err != nil {
		return false
	}
	idx := strings.LastIndex(target, "-")
	if idx < 0 {
		return false
	}
	pid, err := strconv.Atoi(target[idx+1:])
	if err != nil {
		return false
	}
	// Signal 0 probes existence without sending anything.
	return syscall.Kill(pid, 0) == nil
}
