package store

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// fcntl locks exclude other processes but not other descriptors in the
// same process, so an in-process registry backs them up.
var (
	lockMu    sync.Mutex
	lockPaths = make(map[string]bool)
)

func lockFile(path string, f *os.File) error {
	lockMu.Lock()
	defer lockMu.Unlock()

	if lockPaths[path] {
		return fmt.Errorf("%w: %s", ErrLocked, path)
	}

	lk := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: io.SeekStart,
	}
	if err := unix.FcntlFlock(f.Fd(), unix.F_SETLK, &lk); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLocked, path, err)
	}

	lockPaths[path] = true
	return nil
}

func unlockFile(path string, f *os.File) error {
	lockMu.Lock()
	defer lockMu.Unlock()

	delete(lockPaths, path)

	lk := unix.Flock_t{
		Type:   unix.F_UNLCK,
		Whence: io.SeekStart,
	}
	return unix.FcntlFlock(f.Fd(), unix.F_SETLK, &lk)
}
