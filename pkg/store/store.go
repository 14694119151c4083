// Package store owns the single backing file of a blobmark store: its
// durable length, the advisory write lock, the read-only memory
// mapping handed to readers, and the append path that grows it.
//
// The file is a flat sequence of 8-byte words. Every record starts with
// a marker word whose offset field equals its own offset; the append
// path places records so that no other stored word can satisfy that
// predicate. Published bytes are never rewritten.
package store

import (
	"errors"
	"fmt"
	"math/bits"
	"os"
	"sync"

	"github.com/blobmark/blobmark/pkg/config"
	"github.com/blobmark/blobmark/pkg/layout"
	"github.com/blobmark/blobmark/pkg/word"
)

var (
	ErrClosed              = errors.New("store is closed")
	ErrReadOnly            = errors.New("store is read-only")
	ErrLocked              = errors.New("store is locked by another writer")
	ErrMisaligned          = errors.New("misaligned offset or store length")
	ErrStoreFull           = errors.New("store reached maximum size")
	ErrUnsupportedPlatform = errors.New("platform cannot address 64-bit store offsets")

	// ErrPayloadTooLarge is returned for appends beyond the record
	// size cap, whether the format's or the configured one.
	ErrPayloadTooLarge = layout.ErrPayloadTooLarge
)

// RecoveryInfo describes what tail recovery did when the store was
// opened.
type RecoveryInfo struct {
	// TruncatedBytes is how many trailing bytes were discarded as an
	// unconfirmed or corrupt tail.
	TruncatedBytes int64

	// DroppedRecords counts dangling records discarded with them.
	DroppedRecords int
}

// Store is an open blobmark file. At most one Store per process should
// be writable for a given path; across processes the fcntl lock
// enforces the same when enabled.
type Store struct {
	path string
	file *os.File
	cfg  *config.Config

	// mu guards the published state read by views: mapping, length,
	// closed flag. Appends take it only for the brief publish step.
	mu      sync.RWMutex
	data    []byte
	length  int64
	closed  bool
	retired [][]byte

	// wmu serializes appenders; held across the whole write.
	wmu sync.Mutex

	locked    bool
	recovered RecoveryInfo
}

// Open opens or creates the store at path. A nil cfg means defaults.
//
// Unless cfg.ReadOnly is set the file is opened for writing, locked
// (per cfg.LockFile) and, per cfg.VerifyTailOnOpen, truncated to the
// last confirmed record boundary if a crash left a dangling tail.
func Open(path string, cfg *config.Config) (*Store, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if bits.UintSize < 64 {
		return nil, ErrUnsupportedPlatform
	}

	flags := os.O_RDWR | os.O_CREATE
	if cfg.ReadOnly {
		flags = os.O_RDONLY
	}
	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("open store file: %w", err)
	}

	s := &Store{path: path, file: file, cfg: cfg}

	if !cfg.ReadOnly && cfg.LockFile {
		if err := lockFile(path, file); err != nil {
			file.Close()
			return nil, err
		}
		s.locked = true
	}

	if err := s.init(); err != nil {
		s.release()
		return nil, err
	}
	return s, nil
}

// init sizes the store, recovers the tail and maps the file.
func (s *Store) init() error {
	stat, err := s.file.Stat()
	if err != nil {
		return fmt.Errorf("stat store file: %w", err)
	}
	size := stat.Size()

	if !word.Aligned(uint64(size)) && !s.cfg.VerifyTailOnOpen {
		return fmt.Errorf("%w: store length %d", ErrMisaligned, size)
	}

	data, err := mapBytes(s.file, mapCapacity(size))
	if err != nil {
		return fmt.Errorf("map store file: %w", err)
	}
	s.data = data

	length := size
	if s.cfg.VerifyTailOnOpen {
		good, dropped := recoverLength(data, size)
		if good < size {
			s.recovered = RecoveryInfo{
				TruncatedBytes: size - good,
				DroppedRecords: dropped,
			}
			if !s.cfg.ReadOnly {
				if err := s.file.Truncate(good); err != nil {
					return fmt.Errorf("truncate corrupt tail: %w", err)
				}
			}
		}
		length = good
	}
	s.length = length
	return nil
}

// Append writes payload as a new record and returns its marker offset.
// The bytes are flushed (per the sync mode) before the new length is
// published, so readers never observe an unconfirmed tail.
func (s *Store) Append(payload []byte) (uint64, error) {
	if s.cfg.ReadOnly {
		return 0, ErrReadOnly
	}
	if len(payload) > s.cfg.MaxPayloadSize {
		return 0, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), s.cfg.MaxPayloadSize)
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.mu.RLock()
	closed, off := s.closed, uint64(s.length)
	s.mu.RUnlock()
	if closed {
		return 0, ErrClosed
	}

	image, _, err := layout.EncodeRecord(off, payload)
	if err != nil {
		return 0, err
	}
	if off+uint64(len(image)) > word.MaxOffset+word.Size {
		return 0, ErrStoreFull
	}

	if _, err := s.file.WriteAt(image, int64(off)); err != nil {
		return 0, fmt.Errorf("append record: %w", err)
	}
	if s.cfg.SyncMode == config.SyncImmediate {
		if err := s.file.Sync(); err != nil {
			return 0, fmt.Errorf("sync record: %w", err)
		}
	}

	if err := s.publish(int64(off) + int64(len(image))); err != nil {
		return 0, err
	}
	return off, nil
}

// publish grows the mapping if the new length outruns it, then makes
// the length visible to readers. Outgrown mappings are kept alive until
// Close so that live views stay valid.
func (s *Store) publish(length int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if length > int64(len(s.data)) {
		data, err := mapBytes(s.file, mapCapacity(length))
		if err != nil {
			return fmt.Errorf("remap store file: %w", err)
		}
		s.retired = append(s.retired, s.data)
		s.data = data
	}
	s.length = length
	return nil
}

// Sync flushes the backing file. Useful with SyncNone to establish a
// durability point after a bulk load.
func (s *Store) Sync() error {
	if s.cfg.ReadOnly {
		return nil
	}
	return s.file.Sync()
}

// View returns a read snapshot of the store. The snapshot covers every
// record published before the call and stays coherent while appends
// continue. It must not be used after Close.
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return View{}
	}
	return View{data: s.data[:s.length]}
}

// Length returns the current durable length.
func (s *Store) Length() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(s.length)
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// ReadOnly reports whether the store was opened without write access.
func (s *Store) ReadOnly() bool {
	return s.cfg.ReadOnly
}

// Recovery reports what tail recovery did during Open.
func (s *Store) Recovery() RecoveryInfo {
	return s.recovered
}

// Close releases the mapping, the lock and the file. Views obtained
// earlier become invalid.
func (s *Store) Close() error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.mu.Unlock()

	return s.release()
}

// release tears down resources; used by Close and failed Opens. Tries
// everything and reports the first error.
func (s *Store) release() (xerr error) {
	for _, m := range s.retired {
		if err := unmapBytes(m); err != nil && xerr == nil {
			xerr = err
		}
	}
	s.retired = nil
	if s.data != nil {
		if err := unmapBytes(s.data); err != nil && xerr == nil {
			xerr = err
		}
		s.data = nil
	}
	if s.locked {
		if err := unlockFile(s.path, s.file); err != nil && xerr == nil {
			xerr = err
		}
		s.locked = false
	}
	if err := s.file.Close(); err != nil && xerr == nil {
		xerr = err
	}
	return xerr
}
