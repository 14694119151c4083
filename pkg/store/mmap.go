package store

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapChunk is the granularity mappings are sized at. Mapping ahead of
// the file keeps appends from remapping every time; pages past the file
// end are never touched because reads stop at the published length.
const mapChunk = 1 << 20

// mapCapacity returns the mapping size for a store of n bytes.
func mapCapacity(n int64) int {
	c := (n + mapChunk - 1) / mapChunk * mapChunk
	if c == 0 {
		c = mapChunk
	}
	return int(c)
}

// mapBytes maps size bytes of f read-only and shared, so bytes written
// through the file descriptor are visible in the mapping.
func mapBytes(f *os.File, size int) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
}

func unmapBytes(b []byte) error {
	return unix.Munmap(b)
}
