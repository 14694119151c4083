// Package engine ties the store, locator and searcher together behind
// the operations a caller sees: open-or-create, append, record access,
// bidirectional navigation, ordered search, iteration, verification.
package engine

import (
	"fmt"
	"time"

	"github.com/blobmark/blobmark/pkg/common/log"
	"github.com/blobmark/blobmark/pkg/config"
	"github.com/blobmark/blobmark/pkg/locator"
	"github.com/blobmark/blobmark/pkg/search"
	"github.com/blobmark/blobmark/pkg/stats"
	"github.com/blobmark/blobmark/pkg/store"
	"github.com/blobmark/blobmark/pkg/word"
)

// Engine is an open blobmark store plus its collaborators. All methods
// are safe for concurrent use; appends are serialized internally.
type Engine struct {
	store  *store.Store
	stats  *stats.Collector
	logger log.Logger
}

// Open opens or creates the store at path with default configuration.
func Open(path string) (*Engine, error) {
	return OpenWithConfig(path, config.NewDefaultConfig())
}

// OpenWithConfig opens or creates the store at path.
func OpenWithConfig(path string, cfg *config.Config) (*Engine, error) {
	s, err := store.Open(path, cfg)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		store:  s,
		stats:  stats.NewCollector(),
		logger: log.GetDefaultLogger().WithField("store", path),
	}

	if rec := s.Recovery(); rec.TruncatedBytes > 0 {
		e.stats.TrackRecovery(rec.TruncatedBytes, rec.DroppedRecords)
		e.logger.Warn("truncated unconfirmed tail: %d bytes, %d record(s)",
			rec.TruncatedBytes, rec.DroppedRecords)
	}
	e.logger.Debug("opened, length %d", s.Length())
	return e, nil
}

// Append stores payload as a new record and returns its marker offset.
func (e *Engine) Append(payload []byte) (uint64, error) {
	start := time.Now()
	off, err := e.store.Append(payload)
	if err != nil {
		e.stats.TrackError()
		return 0, err
	}

	e.stats.TrackLatency(stats.OpAppend, time.Since(start))
	recordLen := e.store.Length() - off
	pad := int(recordLen)/word.Size - 1 - (len(payload)+word.Size-1)/word.Size
	e.stats.TrackAppend(len(payload), pad)
	return off, nil
}

// RecordAt returns the exact payload of the record whose marker sits at
// off. The slice aliases the store mapping: read-only, valid until
// Close.
func (e *Engine) RecordAt(off uint64) ([]byte, error) {
	rec, err := locator.RecordAt(e.store.View(), off)
	if err != nil {
		return nil, err
	}
	e.stats.TrackOperation(stats.OpRead)
	e.stats.TrackRead(len(rec))
	return rec, nil
}

// Next returns the first marker strictly after off.
func (e *Engine) Next(off uint64) (uint64, bool, error) {
	if !word.Aligned(off) {
		return 0, false, fmt.Errorf("%w: offset %d", store.ErrMisaligned, off)
	}
	e.stats.TrackOperation(stats.OpNext)
	m, ok := locator.NextMarker(e.store.View(), off)
	return m, ok, nil
}

// Prev returns the last marker strictly before off.
func (e *Engine) Prev(off uint64) (uint64, bool, error) {
	if !word.Aligned(off) {
		return 0, false, fmt.Errorf("%w: offset %d", store.ErrMisaligned, off)
	}
	e.stats.TrackOperation(stats.OpPrev)
	if off < word.Size {
		return 0, false, nil
	}
	m, ok := locator.PrevMarker(e.store.View(), off-word.Size)
	return m, ok, nil
}

// Locate returns the marker of the record enclosing or starting at off,
// i.e. the nearest marker at or before it.
func (e *Engine) Locate(off uint64) (uint64, bool, error) {
	if !word.Aligned(off) {
		return 0, false, fmt.Errorf("%w: offset %d", store.ErrMisaligned, off)
	}
	m, ok := locator.PrevMarker(e.store.View(), off)
	return m, ok, nil
}

// Search binary-searches the records, which the caller must have
// appended in non-decreasing key order, and returns the marker of a
// record matching cmp.
func (e *Engine) Search(cmp search.Comparator) (uint64, bool, error) {
	start := time.Now()
	m, ok, err := search.Find(e.store.View(), cmp)
	if err != nil {
		e.stats.TrackError()
		return 0, false, err
	}
	e.stats.TrackLatency(stats.OpSearch, time.Since(start))
	return m, ok, nil
}

// Cursor returns a cursor over a snapshot of the current records.
func (e *Engine) Cursor() *locator.Cursor {
	return locator.NewCursor(e.store.View())
}

// View returns a read snapshot of the raw store bytes.
func (e *Engine) View() store.View {
	return e.store.View()
}

// Length returns the store's durable length.
func (e *Engine) Length() uint64 {
	return e.store.Length()
}

// Sync flushes the backing file.
func (e *Engine) Sync() error {
	return e.store.Sync()
}

// Stats returns a snapshot of the collected statistics.
func (e *Engine) Stats() map[string]interface{} {
	return e.stats.Snapshot()
}

// Close releases the store. Record slices handed out earlier become
// invalid.
func (e *Engine) Close() error {
	e.logger.Debug("closing, length %d", e.store.Length())
	return e.store.Close()
}
