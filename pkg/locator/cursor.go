package locator

import "github.com/blobmark/blobmark/pkg/store"

// Cursor iterates over the records of a view in append order.
//
// Before Next is called the first time all other results are
// undefined. After Next returns false, only Err has a defined result.
type Cursor struct {
	v       store.View
	started bool
	marker  uint64
	record  []byte
	err     error
}

// NewCursor returns a cursor positioned before the first record of v.
func NewCursor(v store.View) *Cursor {
	return &Cursor{v: v}
}

// Next advances to the next record, returning true while one exists.
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}

	var m uint64
	var ok bool
	if !c.started {
		c.started = true
		m, ok = First(c.v)
	} else {
		m, ok = NextMarker(c.v, c.marker)
	}
	if !ok {
		return false
	}

	rec, err := RecordAt(c.v, m)
	if err != nil {
		c.err = err
		return false
	}
	c.marker, c.record = m, rec
	return true
}

// Marker returns the marker offset of the current record.
func (c *Cursor) Marker() uint64 {
	return c.marker
}

// Record returns the current record's payload. The slice aliases the
// store mapping; treat it as read-only.
func (c *Cursor) Record() []byte {
	return c.record
}

// Err returns the error that stopped iteration, if any.
func (c *Cursor) Err() error {
	return c.err
}
