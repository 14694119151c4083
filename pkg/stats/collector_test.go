package stats

import (
	"sync"
	"testing"
	"time"
)

func TestTrackOperation(t *testing.T) {
	c := NewCollector()
	c.TrackOperation(OpAppend)
	c.TrackOperation(OpAppend)
	c.TrackOperation(OpRead)

	s := c.Snapshot()
	if s["append_ops"] != uint64(2) {
		t.Errorf("append_ops = %v, want 2", s["append_ops"])
	}
	if s["read_ops"] != uint64(1) {
		t.Errorf("read_ops = %v, want 1", s["read_ops"])
	}
}

func TestTrackLatency(t *testing.T) {
	c := NewCollector()
	c.TrackLatency(OpSearch, 100*time.Nanosecond)
	c.TrackLatency(OpSearch, 300*time.Nanosecond)

	s := c.Snapshot()
	if s["search_ops"] != uint64(2) {
		t.Errorf("search_ops = %v, want 2", s["search_ops"])
	}
	if s["search_avg_ns"] != uint64(200) {
		t.Errorf("search_avg_ns = %v, want 200", s["search_avg_ns"])
	}
	if s["search_max_ns"] != uint64(300) {
		t.Errorf("search_max_ns = %v, want 300", s["search_max_ns"])
	}
}

func TestTrackTotals(t *testing.T) {
	c := NewCollector()
	c.TrackAppend(100, 2)
	c.TrackAppend(50, 0)
	c.TrackRead(25)
	c.TrackRecovery(64, 1)
	c.TrackError()

	s := c.Snapshot()
	if s["bytes_written"] != uint64(150) {
		t.Errorf("bytes_written = %v", s["bytes_written"])
	}
	if s["padding_words"] != uint64(2) {
		t.Errorf("padding_words = %v", s["padding_words"])
	}
	if s["bytes_read"] != uint64(25) {
		t.Errorf("bytes_read = %v", s["bytes_read"])
	}
	if s["recovery_truncated_bytes"] != uint64(64) {
		t.Errorf("recovery_truncated_bytes = %v", s["recovery_truncated_bytes"])
	}
	if s["recovery_dropped_records"] != uint64(1) {
		t.Errorf("recovery_dropped_records = %v", s["recovery_dropped_records"])
	}
	if s["errors"] != uint64(1) {
		t.Errorf("errors = %v", s["errors"])
	}
}

func TestConcurrentTracking(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.TrackOperation(OpAppend)
				c.TrackAppend(8, 0)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s["append_ops"] != uint64(8000) {
		t.Errorf("append_ops = %v, want 8000", s["append_ops"])
	}
	if s["bytes_written"] != uint64(64000) {
		t.Errorf("bytes_written = %v, want 64000", s["bytes_written"])
	}
}
