package gateway

import (
	"sync"

	"github.com/meterscope/meterscope/core/domain"
)

// DefaultHistoryCapacity is the number of executions kept when no capacity
// is configured.
const DefaultHistoryCapacity = 50

// History is a bounded FIFO of successful executions
type History struct {
	mu       sync.Mutex
	records  []domain.ExecutionRecord
	start    int
	capacity int
}

// NewHistory creates a history holding at most capacity records.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		records:  make([]domain.ExecutionRecord, 0, capacity),
		capacity: capacity,
	}
}

// Add appends rec, evicting the oldest record when full
func (h *History) Add(rec domain.ExecutionRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.records) < h.capacity {
		h.records = append(h.records, rec)
		return
	}
	h.records[h.start] = rec
	h.start = (h.start + 1) % h.capacity
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (h *History) Recent(limit int) []domain.ExecutionRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.records)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]domain.ExecutionRecord, 0, limit)
	for i := range limit {
		idx := (h.start + n - 1 - i) % n
		out = append(out, h.records[idx])
	}
	return out
}

// Len returns the number of stored records
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// Capacity returns the maximum number of stored records
func (h *History) Capacity() int {
	return h.capacity
}
