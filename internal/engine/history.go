package engine

import (
	"sync"

	"github.com/ledger-sentinel/internal/types"
)

// History is a bounded ring of recently processed transactions, newest
// first. It backs the deep-analysis history lookups and the read API's
// transaction log.
type History struct {
	mu  sync.RWMutex
	buf []types.Transaction
	cap int
}

// NewHistory creates a ring holding at most capacity transactions.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1000
	}
	return &History{buf: make([]types.Transaction, 0, capacity), cap: capacity}
}

// Record prepends a transaction, evicting the oldest beyond capacity.
func (h *History) Record(tx types.Transaction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.buf) == h.cap {
		copy(h.buf[1:], h.buf[:h.cap-1])
		h.buf[0] = tx
		return
	}
	h.buf = append([]types.Transaction{tx}, h.buf...)
}

// Recent returns up to limit transactions, newest first. A non-positive
// limit returns everything retained.
func (h *History) Recent(limit int) []types.Transaction {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := len(h.buf)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]types.Transaction, n)
	copy(out, h.buf[:n])
	return out
}

// For returns every retained transaction touching the account, newest first.
func (h *History) For(accountID string) []types.Transaction {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []types.Transaction
	for _, tx := range h.buf {
		if tx.Touches(accountID) {
			out = append(out, tx)
		}
	}
	return out
}

// Len returns the number of retained transactions.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.buf)
}

// Reset discards all retained transactions.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf = h.buf[:0]
}
