// Package feed provides the ingestion collaborators: the live
// blockchain.info unconfirmed-transaction stream, a synthetic pattern
// generator, file replay, and the shared velocity meter.
package feed

import (
	"sync"
	"time"

	"github.com/ledger-sentinel/internal/types"
)

// Sink accepts normalized transactions. The engine implements it.
type Sink interface {
	Submit(tx types.Transaction) error
}

// Meter estimates ingestion velocity as transactions per minute over a
// sliding one-minute window. The velocity figure belongs to the feed layer;
// the core only reports it.
type Meter struct {
	mu     sync.Mutex
	marks  []time.Time
	window time.Duration
	now    func() time.Time
}

// NewMeter creates a meter with a one-minute window.
func NewMeter() *Meter {
	return &Meter{window: time.Minute, now: time.Now}
}

// Mark records one ingested transaction.
func (m *Meter) Mark() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.marks = append(m.marks, now)
	m.trim(now)
}

// PerMinute returns the number of transactions seen in the last minute.
func (m *Meter) PerMinute() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trim(m.now())
	return float64(len(m.marks))
}

// Reset clears the window.
func (m *Meter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marks = m.marks[:0]
}

func (m *Meter) trim(now time.Time) {
	cutoff := now.Add(-m.window)
	i := 0
	for i < len(m.marks) && m.marks[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		m.marks = append(m.marks[:0], m.marks[i:]...)
	}
}

// metered wraps a sink so every accepted transaction marks the meter.
type metered struct {
	sink  Sink
	meter *Meter
}

// Metered returns a sink that records velocity for accepted transactions.
func Metered(sink Sink, meter *Meter) Sink {
	return &metered{sink: sink, meter: meter}
}

func (m *metered) Submit(tx types.Transaction) error {
	if err := m.sink.Submit(tx); err != nil {
		return err
	}
	m.meter.Mark()
	return nil
}
