package feed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledger-sentinel/internal/logging"
	"github.com/ledger-sentinel/internal/types"
)

// captureSink records submitted transactions and can reject selectively.
type captureSink struct {
	txs    []types.Transaction
	reject func(tx types.Transaction) error
}

func (c *captureSink) Submit(tx types.Transaction) error {
	if c.reject != nil {
		if err := c.reject(tx); err != nil {
			return err
		}
	}
	c.txs = append(c.txs, tx)
	return nil
}

func testLogger() *logging.Logger {
	return logging.NewWriter(logging.LevelError, logging.FormatText, io.Discard)
}

func TestMeterCountsWithinWindow(t *testing.T) {
	m := NewMeter()
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	for i := 0; i < 5; i++ {
		m.Mark()
		clock = clock.Add(10 * time.Second)
	}
	// 50 seconds elapsed: every mark is still inside the window.
	assert.Equal(t, 5.0, m.PerMinute())

	clock = clock.Add(15 * time.Second)
	// The first mark is now 65s old and falls out.
	assert.Equal(t, 4.0, m.PerMinute())

	clock = clock.Add(time.Hour)
	assert.Zero(t, m.PerMinute())
}

func TestMeterReset(t *testing.T) {
	m := NewMeter()
	m.Mark()
	m.Mark()
	require.Equal(t, 2.0, m.PerMinute())

	m.Reset()
	assert.Zero(t, m.PerMinute())
}

func TestMeteredSinkMarksOnAccept(t *testing.T) {
	sink := &captureSink{}
	meter := NewMeter()
	wrapped := Metered(sink, meter)

	tx := types.Transaction{Source: "0xa", Dest: "0xb", Amount: 1, AssetType: "Bitcoin", Timestamp: time.Now()}
	require.NoError(t, wrapped.Submit(tx))
	assert.Equal(t, 1.0, meter.PerMinute())

	// Rejected transactions never count toward velocity.
	sink.reject = func(types.Transaction) error { return errors.New("queue closed") }
	assert.Error(t, wrapped.Submit(tx))
	assert.Equal(t, 1.0, meter.PerMinute())
}

func TestSyntheticProducesValidTransactions(t *testing.T) {
	s := NewSynthetic(&captureSink{}, 0, 42, testLogger())

	for i := 0; i < 200; i++ {
		tx := s.next()
		require.NoError(t, tx.Validate(), "transaction %d invalid", i)
		assert.NotEmpty(t, tx.Hash)
		assert.Contains(t, []string{"Bitcoin", "Ethereum"}, tx.AssetType)
	}
}

func TestSyntheticPeelingBurstFollowsSeedMove(t *testing.T) {
	s := NewSynthetic(&captureSink{}, 0, 7, testLogger())

	seeds := map[string]struct{}{
		"wallet_bad_001": {},
		"wallet_bad_002": {},
		"1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa": {},
	}

	var burstSource string
	burstLeft := 0
	sawBurst := false
	for i := 0; i < 500; i++ {
		tx := s.next()
		if burstLeft > 0 {
			assert.Equal(t, burstSource, tx.Source, "peel %d should continue the burst", i)
			assert.Less(t, tx.Amount, 0.2, "peels are small")
			burstLeft--
			continue
		}
		if _, isSeed := seeds[tx.Source]; isSeed {
			// A seeded move starts a burst from its mule destination.
			assert.GreaterOrEqual(t, tx.Amount, 10.0)
			burstSource = tx.Dest
			burstLeft = peelingBurstLength
			sawBurst = true
		}
	}
	assert.True(t, sawBurst, "expected at least one seeded peeling burst in 500 draws")
}

func TestSyntheticDeterministicForSameSeed(t *testing.T) {
	a := NewSynthetic(&captureSink{}, 0, 99, testLogger())
	b := NewSynthetic(&captureSink{}, 0, 99, testLogger())

	for i := 0; i < 50; i++ {
		ta, tb := a.next(), b.next()
		assert.Equal(t, ta.Source, tb.Source)
		assert.Equal(t, ta.Dest, tb.Dest)
		assert.Equal(t, ta.Amount, tb.Amount)
	}
}

func TestReplayPumpSubmitsWellFormedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"source":"0xa","dest":"0xb","amount":1.5,"assetType":"Bitcoin"}`,
		``,
		`not json at all`,
		`{"source":"","dest":"0xd","amount":2,"assetType":"Bitcoin"}`,
		`{"source":"0xc","dest":"0xd","amount":2,"assetType":"Ethereum"}`,
	}, "\n")

	sink := &captureSink{reject: func(tx types.Transaction) error {
		return tx.Validate()
	}}
	r := NewReplay("unused", 0, sink, testLogger())

	submitted, skipped, err := r.pump(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, submitted)
	assert.Equal(t, 2, skipped)

	require.Len(t, sink.txs, 2)
	assert.Equal(t, "0xa", sink.txs[0].Source)
	// Missing timestamps are filled in.
	assert.False(t, sink.txs[0].Timestamp.IsZero())
}

func TestReplayPumpStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &captureSink{}
	r := NewReplay("unused", 0, sink, testLogger())
	_, _, err := r.pump(ctx, strings.NewReader(`{"source":"0xa","dest":"0xb","amount":1,"assetType":"Bitcoin"}`))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.txs)
}

func TestReplayRunMissingFile(t *testing.T) {
	r := NewReplay("/nonexistent/path.ndjson", 0, &captureSink{}, testLogger())
	assert.Error(t, r.Run(context.Background()))
}

func TestNormalizeLiveTx(t *testing.T) {
	raw := `{
		"op": "utx",
		"x": {
			"hash": "abc123",
			"inputs": [{"prev_out": {"addr": "bc1qsender"}}],
			"out": [
				{"addr": "bc1qdest", "value": 150000000},
				{"addr": "bc1qchange", "value": 50000000}
			]
		}
	}`
	var msg liveMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	require.Equal(t, "utx", msg.Op)

	tx := normalizeLiveTx(msg.X)
	assert.Equal(t, "bc1qsender", tx.Source)
	assert.Equal(t, "bc1qdest", tx.Dest)
	assert.InDelta(t, 2.0, tx.Amount, 1e-9)
	assert.Equal(t, "Bitcoin", tx.AssetType)
	assert.Equal(t, "abc123", tx.Hash)
}

func TestNormalizeLiveTxFallbacks(t *testing.T) {
	tx := normalizeLiveTx(&liveTx{})
	assert.Equal(t, "INPUT_UNKNOWN", tx.Source)
	assert.Equal(t, "DEST_UNKNOWN", tx.Dest)
	assert.NoError(t, tx.Validate())
}
