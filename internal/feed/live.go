package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ledger-sentinel/internal/logging"
	"github.com/ledger-sentinel/internal/retry"
	"github.com/ledger-sentinel/internal/types"
)

// DefaultLiveURL is the blockchain.info unconfirmed-transaction stream.
const DefaultLiveURL = "wss://ws.blockchain.info/inv"

// satoshisPerBitcoin converts output values from the wire format.
const satoshisPerBitcoin = 100000000.0

// Live subscribes to the unconfirmed-transaction websocket stream and
// normalizes each message into the core's transaction shape. Disconnects
// are retried with exponential backoff for as long as the context lives.
type Live struct {
	url    string
	sink   Sink
	logger *logging.Logger
}

// NewLive creates a live feed. An empty url uses the default stream.
func NewLive(url string, sink Sink, logger *logging.Logger) *Live {
	if url == "" {
		url = DefaultLiveURL
	}
	return &Live{url: url, sink: sink, logger: logger.WithField("component", "live-feed")}
}

// wire shapes for the blockchain.info unconfirmed stream.
type liveMessage struct {
	Op string  `json:"op"`
	X  *liveTx `json:"x"`
}

type liveTx struct {
	Hash   string `json:"hash"`
	Inputs []struct {
		PrevOut struct {
			Addr string `json:"addr"`
		} `json:"prev_out"`
	} `json:"inputs"`
	Out []struct {
		Addr  string `json:"addr"`
		Value int64  `json:"value"`
	} `json:"out"`
}

// Run connects and pumps transactions until the context is cancelled.
func (l *Live) Run(ctx context.Context) error {
	cfg := retry.DefaultConfig()
	cfg.InitialDelay = 5 * time.Second

	return retry.WithBackoff(ctx, cfg, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			l.logger.WithField("attempt", attempt).Info("Reconnecting ingestion socket")
		}
		return l.pump(ctx)
	})
}

// pump holds one websocket session. It returns a non-nil error when the
// session drops, triggering a backoff reconnect.
func (l *Live) pump(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", l.url, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"op": "unconfirmed_sub"}); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	l.logger.Info("Ingestion socket connected")

	// Unblock ReadMessage when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("ingestion socket closed: %w", err)
		}

		var msg liveMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Op != "utx" || msg.X == nil {
			continue
		}

		tx := normalizeLiveTx(msg.X)
		if err := l.sink.Submit(tx); err != nil {
			l.logger.WithError(err).Debug("Live feed submit rejected")
		}
	}
}

// normalizeLiveTx maps a wire transaction to the core shape: first input
// address as source, first output as destination, total output value as the
// amount.
func normalizeLiveTx(x *liveTx) types.Transaction {
	source := "INPUT_UNKNOWN"
	if len(x.Inputs) > 0 && x.Inputs[0].PrevOut.Addr != "" {
		source = x.Inputs[0].PrevOut.Addr
	}
	dest := "DEST_UNKNOWN"
	if len(x.Out) > 0 && x.Out[0].Addr != "" {
		dest = x.Out[0].Addr
	}

	var total int64
	for _, out := range x.Out {
		total += out.Value
	}

	return types.Transaction{
		Source:    source,
		Dest:      dest,
		Timestamp: time.Now(),
		Amount:    float64(total) / satoshisPerBitcoin,
		AssetType: "Bitcoin",
		Hash:      x.Hash,
	}
}
