package intel

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledger-sentinel/internal/logging"
)

func TestSignatureSetMatches(t *testing.T) {
	s := DefaultSignatureSet()

	tests := []struct {
		name      string
		accountID string
		want      bool
	}{
		{"exact seed match", "wallet_bad_001", true},
		{"genesis address seed", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", true},
		{"marker substring", "deep_mixer_output_4", true},
		{"marker is case-insensitive", "MULE_ALPHA_7", true},
		{"bad prefix marker", "0xBAD0000123", true},
		{"clean account", "0x00a1b2c3", false},
		{"empty id", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Matches(tt.accountID))
		})
	}
}

func TestSignatureSetReplace(t *testing.T) {
	s := NewSignatureSet([]string{"seed_x"}, []string{"MARKER"})

	assert.True(t, s.Matches("seed_x"))
	assert.True(t, s.Matches("has_marker_inside"))

	s.Replace([]string{"seed_y"}, nil)
	assert.False(t, s.Matches("seed_x"))
	assert.False(t, s.Matches("has_marker_inside"))
	assert.True(t, s.Matches("seed_y"))
}

func TestRefresherMergesSharedIntel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	require.NoError(t, mr.Set("unrelated", "value"))
	mr.SAdd(SeedsKey, "shared_seed_1")
	mr.SAdd(MarkersKey, "TUMBLER")

	set := DefaultSignatureSet()
	logger := logging.New(logging.LevelError, logging.FormatText)
	r := NewRefresher(client, set, time.Minute, logger)

	require.NoError(t, r.RefreshOnce(context.Background()))

	// Shared intel is merged on top of the defaults.
	assert.True(t, set.Matches("shared_seed_1"))
	assert.True(t, set.Matches("my_tumbler_account"))
	assert.True(t, set.Matches("wallet_bad_001"))
	assert.True(t, set.Matches("mixer_input_01"))
}

func TestRefresherHandlesEmptyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	set := DefaultSignatureSet()
	logger := logging.New(logging.LevelError, logging.FormatText)
	r := NewRefresher(client, set, time.Minute, logger)

	require.NoError(t, r.RefreshOnce(context.Background()))

	seeds, markers := set.Counts()
	assert.Equal(t, len(DefaultSeeds), seeds)
	assert.Equal(t, len(DefaultMarkers), markers)
}
