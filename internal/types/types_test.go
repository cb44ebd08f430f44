package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionValidate(t *testing.T) {
	base := Transaction{
		Source:    "acct_a",
		Dest:      "acct_b",
		Timestamp: time.Now(),
		Amount:    1.5,
		AssetType: "Bitcoin",
	}

	t.Run("valid transaction passes", func(t *testing.T) {
		tx := base
		require.NoError(t, tx.Validate())
	})

	t.Run("missing source is rejected", func(t *testing.T) {
		tx := base
		tx.Source = ""
		assert.ErrorIs(t, tx.Validate(), ErrMissingAccountID)
	})

	t.Run("missing dest is rejected", func(t *testing.T) {
		tx := base
		tx.Dest = ""
		assert.ErrorIs(t, tx.Validate(), ErrMissingAccountID)
	})

	t.Run("negative amount is rejected", func(t *testing.T) {
		tx := base
		tx.Amount = -0.01
		assert.Error(t, tx.Validate())
	})

	t.Run("zero amount is allowed", func(t *testing.T) {
		tx := base
		tx.Amount = 0
		assert.NoError(t, tx.Validate())
	})
}

func TestTransactionTouches(t *testing.T) {
	tx := Transaction{Source: "a", Dest: "b"}
	assert.True(t, tx.Touches("a"))
	assert.True(t, tx.Touches("b"))
	assert.False(t, tx.Touches("c"))
}
