package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledger-sentinel/internal/types"
)

func TestVerdictNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero falls back to default", 0, DefaultConfidence},
		{"in range untouched", 0.55, 0.55},
		{"above one clamps", 1.7, 1.0},
		{"negative clamps", -0.2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Verdict{Confidence: tt.in}
			v.Normalize()
			assert.Equal(t, tt.want, v.Confidence)
		})
	}
}

func TestHTTPCapabilityAnalyze(t *testing.T) {
	var gotAuth string
	var gotReq analyzeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(analyzeResponse{Confidence: 0.92, Reason: "Structured peeling chain"})
	}))
	defer srv.Close()

	c := NewHTTPCapability(srv.URL, "secret-key", 5*time.Second)
	history := []types.Transaction{{Source: "0xa", Dest: "0xb", Amount: 1, AssetType: "Bitcoin", Timestamp: time.Now()}}

	v, err := c.Analyze(context.Background(), "0xb", history)
	require.NoError(t, err)
	assert.Equal(t, 0.92, v.Confidence)
	assert.Equal(t, "Structured peeling chain", v.Reason)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "0xb", gotReq.AccountID)
	assert.Len(t, gotReq.Transactions, 1)
}

func TestHTTPCapabilityDefaultsConfidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(analyzeResponse{Reason: "verdict without confidence"})
	}))
	defer srv.Close()

	c := NewHTTPCapability(srv.URL, "", 5*time.Second)
	v, err := c.Analyze(context.Background(), "0xa", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfidence, v.Confidence)
}

func TestHTTPCapabilityStatus429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewHTTPCapability(srv.URL, "", 5*time.Second)
	_, err := c.Analyze(context.Background(), "0xa", nil)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestHTTPCapabilityQuotaBody(t *testing.T) {
	tests := []struct {
		name string
		resp analyzeResponse
	}{
		{"quota in error field", analyzeResponse{Error: "QUOTA_EXCEEDED: daily budget"}},
		{"rate limit in reason", analyzeResponse{Reason: "rate limit reached, try later"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.resp)
			}))
			defer srv.Close()

			c := NewHTTPCapability(srv.URL, "", 5*time.Second)
			_, err := c.Analyze(context.Background(), "0xa", nil)
			assert.ErrorIs(t, err, ErrRateLimited)
		})
	}
}

func TestHTTPCapabilityServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPCapability(srv.URL, "", 5*time.Second)
	_, err := c.Analyze(context.Background(), "0xa", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "500")
}

func TestHTTPCapabilityErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(analyzeResponse{Error: "model overloaded"})
	}))
	defer srv.Close()

	c := NewHTTPCapability(srv.URL, "", 5*time.Second)
	_, err := c.Analyze(context.Background(), "0xa", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestHTTPCapabilityContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewHTTPCapability(srv.URL, "", 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Analyze(ctx, "0xa", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
}
