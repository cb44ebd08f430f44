// Package analysis integrates the external behavioral-analysis capability:
// the request/response contract, an HTTP client, and the rate-limited
// scheduler that selects candidates and merges verdicts.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledger-sentinel/internal/types"
)

// ErrRateLimited is the distinguished rate-limit outcome. It trips the
// scheduler's circuit; every other error is a retryable soft failure.
var ErrRateLimited = errors.New("behavioral analysis capability rate limited")

// DefaultConfidence is used when the capability omits a confidence figure.
const DefaultConfidence = 0.8

// Verdict is a successful deep-analysis result.
type Verdict struct {
	// Confidence is the behavioral-risk confidence in [0,1].
	Confidence float64 `json:"confidence"`
	// Reason is the capability's concise forensic verdict.
	Reason string `json:"reason"`
}

// Normalize fills in the default confidence and clamps to [0,1]. The
// capability is a trusted oracle for content, not for bounds.
func (v *Verdict) Normalize() {
	if v.Confidence == 0 {
		v.Confidence = DefaultConfidence
	}
	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 1 {
		v.Confidence = 1
	}
}

// Capability is the deep-analysis oracle: given an account and its known
// transaction history, it returns a verdict, ErrRateLimited, or a soft error.
type Capability interface {
	Analyze(ctx context.Context, accountID string, history []types.Transaction) (*Verdict, error)
}

// HTTPCapability calls a remote behavioral-analysis service over HTTP.
type HTTPCapability struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPCapability creates a client for the given endpoint. The per-call
// deadline is the caller's responsibility via context; the http.Client
// timeout is a hard backstop.
func NewHTTPCapability(endpoint, apiKey string, timeout time.Duration) *HTTPCapability {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPCapability{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type analyzeRequest struct {
	AccountID    string              `json:"accountId"`
	Transactions []types.Transaction `json:"transactions"`
}

type analyzeResponse struct {
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Error      string  `json:"error,omitempty"`
}

// Analyze posts the account's history and decodes the verdict. HTTP 429 and
// quota-style error bodies map to ErrRateLimited.
func (c *HTTPCapability) Analyze(ctx context.Context, accountID string, history []types.Transaction) (*Verdict, error) {
	body, err := json.Marshal(analyzeRequest{AccountID: accountID, Transactions: history})
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("analysis request returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}
	if isQuotaError(decoded.Error) || isQuotaError(decoded.Reason) {
		return nil, ErrRateLimited
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("analysis capability error: %s", decoded.Error)
	}

	v := &Verdict{Confidence: decoded.Confidence, Reason: decoded.Reason}
	v.Normalize()
	return v, nil
}

func isQuotaError(s string) bool {
	upper := strings.ToUpper(s)
	return strings.Contains(upper, "QUOTA_EXCEEDED") || strings.Contains(upper, "RATE LIMIT")
}
