package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ledger-sentinel/internal/models"
)

// suspect pairs an account id with its record for ranked listings.
type suspect struct {
	AccountID string                `json:"accountId"`
	Record    *models.AccountRecord `json:"record"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleSuspects returns accounts above a score threshold, highest first.
// Query params: threshold (default 0.1), limit (default 50).
func (s *Server) handleSuspects(w http.ResponseWriter, r *http.Request) {
	threshold := queryFloat(r, "threshold", 0.1)
	limit := queryInt(r, "limit", 50)

	snap := s.store.Snapshot()
	suspects := make([]suspect, 0)
	for id, rec := range snap.Accounts {
		if rec.FinalScore > threshold {
			suspects = append(suspects, suspect{AccountID: id, Record: rec})
		}
	}
	sort.Slice(suspects, func(i, j int) bool {
		if suspects[i].Record.FinalScore != suspects[j].Record.FinalScore {
			return suspects[i].Record.FinalScore > suspects[j].Record.FinalScore
		}
		return suspects[i].AccountID < suspects[j].AccountID
	})
	if limit > 0 && len(suspects) > limit {
		suspects = suspects[:limit]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"suspects": suspects,
		"total":    len(suspects),
		"takenAt":  snap.TakenAt,
	})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	snap := s.store.Snapshot()
	rec, ok := snap.Accounts[id]
	if !ok {
		respondError(w, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "account not found: "+id)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accountId": id,
		"record":    rec,
		"history":   s.history.For(id),
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"agents": s.agents.List()})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Metrics(s.meter.PerMinute()))
}

// handleTransactions returns the recent transaction log, newest first.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	txs := s.history.Recent(limit)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"total":        len(txs),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.resetter.Reset()
	s.meter.Reset()
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func queryFloat(r *http.Request, key string, def float64) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
