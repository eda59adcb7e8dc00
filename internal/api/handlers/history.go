package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ramonehamilton/deck-budget/internal/api/response"
	"github.com/ramonehamilton/deck-budget/internal/storage"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// HistoryReader lists recorded pricing runs.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]storage.Run, error)
	ByFingerprint(ctx context.Context, fingerprint string, limit int) ([]storage.Run, error)
}

// HistoryHandler handles run history requests.
type HistoryHandler struct {
	history HistoryReader
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(history HistoryReader) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// RunResponse is the JSON representation of a recorded run.
type RunResponse struct {
	ID          int64     `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
	Mode        string    `json:"mode"`
	Currency    string    `json:"currency"`
	Commander   string    `json:"commander_total"`
	Deck        string    `json:"deck_total"`
	Sideboard   string    `json:"sideboard_total"`
	GrandTotal  string    `json:"grand_total"`
	Legal       *bool     `json:"legal,omitempty"`
	Cards       int       `json:"cards"`
	NotFound    int       `json:"not_found"`
}

// NewRunResponse converts a recorded run.
func NewRunResponse(run storage.Run) RunResponse {
	return RunResponse{
		ID:          run.ID,
		Fingerprint: run.Fingerprint,
		CreatedAt:   run.CreatedAt.UTC(),
		Mode:        string(run.Mode),
		Currency:    run.Currency,
		Commander:   run.Commander.StringFixed(2),
		Deck:        run.Deck.StringFixed(2),
		Sideboard:   run.Sideboard.StringFixed(2),
		GrandTotal:  run.GrandTotal.StringFixed(2),
		Legal:       run.Legal,
		Cards:       run.Cards,
		NotFound:    run.NotFound,
	}
}

// GetRuns lists recent runs, optionally only those of one deck list
// (?fingerprint=) and bounded by ?limit=.
func (h *HistoryHandler) GetRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(w, r, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	var (
		runs []storage.Run
		err  error
	)
	if fp := r.URL.Query().Get("fingerprint"); fp != "" {
		runs, err = h.history.ByFingerprint(r.Context(), fp, limit)
	} else {
		runs, err = h.history.Recent(r.Context(), limit)
	}
	if err != nil {
		response.InternalError(w, r, err)
		return
	}

	out := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, NewRunResponse(run))
	}
	response.Success(w, out)
}
