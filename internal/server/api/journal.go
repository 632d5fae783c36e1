package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/mudra/internal/store"
)

// Journal page sizes.
const (
	DefaultJournalLimit = 50
	MaxJournalLimit     = 500
)

// JournalHandler serves GET /api/transitions.
type JournalHandler struct {
	store *store.Store
}

// NewJournalHandler creates a JournalHandler backed by s.
func NewJournalHandler(s *store.Store) *JournalHandler {
	return &JournalHandler{store: s}
}

type transitionResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Trigger   string `json:"trigger"`
	At        string `json:"at"`
}

type journalResponse struct {
	Transitions []transitionResponse `json:"transitions"`
}

func (h *JournalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := DefaultJournalLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, MaxJournalLimit)
	}

	rows, err := h.store.Transitions().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read journal")
		return
	}

	resp := journalResponse{Transitions: make([]transitionResponse, 0, len(rows))}
	for _, t := range rows {
		resp.Transitions = append(resp.Transitions, transitionResponse{
			ID:        t.ID,
			SessionID: t.SessionID,
			From:      t.From,
			To:        t.To,
			Trigger:   t.Trigger,
			At:        t.At.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
