package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/store"
)

// MaxPhraseLength bounds one fireworks phrase.
const MaxPhraseLength = 24

// PhrasesHandler serves /api/phrases.
type PhrasesHandler struct {
	store *store.Store
}

// NewPhrasesHandler creates a PhrasesHandler backed by s.
func NewPhrasesHandler(s *store.Store) *PhrasesHandler {
	return &PhrasesHandler{store: s}
}

type phrasesBody struct {
	Phrases []string `json:"phrases"`
}

func (h *PhrasesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		phrases, err := h.store.Phrases().List()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list phrases")
			return
		}
		if phrases == nil {
			phrases = []string{}
		}
		writeJSON(w, http.StatusOK, phrasesBody{Phrases: phrases})

	case http.MethodPut:
		var req phrasesBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		clean := make([]string, 0, len(req.Phrases))
		for _, p := range req.Phrases {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if len([]rune(p)) > MaxPhraseLength {
				writeError(w, http.StatusBadRequest, "Phrase too long")
				return
			}
			clean = append(clean, p)
		}
		if err := h.store.Phrases().Replace(clean); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save phrases")
			return
		}
		writeJSON(w, http.StatusOK, phrasesBody{Phrases: clean})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
