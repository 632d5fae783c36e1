package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/store"
)

// SettingsHandler serves /api/settings. Stored values apply on the next
// start.
type SettingsHandler struct {
	store *store.Store
}

// NewSettingsHandler creates a SettingsHandler backed by s.
func NewSettingsHandler(s *store.Store) *SettingsHandler {
	return &SettingsHandler{store: s}
}

type settingsResponse struct {
	Settings map[string]string `json:"settings"`
	Keys     []string          `json:"keys"`
}

type setSettingRequest struct {
	Value string `json:"value"`
}

// ServeHTTP routes /api/settings and /api/settings/{key}.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/settings"), "/")

	if key == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w)
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.set(w, r, key)
	case http.MethodDelete:
		h.delete(w, key)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) list(w http.ResponseWriter) {
	all, err := h.store.Settings().All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: all, Keys: config.Keys()})
}

func (h *SettingsHandler) set(w http.ResponseWriter, r *http.Request, key string) {
	var req setSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	// Reject values that would fail on the next start.
	probe := config.Default()
	if err := probe.Set(key, req.Value); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := probe.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Settings().Set(key, req.Value); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save setting")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{key: req.Value})
}

func (h *SettingsHandler) delete(w http.ResponseWriter, key string) {
	if err := h.store.Settings().Delete(key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Setting not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete setting")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
