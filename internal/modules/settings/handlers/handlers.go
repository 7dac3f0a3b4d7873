// Package handlers provides HTTP handlers for runtime settings management.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aristath/compass/internal/events"
	"github.com/aristath/compass/internal/modules/settings"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler provides HTTP handlers for settings endpoints
type Handler struct {
	repo         *settings.Repository
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewHandler creates a new settings handler
func NewHandler(repo *settings.Repository, eventManager *events.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		repo:         repo,
		eventManager: eventManager,
		log:          log.With().Str("handler", "settings").Logger(),
	}
}

// RegisterRoutes registers all settings routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.HandleGetAll)
		r.Get("/{key}", h.HandleGet)
		r.Put("/{key}", h.HandleUpdate)
		r.Delete("/{key}", h.HandleDelete)
	})
}

// HandleGetAll handles GET /api/settings
// Returns the defaults merged with any database overrides.
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	merged := make(map[string]interface{}, len(settings.SettingDefaults))
	for key, value := range settings.SettingDefaults {
		merged[key] = value
	}

	overrides, err := h.repo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get all settings")
		http.Error(w, "Failed to get settings", http.StatusInternalServerError)
		return
	}
	for key, value := range overrides {
		merged[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(merged); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode settings response")
	}
}

// HandleGet handles GET /api/settings/{key}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !settings.IsKnownKey(key) {
		http.Error(w, fmt.Sprintf("Unknown setting: %s", key), http.StatusNotFound)
		return
	}

	var value interface{} = settings.SettingDefaults[key]
	override, err := h.repo.Get(key)
	if err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to get setting")
		http.Error(w, "Failed to get setting", http.StatusInternalServerError)
		return
	}
	if override != nil {
		value = *override
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{key: value})
}

// HandleUpdate handles PUT /api/settings/{key}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !settings.IsKnownKey(key) {
		http.Error(w, fmt.Sprintf("Unknown setting: %s", key), http.StatusBadRequest)
		return
	}

	var update settings.SettingUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.repo.Set(key, fmt.Sprintf("%v", update.Value), nil); err != nil {
		h.log.Error().
			Err(err).
			Str("key", key).
			Interface("value", update.Value).
			Msg("Failed to update setting")
		http.Error(w, "Failed to update setting", http.StatusInternalServerError)
		return
	}

	// Emit SETTINGS_CHANGED so dependent services pick up the new value
	if h.eventManager != nil {
		h.eventManager.EmitTyped(events.SettingsChanged, "settings", &events.SettingsChangedData{
			Key:   key,
			Value: update.Value,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{key: update.Value})
}

// HandleDelete handles DELETE /api/settings/{key}
// Removes the override so the environment or built-in default applies again.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !settings.IsKnownKey(key) {
		http.Error(w, fmt.Sprintf("Unknown setting: %s", key), http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(key); err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to delete setting")
		http.Error(w, "Failed to delete setting", http.StatusInternalServerError)
		return
	}

	if h.eventManager != nil {
		h.eventManager.EmitTyped(events.SettingsChanged, "settings", &events.SettingsChangedData{
			Key:   key,
			Value: settings.SettingDefaults[key],
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "reset", "key": key})
}
