package settings

import (
	"encoding/json"
	"log"
	"net/http"
)

// Handler serves the provider key settings.
type Handler struct {
	Store  Store
	Cipher *Cipher
}

func NewHandler(store Store, c *Cipher) *Handler {
	return &Handler{Store: store, Cipher: c}
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// HandleGetSettings returns every known key, masked.
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	api := make(map[string]string, len(knownKeys))
	for _, key := range knownKeys {
		value, err := GetSetting(r.Context(), h.Store, h.Cipher, key)
		if err != nil {
			log.Printf("Error reading setting %s: %v", key, err)
			writeError(w, http.StatusInternalServerError, "Failed to read settings")
			return
		}
		api[key] = MaskSensitiveValue(value)
	}
	writeJSON(w, http.StatusOK, SettingsResponse{API: api})
}

// HandleUpdateSettings stores the non-empty keys of the payload. They take
// effect on the next start.
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var payload SettingsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.API == nil {
		writeError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	updates := map[string]string{
		KeyExplorerAPIKey: payload.API.ExplorerKey,
		KeyRPCURL:         payload.API.RPCURL,
		KeyAlpacaKey:      payload.API.AlpacaKey,
		KeyAlpacaSecret:   payload.API.AlpacaSecret,
	}
	for _, key := range knownKeys {
		value := updates[key]
		if value == "" {
			continue
		}
		if err := SetSetting(r.Context(), h.Store, h.Cipher, key, value); err != nil {
			log.Printf("Error saving setting %s: %v", key, err)
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}

	writeJSON(w, http.StatusOK, SettingsResponse{Message: "Settings updated successfully"})
}
