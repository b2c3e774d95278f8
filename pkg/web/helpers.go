package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// RespondJSON writes payload as a JSON document with the given status.
func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// RespondError writes {"error": message}.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, map[string]string{"error": message})
}

// SeeOther redirects with 303 so that a POST is followed by a GET.
func SeeOther(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}
