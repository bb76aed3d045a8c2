package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wonny/alphaselector/pkg/config"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// parseDate reads an optional YYYYMMDD query value
func parseDate(r *http.Request, key string) (time.Time, bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, false, nil
	}
	t, err := time.ParseInLocation(config.DateLayout, v, time.Local)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
