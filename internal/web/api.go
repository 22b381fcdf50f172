package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// handleCheckReminders is the batch trigger: it runs one due-item scan and
// returns the summary. Guarded by a bearer token so only the external
// scheduler can hit it.
func (s *Server) handleCheckReminders(w http.ResponseWriter, r *http.Request) {
	if s.cronSecret == "" {
		http.Error(w, "Cron endpoint not configured", http.StatusServiceUnavailable)
		return
	}

	auth := r.Header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if auth == token || subtle.ConstantTimeCompare([]byte(token), []byte(s.cronSecret)) != 1 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if s.notifier == nil {
		http.Error(w, "Notification channel not configured", http.StatusServiceUnavailable)
		return
	}

	summary, err := s.service.RunDueScan(time.Now(), s.notifier, s.translator)
	if err != nil {
		log.Error().Err(err).Msg("triggered scan failed")
		http.Error(w, "Scan failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		log.Error().Err(err).Msg("failed to encode scan summary")
	}
}
