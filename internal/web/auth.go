package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

type loginPageData struct {
	basePageData
	Error string
}

// handleLoginPage displays the login page
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	locale := s.detectLocale(r)

	if _, ok := s.getUserID(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	s.renderTemplate(w, "login.html", loginPageData{basePageData: basePageData{Locale: locale}})
}

// handleLogin signs in an existing user by username
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	locale := s.detectLocale(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	if username == "" {
		s.renderTemplate(w, "login.html", loginPageData{basePageData: basePageData{Locale: locale}, Error: "Username is required"})
		return
	}

	user, err := s.service.GetUserByUsername(username)
	if err != nil {
		s.renderTemplate(w, "login.html", loginPageData{basePageData: basePageData{Locale: locale}, Error: "Unknown username. Register below to create an account."})
		return
	}

	if err := s.setUserID(w, r, user.ID); err != nil {
		s.renderTemplate(w, "login.html", loginPageData{basePageData: basePageData{Locale: locale}, Error: "Failed to create session"})
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleRegister creates a user and signs them in
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	locale := s.detectLocale(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	if username == "" {
		s.renderTemplate(w, "login.html", loginPageData{basePageData: basePageData{Locale: locale}, Error: "Username is required"})
		return
	}

	user, err := s.service.CreateUser(username)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("registration failed")
		s.renderTemplate(w, "login.html", loginPageData{basePageData: basePageData{Locale: locale}, Error: "That username is taken"})
		return
	}

	if err := s.setUserID(w, r, user.ID); err != nil {
		s.renderTemplate(w, "login.html", loginPageData{basePageData: basePageData{Locale: locale}, Error: "Failed to create session"})
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleHashLogin processes hash-based login from the Telegram bot.
// URL format: /auth?user=<username>&hash=<hmac>
func (s *Server) handleHashLogin(w http.ResponseWriter, r *http.Request) {
	locale := s.detectLocale(r)

	if _, ok := s.getUserID(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	username := r.URL.Query().Get("user")
	providedHash := r.URL.Query().Get("hash")

	if username == "" || providedHash == "" {
		s.renderTemplate(w, "login.html", loginPageData{basePageData: basePageData{Locale: locale}, Error: "Invalid login link. Please use the link from the Telegram bot."})
		return
	}

	expectedHash := s.generateLoginHash(username)
	if !hmac.Equal([]byte(providedHash), []byte(expectedHash)) {
		log.Warn().Str("username", username).Msg("hash login with invalid hash")
		s.renderTemplate(w, "login.html", loginPageData{basePageData: basePageData{Locale: locale}, Error: "Invalid or expired login link. Please request a new one from the Telegram bot."})
		return
	}

	user, err := s.service.GetUserByUsername(username)
	if err != nil {
		s.renderTemplate(w, "login.html", loginPageData{basePageData: basePageData{Locale: locale}, Error: "User not found. Register on the web first."})
		return
	}

	if err := s.setUserID(w, r, user.ID); err != nil {
		s.renderTemplate(w, "login.html", loginPageData{basePageData: basePageData{Locale: locale}, Error: "Failed to create session"})
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// generateLoginHash generates an HMAC-SHA256 hash for username
func (s *Server) generateLoginHash(username string) string {
	h := hmac.New(sha256.New, []byte(s.sessionSecret))
	h.Write([]byte(username))
	return hex.EncodeToString(h.Sum(nil))
}

// handleLogout logs out the user
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	_ = s.clearSession(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
