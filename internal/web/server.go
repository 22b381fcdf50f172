package web

import (
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"

	"pantry-monolith/internal/core"
	"pantry-monolith/internal/i18n"
)

const sessionName = "pantry-session"
const sessionUserIDKey = "user_id"
const sessionLocaleKey = "locale"

// Server represents the HTTP server
type Server struct {
	service       *core.Service
	sessionStore  *sessions.CookieStore
	sessionSecret string
	cronSecret    string
	translator    *i18n.Translator
	notifier      core.Notifier
}

// NewServer creates a new Server instance. The notifier is used by the batch
// trigger endpoint and may be nil when no bot is configured.
func NewServer(service *core.Service, sessionSecret, cronSecret, publicURL string, translator *i18n.Translator, notifier core.Notifier) (*Server, error) {
	store := sessions.NewCookieStore([]byte(sessionSecret))

	isHTTPS := strings.HasPrefix(publicURL, "https")
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isHTTPS,
		SameSite: http.SameSiteLaxMode,
	}

	return &Server{
		service:       service,
		sessionStore:  store,
		sessionSecret: sessionSecret,
		cronSecret:    cronSecret,
		translator:    translator,
		notifier:      notifier,
	}, nil
}

// Router creates and configures the HTTP router
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	fileServer := http.FileServer(http.Dir("static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Public routes
	r.Get("/", s.handleHome)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Post("/register", s.handleRegister)
	r.Get("/auth", s.handleHashLogin) // hash-based login from Telegram
	r.Get("/locale", s.handleSetLocale)

	// Batch trigger, guarded by the operator secret
	r.Get("/api/check-reminders", s.handleCheckReminders)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/logout", s.handleLogout)

		// Household routes
		r.Post("/households/create", s.handleCreateHousehold)
		r.Post("/households/join", s.handleJoinHousehold)
		r.Get("/households/{householdID}", s.handleHouseholdView)
		r.Get("/households/{householdID}/shopping-list", s.handleShoppingList)
		r.Post("/households/{householdID}/shopping-list/bought-all", s.handleBoughtAll)
		r.Get("/households/{householdID}/reminders", s.handleReminders)
		r.Post("/households/{householdID}/reminders/create", s.handleCreateReminder)
		r.Get("/households/{householdID}/settings", s.handleSettingsPage)
		r.Post("/households/{householdID}/settings", s.handleUpdateSettings)

		// Product routes
		r.Post("/households/{householdID}/products/create", s.handleCreateProduct)
		r.Post("/products/{productID}/update", s.handleUpdateProduct)
		r.Post("/products/{productID}/list", s.handleAddToList)
		r.Post("/products/{productID}/bought", s.handleMarkBought)
		r.Post("/products/{productID}/delete", s.handleDeleteProduct)

		// Reminder routes
		r.Post("/reminders/{reminderID}/toggle", s.handleToggleReminder)
		r.Post("/reminders/{reminderID}/update", s.handleUpdateReminder)
		r.Post("/reminders/{reminderID}/delete", s.handleDeleteReminder)
	})

	return r
}

// detectLocale picks locale from session then Accept-Language with fallback
// to the default.
func (s *Server) detectLocale(r *http.Request) string {
	if session, err := s.sessionStore.Get(r, sessionName); err == nil {
		if l, ok := session.Values[sessionLocaleKey].(string); ok && l != "" {
			return l
		}
	}
	al := r.Header.Get("Accept-Language")
	if strings.HasPrefix(strings.ToLower(al), "nl") {
		return "nl"
	}
	return "en"
}

// handleSetLocale stores locale in session and redirects back.
func (s *Server) handleSetLocale(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang != "nl" && lang != "en" {
		lang = "en"
	}
	_ = s.setLocale(w, r, lang)
	ref := r.Header.Get("Referer")
	if ref == "" {
		ref = "/"
	}
	http.Redirect(w, r, ref, http.StatusSeeOther)
}

// getUserID retrieves the user ID from the session
func (s *Server) getUserID(r *http.Request) (int64, bool) {
	session, err := s.sessionStore.Get(r, sessionName)
	if err != nil {
		return 0, false
	}

	userID, ok := session.Values[sessionUserIDKey].(int64)
	if !ok {
		return 0, false
	}

	return userID, true
}

// setUserID sets the user ID in the session
func (s *Server) setUserID(w http.ResponseWriter, r *http.Request, userID int64) error {
	session, err := s.sessionStore.Get(r, sessionName)
	if err != nil {
		return err
	}

	session.Values[sessionUserIDKey] = userID
	return session.Save(r, w)
}

// setLocale sets the preferred locale in session.
func (s *Server) setLocale(w http.ResponseWriter, r *http.Request, locale string) error {
	session, err := s.sessionStore.Get(r, sessionName)
	if err != nil {
		return err
	}
	session.Values[sessionLocaleKey] = locale
	return session.Save(r, w)
}

// clearSession clears the session
func (s *Server) clearSession(w http.ResponseWriter, r *http.Request) error {
	session, err := s.sessionStore.Get(r, sessionName)
	if err != nil {
		return err
	}

	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// requireAuth is middleware that ensures the user is authenticated
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.getUserID(r); !ok {
			// Render login directly to avoid redirect loops when cookies
			// are blocked
			s.handleLoginPage(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// renderTemplate parses layout.html together with the page template, so each
// page brings its own "content" block.
func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	layoutPath := filepath.Join("templates", "layout.html")
	pagePath := filepath.Join("templates", name)

	funcMap := template.FuncMap{
		"t": func(locale, key string) string {
			if s.translator == nil {
				return key
			}
			return s.translator.T(locale, key)
		},
	}

	tmpl, err := template.New(filepath.Base(layoutPath)).Funcs(funcMap).ParseFiles(layoutPath, pagePath)
	if err != nil {
		log.Error().Err(err).Str("template", name).Msg("template parsing failed")
		http.Error(w, fmt.Sprintf("Template parsing error: %v", err), http.StatusInternalServerError)
		return
	}

	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("template rendering failed")
		http.Error(w, fmt.Sprintf("Template error: %v", err), http.StatusInternalServerError)
	}
}

// handleHome renders the dashboard if logged in, otherwise the login page
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.getUserID(r); ok {
		s.handleDashboard(w, r)
		return
	}
	s.handleLoginPage(w, r)
}
