// Package fakebackend emulates the platform endpoints the built-in suites talk to:
// password login and signup under /auth/v1, the stations and profiles tables
// under /rest/v1, and the create-payment-intent function under /functions/v1.
// State lives in memory for the lifetime of a Server. It backs the runner tests
// and the fakebackend command.
package fakebackend

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"metrosmoke/pkg/credentials"
)

// Station is a row of the stations table
type Station struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Line string `json:"line"`
}

// User is a seeded account
type User struct {
	ID       string
	Email    string
	Password string
	FullName string
}

// Response is a canned reply that replaces an endpoint's normal behaviour
type Response struct {
	Status int
	Body   string
}

// Options configures a Server
type Options struct {
	// AnonKey and ServiceKey are the accepted apikey values. When both are empty
	// every apikey is accepted.
	AnonKey    string
	ServiceKey string

	Stations []Station
	Users    []User

	// Overrides replies to "METHOD /path" with a canned response
	Overrides map[string]Response

	Logger *slog.Logger
}

// DefaultStations is the station list served when Options.Stations is nil
var DefaultStations = []Station{
	{ID: "st-churchgate", Name: "Churchgate", Code: "CCG", Line: "western"},
	{ID: "st-dadar", Name: "Dadar", Code: "DDR", Line: "western"},
	{ID: "st-andheri", Name: "Andheri", Code: "ADH", Line: "western"},
	{ID: "st-borivali", Name: "Borivali", Code: "BVI", Line: "western"},
}

type profile map[string]interface{}

// Server is an in-memory platform
type Server struct {
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	users    map[string]*User // by email
	tokens   map[string]string
	profiles map[string]profile
	order    []string
	requests int
}

// New creates a Server
func New(opts Options) *Server {
	if opts.Stations == nil {
		opts.Stations = DefaultStations
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		opts:     opts,
		logger:   logger,
		users:    make(map[string]*User),
		tokens:   make(map[string]string),
		profiles: make(map[string]profile),
	}
	for i := range opts.Users {
		u := opts.Users[i]
		if u.ID == "" {
			u.ID = newID()
		}
		s.users[strings.ToLower(u.Email)] = &u
	}
	return s
}

// Handler returns the router serving all endpoints
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.applyOverrides)

	r.Route("/auth/v1", func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post("/signup", s.signup)
		r.Post("/token", s.token)
	})

	r.Route("/rest/v1", func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Use(s.requireBearer)
		r.Get("/stations", s.listStations)
		r.Get("/profiles", s.listProfiles)
		r.Post("/profiles", s.createProfile)
	})

	r.Route("/functions/v1", func(r chi.Router) {
		r.Options("/create-payment-intent", s.preflight)
		r.With(s.requireAPIKey, s.requireBearer).Post("/create-payment-intent", s.createPaymentIntent)
	})

	return r
}

// Requests returns the number of requests served so far
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Profiles returns a copy of the stored profiles in insertion order
func (s *Server) Profiles() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]interface{}, 0, len(s.order))
	for _, id := range s.order {
		row := make(map[string]interface{}, len(s.profiles[id]))
		for k, v := range s.profiles[id] {
			row[k] = v
		}
		out = append(out, row)
	}
	return out
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()

		s.logger.Debug("fakebackend request",
			"method", r.Method,
			"path", r.URL.Path,
			"headers", credentials.RedactHeaders(r.Header))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) applyOverrides(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if resp, ok := s.opts.Overrides[r.Method+" "+r.URL.Path]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(resp.Status)
			_, _ = w.Write([]byte(resp.Body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) keysConfigured() bool {
	return s.opts.AnonKey != "" || s.opts.ServiceKey != ""
}

func (s *Server) validKey(key string) bool {
	if !s.keysConfigured() {
		return key != ""
	}
	return key != "" && (key == s.opts.AnonKey || key == s.opts.ServiceKey)
}

func (s *Server) isServiceKey(key string) bool {
	return s.opts.ServiceKey != "" && key == s.opts.ServiceKey
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.validKey(r.Header.Get("apikey")) {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"message": "Invalid API key",
				"hint":    "Double check your apikey header",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireBearer accepts a missing Authorization header, a platform key, or a
// token issued by /auth/v1/token
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			next.ServeHTTP(w, r)
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || !s.validBearer(token) {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"code":    "PGRST301",
				"message": "JWT could not be verified",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) validBearer(token string) bool {
	if s.validKey(token) && s.keysConfigured() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[token]
	return ok
}

func (s *Server) listStations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Stations)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func decodeBody(r *http.Request) (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}
