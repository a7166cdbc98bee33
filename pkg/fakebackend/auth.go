package fakebackend

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

func userJSON(u *User) map[string]interface{} {
	return map[string]interface{}{
		"id":                 u.ID,
		"email":              u.Email,
		"email_confirmed_at": time.Now().UTC().Format(time.RFC3339),
		"user_metadata":      map[string]interface{}{"full_name": u.FullName},
	}
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"code": http.StatusBadRequest, "error_code": "bad_json", "msg": "Could not parse request body as JSON",
		})
		return
	}

	email, _ := body["email"].(string)
	password, _ := body["password"].(string)
	if email == "" || password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"code": http.StatusBadRequest, "error_code": "validation_failed", "msg": "Signup requires a valid email and password",
		})
		return
	}
	if len(password) < 6 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"code": http.StatusUnprocessableEntity, "error_code": "weak_password", "msg": "Password should be at least 6 characters",
		})
		return
	}

	fullName := ""
	if meta, ok := body["user_metadata"].(map[string]interface{}); ok {
		fullName, _ = meta["full_name"].(string)
	}

	s.mu.Lock()
	key := strings.ToLower(email)
	if _, exists := s.users[key]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"code": http.StatusUnprocessableEntity, "error_code": "user_already_exists", "msg": "User already registered",
		})
		return
	}
	u := &User{ID: newID(), Email: email, Password: password, FullName: fullName}
	s.users[key] = u
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    userJSON(u),
		"session": nil,
	})
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if grant := r.URL.Query().Get("grant_type"); grant != "password" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "unsupported_grant_type", "error_description": "Unsupported grant type " + grant,
		})
		return
	}

	body, err := decodeBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "invalid_request", "error_description": "Could not parse request body as JSON",
		})
		return
	}
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)

	s.mu.Lock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok || password == "" || u.Password != password {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "invalid_grant", "error_description": "Invalid login credentials",
		})
		return
	}
	access := "fake-" + newID()
	s.tokens[access] = u.ID
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  access,
		"token_type":    "bearer",
		"expires_in":    3600,
		"refresh_token": newID(),
		"user":          userJSON(u),
	})
}
