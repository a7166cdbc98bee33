package fakebackend

import (
	"fmt"
	"net/http"
	"strings"
)

func (s *Server) listProfiles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Profiles())
}

// createProfile inserts one row. Only the service key may write, as row level
// security would enforce.
func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	if !s.isServiceKey(r.Header.Get("apikey")) && s.keysConfigured() {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"code":    "42501",
			"message": `new row violates row-level security policy for table "profiles"`,
		})
		return
	}

	body, err := decodeBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"code": "PGRST102", "message": "Empty or invalid json",
		})
		return
	}
	id, _ := body["id"].(string)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"code": "23502", "message": `null value in column "id" violates not-null constraint`,
		})
		return
	}

	s.mu.Lock()
	if _, exists := s.profiles[id]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"code":    "23505",
			"message": fmt.Sprintf(`duplicate key value violates unique constraint "profiles_pkey" (id=%s)`, id),
		})
		return
	}
	s.profiles[id] = profile(body)
	s.order = append(s.order, id)
	s.mu.Unlock()

	if strings.Contains(r.Header.Get("Prefer"), "return=representation") {
		writeJSON(w, http.StatusCreated, []map[string]interface{}{body})
		return
	}
	w.WriteHeader(http.StatusCreated)
}
