package http

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/couchcryptid/school-report-service/internal/admin"
)

const sessionCookie = "admin_session"

type unlockRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	candidate, ok := decodePassword(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	token, res := s.deps.Gate.Unlock(candidate)
	s.deps.Metrics.AdminLogins.WithLabelValues(res.String()).Inc()

	switch res {
	case admin.ResultNoInput:
		w.WriteHeader(http.StatusNoContent)
	case admin.ResultWrongPassword:
		s.logger.Warn("admin unlock rejected", "remote_addr", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, admin.WrongPasswordMessage)
	case admin.ResultUnlocked:
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
		writeJSON(w, http.StatusOK, map[string]bool{"unlocked": true})
	}
}

func decodePassword(r *http.Request) (string, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req unlockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", false
		}
		return req.Password, true
	}
	if err := r.ParseForm(); err != nil {
		return "", false
	}
	return r.PostForm.Get("password"), true
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.deps.Gate.Lock(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// requireAdmin rejects requests that do not carry an unlocked session.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil || !s.deps.Gate.Unlocked(c.Value) {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	}
}
