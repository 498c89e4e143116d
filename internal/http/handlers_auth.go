package http

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"budgify/internal/auth"
	"budgify/internal/services"
)

type credentialsBody struct {
	Email    any `json:"email"`
	Password any `json:"password"`
}

func parseCredentials(w http.ResponseWriter, r *http.Request) (string, string, error) {
	var body credentialsBody
	if err := NewRequestBodyParser(w, r).Decode(&body, false); err != nil {
		return "", "", err
	}
	email, err := stringValue("email", body.Email)
	if err != nil {
		return "", "", err
	}
	password, err := stringValue("password", body.Password)
	if err != nil {
		return "", "", err
	}
	return email, password, nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	email, password, err := parseCredentials(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.svc.Register(r.Context(), email, password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.startSession(w, user); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Field("user", user).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	email, password, err := parseCredentials(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.svc.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			atomic.AddInt64(&s.appMetrics.authFailures, 1)
		}
		writeError(w, r, err)
		return
	}
	if err := s.startSession(w, user); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Field("user", user).Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, s.cookieSecure)
	NoContent().Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.Me(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Field("user", user).Write(w)
}

// startSession issues a token for user and sets the session cookie.
func (s *Server) startSession(w http.ResponseWriter, user services.User) error {
	token, expires, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	auth.SetSessionCookie(w, token, expires, s.cookieSecure)
	return nil
}
