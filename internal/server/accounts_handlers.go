package server

import (
	"encoding/json"
	"errors"
	"lunastars/internal/accounts"
	"net/http"

	"go.uber.org/zap"
)

type credentials struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type apiError struct {
	Error string `json:"error"`
}

// loadAccount opens the caller's account session. A browser without a
// player cookie gets one and starts signed out.
func (s *Server) loadAccount(w http.ResponseWriter, r *http.Request) (*accounts.Session, bool) {
	sess := s.accountSession(s.playerID(w, r))
	if err := sess.Load(); err != nil {
		s.Logger.Error("load account", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, apiError{"Could not load account"})
		return nil, false
	}
	return sess, true
}

func (s *Server) saveAccount(w http.ResponseWriter, sess *accounts.Session) bool {
	if err := sess.Save(); err != nil {
		if errors.Is(err, accounts.ErrEmailInUse) {
			writeJSON(w, http.StatusConflict, apiError{err.Error()})
			return false
		}
		s.Logger.Error("save account", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, apiError{"Could not save account"})
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{"Invalid request body"})
		return false
	}
	return true
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if !decodeBody(w, r, &c) {
		return
	}
	sess, ok := s.loadAccount(w, r)
	if !ok {
		return
	}
	if err := sess.SignIn(c.Email, c.Password); err != nil {
		writeJSON(w, http.StatusUnauthorized, apiError{err.Error()})
		return
	}
	if !s.saveAccount(w, sess) {
		return
	}
	writeJSON(w, http.StatusOK, sess.User())
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if !decodeBody(w, r, &c) {
		return
	}
	sess, ok := s.loadAccount(w, r)
	if !ok {
		return
	}
	if err := sess.SignUp(c.Email, c.Username, c.Password); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, accounts.ErrEmailInUse) {
			code = http.StatusConflict
		}
		writeJSON(w, code, apiError{err.Error()})
		return
	}
	if !s.saveAccount(w, sess) {
		return
	}
	writeJSON(w, http.StatusCreated, sess.User())
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadAccount(w, r)
	if !ok {
		return
	}
	sess.SignOut()
	if !s.saveAccount(w, sess) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadAccount(w, r)
	if !ok {
		return
	}
	if !sess.IsAuthenticated() {
		writeJSON(w, http.StatusUnauthorized, apiError{accounts.ErrNotSignedIn.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sess.User())
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update accounts.ProfileUpdate
	if !decodeBody(w, r, &update) {
		return
	}
	sess, ok := s.loadAccount(w, r)
	if !ok {
		return
	}
	if err := sess.UpdateProfile(update); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, accounts.ErrNotSignedIn) {
			code = http.StatusUnauthorized
		}
		writeJSON(w, code, apiError{err.Error()})
		return
	}
	if !s.saveAccount(w, sess) {
		return
	}
	writeJSON(w, http.StatusOK, sess.User())
}

type usernameResponse struct {
	Available   bool     `json:"available"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (s *Server) handleUsername(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, apiError{"name is required"})
		return
	}
	available, suggestions := s.accountSession("").CheckUsername(name)
	writeJSON(w, http.StatusOK, usernameResponse{Available: available, Suggestions: suggestions})
}
