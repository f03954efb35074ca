package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/and161185/deck-keeper/internal/errs"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=256"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// handleRegister creates a new account.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "Username or password missing")
		return
	}
	if _, err := s.auth.Register(r.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			writeText(w, http.StatusBadRequest, "User already exists")
			return
		}
		s.writeDomainErr(w, err, "")
		return
	}
	writeText(w, http.StatusOK, "User created")
}

// handleLogin authenticates with credentials, or refreshes the session when
// the request carries a valid bearer token and an empty body.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	// an absent body is the token-refresh form
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username != "" && req.Password != "" {
		tokens, err := s.auth.LoginWithIP(r.Context(), req.Username, req.Password, clientIP(r))
		if err != nil {
			if errors.Is(err, errs.ErrUnauthorized) {
				writeText(w, http.StatusUnauthorized, "Wrong username or password")
				return
			}
			s.writeDomainErr(w, err, "")
			return
		}
		s.writeJSON(w, http.StatusOK, loginResponse{Token: tokens.AccessToken, Username: req.Username})
		return
	}

	// No credentials: a valid token alone extends the session.
	username, err := s.auth.VerifyToken(bearerToken(r))
	if err != nil {
		writeText(w, http.StatusUnauthorized, "Access denied")
		return
	}
	tokens, err := s.auth.Refresh(r.Context(), username)
	if err != nil {
		s.writeDomainErr(w, err, "")
		return
	}
	s.writeJSON(w, http.StatusOK, loginResponse{Token: tokens.AccessToken, Username: username})
}
