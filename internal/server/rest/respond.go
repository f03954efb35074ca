package rest

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/and161185/deck-keeper/internal/errs"
)

var validate = validator.New()

// decodeJSON parses and validates a request body.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return validate.Struct(v)
}

// writeText writes a plain-string body, the shape mutations respond with.
func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// writeJSON writes a JSON body, the shape list and auth endpoints respond with.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", zap.Error(err))
	}
}

// writeDomainErr maps sentinel errors to HTTP statuses at the edge.
// notFoundMsg names the resource so 404s stay specific without leaking
// whether the row exists for someone else.
func (s *Server) writeDomainErr(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		writeText(w, http.StatusUnauthorized, "Access unauthorized")
	case errors.Is(err, errs.ErrRateLimited):
		writeText(w, http.StatusTooManyRequests, "Too many attempts, try again later")
	case errors.Is(err, errs.ErrNotFound):
		writeText(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, errs.ErrAlreadyExists):
		writeText(w, http.StatusBadRequest, "Already exists")
	default:
		s.log.Error("request failed", zap.Error(err))
		writeText(w, http.StatusInternalServerError, "Internal server error")
	}
}

// bearerToken extracts the token from "Authorization: Bearer <JWT>".
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}

// clientIP returns the peer address for rate limiting, preferring proxy
// headers over the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexAny(xff, ", "); i > 0 {
			return xff[:i]
		}
		return xff
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
