// Package rest exposes the deck-keeper HTTP API.
package rest

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/deck-keeper/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	auth  service.AuthService
	decks service.DeckService
	cards service.CardService
	log   *zap.Logger
}

// New constructs an HTTP server with injected services.
func New(auth service.AuthService, decks service.DeckService, cards service.CardService, log *zap.Logger) *Server {
	return &Server{auth: auth, decks: decks, cards: cards, log: log}
}

// Handler returns the routed handler wrapped in recovery, logging, and CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)

	mux.HandleFunc("POST /deck/add", s.withUser(s.handleDeckAdd))
	mux.HandleFunc("GET /deck/list", s.withUser(s.handleDeckList))
	mux.HandleFunc("PATCH /deck/update", s.withUser(s.handleDeckUpdate))
	mux.HandleFunc("DELETE /deck/delete", s.withUser(s.handleDeckDelete))

	mux.HandleFunc("POST /card/add", s.withUser(s.handleCardAdd))
	mux.HandleFunc("POST /card/list", s.withUser(s.handleCardList))
	mux.HandleFunc("PATCH /card/update", s.withUser(s.handleCardUpdate))
	mux.HandleFunc("DELETE /card/delete", s.withUser(s.handleCardDelete))
	mux.HandleFunc("POST /card/review", s.withUser(s.handleCardReview))
	mux.HandleFunc("POST /card/due", s.withUser(s.handleCardDue))

	return Recover(s.log, Logging(s.log, CORS(mux)))
}
