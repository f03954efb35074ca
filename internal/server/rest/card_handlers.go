package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/and161185/deck-keeper/internal/model"
	"github.com/and161185/deck-keeper/internal/review"
	"github.com/gofrs/uuid/v5"
)

const cardNotFoundMsg = "Card with this GUID doesn't exist"

type cardAddRequest struct {
	DeckGUID  string `json:"deckGuid"`
	CardFront string `json:"cardFront"`
	CardBack  string `json:"cardBack"`
}

type cardListRequest struct {
	DeckGUID string `json:"deckGuid"`
}

type cardUpdateRequest struct {
	CardGUID  string  `json:"cardGuid"`
	CardFront *string `json:"cardFront"`
	CardBack  *string `json:"cardBack"`
}

type cardDeleteRequest struct {
	CardGUID string `json:"cardGuid"`
}

type cardReviewRequest struct {
	CardGUID string `json:"cardGuid"`
	Grade    string `json:"grade" validate:"required"`
}

type cardResponse struct {
	CardGUID     string `json:"cardGuid"`
	CardFront    string `json:"cardFront"`
	CardBack     string `json:"cardBack"`
	Status       string `json:"status"`
	LearningStep int    `json:"learningStep"`
	CurInterval  int64  `json:"curInterval"`
	LastReview   int64  `json:"lastReview"`
	NextReview   int64  `json:"nextReview"`
}

type reviewResponse struct {
	Status       string `json:"status"`
	LearningStep int    `json:"learningStep"`
	CurInterval  int64  `json:"curInterval"`
	LastReview   int64  `json:"lastReview"`
	NextReview   int64  `json:"nextReview"`
}

func toCardResponse(c model.Card) cardResponse {
	return cardResponse{
		CardGUID:     c.GUID.String(),
		CardFront:    c.Front,
		CardBack:     c.Back,
		Status:       string(c.Review.Status),
		LearningStep: c.Review.LearningStep,
		CurInterval:  c.Review.Interval,
		LastReview:   c.Review.LastReview,
		NextReview:   c.Review.NextReview,
	}
}

func (s *Server) handleCardAdd(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	var req cardAddRequest
	if err := decodeJSON(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	guid, ok := parseGUID(w, req.DeckGUID, "Deck")
	if !ok {
		return
	}
	if _, err := s.cards.Add(r.Context(), u.ID, guid, req.CardFront, req.CardBack); err != nil {
		s.writeDomainErr(w, err, deckNotFoundMsg)
		return
	}
	writeText(w, http.StatusOK, "Card created")
}

func (s *Server) handleCardList(w http.ResponseWriter, r *http.Request) {
	s.respondCardList(w, r, s.cards.List)
}

func (s *Server) handleCardDue(w http.ResponseWriter, r *http.Request) {
	s.respondCardList(w, r, func(ctx context.Context, userID int64, deckGUID uuid.UUID) ([]model.Card, error) {
		return s.cards.ListDue(ctx, userID, deckGUID, time.Now())
	})
}

func (s *Server) handleCardUpdate(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	var req cardUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	guid, ok := parseGUID(w, req.CardGUID, "Card")
	if !ok {
		return
	}
	p := model.CardPatch{Front: req.CardFront, Back: req.CardBack}
	if err := s.cards.Update(r.Context(), u.ID, guid, p); err != nil {
		s.writeDomainErr(w, err, cardNotFoundMsg)
		return
	}
	writeText(w, http.StatusOK, "Card updated")
}

func (s *Server) handleCardDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	var req cardDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	guid, ok := parseGUID(w, req.CardGUID, "Card")
	if !ok {
		return
	}
	if err := s.cards.Delete(r.Context(), u.ID, guid); err != nil {
		s.writeDomainErr(w, err, cardNotFoundMsg)
		return
	}
	writeText(w, http.StatusOK, "Card deleted")
}

func (s *Server) handleCardReview(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	var req cardReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "Grade missing")
		return
	}
	guid, ok := parseGUID(w, req.CardGUID, "Card")
	if !ok {
		return
	}
	grade, err := review.ParseGrade(req.Grade)
	if err != nil {
		writeText(w, http.StatusBadRequest, "Unknown grade")
		return
	}
	st, err := s.cards.Review(r.Context(), u.ID, guid, grade, time.Now())
	if err != nil {
		s.writeDomainErr(w, err, cardNotFoundMsg)
		return
	}
	s.writeJSON(w, http.StatusOK, reviewResponse{
		Status:       string(st.Status),
		LearningStep: st.LearningStep,
		CurInterval:  st.Interval,
		LastReview:   st.LastReview,
		NextReview:   st.NextReview,
	})
}

// respondCardList shares the decode/resolve/respond shape of the two
// deck-scoped listing endpoints.
func (s *Server) respondCardList(
	w http.ResponseWriter, r *http.Request,
	list func(ctx context.Context, userID int64, deckGUID uuid.UUID) ([]model.Card, error),
) {
	u, _ := UserFromCtx(r.Context())
	var req cardListRequest
	if err := decodeJSON(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	guid, ok := parseGUID(w, req.DeckGUID, "Deck")
	if !ok {
		return
	}
	cards, err := list(r.Context(), u.ID, guid)
	if err != nil {
		s.writeDomainErr(w, err, deckNotFoundMsg)
		return
	}
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardResponse(c))
	}
	s.writeJSON(w, http.StatusOK, out)
}
