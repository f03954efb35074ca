package rest

import (
	"net/http"

	"github.com/gofrs/uuid/v5"
)

const deckNotFoundMsg = "Deck with this GUID doesn't exist"

type deckAddRequest struct {
	DeckName string `json:"deckName" validate:"required,max=256"`
}

type deckUpdateRequest struct {
	DeckGUID string `json:"deckGuid"`
	DeckName string `json:"deckName" validate:"max=256"`
}

type deckDeleteRequest struct {
	DeckGUID string `json:"deckGuid"`
}

type deckResponse struct {
	DeckGUID  string `json:"deckGuid"`
	DeckName  string `json:"deckName"`
	CardCount int    `json:"cardCount"`
}

func (s *Server) handleDeckAdd(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	var req deckAddRequest
	if err := decodeJSON(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "Deck name missing")
		return
	}
	if _, err := s.decks.Add(r.Context(), u.ID, req.DeckName); err != nil {
		s.writeDomainErr(w, err, deckNotFoundMsg)
		return
	}
	writeText(w, http.StatusOK, "Deck created")
}

func (s *Server) handleDeckList(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	decks, err := s.decks.List(r.Context(), u.ID)
	if err != nil {
		s.writeDomainErr(w, err, deckNotFoundMsg)
		return
	}
	out := make([]deckResponse, 0, len(decks))
	for _, d := range decks {
		out = append(out, deckResponse{
			DeckGUID:  d.GUID.String(),
			DeckName:  d.Name,
			CardCount: d.CardCount,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeckUpdate(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	var req deckUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	guid, ok := parseGUID(w, req.DeckGUID, "Deck")
	if !ok {
		return
	}
	if err := s.decks.Rename(r.Context(), u.ID, guid, req.DeckName); err != nil {
		s.writeDomainErr(w, err, deckNotFoundMsg)
		return
	}
	writeText(w, http.StatusOK, "Deck updated")
}

func (s *Server) handleDeckDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	var req deckDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	guid, ok := parseGUID(w, req.DeckGUID, "Deck")
	if !ok {
		return
	}
	if err := s.decks.Delete(r.Context(), u.ID, guid); err != nil {
		s.writeDomainErr(w, err, deckNotFoundMsg)
		return
	}
	writeText(w, http.StatusOK, "Deck deleted")
}

// parseGUID maps an absent identifier to a specific 404 and an unparseable
// one to the same 404 a missing row gets. Returns false when a response
// was already written.
func parseGUID(w http.ResponseWriter, raw, kind string) (uuid.UUID, bool) {
	if raw == "" {
		writeText(w, http.StatusNotFound, kind+" GUID missing")
		return uuid.Nil, false
	}
	guid, err := uuid.FromString(raw)
	if err != nil {
		writeText(w, http.StatusNotFound, kind+" with this GUID doesn't exist")
		return uuid.Nil, false
	}
	return guid, true
}
