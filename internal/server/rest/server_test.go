package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/and161185/deck-keeper/internal/errs"
	"github.com/and161185/deck-keeper/internal/model"
	"github.com/and161185/deck-keeper/internal/repository"
	"github.com/and161185/deck-keeper/internal/review"
	"github.com/and161185/deck-keeper/internal/service"
)

// memStore backs the whole repository surface in memory so the handlers
// run against real services.
type memStore struct {
	users  map[string]*model.User
	decks  map[int64]*model.Deck
	cards  map[int64]*model.Card
	order  []int64 // deck ids in insertion order
	corder []int64 // card ids in insertion order
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{
		users: map[string]*model.User{},
		decks: map[int64]*model.Deck{},
		cards: map[int64]*model.Card{},
	}
}

var (
	_ repository.UserRepository = userRepo{}
	_ repository.DeckRepository = deckRepo{}
	_ repository.CardRepository = cardRepo{}
	_ repository.GUIDResolver   = (*memStore)(nil)
)

func (m *memStore) id() int64 { m.nextID++; return m.nextID }

func (m *memStore) CreateUser(u *model.User) error {
	if _, exists := m.users[u.Username]; exists {
		return errs.ErrAlreadyExists
	}
	u.ID = m.id()
	cpy := *u
	m.users[u.Username] = &cpy
	return nil
}

func (m *memStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memStore) ListByUser(_ context.Context, userID int64) ([]model.Deck, error) {
	var out []model.Deck
	for _, id := range m.order {
		if d, ok := m.decks[id]; ok && d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memStore) GetOwned(_ context.Context, userID, deckID int64) (*model.Deck, error) {
	d, ok := m.decks[deckID]
	if !ok || d.UserID != userID {
		return nil, errs.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (m *memStore) Rename(_ context.Context, userID, deckID int64, name string) error {
	d, ok := m.decks[deckID]
	if !ok || d.UserID != userID {
		return errs.ErrNotFound
	}
	d.Name = name
	return nil
}

func (m *memStore) Delete(_ context.Context, userID, deckID int64) error {
	d, ok := m.decks[deckID]
	if !ok || d.UserID != userID {
		return errs.ErrNotFound
	}
	delete(m.decks, deckID)
	for id, c := range m.cards {
		if c.DeckID == deckID {
			delete(m.cards, id)
		}
	}
	return nil
}

func (m *memStore) ListByDeck(_ context.Context, userID, deckID int64) ([]model.Card, error) {
	var out []model.Card
	for _, id := range m.corder {
		if c, ok := m.cards[id]; ok && c.UserID == userID && c.DeckID == deckID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) ListDue(_ context.Context, userID, deckID, now int64) ([]model.Card, error) {
	var out []model.Card
	for _, id := range m.corder {
		c, ok := m.cards[id]
		if ok && c.UserID == userID && c.DeckID == deckID && c.Review.NextReview <= now {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) GetOwnedCard(userID, cardID int64) (*model.Card, error) {
	c, ok := m.cards[cardID]
	if !ok || c.UserID != userID {
		return nil, errs.ErrNotFound
	}
	cpy := *c
	return &cpy, nil
}

func (m *memStore) Patch(_ context.Context, userID, cardID int64, p model.CardPatch) error {
	c, ok := m.cards[cardID]
	if !ok || c.UserID != userID {
		return errs.ErrNotFound
	}
	if p.Front != nil {
		c.Front = *p.Front
	}
	if p.Back != nil {
		c.Back = *p.Back
	}
	return nil
}

func (m *memStore) SetReviewState(_ context.Context, userID, cardID int64, st review.State) error {
	c, ok := m.cards[cardID]
	if !ok || c.UserID != userID {
		return errs.ErrNotFound
	}
	c.Review = st
	return nil
}

func (m *memStore) DeleteCard(userID, cardID int64) error {
	c, ok := m.cards[cardID]
	if !ok || c.UserID != userID {
		return errs.ErrNotFound
	}
	if d, ok := m.decks[c.DeckID]; ok {
		d.CardCount--
	}
	delete(m.cards, cardID)
	return nil
}

func (m *memStore) Resolve(_ context.Context, table string, guid uuid.UUID) (int64, error) {
	switch table {
	case repository.TableDecks:
		for _, d := range m.decks {
			if d.GUID == guid {
				return d.ID, nil
			}
		}
	case repository.TableCards:
		for _, c := range m.cards {
			if c.GUID == guid {
				return c.ID, nil
			}
		}
	}
	return 0, errs.ErrNotFound
}

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	return true, 0, nil
}
func (allowAllLimiter) Success(context.Context, string, []byte) error { return nil }
func (allowAllLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	return false, 0, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := newMemStore()

	auth := service.NewAuthService(userRepo{store}, []byte("test-signing-key"), time.Hour, allowAllLimiter{})
	decks := service.NewDeckService(deckRepo{store}, store)
	cards := service.NewCardService(cardRepo{store}, deckRepo{store}, store, nil)

	srv := httptest.NewServer(New(auth, decks, cards, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

// Thin adapters resolve the method-name collisions a single struct
// implementing several repositories would have.

type userRepo struct{ *memStore }

func (r userRepo) Create(_ context.Context, u *model.User) error { return r.CreateUser(u) }

type deckRepo struct{ *memStore }

func (r deckRepo) Create(_ context.Context, d *model.Deck) error {
	d.ID = r.id()
	cpy := *d
	r.decks[d.ID] = &cpy
	r.order = append(r.order, d.ID)
	return nil
}

type cardRepo struct{ *memStore }

func (r cardRepo) Create(_ context.Context, c *model.Card) error {
	d, ok := r.decks[c.DeckID]
	if !ok || d.UserID != c.UserID {
		return errs.ErrNotFound
	}
	c.ID = r.id()
	cpy := *c
	r.cards[c.ID] = &cpy
	r.corder = append(r.corder, c.ID)
	d.CardCount++
	return nil
}

func (r cardRepo) GetOwned(_ context.Context, userID, cardID int64) (*model.Card, error) {
	return r.GetOwnedCard(userID, cardID)
}

func (r cardRepo) Delete(_ context.Context, userID, cardID int64) error {
	return r.DeleteCard(userID, cardID)
}

// apiClient drives the HTTP API in tests.
type apiClient struct {
	t     *testing.T
	base  string
	token string
}

func (c *apiClient) do(method, path string, body any) (int, string) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, string(raw)
}

func (c *apiClient) login(username, password string) loginResponse {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/login", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(c.t, http.StatusOK, status, body)
	var out loginResponse
	require.NoError(c.t, json.Unmarshal([]byte(body), &out))
	c.token = out.Token
	return out
}

func (c *apiClient) signup(username, password string) {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/register", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(c.t, http.StatusOK, status, body)
	c.login(username, password)
}

func (c *apiClient) deckList() []deckResponse {
	c.t.Helper()
	status, body := c.do(http.MethodGet, "/deck/list", nil)
	require.Equal(c.t, http.StatusOK, status, body)
	var out []deckResponse
	require.NoError(c.t, json.Unmarshal([]byte(body), &out))
	return out
}

func (c *apiClient) cardList(path, deckGUID string) []cardResponse {
	c.t.Helper()
	status, body := c.do(http.MethodPost, path, map[string]string{"deckGuid": deckGUID})
	require.Equal(c.t, http.StatusOK, status, body)
	var out []cardResponse
	require.NoError(c.t, json.Unmarshal([]byte(body), &out))
	return out
}

func TestHealth(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL}

	status, body := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body)
}

func TestRegister(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL}

	status, body := c.do(http.MethodPost, "/register", map[string]string{"username": "alice", "password": "pw"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User created", body)

	status, body = c.do(http.MethodPost, "/register", map[string]string{"username": "alice", "password": "other"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User already exists", body)

	status, body = c.do(http.MethodPost, "/register", map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username or password missing", body)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL}

	status, _ := c.do(http.MethodPost, "/register", map[string]string{"username": "alice", "password": "pw"})
	require.Equal(t, http.StatusOK, status)

	out := c.login("alice", "pw")
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "alice", out.Username)

	status, body := c.do(http.MethodPost, "/login", map[string]string{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Wrong username or password", body)

	status, body = c.do(http.MethodPost, "/login", map[string]string{"username": "ghost", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Wrong username or password", body)
}

func TestLoginRefreshWithToken(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL}
	c.signup("alice", "pw")

	// a bare authorized POST /login re-issues the session
	status, body := c.do(http.MethodPost, "/login", nil)
	require.Equal(t, http.StatusOK, status, body)
	var out loginResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "alice", out.Username)

	// the refreshed token works on protected routes
	c.token = out.Token
	_ = c.deckList()

	c.token = ""
	status, body = c.do(http.MethodPost, "/login", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Access denied", body)
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL}
	c.signup("alice", "pw")
	good := c.token

	for name, token := range map[string]string{
		"missing":  "",
		"tampered": good + "x",
		"garbage":  "not-a-jwt",
	} {
		c.token = token
		status, body := c.do(http.MethodGet, "/deck/list", nil)
		assert.Equal(t, http.StatusUnauthorized, status, name)
		assert.Equal(t, "Access unauthorized", body, name)
	}
}

func TestDeckLifecycle(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL}
	c.signup("alice", "pw")

	for _, name := range []string{"first", "second", "third"} {
		status, body := c.do(http.MethodPost, "/deck/add", map[string]string{"deckName": name})
		require.Equal(t, http.StatusOK, status, body)
		assert.Equal(t, "Deck created", body)
	}

	decks := c.deckList()
	require.Len(t, decks, 3)
	assert.Equal(t, "first", decks[0].DeckName)
	assert.Equal(t, "second", decks[1].DeckName)
	assert.Equal(t, "third", decks[2].DeckName)

	target := decks[1]
	status, body := c.do(http.MethodPatch, "/deck/update", map[string]string{
		"deckGuid": target.DeckGUID, "deckName": "renamed",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Deck updated", body)

	decks = c.deckList()
	require.Len(t, decks, 3)
	assert.Equal(t, "renamed", decks[1].DeckName)
	assert.Equal(t, target.DeckGUID, decks[1].DeckGUID, "rename keeps the identifier")

	status, body = c.do(http.MethodDelete, "/deck/delete", map[string]string{"deckGuid": target.DeckGUID})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Deck deleted", body)

	status, body = c.do(http.MethodDelete, "/deck/delete", map[string]string{"deckGuid": target.DeckGUID})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Deck with this GUID doesn't exist", body)

	decks = c.deckList()
	require.Len(t, decks, 2)
	assert.Equal(t, "first", decks[0].DeckName)
	assert.Equal(t, "third", decks[1].DeckName)
}

func TestUpdateWithoutFieldsIsNoOp(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL}
	c.signup("alice", "pw")

	status, _ := c.do(http.MethodPost, "/deck/add", map[string]string{"deckName": "keep"})
	require.Equal(t, http.StatusOK, status)
	deckGUID := c.deckList()[0].DeckGUID

	status, body := c.do(http.MethodPatch, "/deck/update", map[string]string{"deckGuid": deckGUID})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Deck updated", body)
	assert.Equal(t, "keep", c.deckList()[0].DeckName)

	// the no-op form still 404s on a missing deck
	status, body = c.do(http.MethodPatch, "/deck/update", map[string]string{
		"deckGuid": uuid.Must(uuid.NewV4()).String(),
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Deck with this GUID doesn't exist", body)
}

func TestDeckGUIDValidation(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL}
	c.signup("alice", "pw")

	status, body := c.do(http.MethodDelete, "/deck/delete", map[string]string{"deckGuid": ""})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Deck GUID missing", body)

	status, body = c.do(http.MethodDelete, "/deck/delete", map[string]string{"deckGuid": "not-a-uuid"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Deck with this GUID doesn't exist", body)

	status, body = c.do(http.MethodPost, "/card/list", map[string]string{"deckGuid": ""})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Deck GUID missing", body)
}

func TestDeckIsolationBetweenUsers(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	alice := &apiClient{t: t, base: srv.URL}
	alice.signup("alice", "pw")
	status, _ := alice.do(http.MethodPost, "/deck/add", map[string]string{"deckName": "private"})
	require.Equal(t, http.StatusOK, status)
	guid := alice.deckList()[0].DeckGUID

	bob := &apiClient{t: t, base: srv.URL}
	bob.signup("bob", "pw")

	assert.Empty(t, bob.deckList())

	status, body := bob.do(http.MethodPatch, "/deck/update", map[string]string{
		"deckGuid": guid, "deckName": "stolen",
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Deck with this GUID doesn't exist", body)

	status, body = bob.do(http.MethodPost, "/card/list", map[string]string{"deckGuid": guid})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Deck with this GUID doesn't exist", body)

	// alice is unaffected
	assert.Equal(t, "private", alice.deckList()[0].DeckName)
}

func TestCardLifecycle(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL}
	c.signup("alice", "pw")

	status, _ := c.do(http.MethodPost, "/deck/add", map[string]string{"deckName": "words"})
	require.Equal(t, http.StatusOK, status)
	deckGUID := c.deckList()[0].DeckGUID

	status, body := c.do(http.MethodPost, "/card/add", map[string]string{
		"deckGuid": deckGUID, "cardFront": "hola", "cardBack": "hello",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Card created", body)

	assert.Equal(t, 1, c.deckList()[0].CardCount)

	cards := c.cardList("/card/list", deckGUID)
	require.Len(t, cards, 1)
	card := cards[0]
	assert.Equal(t, "hola", card.CardFront)
	assert.Equal(t, "hello", card.CardBack)
	assert.Equal(t, "LEARNING", card.Status)

	status, body = c.do(http.MethodPatch, "/card/update", map[string]string{
		"cardGuid": card.CardGUID, "cardFront": "adiós",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Card updated", body)

	cards = c.cardList("/card/list", deckGUID)
	assert.Equal(t, "adiós", cards[0].CardFront)
	assert.Equal(t, "hello", cards[0].CardBack, "untouched side survives")

	// only the GUID supplied: nothing changes, but the card is still checked
	status, body = c.do(http.MethodPatch, "/card/update", map[string]string{"cardGuid": card.CardGUID})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Card updated", body)
	cards = c.cardList("/card/list", deckGUID)
	assert.Equal(t, "adiós", cards[0].CardFront)
	assert.Equal(t, "hello", cards[0].CardBack)

	status, body = c.do(http.MethodDelete, "/card/delete", map[string]string{"cardGuid": card.CardGUID})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Card deleted", body)
	assert.Equal(t, 0, c.deckList()[0].CardCount)

	status, body = c.do(http.MethodDelete, "/card/delete", map[string]string{"cardGuid": card.CardGUID})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Card with this GUID doesn't exist", body)
}

func TestCardReviewAndDue(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL}
	c.signup("alice", "pw")

	status, _ := c.do(http.MethodPost, "/deck/add", map[string]string{"deckName": "words"})
	require.Equal(t, http.StatusOK, status)
	deckGUID := c.deckList()[0].DeckGUID

	status, _ = c.do(http.MethodPost, "/card/add", map[string]string{
		"deckGuid": deckGUID, "cardFront": "q", "cardBack": "a",
	})
	require.Equal(t, http.StatusOK, status)
	cardGUID := c.cardList("/card/list", deckGUID)[0].CardGUID

	// a fresh card is due immediately
	due := c.cardList("/card/due", deckGUID)
	require.Len(t, due, 1)

	status, body := c.do(http.MethodPost, "/card/review", map[string]string{
		"cardGuid": cardGUID, "grade": "good",
	})
	require.Equal(t, http.StatusOK, status, body)
	var st reviewResponse
	require.NoError(t, json.Unmarshal([]byte(body), &st))
	assert.Equal(t, "LEARNING", st.Status)
	assert.Equal(t, 1, st.LearningStep)
	assert.Greater(t, st.NextReview, time.Now().Unix())

	// the schedule pushed the card out of the due set
	assert.Empty(t, c.cardList("/card/due", deckGUID))

	status, body = c.do(http.MethodPost, "/card/review", map[string]string{
		"cardGuid": cardGUID, "grade": "sideways",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Unknown grade", body)

	status, body = c.do(http.MethodPost, "/card/review", map[string]string{
		"cardGuid": uuid.Must(uuid.NewV4()).String(), "grade": "good",
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Card with this GUID doesn't exist", body)
}

func TestDeckDeleteRemovesCards(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	c := &apiClient{t: t, base: srv.URL}
	c.signup("alice", "pw")

	status, _ := c.do(http.MethodPost, "/deck/add", map[string]string{"deckName": "doomed"})
	require.Equal(t, http.StatusOK, status)
	deckGUID := c.deckList()[0].DeckGUID

	status, _ = c.do(http.MethodPost, "/card/add", map[string]string{
		"deckGuid": deckGUID, "cardFront": "q", "cardBack": "a",
	})
	require.Equal(t, http.StatusOK, status)
	cardGUID := c.cardList("/card/list", deckGUID)[0].CardGUID

	status, _ = c.do(http.MethodDelete, "/deck/delete", map[string]string{"deckGuid": deckGUID})
	require.Equal(t, http.StatusOK, status)

	status, body := c.do(http.MethodDelete, "/card/delete", map[string]string{"cardGuid": cardGUID})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Card with this GUID doesn't exist", body)
}
