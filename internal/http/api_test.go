package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treasure-hunt/internal/auth"
	"treasure-hunt/internal/domain"
	"treasure-hunt/internal/repository"
	"treasure-hunt/internal/repository/memory"
	"treasure-hunt/internal/service"
)

const cookieName = "hunt_session"

// brokenUsers fails every lookup after login, simulating a store outage mid-session.
type brokenUsers struct {
	*memory.UserRepository
	broken bool
}

func (b *brokenUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if b.broken {
		return nil, errors.New("connection refused")
	}
	return b.UserRepository.GetByID(ctx, id)
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("no reachable servers") }

type testServer struct {
	router *gin.Engine
	users  *brokenUsers
	rounds *memory.RoundRepository
	hook   *test.Hook
}

func newTestServer(t *testing.T, health repository.Pinger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, hook := test.NewNullLogger()
	users := &brokenUsers{UserRepository: memory.NewUserRepository()}
	rounds := memory.NewRoundRepository()
	if health == nil {
		health = memory.NewPinger()
	}

	issuer := auth.NewIssuer([]byte("test-secret"), time.Hour)
	handler := NewHandler(
		service.NewSessionService(users, issuer, logger),
		service.NewHuntService(users, rounds, logger),
		health,
		CookieConfig{Name: cookieName, TTL: time.Hour},
		logger,
	)

	router := gin.New()
	router.Use(RequestID(), RequestLogger(logger), gin.Recovery())
	handler.RegisterRoutes(router)

	ctx := context.Background()
	hash, err := service.HashPassword("secret")
	require.NoError(t, err)
	_, err = users.Create(ctx, &domain.User{Username: "alice", PasswordHash: hash, Path: "pathA"})
	require.NoError(t, err)
	_, err = users.Create(ctx, &domain.User{Username: "eve", PasswordHash: hash, Path: "emptyPath"})
	require.NoError(t, err)

	for i, solution := range []string{"gold", "silver"} {
		require.NoError(t, rounds.Put(ctx, &domain.Round{
			Path:     "pathA",
			Number:   i + 1,
			Question: "Question <b>" + solution + "</b>?",
			Venue:    "Venue " + solution,
			Solution: solution,
		}))
	}

	return &testServer{router: router, users: users, rounds: rounds, hook: hook}
}

type request struct {
	method string
	path   string
	form   url.Values
	json   string
	accept string
	cookie *http.Cookie
	bearer string
}

func (s *testServer) do(r request) *httptest.ResponseRecorder {
	var body *strings.Reader
	switch {
	case r.form != nil:
		body = strings.NewReader(r.form.Encode())
	case r.json != "":
		body = strings.NewReader(r.json)
	default:
		body = strings.NewReader("")
	}

	req := httptest.NewRequest(r.method, r.path, body)
	switch {
	case r.form != nil:
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	case r.json != "":
		req.Header.Set("Content-Type", "application/json")
	}
	if r.accept != "" {
		req.Header.Set("Accept", r.accept)
	}
	if r.cookie != nil {
		req.AddCookie(r.cookie)
	}
	if r.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+r.bearer)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, username string) *http.Cookie {
	t.Helper()
	rec := s.do(request{
		method: http.MethodPost,
		path:   "/login",
		form:   url.Values{"username": {username}, "password": {"secret"}},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/round", rec.Header().Get("Location"))

	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			assert.True(t, c.HttpOnly)
			return c
		}
	}
	t.Fatalf("no session cookie set")
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestStaticPages(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(request{method: http.MethodGet, path: "/"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = s.do(request{method: http.MethodGet, path: "/login"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="password"`)
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(request{
		method: http.MethodPost,
		path:   "/login",
		form:   url.Values{"username": {"alice"}, "password": {"wrong"}},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid username or password")
	assert.Empty(t, rec.Result().Cookies())

	rec = s.do(request{
		method: http.MethodPost,
		path:   "/login",
		form:   url.Values{"username": {"alice"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginJSON(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(request{
		method: http.MethodPost,
		path:   "/login",
		json:   `{"username":"alice","password":"secret"}`,
		accept: "application/json",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[LoginResponse](t, rec)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, 1, resp.CurrentRound)
	assert.NotEmpty(t, resp.Token)

	rec = s.do(request{method: http.MethodGet, path: "/api/progress", bearer: resp.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decode[ProgressResponse](t, rec)
	assert.Equal(t, 2, progress.TotalRounds)
	assert.Equal(t, 0, progress.Solved)
	assert.False(t, progress.Completed)
}

func TestRoundRequiresSession(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(request{method: http.MethodGet, path: "/round"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "please login first")

	rec = s.do(request{
		method: http.MethodPost,
		path:   "/submit-answer",
		form:   url.Values{"answer": {"gold"}},
		cookie: &http.Cookie{Name: cookieName, Value: "forged"},
		accept: "application/json",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "please login first", decode[map[string]string](t, rec)["error"])
}

func TestHuntFlow(t *testing.T) {
	s := newTestServer(t, nil)
	cookie := s.login(t, "alice")

	rec := s.do(request{method: http.MethodGet, path: "/round", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Round 1")
	assert.Contains(t, rec.Body.String(), "&lt;b&gt;gold&lt;/b&gt;")
	assert.NotContains(t, rec.Body.String(), "<b>gold</b>")

	rec = s.do(request{method: http.MethodGet, path: "/round", cookie: cookie, accept: "application/json"})
	require.Equal(t, http.StatusOK, rec.Code)
	round := decode[RoundResponse](t, rec)
	assert.Equal(t, 1, round.Round)
	assert.Equal(t, "Venue gold", round.Venue)
	assert.NotContains(t, rec.Body.String(), "solution")

	rec = s.do(request{method: http.MethodPost, path: "/submit-answer", cookie: cookie, form: url.Values{"answer": {"bronze"}}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "is incorrect")

	rec = s.do(request{
		method: http.MethodPost,
		path:   "/submit-answer",
		cookie: cookie,
		form:   url.Values{"answer": {"GOLD "}},
		accept: "application/json",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	answer := decode[AnswerResponse](t, rec)
	assert.True(t, answer.Correct)
	assert.False(t, answer.Completed)
	assert.Equal(t, 2, answer.CurrentRound)
	require.NotNil(t, answer.NextRound)
	assert.Equal(t, 2, *answer.NextRound)

	rec = s.do(request{method: http.MethodPost, path: "/submit-answer", cookie: cookie, form: url.Values{"answer": {"silver"}}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You have completed all rounds!")

	rec = s.do(request{method: http.MethodGet, path: "/round", cookie: cookie, accept: "application/json"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[RoundResponse](t, rec).Completed)

	rec = s.do(request{method: http.MethodGet, path: "/api/progress", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[ProgressResponse](t, rec).Completed)
}

func TestLoginRestartsHunt(t *testing.T) {
	s := newTestServer(t, nil)
	cookie := s.login(t, "alice")

	rec := s.do(request{method: http.MethodPost, path: "/submit-answer", cookie: cookie, form: url.Values{"answer": {"gold"}}})
	require.Equal(t, http.StatusOK, rec.Code)

	cookie = s.login(t, "alice")
	rec = s.do(request{method: http.MethodGet, path: "/round", cookie: cookie, accept: "application/json"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[RoundResponse](t, rec).Round)
}

func TestSubmitAnswerValidation(t *testing.T) {
	s := newTestServer(t, nil)
	cookie := s.login(t, "alice")

	rec := s.do(request{method: http.MethodPost, path: "/submit-answer", cookie: cookie, form: url.Values{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMissingRoundData(t *testing.T) {
	s := newTestServer(t, nil)
	cookie := s.login(t, "eve")

	rec := s.do(request{method: http.MethodGet, path: "/round", cookie: cookie})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(request{method: http.MethodPost, path: "/submit-answer", cookie: cookie, form: url.Values{"answer": {"x"}}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoreFailureIsServerError(t *testing.T) {
	s := newTestServer(t, nil)
	cookie := s.login(t, "alice")
	s.users.broken = true

	rec := s.do(request{method: http.MethodGet, path: "/round", cookie: cookie, accept: "application/json"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decode[map[string]string](t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "connection refused")

	entry := s.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Contains(t, entry.Data["error"], "connection refused")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(request{method: http.MethodGet, path: "/api/health"})
	assert.Equal(t, http.StatusOK, rec.Code)

	s = newTestServer(t, downPinger{})
	rec = s.do(request{method: http.MethodGet, path: "/api/health"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDPropagates(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", s.hook.LastEntry().Data["request_id"])
}
