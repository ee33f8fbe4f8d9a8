package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/quizroom/internal/auth"
	"github.com/abrezinsky/quizroom/internal/broadcast"
	"github.com/abrezinsky/quizroom/internal/handlers"
	"github.com/abrezinsky/quizroom/internal/logger"
	"github.com/abrezinsky/quizroom/internal/models"
	"github.com/abrezinsky/quizroom/internal/repository"
	"github.com/abrezinsky/quizroom/internal/services"
	"github.com/abrezinsky/quizroom/internal/testutil"
	"github.com/abrezinsky/quizroom/internal/websocket"
)

const testPassword = "test-password"

type testSetup struct {
	quiz       *testutil.Quiz
	bus        *broadcast.MemoryBus
	sub        *broadcast.Subscription
	handlers   *handlers.Handlers
	router     chi.Router
	authCookie *http.Cookie
}

func newTestSetup(t *testing.T) *testSetup {
	t.Helper()
	quiz := testutil.NewQuiz(t)
	return newTestSetupWithRepo(t, quiz, quiz.Repo)
}

func newTestSetupWithRepo(t *testing.T, quiz *testutil.Quiz, repo repository.FullRepository) *testSetup {
	t.Helper()
	log := logger.New()

	bus := broadcast.NewMemoryBus(log, 0)
	judging := services.NewJudgingService(log, repo)
	judging.SetPublisher(bus)
	answers := services.NewAnswerService(log, repo, judging)
	games := services.NewGameService(log, repo, judging)
	games.SetPublisher(bus)
	settings := services.NewSettingsService(log, repo)
	participants := services.NewParticipantService(log, repo, settings)

	adminAuth := auth.New(testPassword)
	hub := websocket.New(log, bus, games, answers)
	h := handlers.New(log, games, answers, judging, participants, settings, adminAuth, hub)

	token, ok := adminAuth.Login(testPassword)
	if !ok {
		t.Fatal("login with the test password failed")
	}

	s := &testSetup{
		quiz:       quiz,
		bus:        bus,
		sub:        bus.Subscribe(quiz.GameID),
		handlers:   h,
		router:     h.Router(),
		authCookie: &http.Cookie{Name: auth.CookieName, Value: token},
	}
	t.Cleanup(func() { bus.Close() })
	return s
}

// do sends a request through the router. body is JSON encoded unless it is
// a string, which is sent as is.
func (s *testSetup) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// admin sends an authenticated operator request
func (s *testSetup) admin(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, method, path, body, s.authCookie)
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	apiErr := decode[handlers.APIError](t, rec)
	if apiErr.Code != code {
		t.Errorf("expected code %s, got %s (%s)", code, apiErr.Code, apiErr.Message)
	}
}

// nextEvent waits for the next room event of the seeded game
func (s *testSetup) nextEvent(t *testing.T) models.Event {
	t.Helper()
	select {
	case ev := <-s.sub.C:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a room event")
		return nil
	}
}

func (s *testSetup) expectNoEvent(t *testing.T) {
	t.Helper()
	select {
	case ev := <-s.sub.C:
		t.Errorf("unexpected room event %T", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func playerCookie(key string) *http.Cookie {
	return &http.Cookie{Name: auth.PlayerCookieName, Value: key}
}

func ptr[T any](v T) *T { return &v }
