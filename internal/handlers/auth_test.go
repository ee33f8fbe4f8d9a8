package handlers_test

import (
	"net/http"
	"testing"

	"github.com/abrezinsky/quizroom/internal/auth"
	"github.com/abrezinsky/quizroom/internal/handlers"
)

func TestLogin_Success(t *testing.T) {
	s := newTestSetup(t)

	rec := s.do(t, http.MethodPost, "/api/admin/login", handlers.LoginRequest{Password: testPassword})
	expectStatus(t, rec, http.StatusOK)

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatal("expected a session cookie")
	}

	rec = s.do(t, http.MethodGet, "/api/admin/games", nil, session)
	expectStatus(t, rec, http.StatusOK)
}

func TestLogin_Failures(t *testing.T) {
	s := newTestSetup(t)

	rec := s.do(t, http.MethodPost, "/api/admin/login", handlers.LoginRequest{Password: "guess"})
	expectErrorCode(t, rec, http.StatusUnauthorized, handlers.ErrCodeUnauthorized)
	if len(rec.Result().Cookies()) != 0 {
		t.Error("expected no cookie after a failed login")
	}

	rec = s.do(t, http.MethodPost, "/api/admin/login", "password="+testPassword)
	expectErrorCode(t, rec, http.StatusBadRequest, handlers.ErrCodeBadRequest)
}

func TestLogout_EndsSession(t *testing.T) {
	s := newTestSetup(t)

	rec := s.admin(t, http.MethodPost, "/api/admin/logout", nil)
	expectStatus(t, rec, http.StatusOK)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != auth.CookieName || cookies[0].MaxAge >= 0 {
		t.Errorf("expected the session cookie cleared, got %+v", cookies)
	}

	rec = s.admin(t, http.MethodGet, "/api/admin/games", nil)
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestOperatorRoutesRequireSession(t *testing.T) {
	s := newTestSetup(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/admin/games"},
		{http.MethodPost, "/api/admin/games"},
		{http.MethodDelete, "/api/admin/games/1"},
		{http.MethodPost, "/api/admin/games/1/send-question"},
		{http.MethodPost, "/api/admin/games/1/stop"},
		{http.MethodPut, "/api/admin/questions/1/correct-answer"},
		{http.MethodGet, "/api/admin/games/1/answers/pending"},
		{http.MethodPost, "/api/admin/games/1/answers/1/judge"},
		{http.MethodGet, "/api/admin/settings"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := s.do(t, rt.method, rt.path, nil)
			expectErrorCode(t, rec, http.StatusUnauthorized, handlers.ErrCodeUnauthorized)
		})
	}
	s.expectNoEvent(t)
}
