package auth

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNew(t *testing.T) {
	a := New("test-password")

	if a == nil {
		t.Fatal("expected auth to be created")
	}
	if a.password != "test-password" {
		t.Error("expected password to be set")
	}
	if a.sessions == nil {
		t.Error("expected sessions map to be initialized")
	}
}

func TestGeneratePassword_Format(t *testing.T) {
	pw := GeneratePassword()

	parts := strings.Split(pw, "-")
	if len(parts) != 3 {
		t.Errorf("expected 3 words separated by dashes, got %d parts: %s", len(parts), pw)
	}
	for _, part := range parts {
		if !slices.Contains(quizWords, part) {
			t.Errorf("word %q not in quizWords list", part)
		}
	}
}

func TestGeneratePassword_Randomness(t *testing.T) {
	passwords := make(map[string]bool)
	for i := 0; i < 10; i++ {
		passwords[GeneratePassword()] = true
	}

	// 19 words in 3 positions; a handful of draws should rarely collide
	if len(passwords) < 3 {
		t.Errorf("expected more password variety, got only %d unique passwords", len(passwords))
	}
}

func TestLogin(t *testing.T) {
	a := New("password")

	tests := []struct {
		name     string
		password string
		wantOK   bool
	}{
		{"valid", "password", true},
		{"wrong", "wrong", false},
		{"empty", "", false},
		{"prefix", "pass", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, ok := a.Login(tt.password)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && (token == "" || !a.ValidateSession(token)) {
				t.Error("expected a valid session token")
			}
			if !ok && token != "" {
				t.Errorf("expected no token, got %q", token)
			}
		})
	}
}

func TestLogout_InvalidatesSession(t *testing.T) {
	a := New("password")
	token, _ := a.Login("password")

	a.Logout(token)

	if a.ValidateSession(token) {
		t.Error("expected session to be invalid after logout")
	}
}

func TestValidateSession_InvalidToken(t *testing.T) {
	a := New("password")

	if a.ValidateSession("nonexistent-token") {
		t.Error("expected false for nonexistent token")
	}
}

func TestValidateSession_ExpiredSession(t *testing.T) {
	a := New("password")
	start := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return start }
	token, _ := a.Login("password")

	a.now = func() time.Time { return start.Add(SessionExpiry - time.Minute) }
	if !a.ValidateSession(token) {
		t.Fatal("expected session to be valid before expiry")
	}

	a.now = func() time.Time { return start.Add(SessionExpiry + time.Minute) }
	if a.ValidateSession(token) {
		t.Error("expected expired session to be invalid")
	}

	a.mu.RLock()
	_, exists := a.sessions[token]
	a.mu.RUnlock()
	if exists {
		t.Error("expected expired session to be removed")
	}
}

func TestLogin_PrunesExpiredSessions(t *testing.T) {
	a := New("password")
	start := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return start }
	stale, _ := a.Login("password")

	a.now = func() time.Time { return start.Add(SessionExpiry + time.Hour) }
	fresh, _ := a.Login("password")

	a.mu.RLock()
	defer a.mu.RUnlock()
	if _, ok := a.sessions[stale]; ok {
		t.Error("expected the expired session dropped on login")
	}
	if _, ok := a.sessions[fresh]; !ok || len(a.sessions) != 1 {
		t.Errorf("expected only the new session, got %d sessions", len(a.sessions))
	}
}

func TestGetSessionFromRequest(t *testing.T) {
	a := New("password")
	token, _ := a.Login("password")

	tests := []struct {
		name   string
		cookie *http.Cookie
		want   bool
	}{
		{"valid cookie", &http.Cookie{Name: CookieName, Value: token}, true},
		{"no cookie", nil, false},
		{"invalid token", &http.Cookie{Name: CookieName, Value: "invalid-token"}, false},
		{"player cookie only", &http.Cookie{Name: PlayerCookieName, Value: token}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/admin/games", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if got := a.GetSessionFromRequest(req); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRequireAuthAPI_AllowsValidSession(t *testing.T) {
	a := New("password")
	token, _ := a.Login("password")

	handler := a.RequireAuthAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/admin/settings", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestRequireAuthAPI_Returns401WithoutSession(t *testing.T) {
	a := New("password")

	handler := a.RequireAuthAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a session")
	}))

	req := httptest.NewRequest("GET", "/api/admin/settings", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Error("expected JSON content type")
	}
	if !strings.Contains(rr.Body.String(), "UNAUTHORIZED") {
		t.Errorf("expected UNAUTHORIZED code in body, got: %s", rr.Body.String())
	}
}

func TestSetSessionCookie(t *testing.T) {
	rr := httptest.NewRecorder()

	SetSessionCookie(rr, "test-token")

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != CookieName || cookie.Value != "test-token" {
		t.Errorf("unexpected cookie %s=%s", cookie.Name, cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("expected HttpOnly to be true")
	}
	if cookie.Path != "/" {
		t.Errorf("expected path '/', got %s", cookie.Path)
	}
}

func TestClearSessionCookie(t *testing.T) {
	rr := httptest.NewRecorder()

	ClearSessionCookie(rr)

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].Name != CookieName || cookies[0].MaxAge != -1 {
		t.Errorf("expected a deleting %s cookie, got %+v", CookieName, cookies[0])
	}
}

func TestEnsurePlayerKey_IssuesCookie(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/games/1/register", nil)
	rr := httptest.NewRecorder()

	key := EnsurePlayerKey(rr, req)

	if _, err := uuid.Parse(key); err != nil {
		t.Errorf("expected a uuid key, got %q", key)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != PlayerCookieName || cookies[0].Value != key {
		t.Fatalf("expected the player cookie to carry the key, got %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("expected HttpOnly to be true")
	}
}

func TestEnsurePlayerKey_KeepsExisting(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/games/1/register", nil)
	req.AddCookie(&http.Cookie{Name: PlayerCookieName, Value: "sess-1"})
	rr := httptest.NewRecorder()

	if key := EnsurePlayerKey(rr, req); key != "sess-1" {
		t.Errorf("expected the existing key, got %q", key)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Error("expected no new cookie")
	}
	if PlayerKey(req) != "sess-1" {
		t.Error("expected PlayerKey to read the cookie")
	}
	if PlayerKey(httptest.NewRequest("GET", "/", nil)) != "" {
		t.Error("expected no key without a cookie")
	}
}

func TestConcurrentSessionAccess(t *testing.T) {
	a := New("password")

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func() {
			token, _ := a.Login("password")
			a.ValidateSession(token)
			a.Logout(token)
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
