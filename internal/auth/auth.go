package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	CookieName       = "quizroom_session"
	PlayerCookieName = "quizroom_player"
	SessionExpiry    = 24 * time.Hour
	PlayerExpiry     = 30 * 24 * time.Hour
)

// Quiz-night words for password generation
var quizWords = []string{
	"trivia", "buzzer", "answer", "round", "bonus",
	"wager", "owl", "pencil", "table", "podium",
	"quiz", "master", "riddle", "clue", "score",
	"tiebreak", "jackpot", "lantern", "puzzle",
}

// Auth guards the operator API with a shared password and in-memory
// cookie sessions
type Auth struct {
	password string
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]time.Time // token -> expiry
}

// New returns an Auth accepting password
func New(password string) *Auth {
	return &Auth{
		password: password,
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

// GeneratePassword picks three random quiz words, joined by dashes
func GeneratePassword() string {
	var words [3]string
	for i := range words {
		words[i] = quizWords[randomInt(len(quizWords))]
	}
	return strings.Join(words[:], "-")
}

// Login checks the operator password and opens a session. Sessions that
// have expired are dropped at the same time.
func (a *Auth) Login(password string) (string, bool) {
	if subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) != 1 {
		return "", false
	}

	token := generateToken()
	now := a.now()
	a.mu.Lock()
	defer a.mu.Unlock()
	for t, expiry := range a.sessions {
		if now.After(expiry) {
			delete(a.sessions, t)
		}
	}
	a.sessions[token] = now.Add(SessionExpiry)
	return token, true
}

// Logout ends a session
func (a *Auth) Logout(token string) {
	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
}

// ValidateSession reports whether token names a live session
func (a *Auth) ValidateSession(token string) bool {
	a.mu.RLock()
	expiry, ok := a.sessions[token]
	a.mu.RUnlock()
	if !ok {
		return false
	}
	if !a.now().After(expiry) {
		return true
	}

	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
	return false
}

// GetSessionFromRequest reports whether the request carries a live
// operator session cookie
func (a *Auth) GetSessionFromRequest(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	return err == nil && a.ValidateSession(c.Value)
}

// RequireAuthAPI rejects requests without an operator session with a JSON 401
func (a *Auth) RequireAuthAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.GetSessionFromRequest(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":"UNAUTHORIZED","error":"operator login required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newCookie(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	}
	if maxAge < 0 {
		c.MaxAge = -1
	}
	return c
}

// SetSessionCookie hands the operator session token to the browser
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, newCookie(CookieName, token, SessionExpiry))
}

// ClearSessionCookie tells the browser to drop the operator session
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, newCookie(CookieName, "", -1))
}

// PlayerKey returns the browser session key of a player, or "" when the
// request carries none
func PlayerKey(r *http.Request) string {
	cookie, err := r.Cookie(PlayerCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

// EnsurePlayerKey returns the request's player key, issuing a new one in a
// cookie when the browser has none yet
func EnsurePlayerKey(w http.ResponseWriter, r *http.Request) string {
	if key := PlayerKey(r); key != "" {
		return key
	}
	key := uuid.NewString()
	http.SetCookie(w, newCookie(PlayerCookieName, key, PlayerExpiry))
	return key
}

func generateToken() string {
	buf := make([]byte, 32)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

// randomInt returns a random int in [0, max)
func randomInt(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}
	return int(n.Int64())
}
