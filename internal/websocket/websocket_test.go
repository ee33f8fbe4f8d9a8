package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/abrezinsky/quizroom/internal/broadcast"
	"github.com/abrezinsky/quizroom/internal/logger"
	"github.com/abrezinsky/quizroom/internal/models"
	"github.com/abrezinsky/quizroom/internal/services"
	"github.com/abrezinsky/quizroom/internal/testutil"
)

const testCookie = "quizroom_player"

type harness struct {
	quiz    *testutil.Quiz
	bus     *broadcast.MemoryBus
	hub     *Hub
	games   *services.GameService
	answers *services.AnswerService
	server  *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.New()
	quiz := testutil.NewQuiz(t)

	bus := broadcast.NewMemoryBus(log, 0)
	judging := services.NewJudgingService(log, quiz.Repo)
	judging.SetPublisher(bus)
	answers := services.NewAnswerService(log, quiz.Repo, judging)
	games := services.NewGameService(log, quiz.Repo, judging)
	games.SetPublisher(bus)
	participants := services.NewParticipantService(log, quiz.Repo, nil)

	hub := New(log, bus, games, answers)
	hub.SetIdentityResolver(func(r *http.Request, gameID int64) *int64 {
		cookie, err := r.Cookie(testCookie)
		if err != nil {
			return nil
		}
		p, err := participants.FindBySession(r.Context(), gameID, cookie.Value)
		if err != nil {
			return nil
		}
		return &p.ID
	})

	router := chi.NewRouter()
	router.Get("/ws/game/{gameID}", hub.ServeWs)
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		bus.Close()
	})

	return &harness{quiz: quiz, bus: bus, hub: hub, games: games, answers: answers, server: server}
}

func (h *harness) url(gameID string) string {
	return "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws/game/" + gameID
}

// dial opens a room connection, with the player cookie when sessionKey is set
func (h *harness) dial(t *testing.T, sessionKey string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	if sessionKey != "" {
		header.Set("Cookie", testCookie+"="+sessionKey)
	}
	conn, _, err := websocket.DefaultDialer.Dial(h.url(strconv.FormatInt(h.quiz.GameID, 10)), header)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	ev, err := models.DecodeEvent(data)
	if err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return ev
}

// expectSilence checks that nothing arrives for a short while. The
// connection cannot be read from afterwards.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, data, err := conn.ReadMessage(); err == nil {
		t.Errorf("expected no message, got %s", data)
	}
}

func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServeWs_RejectsBadRooms(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name       string
		gameID     string
		wantStatus int
	}{
		{"unknown game", "9999", http.StatusNotFound},
		{"invalid id", "abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(h.url(tt.gameID), nil)
			if err == nil {
				t.Fatal("expected handshake to fail")
			}
			if resp == nil || resp.StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %v", tt.wantStatus, resp)
			}
		})
	}
}

func TestJoinGame_BroadcastsToRoom(t *testing.T) {
	h := newHarness(t)
	p := h.quiz.AddParticipant(t, "sess-1", "Owls")

	player := h.dial(t, "")
	board := h.dial(t, "")

	send(t, player, `{"action":"join_game","participant_id":`+strconv.FormatInt(p.ID, 10)+`}`)

	for _, conn := range []*websocket.Conn{player, board} {
		ev, ok := readEvent(t, conn).(models.PlayerJoined)
		if !ok {
			t.Fatal("expected player_joined")
		}
		if ev.ParticipantID == nil || *ev.ParticipantID != p.ID {
			t.Errorf("expected participant %d, got %v", p.ID, ev.ParticipantID)
		}
	}
}

func TestSubmitAnswer_Acknowledged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	q := h.quiz.AddQuestion(t, models.Question{AllowBet: true})
	p := h.quiz.AddParticipant(t, "sess-1", "Owls")
	h.quiz.Open(t, q.ID)

	conn := h.dial(t, "sess-1")
	if _, ok := readEvent(t, conn).(models.ShowQuestion); !ok {
		t.Fatal("expected the open question to be replayed")
	}

	send(t, conn, `{"action":"submit_answer","question_id":"`+strconv.FormatInt(q.ID, 10)+`","answer":"Paris","bet":"2"}`)

	ev, ok := readEvent(t, conn).(models.PlayerSubmit)
	if !ok {
		t.Fatal("expected player_submit")
	}
	if ev.AnswerID == nil || ev.QuestionID == nil || *ev.QuestionID != q.ID || ev.Answer != "Paris" {
		t.Fatalf("unexpected acknowledgement %+v", ev)
	}
	if ev.Bet == nil || *ev.Bet != 2 {
		t.Errorf("expected clamped bet 2, got %v", ev.Bet)
	}

	a, err := h.quiz.Repo.GetAnswer(ctx, *ev.AnswerID)
	if err != nil {
		t.Fatalf("GetAnswer failed: %v", err)
	}
	if a.UserID != p.SessionKey || a.TeamName != "Owls" {
		t.Errorf("expected the cookie identity, got %+v", a)
	}
}

func TestSubmitAnswer_ClosedBroadcastsNullID(t *testing.T) {
	h := newHarness(t)
	q := h.quiz.AddQuestion(t, models.Question{})
	conn := h.dial(t, "")

	send(t, conn, `{"action":"submit_answer","question_id":`+strconv.FormatInt(q.ID, 10)+`,"answer":"late"}`)

	ev, ok := readEvent(t, conn).(models.PlayerSubmit)
	if !ok {
		t.Fatal("expected player_submit")
	}
	if ev.AnswerID != nil {
		t.Errorf("expected null answer id, got %d", *ev.AnswerID)
	}
	answers, _ := h.quiz.Repo.ListAnswers(context.Background(), models.AnswerFilter{QuestionID: q.ID})
	if len(answers) != 0 {
		t.Errorf("expected no answer stored, got %d", len(answers))
	}
}

// Submissions without join_game are accepted and stored anonymously
func TestSubmitAnswer_WithoutJoinIsAnonymous(t *testing.T) {
	h := newHarness(t)
	q := h.quiz.AddQuestion(t, models.Question{})
	h.quiz.Open(t, q.ID)
	conn := h.dial(t, "")
	readEvent(t, conn) // show_question replay

	send(t, conn, `{"action":"save_answer","question_id":`+strconv.FormatInt(q.ID, 10)+`,"answer":"x"}`)

	ev, ok := readEvent(t, conn).(models.PlayerSubmit)
	if !ok || ev.AnswerID == nil {
		t.Fatalf("expected an acknowledged submission, got %+v", ev)
	}
	if ev.ParticipantID != nil {
		t.Errorf("expected no participant, got %d", *ev.ParticipantID)
	}
	a, _ := h.quiz.Repo.GetAnswer(context.Background(), *ev.AnswerID)
	if a.UserID != models.AnonymousUser {
		t.Errorf("expected anonymous user, got %q", a.UserID)
	}
}

func TestSaveRoundAnswers_SingleBroadcast(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	q1 := h.quiz.AddQuestion(t, models.Question{Text: "Q1"})
	q2 := h.quiz.AddQuestion(t, models.Question{Text: "Q2"})
	h.quiz.AddParticipant(t, "sess-1", "Owls")
	conn := h.dial(t, "sess-1")

	if err := h.games.SetActiveRound(ctx, h.quiz.GameID, h.quiz.RoundID, 0); err != nil {
		t.Fatalf("SetActiveRound failed: %v", err)
	}
	if _, ok := readEvent(t, conn).(models.ShowRound); !ok {
		t.Fatal("expected show_round")
	}

	send(t, conn, `{"action":"save_round_answers","answers":[`+
		`{"question_id":`+strconv.FormatInt(q1.ID, 10)+`,"answer":"one"},`+
		`{"question_id":"bogus","answer":"skipped"},`+
		`{"question_id":`+strconv.FormatInt(q2.ID, 10)+`,"answer":"two"}]}`)

	ev, ok := readEvent(t, conn).(models.PlayerSubmit)
	if !ok {
		t.Fatal("expected player_submit")
	}
	if len(ev.AnswerIDs) != 2 {
		t.Errorf("expected 2 answer ids, got %v", ev.AnswerIDs)
	}
	expectSilence(t, conn)
}

func TestReplay_ShowQuestionWithLiveStart(t *testing.T) {
	h := newHarness(t)
	started := time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)
	h.games.SetClock(func() time.Time { return started })
	q := h.quiz.AddQuestion(t, models.Question{Text: "Capital of France?", TimeLimit: 45})
	if err := h.games.SetActiveQuestion(context.Background(), h.quiz.GameID, q.ID, 0); err != nil {
		t.Fatalf("SetActiveQuestion failed: %v", err)
	}

	conn := h.dial(t, "")
	ev, ok := readEvent(t, conn).(models.ShowQuestion)
	if !ok {
		t.Fatal("expected show_question")
	}
	if ev.Question.ID != q.ID || ev.Time != 45 {
		t.Errorf("unexpected replay %+v", ev)
	}
	if ev.Question.StartedAt == nil || !ev.Question.StartedAt.Equal(started) {
		t.Errorf("expected the original start time, got %v", ev.Question.StartedAt)
	}
}

func TestReplay_ShowRoundWithSavedAnswers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	q1 := h.quiz.AddQuestion(t, models.Question{Text: "Q1", AllowBet: true})
	q2 := h.quiz.AddQuestion(t, models.Question{Text: "Q2"})
	p := h.quiz.AddParticipant(t, "sess-1", "Owls")

	if err := h.games.SetActiveRound(ctx, h.quiz.GameID, h.quiz.RoundID, 0); err != nil {
		t.Fatalf("SetActiveRound failed: %v", err)
	}
	ids, err := h.answers.SaveRound(ctx, h.quiz.GameID, &p.ID, []models.RoundAnswer{
		{QuestionID: q1.ID, Answer: "draft one", Bet: []byte(`1`)},
	})
	if err != nil || len(ids) != 1 {
		t.Fatalf("SaveRound failed: %v, %v", ids, err)
	}

	conn := h.dial(t, "sess-1")
	ev, ok := readEvent(t, conn).(models.ShowRound)
	if !ok {
		t.Fatal("expected show_round")
	}
	if len(ev.Round.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(ev.Round.Questions))
	}
	saved, ok := ev.SavedAnswers[q1.ID]
	if !ok || saved.AnswerID != ids[0] || saved.Answer != "draft one" || saved.Bet == nil || *saved.Bet != 1 {
		t.Errorf("expected the saved draft for Q1, got %+v", ev.SavedAnswers)
	}
	if _, ok := ev.SavedAnswers[q2.ID]; ok {
		t.Error("expected nothing saved for Q2")
	}

	// Another connection without a registration sees no drafts
	anon := h.dial(t, "")
	ev, ok = readEvent(t, anon).(models.ShowRound)
	if !ok {
		t.Fatal("expected show_round")
	}
	if len(ev.SavedAnswers) != 0 {
		t.Errorf("expected no saved answers, got %v", ev.SavedAnswers)
	}
}

func TestReplay_NothingWhenClosed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	q := h.quiz.AddQuestion(t, models.Question{})
	h.quiz.Open(t, q.ID)
	if err := h.games.StopAccepting(ctx, h.quiz.GameID, nil); err != nil {
		t.Fatalf("StopAccepting failed: %v", err)
	}

	conn := h.dial(t, "")
	expectSilence(t, conn)
}

func TestMalformedMessagesAreDropped(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t, "")

	for _, msg := range []string{
		`not json`,
		`[1,2,3]`,
		`{"action":"dance"}`,
		`{"action":"submit_answer","answer":"no question"}`,
	} {
		send(t, conn, msg)
	}
	send(t, conn, `{"action":"join_game"}`)

	if _, ok := readEvent(t, conn).(models.PlayerJoined); !ok {
		t.Error("expected the connection to keep working after malformed messages")
	}
}

func TestDisconnectLeavesRoom(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t, "")

	waitFor(t, "client registration", func() bool { return h.hub.Clients(h.quiz.GameID) == 1 })
	if h.bus.Subscribers(h.quiz.GameID) != 1 {
		t.Errorf("expected one room subscriber, got %d", h.bus.Subscribers(h.quiz.GameID))
	}

	conn.Close()
	waitFor(t, "client removal", func() bool { return h.hub.Clients(h.quiz.GameID) == 0 })
	waitFor(t, "unsubscribe", func() bool { return h.bus.Subscribers(h.quiz.GameID) == 0 })
}
