package websocket

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/abrezinsky/quizroom/internal/logger"
	"github.com/abrezinsky/quizroom/internal/models"
	"github.com/abrezinsky/quizroom/internal/repository/mock"
	"github.com/abrezinsky/quizroom/internal/services"
	"github.com/abrezinsky/quizroom/internal/testutil"
)

// recorder captures published events
type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Publish(_ context.Context, _ int64, ev models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) take() []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events
	r.events = nil
	return events
}

type sessionFixture struct {
	quiz    *testutil.Quiz
	repo    *mock.Repository
	rec     *recorder
	games   *services.GameService
	answers *services.AnswerService
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	log := logger.New()
	quiz := testutil.NewQuiz(t)
	repo := mock.NewRepository(quiz.Repo)
	judging := services.NewJudgingService(log, repo)
	return &sessionFixture{
		quiz:    quiz,
		repo:    repo,
		rec:     &recorder{},
		games:   services.NewGameService(log, repo, judging),
		answers: services.NewAnswerService(log, repo, judging),
	}
}

func (f *sessionFixture) session(participantID *int64) *Session {
	return NewSession(logger.New(), f.quiz.GameID, participantID, f.games, f.answers, f.rec)
}

func onlyEvent[T models.Event](t *testing.T, rec *recorder) T {
	t.Helper()
	events := rec.take()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d: %+v", len(events), events)
	}
	ev, ok := events[0].(T)
	if !ok {
		t.Fatalf("unexpected event %T", events[0])
	}
	return ev
}

func TestSession_JoinMovesToJoined(t *testing.T) {
	f := newSessionFixture(t)
	p := f.quiz.AddParticipant(t, "sess-1", "Owls")
	s := f.session(nil)
	ctx := context.Background()

	if s.State() != StateJoining || s.State().String() != "joining" {
		t.Fatalf("expected a fresh session to be joining, got %s", s.State())
	}

	s.HandleMessage(ctx, []byte(`{"action":"join_game","participant_id":"`+strconv.FormatInt(p.ID, 10)+`"}`))

	if s.State() != StateJoined || s.State().String() != "joined" {
		t.Errorf("expected joined, got %s", s.State())
	}
	if id := s.ParticipantID(); id == nil || *id != p.ID {
		t.Errorf("expected participant %d bound, got %v", p.ID, id)
	}
	ev := onlyEvent[models.PlayerJoined](t, f.rec)
	if ev.ParticipantID == nil || *ev.ParticipantID != p.ID {
		t.Errorf("unexpected player_joined %+v", ev)
	}
}

func TestSession_JoinWithForeignParticipant(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	otherGame, err := f.quiz.Repo.CreateGame(ctx, "Other", "", models.ModeTeam)
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	stranger := models.Participant{GameID: otherGame, SessionKey: "sess-x", TeamName: "Strangers"}
	strangerID, err := f.quiz.Repo.CreateParticipant(ctx, &stranger)
	if err != nil {
		t.Fatalf("CreateParticipant failed: %v", err)
	}

	tests := []struct {
		name string
		msg  string
	}{
		{"other game", `{"action":"join_game","participant_id":` + strconv.FormatInt(strangerID, 10) + `}`},
		{"unknown id", `{"action":"join_game","participant_id":9999}`},
		{"no id", `{"action":"join_game"}`},
		{"garbage id", `{"action":"join_game","participant_id":"abc"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := f.session(nil)
			s.HandleMessage(ctx, []byte(tt.msg))

			if s.State() != StateJoined {
				t.Errorf("expected joined, got %s", s.State())
			}
			if s.ParticipantID() != nil {
				t.Errorf("expected no bound participant, got %d", *s.ParticipantID())
			}
			ev := onlyEvent[models.PlayerJoined](t, f.rec)
			if ev.ParticipantID != nil {
				t.Errorf("expected anonymous player_joined, got %d", *ev.ParticipantID)
			}
		})
	}
}

func TestSession_BoundIdentityWins(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	owls := f.quiz.AddParticipant(t, "sess-1", "Owls")
	larks := f.quiz.AddParticipant(t, "sess-2", "Larks")
	q := f.quiz.AddQuestion(t, models.Question{})
	f.quiz.Open(t, q.ID)

	s := f.session(&owls.ID)
	s.HandleMessage(ctx, []byte(`{"action":"submit_answer","question_id":`+strconv.FormatInt(q.ID, 10)+
		`,"answer":"mine","participant_id":`+strconv.FormatInt(larks.ID, 10)+`}`))

	ev := onlyEvent[models.PlayerSubmit](t, f.rec)
	if ev.ParticipantID == nil || *ev.ParticipantID != owls.ID || ev.AnswerID == nil {
		t.Fatalf("expected the bound participant to submit, got %+v", ev)
	}
	a, err := f.quiz.Repo.GetAnswer(ctx, *ev.AnswerID)
	if err != nil {
		t.Fatalf("GetAnswer failed: %v", err)
	}
	if a.UserID != "sess-1" || a.TeamName != "Owls" {
		t.Errorf("expected the answer stored for Owls, got %+v", a)
	}
}

func TestSession_MessageIdentityWhenUnbound(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	larks := f.quiz.AddParticipant(t, "sess-2", "Larks")
	q := f.quiz.AddQuestion(t, models.Question{})
	f.quiz.Open(t, q.ID)

	s := f.session(nil)
	s.HandleMessage(ctx, []byte(`{"action":"save_answer","question_id":`+strconv.FormatInt(q.ID, 10)+
		`,"answer":"theirs","participant_id":`+strconv.FormatInt(larks.ID, 10)+`}`))

	ev := onlyEvent[models.PlayerSubmit](t, f.rec)
	if ev.AnswerID == nil {
		t.Fatal("expected the submission to be stored")
	}
	a, _ := f.quiz.Repo.GetAnswer(ctx, *ev.AnswerID)
	if a.UserID != "sess-2" {
		t.Errorf("expected the message participant, got %q", a.UserID)
	}
	if s.ParticipantID() != nil {
		t.Error("expected a submission not to bind the connection")
	}
}

func TestSession_StorageErrorStillBroadcasts(t *testing.T) {
	f := newSessionFixture(t)
	q := f.quiz.AddQuestion(t, models.Question{})
	f.quiz.Open(t, q.ID)
	f.repo.UpsertAnswerError = errors.New("disk full")

	s := f.session(nil)
	s.HandleMessage(context.Background(), []byte(`{"action":"submit_answer","question_id":`+strconv.FormatInt(q.ID, 10)+`,"answer":"x"}`))

	ev := onlyEvent[models.PlayerSubmit](t, f.rec)
	if ev.AnswerID != nil {
		t.Errorf("expected null answer id, got %d", *ev.AnswerID)
	}
	if ev.QuestionID == nil || *ev.QuestionID != q.ID || ev.Answer != "x" {
		t.Errorf("expected the submission echoed, got %+v", ev)
	}
}

func TestSession_SaveRoundEmpty(t *testing.T) {
	f := newSessionFixture(t)
	s := f.session(nil)

	s.HandleMessage(context.Background(), []byte(`{"action":"save_round_answers","answers":[]}`))

	ev := onlyEvent[models.PlayerSubmit](t, f.rec)
	if ev.AnswerIDs == nil || len(ev.AnswerIDs) != 0 {
		t.Errorf("expected an empty id list, got %v", ev.AnswerIDs)
	}
}

func TestSession_DropsUnparseableMessages(t *testing.T) {
	f := newSessionFixture(t)
	s := f.session(nil)

	for _, msg := range []string{``, `null`, `"text"`, `{"action":"vote"}`, `{"action":"submit_answer","question_id":"x"}`} {
		s.HandleMessage(context.Background(), []byte(msg))
	}
	if events := f.rec.take(); len(events) != 0 {
		t.Errorf("expected nothing published, got %+v", events)
	}
	if s.State() != StateJoining {
		t.Errorf("expected state unchanged, got %s", s.State())
	}
}

func TestSession_ReplayIdle(t *testing.T) {
	f := newSessionFixture(t)
	events, err := f.session(nil).Replay(context.Background())
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no replay for an idle game, got %+v", events)
	}
}

func TestSession_ReplayStorageError(t *testing.T) {
	f := newSessionFixture(t)
	f.repo.GetGameStateError = errors.New("database is locked")

	if _, err := f.session(nil).Replay(context.Background()); err == nil {
		t.Error("expected the storage error")
	}
}
