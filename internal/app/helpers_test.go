package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"quizhost-service/internal/app"
	"quizhost-service/internal/domain"
	"quizhost-service/internal/infra/memory"
)

const (
	adminToken = "tok-admin"
	adminUser  = "admin"
	quizID     = "quiz-1"
	shortQuiz  = "quiz-short"
	emptyQuiz  = "quiz-empty"
)

// fakeClock makes submission timestamps deterministic.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testQuizzes() map[string]domain.QuizSnapshot {
	return map[string]domain.QuizSnapshot{
		quizID: {
			QuizID:      quizID,
			Name:        "General knowledge",
			Description: "Two questions",
			Questions: []domain.Question{
				{
					QuestionID: 101,
					Question:   "What is 2 + 2?",
					Duration:   30,
					Points:     5,
					Answers: []domain.Answer{
						{AnswerID: 1, Answer: "3", Correct: false, Colour: "red"},
						{AnswerID: 2, Answer: "4", Correct: true, Colour: "blue"},
						{AnswerID: 3, Answer: "5", Correct: false, Colour: "green"},
					},
				},
				{
					QuestionID: 102,
					Question:   "Which are primary colours?",
					Duration:   30,
					Points:     7,
					Answers: []domain.Answer{
						{AnswerID: 4, Answer: "Red", Correct: true, Colour: "red"},
						{AnswerID: 5, Answer: "Blue", Correct: true, Colour: "blue"},
						{AnswerID: 6, Answer: "Beige", Correct: false, Colour: "yellow"},
					},
				},
			},
		},
		shortQuiz: {
			QuizID: shortQuiz,
			Name:   "Quick one",
			Questions: []domain.Question{
				{
					QuestionID: 201,
					Question:   "Blink and you miss it",
					Duration:   1,
					Points:     3,
					Answers: []domain.Answer{
						{AnswerID: 7, Answer: "Yes", Correct: true, Colour: "red"},
						{AnswerID: 8, Answer: "No", Correct: false, Colour: "blue"},
					},
				},
			},
		},
		emptyQuiz: {
			QuizID:    emptyQuiz,
			Name:      "Nothing here",
			Questions: []domain.Question{},
		},
	}
}

func testIdentity() *memory.StaticIdentityProvider {
	return memory.NewStaticIdentityProvider(
		map[string]string{adminToken: adminUser, "tok-other": "other"},
		map[string]string{quizID: adminUser, shortQuiz: adminUser, emptyQuiz: adminUser},
	)
}

func newTestRegistry(t *testing.T) *app.Registry {
	t.Helper()
	return newTestRegistryWithClock(t, time.Now)
}

func newTestRegistryWithClock(t *testing.T, now func() time.Time) *app.Registry {
	t.Helper()
	return app.NewRegistryWithOptions(
		testIdentity(),
		memory.NewStaticContentStore(testQuizzes()),
		nil,
		app.Options{
			Countdown:     200 * time.Millisecond,
			DurationScale: 50 * time.Millisecond,
			Clock:         now,
		},
	)
}

func mustStart(t *testing.T, r *app.Registry, quiz string, autoStartNum int) int {
	t.Helper()
	id, err := r.StartSession(context.Background(), adminToken, quiz, autoStartNum)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return id
}

func mustJoin(t *testing.T, r *app.Registry, sessionID int, name string) int {
	t.Helper()
	id, err := r.Join(sessionID, name)
	if err != nil {
		t.Fatalf("join %q: %v", name, err)
	}
	return id
}

func mustAction(t *testing.T, r *app.Registry, quiz string, sessionID int, action domain.AdminAction) {
	t.Helper()
	if err := r.AdminAction(adminToken, quiz, sessionID, action); err != nil {
		t.Fatalf("action %s: %v", action, err)
	}
}

// openQuestion advances the session into QUESTION_OPEN for its next question.
func openQuestion(t *testing.T, r *app.Registry, quiz string, sessionID int) {
	t.Helper()
	mustAction(t, r, quiz, sessionID, domain.ActionNextQuestion)
	mustAction(t, r, quiz, sessionID, domain.ActionSkipCountdown)
}

func sessionState(t *testing.T, r *app.Registry, quiz string, sessionID int) domain.SessionState {
	t.Helper()
	status, err := r.SessionStatus(adminToken, quiz, sessionID)
	if err != nil {
		t.Fatalf("session status: %v", err)
	}
	return status.State
}
