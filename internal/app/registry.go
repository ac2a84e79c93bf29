package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quizhost-service/internal/domain"
)

const (
	maxActiveSessions = 10
	maxAutoStartNum   = 50
)

// IdentityProvider resolves opaque admin tokens and quiz ownership.
// Credential management lives outside this service.
type IdentityProvider interface {
	ResolveToken(token string) (string, error)
	UserOwnsQuiz(userID, quizID string) bool
}

// ContentStore supplies quiz content (from cache/backing store). Sessions take
// a deep copy at start time and never read the store again.
type ContentStore interface {
	GetQuizSnapshot(ctx context.Context, quizID string) (domain.QuizSnapshot, error)
	QuestionCount(ctx context.Context, quizID string) (int, error)
}

// SessionIndex mirrors session liveness into an external store (Redis) so
// other instances can see which sessions are live. Best-effort.
type SessionIndex interface {
	MarkActive(quizID string, sessionID int)
	MarkEnded(quizID string, sessionID int)
}

// NopIndex is the fallback when no external index is configured.
type NopIndex struct{}

func (NopIndex) MarkActive(string, int) {}
func (NopIndex) MarkEnded(string, int)  {}

// Options tune session timing. Tests shrink these for determinism, the same
// way a clock gets injected.
type Options struct {
	// Countdown is the fixed delay between a question becoming next and
	// becoming answerable. Defaults to 3s.
	Countdown time.Duration
	// DurationScale converts a question's Duration field into wall time.
	// Defaults to one second per unit.
	DurationScale time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Countdown <= 0 {
		o.Countdown = 3 * time.Second
	}
	if o.DurationScale <= 0 {
		o.DurationScale = time.Second
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Registry owns all live sessions: it creates them, assigns process-wide
// monotonic session and player ids, and routes admin and player operations to
// the right session instance. Sessions are never deleted; ended sessions stay
// queryable for historical results.
type Registry struct {
	identity IdentityProvider
	content  ContentStore
	index    SessionIndex
	opts     Options

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu            sync.RWMutex
	sessions      map[int]*Session
	byQuiz        map[string][]int
	activeByQuiz  map[string]int
	players       map[int]*Session
	nextSessionID int
	nextPlayerID  int
}

func NewRegistry(identity IdentityProvider, content ContentStore, index SessionIndex) *Registry {
	return NewRegistryWithOptions(identity, content, index, Options{})
}

// NewRegistryWithOptions is used by tests that need short timers or a fixed clock.
func NewRegistryWithOptions(identity IdentityProvider, content ContentStore, index SessionIndex, opts Options) *Registry {
	if index == nil {
		index = NopIndex{}
	}
	return &Registry{
		identity:     identity,
		content:      content,
		index:        index,
		opts:         opts.withDefaults(),
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
		sessions:     make(map[int]*Session),
		byQuiz:       make(map[string][]int),
		activeByQuiz: make(map[string]int),
		players:      make(map[int]*Session),
	}
}

// StartSession snapshots the quiz and creates a new session in LOBBY.
func (r *Registry) StartSession(ctx context.Context, token, quizID string, autoStartNum int) (int, error) {
	userID, err := r.identity.ResolveToken(token)
	if err != nil {
		return 0, domain.Unauthorized("invalid token")
	}
	if !r.identity.UserOwnsQuiz(userID, quizID) {
		return 0, domain.Forbidden("user %s does not own quiz %s", userID, quizID)
	}
	if autoStartNum < 0 || autoStartNum > maxAutoStartNum {
		return 0, domain.InvalidInput("autoStartNum must be between 0 and %d", maxAutoStartNum)
	}
	count, err := r.content.QuestionCount(ctx, quizID)
	if err != nil {
		return 0, domain.NotFound("quiz %s not found", quizID)
	}
	if count == 0 {
		return 0, domain.InvalidInput("quiz %s has no questions", quizID)
	}
	snapshot, err := r.content.GetQuizSnapshot(ctx, quizID)
	if err != nil {
		return 0, domain.NotFound("quiz %s not found", quizID)
	}

	// Check and reserve the active slot in one critical section so
	// concurrent starts cannot all slip past the cap.
	r.mu.Lock()
	if r.activeByQuiz[quizID] >= maxActiveSessions {
		r.mu.Unlock()
		return 0, domain.ResourceExhausted("quiz %s already has %d active sessions", quizID, maxActiveSessions)
	}
	r.activeByQuiz[quizID]++
	r.nextSessionID++
	id := r.nextSessionID
	session := newSession(id, quizID, userID, autoStartNum, snapshot.Clone(), r.opts, r.randomName, func() {
		r.mu.Lock()
		r.activeByQuiz[quizID]--
		r.mu.Unlock()
		r.index.MarkEnded(quizID, id)
	})
	r.sessions[id] = session
	r.byQuiz[quizID] = append(r.byQuiz[quizID], id)
	r.mu.Unlock()

	r.index.MarkActive(quizID, id)
	return id, nil
}

// ListSessions returns a quiz's session ids split into active and ended,
// both in creation order.
func (r *Registry) ListSessions(token, quizID string) (domain.SessionLists, error) {
	userID, err := r.identity.ResolveToken(token)
	if err != nil {
		return domain.SessionLists{}, domain.Unauthorized("invalid token")
	}
	if !r.identity.UserOwnsQuiz(userID, quizID) {
		return domain.SessionLists{}, domain.Forbidden("user %s does not own quiz %s", userID, quizID)
	}

	r.mu.RLock()
	ids := append([]int(nil), r.byQuiz[quizID]...)
	sessions := make([]*Session, 0, len(ids))
	for _, id := range ids {
		sessions = append(sessions, r.sessions[id])
	}
	r.mu.RUnlock()

	lists := domain.SessionLists{ActiveSessions: []int{}, InactiveSessions: []int{}}
	for i, s := range sessions {
		if s.State() == domain.StateEnd {
			lists.InactiveSessions = append(lists.InactiveSessions, ids[i])
		} else {
			lists.ActiveSessions = append(lists.ActiveSessions, ids[i])
		}
	}
	return lists, nil
}

// AdminAction drives a session transition on behalf of the owning admin.
func (r *Registry) AdminAction(token, quizID string, sessionID int, action domain.AdminAction) error {
	session, err := r.adminSession(token, quizID, sessionID)
	if err != nil {
		return err
	}
	return session.Apply(action)
}

// SessionStatus returns the admin-facing view of a session.
func (r *Registry) SessionStatus(token, quizID string, sessionID int) (domain.SessionStatus, error) {
	session, err := r.adminSession(token, quizID, sessionID)
	if err != nil {
		return domain.SessionStatus{}, err
	}
	return session.Status(), nil
}

// Join adds a player to a session's lobby and returns the new player id.
// An empty name gets a generated one, unique within the session.
func (r *Registry) Join(sessionID int, name string) (int, error) {
	r.mu.RLock()
	session, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return 0, domain.NotFound("session %d not found", sessionID)
	}

	r.mu.Lock()
	r.nextPlayerID++
	playerID := r.nextPlayerID
	r.mu.Unlock()

	if err := session.Join(playerID, name); err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.players[playerID] = session
	r.mu.Unlock()
	return playerID, nil
}

// SubmitAnswer records a player's answer set for the currently open question.
func (r *Registry) SubmitAnswer(playerID, questionPosition int, answerIDs []int) error {
	session, err := r.playerSession(playerID)
	if err != nil {
		return err
	}
	return session.Submit(playerID, questionPosition, answerIDs)
}

// PlayerStatus returns the player-facing session view.
func (r *Registry) PlayerStatus(playerID int) (domain.PlayerStatus, error) {
	session, err := r.playerSession(playerID)
	if err != nil {
		return domain.PlayerStatus{}, err
	}
	return session.PlayerStatus(), nil
}

// QuestionResults returns the aggregate outcome of one question once it has
// been revealed.
func (r *Registry) QuestionResults(playerID, questionPosition int) (domain.QuestionResults, error) {
	session, err := r.playerSession(playerID)
	if err != nil {
		return domain.QuestionResults{}, err
	}
	return session.QuestionResults(questionPosition)
}

// FinalResults returns the final scoreboard; only valid in FINAL_RESULTS.
func (r *Registry) FinalResults(playerID int) (domain.FinalResults, error) {
	session, err := r.playerSession(playerID)
	if err != nil {
		return domain.FinalResults{}, err
	}
	return session.FinalResults()
}

// PostMessage appends a chat message to the player's session.
func (r *Registry) PostMessage(playerID int, body string) error {
	session, err := r.playerSession(playerID)
	if err != nil {
		return err
	}
	return session.PostMessage(playerID, body)
}

// Messages returns the session chat log in append order.
func (r *Registry) Messages(playerID int) ([]domain.ChatMessage, error) {
	session, err := r.playerSession(playerID)
	if err != nil {
		return nil, err
	}
	return session.Messages(), nil
}

func (r *Registry) adminSession(token, quizID string, sessionID int) (*Session, error) {
	userID, err := r.identity.ResolveToken(token)
	if err != nil {
		return nil, domain.Unauthorized("invalid token")
	}
	if !r.identity.UserOwnsQuiz(userID, quizID) {
		return nil, domain.Forbidden("user %s does not own quiz %s", userID, quizID)
	}
	r.mu.RLock()
	session, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok || session.quizID != quizID {
		return nil, domain.NotFound("session %d not found for quiz %s", sessionID, quizID)
	}
	return session, nil
}

func (r *Registry) playerSession(playerID int) (*Session, error) {
	r.mu.RLock()
	session, ok := r.players[playerID]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.NotFound("player %d not found", playerID)
	}
	return session, nil
}

const (
	nameLetters = "abcdefghijklmnopqrstuvwxyz"
	nameDigits  = "0123456789"
)

// randomName builds a 5-letter + 3-digit name with no repeated characters
// in either part.
func (r *Registry) randomName() string {
	r.rndMu.Lock()
	defer r.rndMu.Unlock()

	letters := []byte(nameLetters)
	r.rnd.Shuffle(len(letters), func(i, j int) { letters[i], letters[j] = letters[j], letters[i] })
	digits := []byte(nameDigits)
	r.rnd.Shuffle(len(digits), func(i, j int) { digits[i], digits[j] = digits[j], digits[i] })

	return string(letters[:5]) + string(digits[:3])
}
