package app

import (
	"sync"
	"time"

	"quizhost-service/internal/domain"
)

// Session is one live run-through of a quiz. All mutation goes through its
// mutex; time-driven transitions are just another caller of the same lock.
type Session struct {
	id           int
	quizID       string
	ownerID      string
	autoStartNum int
	opts         Options
	generateName func() string
	onEnd        func()

	mu          sync.Mutex
	state       domain.SessionState
	atQuestion  int
	metadata    domain.QuizSnapshot
	players     []domain.Player
	names       map[string]struct{}
	submissions map[int]map[int]domain.Submission // question position -> player id
	openedAt    map[int]int64                     // question position -> unix seconds
	shownUpTo   int                               // highest position that reached ANSWER_SHOW
	messages    []domain.ChatMessage

	timer    *time.Timer
	timerSeq int
}

func newSession(id int, quizID, ownerID string, autoStartNum int, snapshot domain.QuizSnapshot, opts Options, generateName func() string, onEnd func()) *Session {
	return &Session{
		id:           id,
		quizID:       quizID,
		ownerID:      ownerID,
		autoStartNum: autoStartNum,
		opts:         opts,
		generateName: generateName,
		onEnd:        onEnd,
		state:        domain.StateLobby,
		names:        make(map[string]struct{}),
		submissions:  make(map[int]map[int]domain.Submission),
		openedAt:     make(map[int]int64),
		metadata:     snapshot,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns the admin-facing view. Players are listed in join order.
func (s *Session) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.players))
	for i, p := range s.players {
		names[i] = p.Name
	}
	return domain.SessionStatus{
		State:      s.state,
		AtQuestion: s.atQuestion,
		Players:    names,
		Metadata:   s.metadata.Clone(),
	}
}

// PlayerStatus returns the reduced view served to players.
func (s *Session) PlayerStatus() domain.PlayerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.PlayerStatus{
		State:        s.state,
		NumQuestions: len(s.metadata.Questions),
		AtQuestion:   s.atQuestion,
	}
}

// Apply runs one admin action against the current state. Invalid pairs are
// rejected without any mutation.
func (s *Session) Apply(action domain.AdminAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch action {
	case domain.ActionEnd:
		if s.state == domain.StateEnd {
			return s.invalidAction(action)
		}
		s.endLocked()
		return nil
	case domain.ActionNextQuestion:
		switch {
		case s.state == domain.StateLobby:
			s.startCountdownLocked()
			return nil
		case s.state == domain.StateAnswerShow && s.atQuestion < len(s.metadata.Questions):
			s.startCountdownLocked()
			return nil
		}
		return s.invalidAction(action)
	case domain.ActionSkipCountdown:
		if s.state != domain.StateQuestionCountdown {
			return s.invalidAction(action)
		}
		s.openQuestionLocked()
		return nil
	case domain.ActionGoToAnswer:
		// Allowed from QUESTION_OPEN too: revealing the answer closes the
		// question early.
		if s.state != domain.StateQuestionOpen && s.state != domain.StateQuestionClose {
			return s.invalidAction(action)
		}
		s.cancelTimerLocked()
		s.state = domain.StateAnswerShow
		s.shownUpTo = s.atQuestion
		return nil
	case domain.ActionGoToFinalResults:
		if s.state != domain.StateAnswerShow || s.atQuestion != len(s.metadata.Questions) {
			return s.invalidAction(action)
		}
		s.state = domain.StateFinalResults
		return nil
	}
	return domain.InvalidInput("unknown action %s", action)
}

func (s *Session) invalidAction(action domain.AdminAction) error {
	return domain.InvalidState("action %s is not valid in state %s", action, s.state)
}

// Join admits a player while the session is in LOBBY. Empty names get a
// generated one; duplicate names within the session are rejected.
func (s *Session) Join(playerID int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateLobby {
		return domain.InvalidState("cannot join session in state %s", s.state)
	}
	if name == "" {
		for {
			name = s.generateName()
			if _, taken := s.names[name]; !taken {
				break
			}
		}
	} else if _, taken := s.names[name]; taken {
		return domain.Conflict("name %q is already taken in this session", name)
	}

	s.players = append(s.players, domain.Player{PlayerID: playerID, Name: name})
	s.names[name] = struct{}{}

	if s.autoStartNum > 0 && len(s.players) == s.autoStartNum {
		s.startCountdownLocked()
	}
	return nil
}

// Submit records a player's answer set for the open question. Last write wins
// while the question stays open.
func (s *Session) Submit(playerID, questionPosition int, answerIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateQuestionOpen {
		return domain.InvalidState("cannot submit answers in state %s", s.state)
	}
	if questionPosition != s.atQuestion {
		return domain.InvalidState("question %d is not the current question", questionPosition)
	}
	if len(answerIDs) == 0 {
		return domain.InvalidInput("at least one answer id is required")
	}
	question := s.metadata.Questions[s.atQuestion-1]
	valid := make(map[int]struct{}, len(question.Answers))
	for _, a := range question.Answers {
		valid[a.AnswerID] = struct{}{}
	}
	seen := make(map[int]struct{}, len(answerIDs))
	for _, id := range answerIDs {
		if _, ok := valid[id]; !ok {
			return domain.InvalidInput("answer id %d does not belong to this question", id)
		}
		if _, dup := seen[id]; dup {
			return domain.InvalidInput("duplicate answer id %d", id)
		}
		seen[id] = struct{}{}
	}

	byPlayer := s.submissions[questionPosition]
	if byPlayer == nil {
		byPlayer = make(map[int]domain.Submission)
		s.submissions[questionPosition] = byPlayer
	}
	byPlayer[playerID] = domain.Submission{
		PlayerID:         playerID,
		QuestionPosition: questionPosition,
		AnswerIDs:        append([]int(nil), answerIDs...),
		SubmittedAt:      s.opts.Clock().Unix(),
	}
	return nil
}

// startCountdownLocked advances to the next question's countdown and arms the
// auto-open timer.
func (s *Session) startCountdownLocked() {
	s.atQuestion++
	s.state = domain.StateQuestionCountdown
	s.armTimerLocked(s.opts.Countdown, func() { s.openQuestionLocked() })
}

// openQuestionLocked makes the current question answerable and arms its
// duration timer.
func (s *Session) openQuestionLocked() {
	s.state = domain.StateQuestionOpen
	s.openedAt[s.atQuestion] = s.opts.Clock().Unix()
	question := s.metadata.Questions[s.atQuestion-1]
	s.armTimerLocked(time.Duration(question.Duration)*s.opts.DurationScale, func() {
		s.state = domain.StateQuestionClose
	})
}

// endLocked is terminal: it cancels any pending timer so a stale callback
// cannot revive the session.
func (s *Session) endLocked() {
	s.cancelTimerLocked()
	s.state = domain.StateEnd
	if s.onEnd != nil {
		s.onEnd()
	}
}

// armTimerLocked schedules fn as a deferred transition. The sequence number
// invalidates callbacks from timers that were cancelled or replaced before
// they could acquire the lock.
func (s *Session) armTimerLocked(d time.Duration, fn func()) {
	s.cancelTimerLocked()
	s.timerSeq++
	seq := s.timerSeq
	s.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.timerSeq != seq || s.state == domain.StateEnd {
			return
		}
		fn()
	})
}

func (s *Session) cancelTimerLocked() {
	s.timerSeq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
