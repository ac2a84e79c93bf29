package domain

// SessionState is a lifecycle state of a quiz session.
type SessionState string

const (
	StateLobby             SessionState = "LOBBY"
	StateQuestionCountdown SessionState = "QUESTION_COUNTDOWN"
	StateQuestionOpen      SessionState = "QUESTION_OPEN"
	StateQuestionClose     SessionState = "QUESTION_CLOSE"
	StateAnswerShow        SessionState = "ANSWER_SHOW"
	StateFinalResults      SessionState = "FINAL_RESULTS"
	StateEnd               SessionState = "END"
)

// AdminAction is a session transition requested by the owning admin.
type AdminAction string

const (
	ActionNextQuestion     AdminAction = "NEXT_QUESTION"
	ActionSkipCountdown    AdminAction = "SKIP_COUNTDOWN"
	ActionGoToAnswer       AdminAction = "GO_TO_ANSWER"
	ActionGoToFinalResults AdminAction = "GO_TO_FINAL_RESULTS"
	ActionEnd              AdminAction = "END"
)

// Answer is one selectable option of a question.
type Answer struct {
	AnswerID int    `json:"answerId"`
	Answer   string `json:"answer"`
	Correct  bool   `json:"correct"`
	Colour   string `json:"colour"`
}

// Question is an MCQ question inside a quiz snapshot.
type Question struct {
	QuestionID int      `json:"questionId"`
	Question   string   `json:"question"`
	Duration   int      `json:"duration"` // seconds the question stays open
	Points     int      `json:"points"`
	Answers    []Answer `json:"answers"`
}

// QuizSnapshot is the immutable copy of quiz content a session plays against.
// It is taken when the session starts; later edits to the quiz never reach it.
type QuizSnapshot struct {
	QuizID      string     `json:"quizId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// Clone deep-copies the snapshot so callers can hand it out safely.
func (q QuizSnapshot) Clone() QuizSnapshot {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		out.Questions[i] = question
		out.Questions[i].Answers = append([]Answer(nil), question.Answers...)
	}
	return out
}

// CorrectAnswerIDs returns the set of answer ids flagged correct.
func (q Question) CorrectAnswerIDs() map[int]struct{} {
	ids := make(map[int]struct{})
	for _, a := range q.Answers {
		if a.Correct {
			ids[a.AnswerID] = struct{}{}
		}
	}
	return ids
}

// Player is a participant in one session. Score is never stored; it is
// derived from submissions when results are read.
type Player struct {
	PlayerID int    `json:"playerId"`
	Name     string `json:"name"`
}

// Submission is one player's recorded answer to one question.
// Re-submitting while the question is open overwrites the previous record.
type Submission struct {
	PlayerID         int
	QuestionPosition int
	AnswerIDs        []int
	SubmittedAt      int64 // unix seconds
}

// ChatMessage is one entry in a session's chat log.
type ChatMessage struct {
	MessageBody string `json:"messageBody"`
	PlayerID    int    `json:"playerId"`
	PlayerName  string `json:"playerName"`
	TimeSent    int64  `json:"timeSent"`
}

// SessionStatus is the admin-facing view of a running session.
type SessionStatus struct {
	State      SessionState `json:"state"`
	AtQuestion int          `json:"atQuestion"`
	Players    []string     `json:"players"`
	Metadata   QuizSnapshot `json:"metadata"`
}

// PlayerStatus is the player-facing view, keyed by player id only.
type PlayerStatus struct {
	State        SessionState `json:"state"`
	NumQuestions int          `json:"numQuestions"`
	AtQuestion   int          `json:"atQuestion"`
}

// QuestionResults aggregates one question's outcome.
type QuestionResults struct {
	QuestionID         int      `json:"questionId"`
	PlayersCorrectList []string `json:"playersCorrectList"`
	AverageAnswerTime  int      `json:"averageAnswerTime"`
	PercentCorrect     int      `json:"percentCorrect"`
}

// RankedPlayer is one row of the final scoreboard.
type RankedPlayer struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// FinalResults is the end-of-session scoreboard plus per-question breakdowns.
type FinalResults struct {
	UsersRankedByScore []RankedPlayer    `json:"usersRankedByScore"`
	QuestionResults    []QuestionResults `json:"questionResults"`
}

// SessionLists splits a quiz's sessions into live and finished, both ordered
// by creation.
type SessionLists struct {
	ActiveSessions   []int `json:"activeSessions"`
	InactiveSessions []int `json:"inactiveSessions"`
}
