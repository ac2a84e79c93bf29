package app

import (
	"math"
	"sort"

	"quizhost-service/internal/domain"
)

// QuestionResults derives the aggregate outcome of one question. During live
// play it is only valid for the question currently in ANSWER_SHOW; once the
// session reaches FINAL_RESULTS (or is ended), every question that was
// revealed stays queryable.
func (s *Session) QuestionResults(questionPosition int) (domain.QuestionResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if questionPosition < 1 || questionPosition > len(s.metadata.Questions) {
		return domain.QuestionResults{}, domain.InvalidInput("question position %d is out of range", questionPosition)
	}
	live := s.state == domain.StateAnswerShow && questionPosition == s.atQuestion
	historical := (s.state == domain.StateFinalResults || s.state == domain.StateEnd) && questionPosition <= s.shownUpTo
	if !live && !historical {
		return domain.QuestionResults{}, domain.InvalidState("results for question %d are not available in state %s", questionPosition, s.state)
	}
	return s.questionResultsLocked(questionPosition), nil
}

// FinalResults derives the cross-question scoreboard. Only valid in
// FINAL_RESULTS.
func (s *Session) FinalResults() (domain.FinalResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateFinalResults {
		return domain.FinalResults{}, domain.InvalidState("final results are not available in state %s", s.state)
	}

	ranked := make([]domain.RankedPlayer, len(s.players))
	for i, p := range s.players {
		ranked[i] = domain.RankedPlayer{Name: p.Name, Score: s.totalScoreLocked(p.PlayerID)}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})

	perQuestion := make([]domain.QuestionResults, len(s.metadata.Questions))
	for pos := 1; pos <= len(s.metadata.Questions); pos++ {
		perQuestion[pos-1] = s.questionResultsLocked(pos)
	}
	return domain.FinalResults{UsersRankedByScore: ranked, QuestionResults: perQuestion}, nil
}

// questionResultsLocked is a pure derivation from the recorded submissions.
func (s *Session) questionResultsLocked(questionPosition int) domain.QuestionResults {
	question := s.metadata.Questions[questionPosition-1]
	correctSet := question.CorrectAnswerIDs()

	var correctNames []string
	var latencySum, submitted int
	openedAt := s.openedAt[questionPosition]
	for _, p := range s.players {
		sub, ok := s.submissions[questionPosition][p.PlayerID]
		if !ok {
			continue
		}
		submitted++
		latencySum += int(sub.SubmittedAt - openedAt)
		if matchesCorrectSet(sub.AnswerIDs, correctSet) {
			correctNames = append(correctNames, p.Name)
		}
	}
	sort.Strings(correctNames)
	if correctNames == nil {
		correctNames = []string{}
	}

	averageAnswerTime := 0
	if submitted > 0 {
		averageAnswerTime = int(math.Round(float64(latencySum) / float64(submitted)))
	}
	percentCorrect := 0
	if len(s.players) > 0 {
		percentCorrect = int(math.Round(100 * float64(len(correctNames)) / float64(len(s.players))))
	}

	return domain.QuestionResults{
		QuestionID:         question.QuestionID,
		PlayersCorrectList: correctNames,
		AverageAnswerTime:  averageAnswerTime,
		PercentCorrect:     percentCorrect,
	}
}

// totalScoreLocked sums the full point value of every question the player
// answered correctly. No partial or time-weighted credit.
func (s *Session) totalScoreLocked(playerID int) int {
	total := 0
	for pos := 1; pos <= len(s.metadata.Questions); pos++ {
		sub, ok := s.submissions[pos][playerID]
		if !ok {
			continue
		}
		question := s.metadata.Questions[pos-1]
		if matchesCorrectSet(sub.AnswerIDs, question.CorrectAnswerIDs()) {
			total += question.Points
		}
	}
	return total
}

// matchesCorrectSet reports whether the chosen ids exactly equal the correct
// answer set.
func matchesCorrectSet(chosen []int, correct map[int]struct{}) bool {
	if len(chosen) != len(correct) {
		return false
	}
	for _, id := range chosen {
		if _, ok := correct[id]; !ok {
			return false
		}
	}
	return true
}
