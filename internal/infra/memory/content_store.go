package memory

import (
	"context"

	"quizhost-service/internal/domain"
)

// StaticContentStore serves quiz snapshots from an in-memory map
// (useful for tests/demos).
type StaticContentStore struct {
	quizzes map[string]domain.QuizSnapshot
}

func NewStaticContentStore(quizzes map[string]domain.QuizSnapshot) *StaticContentStore {
	return &StaticContentStore{quizzes: quizzes}
}

func (s *StaticContentStore) GetQuizSnapshot(_ context.Context, quizID string) (domain.QuizSnapshot, error) {
	if quiz, ok := s.quizzes[quizID]; ok {
		return quiz.Clone(), nil
	}
	return domain.QuizSnapshot{}, domain.NotFound("quiz %s not found", quizID)
}

func (s *StaticContentStore) QuestionCount(_ context.Context, quizID string) (int, error) {
	if quiz, ok := s.quizzes[quizID]; ok {
		return len(quiz.Questions), nil
	}
	return 0, domain.NotFound("quiz %s not found", quizID)
}

// StaticIdentityProvider resolves tokens and quiz ownership from fixed maps.
// Real credential management is an upstream service; this implements the seam
// the session core consumes.
type StaticIdentityProvider struct {
	tokens map[string]string // token -> user id
	owners map[string]string // quiz id -> user id
}

func NewStaticIdentityProvider(tokens, owners map[string]string) *StaticIdentityProvider {
	return &StaticIdentityProvider{tokens: tokens, owners: owners}
}

func (p *StaticIdentityProvider) ResolveToken(token string) (string, error) {
	if userID, ok := p.tokens[token]; ok {
		return userID, nil
	}
	return "", domain.Unauthorized("invalid token")
}

func (p *StaticIdentityProvider) UserOwnsQuiz(userID, quizID string) bool {
	return p.owners[quizID] == userID
}
