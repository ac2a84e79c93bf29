package app

import (
	"unicode/utf8"

	"quizhost-service/internal/domain"
)

const maxMessageLength = 100

// PostMessage appends a chat message with the sender's resolved name and the
// current timestamp. Chat is not gated on the session lifecycle.
func (s *Session) PostMessage(playerID int, body string) error {
	if n := utf8.RuneCountInString(body); n < 1 || n > maxMessageLength {
		return domain.InvalidInput("message body must be between 1 and %d characters", maxMessageLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := ""
	for _, p := range s.players {
		if p.PlayerID == playerID {
			name = p.Name
			break
		}
	}
	if name == "" {
		return domain.NotFound("player %d not found in session", playerID)
	}

	s.messages = append(s.messages, domain.ChatMessage{
		MessageBody: body,
		PlayerID:    playerID,
		PlayerName:  name,
		TimeSent:    s.opts.Clock().Unix(),
	})
	return nil
}

// Messages returns the chat log in append order.
func (s *Session) Messages() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatMessage(nil), s.messages...)
}
