package redis

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// SessionIndex mirrors which sessions are live into Redis so other instances
// (dashboards, operators) can see them. Writes are best-effort liveness
// markers; the in-process registry stays the source of truth.
// Active sessions are stored as: SADD quiz:{quizID}:active {sessionID}
type SessionIndex struct {
	client *redis.Client
}

func NewSessionIndex(client *redis.Client) *SessionIndex {
	return &SessionIndex{client: client}
}

func (i *SessionIndex) MarkActive(quizID string, sessionID int) {
	_ = i.client.SAdd(context.Background(), i.key(quizID), strconv.Itoa(sessionID)).Err()
}

func (i *SessionIndex) MarkEnded(quizID string, sessionID int) {
	_ = i.client.SRem(context.Background(), i.key(quizID), strconv.Itoa(sessionID)).Err()
}

// ActiveSessions lists the session ids currently marked live for a quiz.
func (i *SessionIndex) ActiveSessions(ctx context.Context, quizID string) ([]int, error) {
	raw, err := i.client.SMembers(ctx, i.key(quizID)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(raw))
	for _, member := range raw {
		if id, err := strconv.Atoi(member); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (i *SessionIndex) key(quizID string) string {
	return "quiz:" + quizID + ":active"
}
