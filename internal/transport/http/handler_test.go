package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"quizhost-service/internal/app"
	"quizhost-service/internal/domain"
	"quizhost-service/internal/infra/memory"
)

func TestLivePlayOverHTTP(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	// Admin starts a session.
	var started struct {
		SessionID int `json:"sessionId"`
	}
	resp := doJSON(t, server, "POST", "/v1/admin/quiz/quiz-1/session/start", "tok-admin",
		map[string]any{"autoStartNum": 2}, &started)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start session: status %d", resp.StatusCode)
	}

	// Player joins.
	var joined struct {
		PlayerID int `json:"playerId"`
	}
	resp = doJSON(t, server, "POST", "/v1/player/join", "",
		map[string]any{"sessionId": started.SessionID, "name": "Hayden"}, &joined)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join: status %d", resp.StatusCode)
	}

	var status domain.PlayerStatus
	resp = doJSON(t, server, "GET", fmt.Sprintf("/v1/player/%d", joined.PlayerID), "", nil, &status)
	if resp.StatusCode != http.StatusOK || status.State != domain.StateLobby {
		t.Fatalf("player status: status %d state %s", resp.StatusCode, status.State)
	}

	// Advance to QUESTION_OPEN and answer correctly.
	sessionURL := fmt.Sprintf("/v1/admin/quiz/quiz-1/session/%d", started.SessionID)
	for _, action := range []string{"NEXT_QUESTION", "SKIP_COUNTDOWN"} {
		resp = doJSON(t, server, "PUT", sessionURL, "tok-admin", map[string]any{"action": action}, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("action %s: status %d", action, resp.StatusCode)
		}
	}

	answerURL := fmt.Sprintf("/v1/player/%d/question/1/answer", joined.PlayerID)
	resp = doJSON(t, server, "PUT", answerURL, "", map[string]any{"answerIds": []int{2}}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit answer: status %d", resp.StatusCode)
	}

	resp = doJSON(t, server, "PUT", sessionURL, "tok-admin", map[string]any{"action": "GO_TO_ANSWER"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("go to answer: status %d", resp.StatusCode)
	}

	var results domain.QuestionResults
	resultsURL := fmt.Sprintf("/v1/player/%d/question/1/results", joined.PlayerID)
	resp = doJSON(t, server, "GET", resultsURL, "", nil, &results)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("question results: status %d", resp.StatusCode)
	}
	if len(results.PlayersCorrectList) != 1 || results.PlayersCorrectList[0] != "Hayden" || results.PercentCorrect != 100 {
		t.Fatalf("unexpected results %+v", results)
	}

	// Chat round trip.
	chatURL := fmt.Sprintf("/v1/player/%d/chat", joined.PlayerID)
	resp = doJSON(t, server, "POST", chatURL, "",
		map[string]any{"message": map[string]any{"messageBody": "gg"}}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("post chat: status %d", resp.StatusCode)
	}
	var chat struct {
		Messages []domain.ChatMessage `json:"messages"`
	}
	resp = doJSON(t, server, "GET", chatURL, "", nil, &chat)
	if resp.StatusCode != http.StatusOK || len(chat.Messages) != 1 || chat.Messages[0].PlayerName != "Hayden" {
		t.Fatalf("chat round trip failed: status %d messages %+v", resp.StatusCode, chat.Messages)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"bad token", "POST", "/v1/admin/quiz/quiz-1/session/start", "nope", map[string]any{"autoStartNum": 0}, http.StatusUnauthorized},
		{"not owner", "POST", "/v1/admin/quiz/quiz-1/session/start", "tok-other", map[string]any{"autoStartNum": 0}, http.StatusForbidden},
		{"bad autostart", "POST", "/v1/admin/quiz/quiz-1/session/start", "tok-admin", map[string]any{"autoStartNum": 51}, http.StatusBadRequest},
		{"unknown session join", "POST", "/v1/player/join", "", map[string]any{"sessionId": 999, "name": "x"}, http.StatusNotFound},
		{"unknown player", "GET", "/v1/player/999", "", nil, http.StatusNotFound},
		{"non-numeric player id", "GET", "/v1/player/abc", "", nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, server, tc.method, tc.path, tc.token, tc.body, nil)
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
			var body struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
				t.Fatalf("expected error body, got err=%v body=%+v", err, body)
			}
		})
	}
}

func TestDuplicateNameIsBadRequest(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	var started struct {
		SessionID int `json:"sessionId"`
	}
	doJSON(t, server, "POST", "/v1/admin/quiz/quiz-1/session/start", "tok-admin",
		map[string]any{"autoStartNum": 0}, &started)

	join := map[string]any{"sessionId": started.SessionID, "name": "Hayden"}
	if resp := doJSON(t, server, "POST", "/v1/player/join", "", join, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("first join: status %d", resp.StatusCode)
	}
	if resp := doJSON(t, server, "POST", "/v1/player/join", "", join, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate join: expected 400, got %d", resp.StatusCode)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	identity := memory.NewStaticIdentityProvider(
		map[string]string{"tok-admin": "admin", "tok-other": "other"},
		map[string]string{"quiz-1": "admin"},
	)
	content := memory.NewStaticContentStore(map[string]domain.QuizSnapshot{
		"quiz-1": {
			QuizID: "quiz-1",
			Name:   "Warmup",
			Questions: []domain.Question{
				{
					QuestionID: 1,
					Question:   "What is 2 + 2?",
					Duration:   30,
					Points:     5,
					Answers: []domain.Answer{
						{AnswerID: 1, Answer: "3", Correct: false, Colour: "red"},
						{AnswerID: 2, Answer: "4", Correct: true, Colour: "blue"},
						{AnswerID: 3, Answer: "5", Correct: false, Colour: "green"},
					},
				},
			},
		},
	})
	registry := app.NewRegistryWithOptions(identity, content, nil, app.Options{
		Countdown:     200 * time.Millisecond,
		DurationScale: 50 * time.Millisecond,
	})
	return httptest.NewServer(NewHandler(registry).Router())
}

func doJSON(t *testing.T, server *httptest.Server, method, path, token string, body, out any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("token", token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}
