package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"trivia-challenge-service/internal/app"
	"trivia-challenge-service/internal/domain"
	"trivia-challenge-service/internal/infra/memory"
)

func testQuestions() []domain.Question {
	return []domain.Question{
		{ID: 1, Text: "e1", Type: domain.TrueFalse, Difficulty: domain.DifficultyEasy, CorrectAnswer: "true", Explanation: "because"},
		{ID: 2, Text: "e2", Type: domain.TrueFalse, Difficulty: domain.DifficultyEasy, CorrectAnswer: "true"},
		{ID: 3, Text: "m1", Type: domain.TrueFalse, Difficulty: domain.DifficultyMedium, CorrectAnswer: "true"},
		{ID: 4, Text: "m2", Type: domain.TrueFalse, Difficulty: domain.DifficultyMedium, CorrectAnswer: "true"},
		{ID: 5, Text: "h1", Type: domain.TrueFalse, Difficulty: domain.DifficultyHard, CorrectAnswer: "true"},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	bank := memory.NewQuestionBank(memory.NewStaticQuestionLoader(testQuestions()), time.Minute)
	store := memory.NewProgressStore()
	trivia := app.NewTriviaService(bank, store)
	challenges := app.NewChallengeService(bank, store, nil)
	t.Cleanup(challenges.Shutdown)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(trivia, challenges).ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (payload %v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func TestWebSocketAskAnswerFlow(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "1")

	ask := map[string]any{
		"type":    "ask",
		"payload": map[string]any{"difficulty": "easy"},
	}
	if err := conn.WriteJSON(ask); err != nil {
		t.Fatalf("write ask: %v", err)
	}
	_, question := readNext(conn, t, "question")
	if question["difficulty"] != "easy" {
		t.Fatalf("expected an easy question, got %v", question)
	}
	if _, leaked := question["correctAnswer"]; leaked {
		t.Fatal("answer key must not reach the client")
	}

	answer := map[string]any{
		"type":    "answer",
		"payload": map[string]any{"answer": "true", "timeTaken": 29.0},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	_, result := readNext(conn, t, "answerResult")
	if result["correct"] != true {
		t.Fatalf("expected a correct result, got %v", result)
	}
	breakdown, ok := result["scoreBreakdown"].(map[string]any)
	if !ok || breakdown["totalPoints"].(float64) != 10 {
		t.Fatalf("expected 10 points, got %v", result["scoreBreakdown"])
	}

	// A second answer with no question pending is an error.
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	readNext(conn, t, "error")
}

func TestWebSocketDailyChallenge(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "2")

	if err := conn.WriteJSON(map[string]any{"type": "startDaily"}); err != nil {
		t.Fatalf("write startDaily: %v", err)
	}
	_, question := readNext(conn, t, "dailyQuestion")
	if question["difficulty"] != "hard" {
		t.Fatalf("expected a hard daily question, got %v", question)
	}

	submit := map[string]any{
		"type":    "answerDaily",
		"payload": map[string]any{"answer": "true", "timeTaken": 29.0},
	}
	if err := conn.WriteJSON(submit); err != nil {
		t.Fatalf("write answerDaily: %v", err)
	}
	_, result := readNext(conn, t, "dailyResult")
	if result["correct"] != true {
		t.Fatalf("expected a correct daily result, got %v", result)
	}
	// trunc(30 * 2.0) for a fresh profile.
	if result["challengePoints"].(float64) != 60 {
		t.Fatalf("expected 60 challenge points, got %v", result["challengePoints"])
	}

	// The attempt is spent: restarting today is an error.
	if err := conn.WriteJSON(map[string]any{"type": "startDaily"}); err != nil {
		t.Fatalf("write startDaily: %v", err)
	}
	readNext(conn, t, "error")
}

func TestWebSocketWeeklyChallenge(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "3")

	if err := conn.WriteJSON(map[string]any{"type": "startWeekly"}); err != nil {
		t.Fatalf("write startWeekly: %v", err)
	}
	var raw struct {
		Type    string           `json:"type"`
		Payload []map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&raw); err != nil {
		t.Fatalf("read weekly questions: %v", err)
	}
	if raw.Type != "weeklyQuestions" || len(raw.Payload) != 5 {
		t.Fatalf("expected 5 weekly questions, got %s with %d", raw.Type, len(raw.Payload))
	}

	submit := map[string]any{
		"type":    "answerWeekly",
		"payload": map[string]any{"answer": "true", "timeTaken": 29.0},
	}
	var result map[string]any
	for i := 0; i < 5; i++ {
		if err := conn.WriteJSON(submit); err != nil {
			t.Fatalf("write answerWeekly %d: %v", i+1, err)
		}
		_, result = readNext(conn, t, "weeklyResult")
	}
	if result["isCompleted"] != true {
		t.Fatalf("expected the fifth answer to finalize, got %v", result)
	}
	if result["finalScore"] != "5/5" || result["badgeAwarded"] != "weekly_perfect" {
		t.Fatalf("expected a perfect run, got %v", result)
	}
}

func TestWebSocketStatusAndCancel(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "4")

	if err := conn.WriteJSON(map[string]any{"type": "startDaily"}); err != nil {
		t.Fatalf("write startDaily: %v", err)
	}
	readNext(conn, t, "dailyQuestion")

	if err := conn.WriteJSON(map[string]any{"type": "status"}); err != nil {
		t.Fatalf("write status: %v", err)
	}
	_, status := readNext(conn, t, "status")
	daily, ok := status["daily"].(map[string]any)
	if !ok || daily["active"] != true {
		t.Fatalf("expected an active daily track, got %v", status)
	}

	cancel := map[string]any{
		"type":    "cancel",
		"payload": map[string]any{"kind": "daily"},
	}
	if err := conn.WriteJSON(cancel); err != nil {
		t.Fatalf("write cancel: %v", err)
	}
	_, cancelResult := readNext(conn, t, "cancelResult")
	if cancelResult["cancelled"] != true {
		t.Fatalf("expected cancellation, got %v", cancelResult)
	}
}

func TestWebSocketRejectsBadUserID(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/ws?userId=bogus")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
