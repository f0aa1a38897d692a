package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"trivia-challenge-service/internal/app"
	"trivia-challenge-service/internal/domain"
)

type WSHandler struct {
	trivia     *app.TriviaService
	challenges *app.ChallengeService
	upgrader   websocket.Upgrader
}

func NewWSHandler(trivia *app.TriviaService, challenges *app.ChallengeService) *WSHandler {
	return &WSHandler{
		trivia:     trivia,
		challenges: challenges,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type askPayload struct {
	Difficulty string `json:"difficulty,omitempty"`
	Category   string `json:"category,omitempty"`
	Kind       string `json:"kind,omitempty"` // question type
}

type answerPayload struct {
	Answer    string  `json:"answer"`
	TimeTaken float64 `json:"timeTaken"`
}

type cancelPayload struct {
	Kind string `json:"kind"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the
// trivia and challenge use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	rawUser := r.URL.Query().Get("userId")
	userID, err := strconv.ParseInt(rawUser, 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "missing or invalid userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// The question most recently issued on this connection. Answers submitted
	// via "answer" are scored against it.
	var current *domain.Question

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "ask":
			var payload askPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					send <- errMsg("invalid ask payload")
					continue
				}
			}
			q, err := h.trivia.AskQuestion(r.Context(), app.QuestionFilter{
				Difficulty: domain.Difficulty(payload.Difficulty),
				Category:   payload.Category,
				Type:       domain.QuestionType(payload.Kind),
			})
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			if q == nil {
				send <- errMsg(domain.ErrQuestionUnavailable.Error())
				continue
			}
			current = q
			send <- outboundMessage[any]{Type: "question", Payload: clientQuestion(*q)}

		case "answer":
			payload, ok := decodeAnswer(inbound.Payload, send)
			if !ok {
				continue
			}
			if current == nil {
				send <- errMsg("no question pending on this connection")
				continue
			}
			outcome, err := h.trivia.SubmitAnswer(r.Context(), userID, *current, payload.Answer, payload.TimeTaken)
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			current = nil
			send <- outboundMessage[any]{Type: "answerResult", Payload: outcome}

		case "profile":
			profile, err := h.trivia.Profile(r.Context(), userID)
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "profile", Payload: profile}

		case "achievements":
			report, err := h.trivia.AchievementReport(r.Context(), userID)
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "achievements", Payload: report}

		case "reset":
			if err := h.trivia.ResetProfile(r.Context(), userID); err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "resetDone", Payload: struct{}{}}

		case "startDaily":
			q, err := h.challenges.StartDaily(r.Context(), userID)
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "dailyQuestion", Payload: clientQuestion(*q)}

		case "answerDaily":
			payload, ok := decodeAnswer(inbound.Payload, send)
			if !ok {
				continue
			}
			result, err := h.challenges.SubmitDailyAnswer(r.Context(), userID, payload.Answer, payload.TimeTaken)
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "dailyResult", Payload: result}

		case "startWeekly":
			questions, err := h.challenges.StartWeekly(r.Context(), userID)
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			out := make([]clientQuestionPayload, 0, len(questions))
			for _, q := range questions {
				out = append(out, clientQuestion(q))
			}
			send <- outboundMessage[any]{Type: "weeklyQuestions", Payload: out}

		case "answerWeekly":
			payload, ok := decodeAnswer(inbound.Payload, send)
			if !ok {
				continue
			}
			result, err := h.challenges.SubmitWeeklyAnswer(r.Context(), userID, payload.Answer, payload.TimeTaken)
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "weeklyResult", Payload: result}

		case "status":
			status, err := h.challenges.Status(r.Context(), userID)
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "status", Payload: status}

		case "cancel":
			var payload cancelPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid cancel payload")
				continue
			}
			cancelled := h.challenges.CancelChallenge(userID, app.ChallengeKind(payload.Kind))
			send <- outboundMessage[any]{Type: "cancelResult", Payload: map[string]bool{"cancelled": cancelled}}

		default:
			send <- errMsg("unsupported message type")
		}
	}

	close(send)
	<-writerDone
}

func errMsg(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}

func decodeAnswer(raw json.RawMessage, send chan<- outboundMessage[any]) (answerPayload, bool) {
	var payload answerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		send <- errMsg("invalid answer payload")
		return payload, false
	}
	return payload, true
}

// clientQuestionPayload is a Question stripped of its answer key before it
// leaves the server.
type clientQuestionPayload struct {
	ID         int64               `json:"id"`
	Text       string              `json:"text"`
	Type       domain.QuestionType `json:"type"`
	Difficulty domain.Difficulty   `json:"difficulty"`
	Category   string              `json:"category"`
	Options    []string            `json:"options,omitempty"`
}

func clientQuestion(q domain.Question) clientQuestionPayload {
	return clientQuestionPayload{
		ID:         q.ID,
		Text:       q.Text,
		Type:       q.Type,
		Difficulty: q.Difficulty,
		Category:   q.Category,
		Options:    q.Options,
	}
}
