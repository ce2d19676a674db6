package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"trivia-quest/internal/app"
	"trivia-quest/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
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

type startPayload struct {
	Amount     int    `json:"amount"`
	Difficulty string `json:"difficulty"`
	Type       string `json:"type"`
	Category   int    `json:"category"`
}

type answerPayload struct {
	Index  int    `json:"index"`
	Answer string `json:"answer"`
}

// questionView is what the client sees while the attempt is live: the
// correct answer stays server-side until results.
type questionView struct {
	ID         int      `json:"id"`
	Category   string   `json:"category"`
	Type       string   `json:"type"`
	Difficulty string   `json:"difficulty"`
	Prompt     string   `json:"prompt"`
	Answers    []string `json:"answers"`
	UserAnswer string   `json:"userAnswer,omitempty"`
}

type startedPayload struct {
	AttemptID    string         `json:"attemptId"`
	CurrentIndex int            `json:"currentIndex"`
	Questions    []questionView `json:"questions"`
}

type answerRecordedPayload struct {
	Index  int    `json:"index"`
	Answer string `json:"answer"`
}

type positionPayload struct {
	CurrentIndex int `json:"currentIndex"`
}

type unansweredPayload struct {
	Count int `json:"count"`
}

type resultView struct {
	ID            int    `json:"id"`
	Category      string `json:"category"`
	Difficulty    string `json:"difficulty"`
	Prompt        string `json:"prompt"`
	CorrectAnswer string `json:"correctAnswer"`
	UserAnswer    string `json:"userAnswer,omitempty"`
	Correct       bool   `json:"correct"`
}

type resultsPayload struct {
	Player    string           `json:"player"`
	Questions []resultView     `json:"questions"`
	Stats     domain.QuizStats `json:"stats"`
}

type joinedPayload struct {
	Player string `json:"player"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the connection and drives one quiz session for a
// device. The protocol is strictly request/response, so a single read
// loop writes every reply and no writer goroutine is needed.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("deviceId")
	name := r.URL.Query().Get("name")
	if deviceID == "" {
		http.Error(w, "missing deviceId", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if name != "" {
		if err := h.service.RegisterPlayer(ctx, deviceID, name); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	} else {
		saved, ok, err := h.service.PlayerName(ctx, deviceID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			// No stored identity and none offered: client must go back
			// to the start screen and enter a name first.
			http.Error(w, "player name required", http.StatusBadRequest)
			return
		}
		name = saved
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	h.send(conn, "joined", joinedPayload{Player: name})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid start payload")
				continue
			}
			view, err := h.service.StartQuiz(ctx, deviceID, domain.QuizConfig{
				Amount:     payload.Amount,
				Difficulty: domain.Difficulty(payload.Difficulty),
				Type:       domain.QuestionType(payload.Type),
				Category:   payload.Category,
			})
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.send(conn, "started", startedPayload{
				AttemptID:    view.AttemptID,
				CurrentIndex: view.CurrentIndex,
				Questions:    toQuestionViews(view.Questions),
			})

		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid answer payload")
				continue
			}
			question, err := h.service.RecordAnswer(ctx, deviceID, payload.Index, payload.Answer)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.send(conn, "answerRecorded", answerRecordedPayload{
				Index:  question.ID,
				Answer: question.UserAnswer,
			})

		case "next":
			index, err := h.service.GoNext(ctx, deviceID)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.send(conn, "position", positionPayload{CurrentIndex: index})

		case "previous":
			index, err := h.service.GoPrevious(ctx, deviceID)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.send(conn, "position", positionPayload{CurrentIndex: index})

		case "submit":
			unanswered, finished, err := h.service.AttemptSubmit(ctx, deviceID)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			if unanswered > 0 {
				// Confirmation is the client's job; the attempt stays live
				// until it answers the rest or sends forceSubmit.
				h.send(conn, "unanswered", unansweredPayload{Count: unanswered})
				continue
			}
			h.sendResults(conn, name, finished)

		case "forceSubmit":
			finished, err := h.service.ForceSubmit(ctx, deviceID)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.sendResults(conn, name, finished)

		case "quit":
			if err := h.service.Abandon(ctx, deviceID); err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.send(conn, "abandoned", struct{}{})
			return

		default:
			h.sendError(conn, "unsupported message type")
		}
	}
}

func (h *WSHandler) sendResults(conn *websocket.Conn, player string, finished []domain.Question) {
	views := make([]resultView, 0, len(finished))
	for _, q := range finished {
		views = append(views, resultView{
			ID:            q.ID,
			Category:      q.Category,
			Difficulty:    string(q.Difficulty),
			Prompt:        q.Prompt,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    q.UserAnswer,
			Correct:       q.Correct(),
		})
	}
	h.send(conn, "results", resultsPayload{
		Player:    player,
		Questions: views,
		Stats:     app.CalculateStats(finished),
	})
}

func (h *WSHandler) send(conn *websocket.Conn, msgType string, payload any) {
	if err := conn.WriteJSON(outboundMessage[any]{Type: msgType, Payload: payload}); err != nil {
		log.Printf("ws write error: %v", err)
	}
}

func (h *WSHandler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, "error", errorPayload{Message: message})
}

func toQuestionViews(questions []domain.Question) []questionView {
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, questionView{
			ID:         q.ID,
			Category:   q.Category,
			Type:       string(q.Type),
			Difficulty: string(q.Difficulty),
			Prompt:     q.Prompt,
			Answers:    q.AllAnswers,
			UserAnswer: q.UserAnswer,
		})
	}
	return views
}
