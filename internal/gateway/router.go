package gateway

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/engine"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/events"
)

// Client message types, the inbound companion channel of the broadcast
// events.
const (
	MessageJoinRoom     = "join-room"
	MessageStartGame    = "start-game"
	MessageSubmitAnswer = "submit-answer"
	MessageCastVote     = "cast-vote"
	MessageNextQuestion = "host:next-question"
)

// ClientMessage is the envelope every inbound WebSocket message uses.
type ClientMessage struct {
	Type string          `json:"type"`
	Pin  string          `json:"pin"`
	Data json.RawMessage `json:"data,omitempty"`
}

type JoinRoomPayload struct {
	PlayerID string `json:"player_id,omitempty"`
}

type SubmitAnswerPayload struct {
	PlayerID string `json:"player_id"`
	Answer   string `json:"answer"`
}

type CastVotePayload struct {
	VoterID     string `json:"voter_id"`
	CandidateID string `json:"candidate_id"`
}

// Router dispatches inbound client messages to the engine. Malformed
// messages are rejected silently with a log line; only answer submissions
// report failures back to the sender.
type Router struct {
	engine *engine.Engine
	cm     *ConnectionManager
}

func NewRouter(eng *engine.Engine) *Router {
	return &Router{
		engine: eng,
	}
}

// BindConnectionManager wires the manager the router answers errors through.
func (r *Router) BindConnectionManager(cm *ConnectionManager) {
	r.cm = cm
}

// HandleMessage is the inbound handler for every client message.
func (r *Router) HandleMessage(conn *Connection, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Debug().Err(err).Str("connection_id", conn.ID).Msg("malformed client message")
		return
	}

	pin := strings.TrimSpace(msg.Pin)
	if pin == "" || len(pin) > 12 {
		log.Debug().Str("connection_id", conn.ID).Str("type", msg.Type).Msg("invalid pin in client message")
		return
	}

	switch msg.Type {
	case MessageJoinRoom:
		var payload JoinRoomPayload
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				log.Debug().Err(err).Str("connection_id", conn.ID).Msg("malformed join-room payload")
				return
			}
		}
		r.cm.JoinRoom(conn, pin, payload.PlayerID)

	case MessageStartGame:
		r.engine.StartGame(pin)

	case MessageSubmitAnswer:
		var payload SubmitAnswerPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			r.answerError(conn, pin, "malformed answer payload")
			return
		}
		playerID, err := uuid.Parse(payload.PlayerID)
		if err != nil {
			r.answerError(conn, pin, "invalid player id")
			return
		}
		if payload.Answer == "" {
			r.answerError(conn, pin, "answer is required")
			return
		}
		r.engine.SubmitAnswer(pin, playerID, payload.Answer)

	case MessageCastVote:
		var payload CastVotePayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			log.Debug().Err(err).Str("pin", pin).Msg("malformed cast-vote payload")
			return
		}
		voterID, err := uuid.Parse(payload.VoterID)
		if err != nil {
			log.Debug().Str("pin", pin).Msg("invalid voter id")
			return
		}
		candidateID, err := uuid.Parse(payload.CandidateID)
		if err != nil {
			log.Debug().Str("pin", pin).Msg("invalid candidate id")
			return
		}
		r.engine.CastVote(pin, voterID, candidateID)

	case MessageNextQuestion:
		r.engine.AdvanceQuestion(pin)

	default:
		log.Debug().Str("connection_id", conn.ID).Str("type", msg.Type).Msg("unknown client message type")
	}
}

// answerError replies directly on the submitting connection, so even a
// client that never joined a room hears about its own rejected answer.
func (r *Router) answerError(conn *Connection, pin, message string) {
	log.Debug().Str("pin", pin).Str("connection_id", conn.ID).Str("reason", message).Msg("rejected answer submission")
	conn.SendEvent(NewGameEvent(pin, events.TypeAnswerError, events.AnswerErrorPayload{
		Message: message,
	}))
}
