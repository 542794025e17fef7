package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/engine"
	"github.com/Vincent-mutwiri/townhall-icebreaker-sub000/internal/events"
)

// Service ties the connection manager, the inbound router, and the optional
// NATS bridge into one HTTP surface: /ws for clients, /health and /stats
// for operators.
type Service struct {
	cm     *ConnectionManager
	router *Router
	pub    *JetStreamPublisher // nil when NATS is not configured
	eng    *engine.Engine
}

func NewService(eng *engine.Engine, config ConnectionConfig, pub *JetStreamPublisher) *Service {
	router := NewRouter(eng)
	cm := NewConnectionManager(config, router.HandleMessage)
	router.BindConnectionManager(cm)

	return &Service{
		cm:     cm,
		router: router,
		pub:    pub,
		eng:    eng,
	}
}

// Start runs the broadcast loop until the context ends.
func (s *Service) Start(ctx context.Context) {
	s.cm.Start(ctx)
}

// Close releases the NATS connection if one is open.
func (s *Service) Close() {
	if s.pub != nil {
		s.pub.Close()
	}
}

// BroadcastToGame implements engine.Broadcaster: room fan-out plus the NATS
// bridge. Neither path blocks the caller.
func (s *Service) BroadcastToGame(pin string, eventType events.Type, payload any) {
	event := NewGameEvent(pin, eventType, payload)
	s.cm.BroadcastToRoom(pin, event)
	if s.pub != nil {
		go s.pub.Publish(context.Background(), event)
	}
}

// BroadcastToPlayer implements engine.Broadcaster for single-player events.
// Player-directed events stay off the NATS bridge.
func (s *Service) BroadcastToPlayer(pin string, playerID string, eventType events.Type, payload any) {
	event := NewGameEvent(pin, eventType, payload)
	s.cm.BroadcastToPlayer(pin, playerID, event)
}

// Handler returns the HTTP handler for the gateway, CORS-wrapped.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if err := s.cm.UpgradeConnection(w, r); err != nil {
			http.Error(w, "failed to upgrade connection", http.StatusBadRequest)
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		stats := s.cm.Stats()
		stats["active_sessions"] = s.eng.ActiveSessions()
		stats["active_timers"] = s.eng.Timers().ActiveTimers()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats); err != nil {
			log.Error().Err(err).Msg("failed to write stats response")
		}
	})

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(mux)
}
