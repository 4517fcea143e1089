package triage

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"medtriage/models"
	"medtriage/utils"
)

// Session tracks one triage request: its id and the append-only event log
// every agent records into. It satisfies the per-agent EventSink interfaces.
type Session struct {
	ID string

	mu     sync.Mutex
	events []models.Event
	log    *zap.Logger
}

// NewSession mints a session with an id like SES202501021504053317.
func NewSession() *Session {
	id := fmt.Sprintf("SES%s%04d", time.Now().Format("20060102150405"), rand.Intn(10000))
	return &Session{
		ID:  id,
		log: utils.GetLogger().With(zap.String("session_id", id)),
	}
}

// Record appends an event and mirrors it to the structured log.
func (s *Session) Record(agent, level, message string, metadata map[string]interface{}) {
	s.mu.Lock()
	s.events = append(s.events, models.Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Agent:     agent,
		Level:     level,
		Message:   message,
		Metadata:  metadata,
	})
	s.mu.Unlock()

	fields := []zap.Field{zap.String("agent", agent)}
	for k, v := range metadata {
		fields = append(fields, zap.Any(k, v))
	}
	switch level {
	case models.LevelError, models.LevelCritical:
		s.log.Error(message, fields...)
	case models.LevelWarning:
		s.log.Warn(message, fields...)
	default:
		s.log.Info(message, fields...)
	}
}

// Events returns a copy of the event log.
func (s *Session) Events() []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Event, len(s.events))
	copy(out, s.events)
	return out
}
