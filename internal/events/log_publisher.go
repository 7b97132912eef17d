package events

import (
	"context"

	"github.com/rs/zerolog"
)

// LogPublisher writes events to a zerolog logger
type LogPublisher struct {
	logger zerolog.Logger
}

var _ Publisher = (*LogPublisher)(nil)

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "events").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	e := p.logger.Info()
	if event.Type == SessionRefreshRejected {
		e = p.logger.Warn()
	}
	e.Str("event_id", event.ID).
		Str("event", string(event.Type)).
		Str("subject_id", event.SubjectID).
		Str("code", event.Code).
		Time("occurred_at", event.OccurredAt).
		Msg("security event")
	return nil
}
