// Package events publishes security events about sessions. Publishing is best
// effort: a failed publish is logged by the caller and never changes how a
// request is answered.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	SessionLogin           Type = "session.login"
	SessionRotated         Type = "session.rotated"
	SessionRefreshRejected Type = "session.refresh_rejected"
	SessionLogout          Type = "session.logout"
)

// Event never carries token material
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	SubjectID  string    `json:"subject_id,omitempty"`
	Code       string    `json:"code,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(typ Type, subjectID string, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		SubjectID:  subjectID,
		OccurredAt: at.UTC(),
	}
}

// WithCode returns a copy of e with the denial code set
func (e Event) WithCode(code string) Event {
	e.Code = code
	return e
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type nopPublisher struct{}

// Nop discards every event
var Nop Publisher = nopPublisher{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

type multiPublisher []Publisher

// Multi publishes each event to every publisher and joins their errors
func Multi(publishers ...Publisher) Publisher {
	return multiPublisher(publishers)
}

func (m multiPublisher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
