package domain

import (
	"context"
	"time"
)

// ReportEventType names a report lifecycle transition.
type ReportEventType string

const (
	ReportSubmitted ReportEventType = "submitted"
	ReportDeleted   ReportEventType = "deleted"
)

// ReportEvent is published after a report mutation has been applied.
type ReportEvent struct {
	Type       ReportEventType `json:"type"`
	Report     Report          `json:"report"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewReportEvent stamps an event with the package clock.
func NewReportEvent(t ReportEventType, r Report) ReportEvent {
	return ReportEvent{Type: t, Report: r, OccurredAt: clock.Now().UTC()}
}

// EventPublisher forwards report events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event ReportEvent) error
}
