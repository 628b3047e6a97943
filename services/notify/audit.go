package main

import (
	"fmt"

	"github.com/diagnosis/shuttle-bookings/pkg/events"
	"github.com/diagnosis/shuttle-bookings/pkg/logger"
)

// subscribeAudit attaches audit to every shuttle subject. Instances
// sharing queue split the stream between them.
func subscribeAudit(sub events.Subscriber, queue string) error {
	for _, subject := range events.Subjects {
		if err := sub.QueueSubscribe(subject, queue, audit); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}
	return nil
}

func audit(msg *events.Message) {
	line, attrs, err := auditRecord(msg)
	if err != nil {
		logger.Warn("Undecodable event", "subject", msg.Subject, "event_id", msg.ID, logger.Err(err))
		return
	}
	if line == "" {
		logger.Debug("ignoring event", "subject", msg.Subject)
		return
	}
	logger.Info(line, append(attrs, "event_id", msg.ID)...)
}

// auditRecord decodes msg into the line and fields the audit log keeps.
// Unknown subjects yield an empty line.
func auditRecord(msg *events.Message) (string, []any, error) {
	switch msg.Subject {
	case events.BookingConfirmed:
		var e events.BookingConfirmedEvent
		if err := msg.Decode(&e); err != nil {
			return "", nil, err
		}
		return "booking confirmed", []any{
			"booking_id", e.BookingID,
			"username", e.Username,
			"date", e.Date,
			"office", e.Office,
			"direction", e.Direction,
			"time", e.Time,
		}, nil
	case events.ScheduleSlotAdded:
		var e events.ScheduleSlotAddedEvent
		if err := msg.Decode(&e); err != nil {
			return "", nil, err
		}
		return "schedule slot added", []any{
			"date", e.Date,
			"office", e.Office,
			"direction", e.Direction,
			"time", e.Time,
			"capacity", e.Capacity,
			"added_by", e.AddedBy,
		}, nil
	case events.UserPasswordChanged:
		var e events.UserPasswordChangedEvent
		if err := msg.Decode(&e); err != nil {
			return "", nil, err
		}
		return "password changed", []any{"username", e.Username, "changed_at", e.ChangedAt}, nil
	}
	return "", nil, nil
}
