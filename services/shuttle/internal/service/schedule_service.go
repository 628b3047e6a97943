package service

import (
	"context"

	"github.com/diagnosis/shuttle-bookings/pkg/clock"
	"github.com/diagnosis/shuttle-bookings/pkg/config"
	"github.com/diagnosis/shuttle-bookings/pkg/events"
	"github.com/diagnosis/shuttle-bookings/pkg/logger"
	"github.com/diagnosis/shuttle-bookings/pkg/metrics"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/domain"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/repository"
)

type ScheduleService interface {
	AddSlot(ctx context.Context, sess domain.Session, req *domain.AddSlotReq) (*domain.ScheduleSlot, error)
	ListSchedule(ctx context.Context, sess domain.Session) ([]domain.ScheduleSlot, error)
}

type scheduleService struct {
	directory       repository.DirectoryRepository
	publisher       events.Publisher
	metrics         *metrics.Metrics
	clock           clock.Clock
	offices         []string
	defaultCapacity int
}

func NewScheduleService(
	directory repository.DirectoryRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	clk clock.Clock,
	cfg *config.Config,
) ScheduleService {
	return &scheduleService{
		directory:       directory,
		publisher:       publisher,
		metrics:         m,
		clock:           clk,
		offices:         cfg.Shuttle.Offices,
		defaultCapacity: cfg.Shuttle.DefaultCapacity,
	}
}

// AddSlot appends a departure. Duplicates of an existing slot are
// allowed and add to its capacity.
func (s *scheduleService) AddSlot(ctx context.Context, sess domain.Session, req *domain.AddSlotReq) (*domain.ScheduleSlot, error) {
	if !sess.IsAdmin() {
		return nil, recordRejection(ctx, s.metrics, domain.ErrForbidden)
	}

	slot, err := s.slotFromReq(req)
	if err != nil {
		return nil, recordRejection(ctx, s.metrics, err)
	}
	if err := s.directory.AppendSlot(ctx, slot); err != nil {
		return nil, recordRejection(ctx, s.metrics, err)
	}

	logger.InfoContext(ctx, "schedule slot added", "slot", slot.Fingerprint().String(), "capacity", slot.Capacity)
	if err := s.publisher.Publish(ctx, events.ScheduleSlotAdded, events.ScheduleSlotAddedEvent{
		Date:      slot.Date,
		Office:    slot.Office,
		Direction: string(slot.Direction),
		Time:      slot.Time,
		Capacity:  slot.Capacity,
		AddedBy:   sess.Username,
		AddedAt:   s.clock.Now(),
	}); err != nil {
		logger.ErrorContext(ctx, "failed to publish slot added event", logger.Err(err))
	}
	return &slot, nil
}

func (s *scheduleService) ListSchedule(ctx context.Context, sess domain.Session) ([]domain.ScheduleSlot, error) {
	if !sess.IsAdmin() {
		return nil, recordRejection(ctx, s.metrics, domain.ErrForbidden)
	}
	return s.directory.ListSlots(ctx)
}

func (s *scheduleService) slotFromReq(req *domain.AddSlotReq) (domain.ScheduleSlot, error) {
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return domain.ScheduleSlot{}, domain.Reject(domain.ErrInvalidInput, "%v", err)
	}
	office, err := checkOffice(req.Office, s.offices)
	if err != nil {
		return domain.ScheduleSlot{}, err
	}
	dir, ok := domain.ParseDirection(req.Direction)
	if !ok {
		return domain.ScheduleSlot{}, domain.Reject(domain.ErrInvalidInput, "unknown direction %q", req.Direction)
	}
	clockTime, err := domain.ParseClock(req.Time)
	if err != nil {
		return domain.ScheduleSlot{}, domain.Reject(domain.ErrInvalidInput, "%v", err)
	}

	capacity := s.defaultCapacity
	if req.Capacity != nil {
		capacity = *req.Capacity
	}
	if capacity < 0 {
		return domain.ScheduleSlot{}, domain.Reject(domain.ErrInvalidInput, "capacity must not be negative")
	}

	return domain.ScheduleSlot{Date: date, Office: office, Direction: dir, Time: clockTime, Capacity: capacity}, nil
}
