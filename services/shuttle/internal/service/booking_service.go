package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/shuttle-bookings/pkg/clock"
	"github.com/diagnosis/shuttle-bookings/pkg/config"
	"github.com/diagnosis/shuttle-bookings/pkg/events"
	"github.com/diagnosis/shuttle-bookings/pkg/lock"
	"github.com/diagnosis/shuttle-bookings/pkg/logger"
	"github.com/diagnosis/shuttle-bookings/pkg/metrics"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/domain"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/repository"
)

type BookingService interface {
	Availability(ctx context.Context, sess domain.Session, q domain.AvailabilityQuery) (*domain.Availability, error)
	Commit(ctx context.Context, sess domain.Session, req *domain.BookingReq) (*domain.Booking, error)
	ListMine(ctx context.Context, sess domain.Session) ([]domain.Booking, error)
	ListAll(ctx context.Context, sess domain.Session) ([]domain.Booking, error)
}

type bookingService struct {
	directory   repository.DirectoryRepository
	ledger      repository.LedgerRepository
	locker      lock.Locker
	publisher   events.Publisher
	metrics     *metrics.Metrics
	clock       clock.Clock
	engine      Engine
	offices     []string
	maxAttempts int
}

func NewBookingService(
	directory repository.DirectoryRepository,
	ledger repository.LedgerRepository,
	locker lock.Locker,
	publisher events.Publisher,
	m *metrics.Metrics,
	clk clock.Clock,
	cfg *config.Config,
) BookingService {
	attempts := cfg.Shuttle.CommitMaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &bookingService{
		directory:   directory,
		ledger:      ledger,
		locker:      locker,
		publisher:   publisher,
		metrics:     m,
		clock:       clk,
		engine:      NewEngine(cfg.Shuttle.CutoffHour, cfg.Shuttle.Location()),
		offices:     cfg.Shuttle.Offices,
		maxAttempts: attempts,
	}
}

func (s *bookingService) Availability(ctx context.Context, sess domain.Session, q domain.AvailabilityQuery) (*domain.Availability, error) {
	date, office, err := s.normalise(q.Date, q.Office)
	if err != nil {
		return nil, err
	}
	q.Date, q.Office = date, office

	slots, err := s.directory.ListSlots(ctx)
	if err != nil {
		return nil, err
	}
	mine, err := s.ledger.ListByUser(ctx, sess.Username)
	if err != nil {
		return nil, err
	}

	a := s.engine.ComputeAvailableSlots(s.clock.Now(), q, mine, slots)
	return &a, nil
}

func (s *bookingService) Commit(ctx context.Context, sess domain.Session, req *domain.BookingReq) (*domain.Booking, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveCommit(time.Since(start).Seconds()) }()

	date, office, err := s.normalise(req.Date, req.Office)
	if err != nil {
		return nil, s.reject(ctx, err)
	}
	offer, err := domain.ParseSlotLabel(req.Label)
	if err != nil {
		return nil, s.reject(ctx, domain.Reject(domain.ErrInvalidInput, "%v", err))
	}
	fp := domain.Fingerprint{Date: date, Office: office, Direction: offer.Direction, Time: offer.Time}

	release, err := s.locker.Acquire(ctx, fp.String())
	if err != nil {
		return nil, s.reject(ctx, domain.StoreError("lock "+fp.String(), err))
	}
	defer release()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		booking, err := s.tryCommit(ctx, sess, fp)
		if err == nil {
			s.metrics.BookingCommitted()
			logger.InfoContext(ctx, "booking confirmed",
				"booking_id", booking.ID,
				"slot", fp.String(),
				"attempt", attempt,
			)
			s.publishConfirmed(ctx, booking)
			return booking, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, s.reject(ctx, err)
		}
		s.metrics.CommitRetried()
		logger.DebugContext(ctx, "ledger moved during commit, retrying", "slot", fp.String(), "attempt", attempt)
	}

	return nil, s.reject(ctx, domain.StoreError("commit "+fp.String(),
		fmt.Errorf("gave up after %d attempts: %w", s.maxAttempts, repository.ErrConflict)))
}

// tryCommit validates against a fresh snapshot and appends. It returns
// repository.ErrConflict when another writer beat it to the ledger.
func (s *bookingService) tryCommit(ctx context.Context, sess domain.Session, fp domain.Fingerprint) (*domain.Booking, error) {
	now := s.clock.Now()
	if err := s.engine.checkBookable(now, fp.Date); err != nil {
		return nil, err
	}

	slots, err := s.directory.ListSlots(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	left, found := seatsLeft(fp, slots, snap.Bookings)
	if !found {
		return nil, domain.Reject(domain.ErrSlotNotFound,
			"no %s %s departure from %s on %s", fp.Direction, fp.Time, fp.Office, fp.Date)
	}
	if left <= 0 {
		return nil, domain.Reject(domain.ErrCapacityExceeded, "%s %s on %s is full", fp.Direction, fp.Time, fp.Date)
	}
	if holdsDirection(sess.Username, fp.Date, fp.Direction, snap.Bookings) {
		return nil, domain.Reject(domain.ErrAlreadyBooked, "already booked %s on %s", fp.Direction, fp.Date)
	}

	b := domain.Booking{
		ID:        uuid.NewString(),
		Username:  sess.Username,
		Date:      fp.Date,
		Office:    fp.Office,
		Direction: fp.Direction,
		Time:      fp.Time,
		Status:    domain.BookingConfirmed,
		CreatedAt: now,
	}
	if err := s.ledger.Append(ctx, snap, b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *bookingService) ListMine(ctx context.Context, sess domain.Session) ([]domain.Booking, error) {
	return s.ledger.ListByUser(ctx, sess.Username)
}

func (s *bookingService) ListAll(ctx context.Context, sess domain.Session) ([]domain.Booking, error) {
	if !sess.IsAdmin() {
		return nil, s.reject(ctx, domain.ErrForbidden)
	}
	return s.ledger.List(ctx)
}

func (s *bookingService) normalise(date, office string) (string, string, error) {
	d, err := domain.ParseDate(date)
	if err != nil {
		return "", "", domain.Reject(domain.ErrInvalidInput, "%v", err)
	}
	office, err = checkOffice(office, s.offices)
	if err != nil {
		return "", "", err
	}
	return d, office, nil
}

func (s *bookingService) reject(ctx context.Context, err error) error {
	return recordRejection(ctx, s.metrics, err)
}

func (s *bookingService) publishConfirmed(ctx context.Context, b *domain.Booking) {
	if err := s.publisher.Publish(ctx, events.BookingConfirmed, events.BookingConfirmedEvent{
		BookingID: b.ID,
		Username:  b.Username,
		Date:      b.Date,
		Office:    b.Office,
		Direction: string(b.Direction),
		Time:      b.Time,
		CreatedAt: b.CreatedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "failed to publish booking confirmed event", "booking_id", b.ID, logger.Err(err))
	}
}

// checkOffice returns the configured spelling of office.
func checkOffice(office string, allowed []string) (string, error) {
	if strings.TrimSpace(office) == "" {
		return "", domain.Reject(domain.ErrInvalidInput, "office is required")
	}
	canonical, ok := domain.CanonicalOffice(office, allowed)
	if !ok {
		return "", domain.Reject(domain.ErrInvalidInput, "unknown office %q", strings.TrimSpace(office))
	}
	return canonical, nil
}

// recordRejection logs and counts err by reason, then returns it as is.
func recordRejection(ctx context.Context, m *metrics.Metrics, err error) error {
	reason, ok := domain.ReasonOf(err)
	if !ok {
		reason = "UNKNOWN"
	}
	m.Rejected(string(reason))
	if reason == domain.ReasonStoreUnavailable || !ok {
		logger.ErrorContext(ctx, "operation failed", "reason", reason, logger.Err(err))
	} else {
		logger.InfoContext(ctx, "operation rejected", "reason", reason, logger.Err(err))
	}
	return err
}
