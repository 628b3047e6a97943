package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/shuttle-bookings/pkg/logger"
	"github.com/diagnosis/shuttle-bookings/pkg/tabular"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/domain"
)

// LedgerSnapshot is the Bookings table as of one read. Append writes on
// top of it and fails with ErrConflict if anyone wrote in between.
type LedgerSnapshot struct {
	Bookings []domain.Booking
	table    *tabular.Table
}

type LedgerRepository interface {
	Snapshot(ctx context.Context) (*LedgerSnapshot, error)
	Append(ctx context.Context, snap *LedgerSnapshot, b domain.Booking) error
	ListByUser(ctx context.Context, username string) ([]domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
}

type ledgerRepository struct {
	store   tabular.Store
	offices []string
}

func NewLedgerRepository(store tabular.Store, offices []string) LedgerRepository {
	return &ledgerRepository{store: store, offices: offices}
}

func (r *ledgerRepository) Snapshot(ctx context.Context) (*LedgerSnapshot, error) {
	t, err := r.store.Read(ctx, TableBookings)
	if err != nil {
		return nil, domain.StoreError("read "+TableBookings, err)
	}
	snap := &LedgerSnapshot{table: t, Bookings: make([]domain.Booking, 0, len(t.Rows))}
	for i, row := range t.Rows {
		b, ok := bookingFromRow(row, r.offices)
		if !ok {
			logger.WarnContext(ctx, "skipping malformed row", "table", TableBookings, "row", i)
			continue
		}
		snap.Bookings = append(snap.Bookings, b)
	}
	return snap, nil
}

func (r *ledgerRepository) Append(ctx context.Context, snap *LedgerSnapshot, b domain.Booking) error {
	next := snap.table.Clone()
	next.Rows = append(next.Rows, bookingToRow(b))

	if err := r.store.Write(ctx, next); err != nil {
		if errors.Is(err, ErrConflict) {
			return fmt.Errorf("append booking: %w", ErrConflict)
		}
		return domain.StoreError("write "+TableBookings, err)
	}
	snap.table = next
	snap.Bookings = append(snap.Bookings, b)
	return nil
}

func (r *ledgerRepository) ListByUser(ctx context.Context, username string) ([]domain.Booking, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0)
	for _, b := range all {
		if b.Username == username {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *ledgerRepository) List(ctx context.Context) ([]domain.Booking, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Bookings, nil
}
