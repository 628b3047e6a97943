package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/shuttle-bookings/pkg/logger"
	"github.com/diagnosis/shuttle-bookings/pkg/tabular"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/domain"
)

// ErrConflict means the table moved between read and write.
var ErrConflict = tabular.ErrVersionConflict

const mutateAttempts = 5

// DirectoryRepository owns the Users and Schedule tables. Rows it cannot
// decode are skipped on read and written back untouched.
type DirectoryRepository interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	AddUser(ctx context.Context, u domain.User) error
	// ReplaceCredential swaps the stored credential of username from
	// expected to replacement. It reports false when no row holds both.
	ReplaceCredential(ctx context.Context, username, expected, replacement string) (bool, error)
	ListSlots(ctx context.Context) ([]domain.ScheduleSlot, error)
	AppendSlot(ctx context.Context, slot domain.ScheduleSlot) error
}

type directoryRepository struct {
	store   tabular.Store
	offices []string
}

// NewDirectoryRepository reads Schedule offices back in the spelling
// offices uses.
func NewDirectoryRepository(store tabular.Store, offices []string) DirectoryRepository {
	return &directoryRepository{store: store, offices: offices}
}

func (r *directoryRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	t, err := r.store.Read(ctx, TableUsers)
	if err != nil {
		return nil, domain.StoreError("read "+TableUsers, err)
	}
	users := make([]domain.User, 0, len(t.Rows))
	for i, row := range t.Rows {
		u, ok := userFromRow(row)
		if !ok {
			logger.WarnContext(ctx, "skipping malformed row", "table", TableUsers, "row", i)
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *directoryRepository) AddUser(ctx context.Context, u domain.User) error {
	return mutate(ctx, r.store, TableUsers, func(t *tabular.Table) (bool, error) {
		for _, row := range t.Rows {
			if row[colUsername] == u.Username {
				return false, domain.Reject(domain.ErrUserExists, "user %q already exists", u.Username)
			}
		}
		t.Rows = append(t.Rows, userToRow(u))
		return true, nil
	})
}

func (r *directoryRepository) ReplaceCredential(ctx context.Context, username, expected, replacement string) (bool, error) {
	replaced := false
	err := mutate(ctx, r.store, TableUsers, func(t *tabular.Table) (bool, error) {
		replaced = false
		for _, row := range t.Rows {
			if row[colUsername] == username && row[colPassword] == expected {
				row[colPassword] = replacement
				replaced = true
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return replaced, nil
}

func (r *directoryRepository) ListSlots(ctx context.Context) ([]domain.ScheduleSlot, error) {
	t, err := r.store.Read(ctx, TableSchedule)
	if err != nil {
		return nil, domain.StoreError("read "+TableSchedule, err)
	}
	slots := make([]domain.ScheduleSlot, 0, len(t.Rows))
	for i, row := range t.Rows {
		s, ok := slotFromRow(row, r.offices)
		if !ok {
			logger.WarnContext(ctx, "skipping malformed row", "table", TableSchedule, "row", i)
			continue
		}
		slots = append(slots, s)
	}
	return slots, nil
}

func (r *directoryRepository) AppendSlot(ctx context.Context, slot domain.ScheduleSlot) error {
	return mutate(ctx, r.store, TableSchedule, func(t *tabular.Table) (bool, error) {
		t.Rows = append(t.Rows, slotToRow(slot))
		return true, nil
	})
}

// mutate runs a read-modify-write on one table, re-reading when another
// writer got there first. fn returns false to skip the write.
func mutate(ctx context.Context, store tabular.Store, table string, fn func(*tabular.Table) (bool, error)) error {
	for attempt := 1; attempt <= mutateAttempts; attempt++ {
		t, err := store.Read(ctx, table)
		if err != nil {
			return domain.StoreError("read "+table, err)
		}

		write, err := fn(t)
		if err != nil || !write {
			return err
		}

		err = store.Write(ctx, t)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return domain.StoreError("write "+table, err)
		}
		logger.DebugContext(ctx, "table changed underneath, retrying", "table", table, "attempt", attempt)
	}
	return domain.StoreError("write "+table, fmt.Errorf("gave up after %d attempts: %w", mutateAttempts, ErrConflict))
}
