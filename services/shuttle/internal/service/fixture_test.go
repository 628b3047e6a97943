package service_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/diagnosis/shuttle-bookings/pkg/auth"
	"github.com/diagnosis/shuttle-bookings/pkg/clock"
	"github.com/diagnosis/shuttle-bookings/pkg/config"
	"github.com/diagnosis/shuttle-bookings/pkg/lock"
	"github.com/diagnosis/shuttle-bookings/pkg/metrics"
	"github.com/diagnosis/shuttle-bookings/pkg/tabular"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/domain"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/repository"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/service"
)

type published struct {
	subject string
	data    any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{subject, data})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.subject)
	}
	return out
}

// noLock lets every caller through so only the ledger version check
// guards the invariants.
type noLock struct{}

func (noLock) Acquire(context.Context, string) (func(), error) { return func() {}, nil }

// conflictingStore reports a version conflict on every Bookings write.
type conflictingStore struct {
	*tabular.MemoryStore
	mu     sync.Mutex
	writes int
}

func (s *conflictingStore) Write(ctx context.Context, t *tabular.Table) error {
	if t.Name == repository.TableBookings {
		s.mu.Lock()
		s.writes++
		s.mu.Unlock()
		return tabular.ErrVersionConflict
	}
	return s.MemoryStore.Write(ctx, t)
}

type fixture struct {
	store     *tabular.MemoryStore
	clock     *clock.FakeClock
	publisher *recordingPublisher
	cfg       *config.Config
	bookings  service.BookingService
	auth      service.AuthService
	schedule  service.ScheduleService
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", SessionTTL: time.Hour},
		Shuttle: config.ShuttleConfig{
			CutoffHour:        14,
			Timezone:          "UTC",
			Offices:           []string{"MMC", "VNL"},
			DefaultCapacity:   20,
			CommitMaxAttempts: 5,
		},
	}
}

type fixtureOpt func(*fixtureOpts)

type fixtureOpts struct {
	wrap   func(*tabular.MemoryStore) tabular.Store
	locker lock.Locker
	scheme auth.PasswordScheme
}

func withStore(wrap func(*tabular.MemoryStore) tabular.Store) fixtureOpt {
	return func(o *fixtureOpts) { o.wrap = wrap }
}

func withLocker(l lock.Locker) fixtureOpt {
	return func(o *fixtureOpts) { o.locker = l }
}

func withScheme(p auth.PasswordScheme) fixtureOpt {
	return func(o *fixtureOpts) { o.scheme = p }
}

func newFixture(t *testing.T, opts ...fixtureOpt) *fixture {
	t.Helper()

	mem := tabular.NewMemoryStore()
	o := fixtureOpts{locker: lock.NewKeyedMutex(), scheme: auth.Plaintext{}}
	for _, opt := range opts {
		opt(&o)
	}
	var store tabular.Store = mem
	if o.wrap != nil {
		store = o.wrap(mem)
	}

	f := &fixture{
		store:     mem,
		clock:     clock.Fake(time.Date(2024, time.June, 9, 10, 0, 0, 0, time.UTC)),
		publisher: &recordingPublisher{},
		cfg:       testConfig(),
	}
	m := metrics.New(prometheus.NewRegistry())
	directory := repository.NewDirectoryRepository(store, f.cfg.Shuttle.Offices)
	ledger := repository.NewLedgerRepository(store, f.cfg.Shuttle.Offices)

	f.bookings = service.NewBookingService(directory, ledger, o.locker, f.publisher, m, f.clock, f.cfg)
	f.auth = service.NewAuthService(directory, o.scheme, f.publisher, m, f.clock, f.cfg)
	f.schedule = service.NewScheduleService(directory, f.publisher, m, f.clock, f.cfg)
	return f
}

func (f *fixture) seedSlot(date, office, direction, clockTime string, capacity int) {
	t, _ := f.store.Read(context.Background(), repository.TableSchedule)
	// Seed bumps the version, as a sheet edit by hand would.
	rows := append(t.Rows, tabular.Row{
		"Date": date, "Office": office, "Direction": direction, "Time": clockTime,
		"Capacity": strconv.Itoa(capacity),
	})
	f.store.Seed(repository.TableSchedule, rows...)
}

func userSession(name string) domain.Session {
	return domain.Session{Username: name, Role: domain.RoleUser}
}

func adminSession() domain.Session {
	return domain.Session{Username: "root", Role: domain.RoleAdmin}
}
