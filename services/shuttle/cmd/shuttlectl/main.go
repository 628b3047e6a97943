// Command shuttlectl runs operator tasks against the shuttle store.
//
//	shuttlectl migrate
//	shuttlectl user-add --username alice --password secret [--role admin]
//	shuttlectl slot-add --date 2024-06-10 --office MMC --direction toOffice --time 08:00 [--capacity 12]
//	shuttlectl bookings
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/diagnosis/shuttle-bookings/pkg/auth"
	"github.com/diagnosis/shuttle-bookings/pkg/clock"
	"github.com/diagnosis/shuttle-bookings/pkg/config"
	"github.com/diagnosis/shuttle-bookings/pkg/database"
	"github.com/diagnosis/shuttle-bookings/pkg/events"
	"github.com/diagnosis/shuttle-bookings/pkg/lock"
	"github.com/diagnosis/shuttle-bookings/pkg/logger"
	"github.com/diagnosis/shuttle-bookings/pkg/tabular"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/domain"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/repository"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/service"
)

// operator is the identity admin commands run under.
var operator = domain.Session{Username: "shuttlectl", Role: domain.RoleAdmin}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "migrate":
		err = runMigrate(ctx, cfg)
	case "user-add":
		err = runUserAdd(ctx, cfg, args)
	case "slot-add":
		err = runSlotAdd(ctx, cfg, args)
	case "bookings":
		err = runBookings(ctx, cfg)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("shuttlectl failed", "command", os.Args[1], logger.Err(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: shuttlectl <migrate|user-add|slot-add|bookings> [flags]")
}

func runMigrate(ctx context.Context, cfg *config.Config) error {
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(pool); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func runUserAdd(ctx context.Context, cfg *config.Config, args []string) error {
	fs := pflag.NewFlagSet("user-add", pflag.ContinueOnError)
	username := fs.String("username", "", "login name")
	password := fs.String("password", "", "initial password")
	role := fs.String("role", string(domain.RoleUser), "user or admin")
	scheme := fs.String("scheme", cfg.Auth.PasswordScheme, "credential scheme: plaintext, argon2id or bcrypt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := auth.SchemeFor(*scheme)
	if err != nil {
		return err
	}
	svc, err := newServices(ctx, cfg, p)
	if err != nil {
		return err
	}
	defer svc.close()

	if err := svc.auth.ProvisionUser(ctx, *username, *password, domain.Role(*role)); err != nil {
		return err
	}
	logger.Info("user added", "username", *username, "role", *role, "scheme", p.Name())
	return nil
}

func runSlotAdd(ctx context.Context, cfg *config.Config, args []string) error {
	fs := pflag.NewFlagSet("slot-add", pflag.ContinueOnError)
	req := domain.AddSlotReq{}
	fs.StringVar(&req.Date, "date", "", "departure date, YYYY-MM-DD")
	fs.StringVar(&req.Office, "office", "", "office code")
	fs.StringVar(&req.Direction, "direction", "", "toOffice or toSite")
	fs.StringVar(&req.Time, "time", "", "departure time, HH:MM")
	capacity := fs.Int("capacity", 0, "seats; defaults to SHUTTLE_DEFAULT_CAPACITY")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.Changed("capacity") {
		req.Capacity = capacity
	}

	svc, err := newServices(ctx, cfg, auth.Plaintext{})
	if err != nil {
		return err
	}
	defer svc.close()

	slot, err := svc.schedule.AddSlot(ctx, operator, &req)
	if err != nil {
		return err
	}
	logger.Info("slot added", "slot", slot.Fingerprint().String(), "capacity", slot.Capacity)
	return nil
}

func runBookings(ctx context.Context, cfg *config.Config) error {
	svc, err := newServices(ctx, cfg, auth.Plaintext{})
	if err != nil {
		return err
	}
	defer svc.close()

	bookings, err := svc.bookings.ListAll(ctx, operator)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(bookings)
}

type services struct {
	auth     service.AuthService
	schedule service.ScheduleService
	bookings service.BookingService
	close    func()
}

// newServices wires the shuttle services over Postgres without an event
// bus; operator changes are not published.
func newServices(ctx context.Context, cfg *config.Config, scheme auth.PasswordScheme) (*services, error) {
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	var store tabular.Store = tabular.NewPostgresStore(pool)

	directory := repository.NewDirectoryRepository(store, cfg.Shuttle.Offices)
	ledger := repository.NewLedgerRepository(store, cfg.Shuttle.Offices)
	pub := events.NopPublisher{}
	clk := clock.Real()

	return &services{
		auth:     service.NewAuthService(directory, scheme, pub, nil, clk, cfg),
		schedule: service.NewScheduleService(directory, pub, nil, clk, cfg),
		bookings: service.NewBookingService(directory, ledger, lock.NewKeyedMutex(), pub, nil, clk, cfg),
		close:    pool.Close,
	}, nil
}
