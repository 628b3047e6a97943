package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diagnosis/shuttle-bookings/pkg/auth"
	"github.com/diagnosis/shuttle-bookings/pkg/clock"
	"github.com/diagnosis/shuttle-bookings/pkg/config"
	"github.com/diagnosis/shuttle-bookings/pkg/events"
	"github.com/diagnosis/shuttle-bookings/pkg/logger"
	"github.com/diagnosis/shuttle-bookings/pkg/metrics"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/domain"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/repository"
)

type AuthService interface {
	Authenticate(ctx context.Context, username, password string) (domain.Role, error)
	Login(ctx context.Context, req *domain.LoginReq) (*domain.LoginRes, error)
	ChangePassword(ctx context.Context, sess domain.Session, oldPassword, newPassword string) error
	ListUsers(ctx context.Context, sess domain.Session) ([]domain.User, error)
	ProvisionUser(ctx context.Context, username, password string, role domain.Role) error
}

type authService struct {
	directory repository.DirectoryRepository
	scheme    auth.PasswordScheme
	publisher events.Publisher
	metrics   *metrics.Metrics
	clock     clock.Clock
	secret    string
	ttl       time.Duration
}

func NewAuthService(
	directory repository.DirectoryRepository,
	scheme auth.PasswordScheme,
	publisher events.Publisher,
	m *metrics.Metrics,
	clk clock.Clock,
	cfg *config.Config,
) AuthService {
	return &authService{
		directory: directory,
		scheme:    scheme,
		publisher: publisher,
		metrics:   m,
		clock:     clk,
		secret:    cfg.Auth.JWTSecret,
		ttl:       cfg.Auth.SessionTTL,
	}
}

// Authenticate matches username exactly and checks password with the
// configured scheme. Any row with that username may match.
func (s *authService) Authenticate(ctx context.Context, username, password string) (domain.Role, error) {
	users, err := s.directory.ListUsers(ctx)
	if err != nil {
		return "", recordRejection(ctx, s.metrics, err)
	}
	for _, u := range users {
		if u.Username != username {
			continue
		}
		ok, err := s.scheme.Verify(u.Password, password)
		if err != nil {
			return "", recordRejection(ctx, s.metrics, fmt.Errorf("verify credential: %w", err))
		}
		if ok {
			return u.Role, nil
		}
	}
	return "", recordRejection(ctx, s.metrics, domain.ErrInvalidCredentials)
}

func (s *authService) Login(ctx context.Context, req *domain.LoginReq) (*domain.LoginRes, error) {
	role, err := s.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := auth.NewSessionToken(req.Username, string(role), s.secret, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	logger.InfoContext(logger.WithUsername(ctx, req.Username), "user logged in", "role", role)
	return &domain.LoginRes{
		Token:     token,
		Username:  req.Username,
		Role:      role,
		ExpiresIn: int64(s.ttl.Seconds()),
	}, nil
}

// ChangePassword overwrites the caller's credential only when oldPassword
// matches it. On any mismatch the Users table is left untouched.
func (s *authService) ChangePassword(ctx context.Context, sess domain.Session, oldPassword, newPassword string) error {
	users, err := s.directory.ListUsers(ctx)
	if err != nil {
		return recordRejection(ctx, s.metrics, err)
	}

	var stored string
	found := false
	for _, u := range users {
		if u.Username != sess.Username {
			continue
		}
		ok, err := s.scheme.Verify(u.Password, oldPassword)
		if err != nil {
			return recordRejection(ctx, s.metrics, fmt.Errorf("verify credential: %w", err))
		}
		if ok {
			stored, found = u.Password, true
			break
		}
	}
	if !found {
		return recordRejection(ctx, s.metrics, domain.ErrInvalidOldPassword)
	}

	replacement, err := s.scheme.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	replaced, err := s.directory.ReplaceCredential(ctx, sess.Username, stored, replacement)
	if err != nil {
		return recordRejection(ctx, s.metrics, err)
	}
	if !replaced {
		// Changed by someone else since we read it.
		return recordRejection(ctx, s.metrics, domain.ErrInvalidOldPassword)
	}

	logger.InfoContext(ctx, "password changed")
	if err := s.publisher.Publish(ctx, events.UserPasswordChanged, events.UserPasswordChangedEvent{
		Username:  sess.Username,
		ChangedAt: s.clock.Now(),
	}); err != nil {
		logger.ErrorContext(ctx, "failed to publish password changed event", logger.Err(err))
	}
	return nil
}

func (s *authService) ListUsers(ctx context.Context, sess domain.Session) ([]domain.User, error) {
	if !sess.IsAdmin() {
		return nil, recordRejection(ctx, s.metrics, domain.ErrForbidden)
	}
	return s.directory.ListUsers(ctx)
}

func (s *authService) ProvisionUser(ctx context.Context, username, password string, role domain.Role) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.Reject(domain.ErrInvalidInput, "username and password are required")
	}
	if _, ok := domain.ParseRole(string(role)); !ok {
		return domain.Reject(domain.ErrInvalidInput, "unknown role %q", role)
	}

	credential, err := s.scheme.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.directory.AddUser(ctx, domain.User{Username: username, Password: credential, Role: role}); err != nil {
		return err
	}
	logger.InfoContext(ctx, "user provisioned", "username", username, "role", role, "scheme", s.scheme.Name())
	return nil
}
