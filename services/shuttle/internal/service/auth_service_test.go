package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/shuttle-bookings/pkg/auth"
	"github.com/diagnosis/shuttle-bookings/pkg/events"
	"github.com/diagnosis/shuttle-bookings/pkg/tabular"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/domain"
	"github.com/diagnosis/shuttle-bookings/services/shuttle/internal/repository"
)

func seedUsers(f *fixture) {
	f.store.Seed(repository.TableUsers,
		tabular.Row{"Username": "alice", "Password": "pw1", "Role": "user"},
		tabular.Row{"Username": "root", "Password": "hunter2", "Role": "admin"},
	)
}

func TestAuthenticate_ExactMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedUsers(f)

	role, err := f.auth.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, role)

	role, err = f.auth.Authenticate(ctx, "root", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, role)

	for _, tc := range [][2]string{{"alice", "PW1"}, {"Alice", "pw1"}, {"alice", ""}, {"nobody", "pw1"}} {
		_, err := f.auth.Authenticate(ctx, tc[0], tc[1])
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials, "%v", tc)
	}
}

func TestAuthenticate_StoreOutageIsNotInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	seedUsers(f)
	f.store.FailReads = errors.New("timeout")

	_, err := f.auth.Authenticate(context.Background(), "alice", "pw1")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_IssuesSessionToken(t *testing.T) {
	f := newFixture(t)
	seedUsers(f)

	res, err := f.auth.Login(context.Background(), &domain.LoginReq{Username: "root", Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, res.Role)

	claims, err := auth.Parse(res.Token, f.cfg.Auth.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "root", claims.Username)
	assert.Equal(t, "admin", claims.Role)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedUsers(f)
	alice := userSession("alice")

	require.NoError(t, f.auth.ChangePassword(ctx, alice, "pw1", "pw2"))

	_, err := f.auth.Authenticate(ctx, "alice", "pw2")
	assert.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, "alice", "pw1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	assert.Equal(t, []string{events.UserPasswordChanged}, f.publisher.subjects())
}

func TestChangePassword_WrongOldLeavesTableUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedUsers(f)

	before, err := f.store.Read(ctx, repository.TableUsers)
	require.NoError(t, err)

	err = f.auth.ChangePassword(ctx, userSession("alice"), "nope", "pw2")
	assert.ErrorIs(t, err, domain.ErrInvalidOldPassword)

	after, err := f.store.Read(ctx, repository.TableUsers)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, f.publisher.subjects())
}

func TestChangePassword_OnlyTouchesCaller(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedUsers(f)

	// root's password is not alice's old password.
	err := f.auth.ChangePassword(ctx, userSession("alice"), "hunter2", "pw2")
	assert.ErrorIs(t, err, domain.ErrInvalidOldPassword)

	_, err = f.auth.Authenticate(ctx, "root", "hunter2")
	assert.NoError(t, err)
}

func TestHashedScheme_ProvisionLoginAndChange(t *testing.T) {
	ctx := context.Background()
	scheme := auth.Argon2id{Params: &argon2id.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}}
	f := newFixture(t, withScheme(scheme))

	require.NoError(t, f.auth.ProvisionUser(ctx, "dave", "pw1", domain.RoleUser))

	users, err := f.store.Read(ctx, repository.TableUsers)
	require.NoError(t, err)
	require.Len(t, users.Rows, 1)
	assert.NotEqual(t, "pw1", users.Rows[0]["Password"])

	_, err = f.auth.Authenticate(ctx, "dave", "pw1")
	require.NoError(t, err)

	require.NoError(t, f.auth.ChangePassword(ctx, userSession("dave"), "pw1", "pw2"))
	_, err = f.auth.Authenticate(ctx, "dave", "pw2")
	assert.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, "dave", "pw1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestHashedScheme_DamagedRowIsInvalidCredentials(t *testing.T) {
	scheme := auth.Argon2id{Params: &argon2id.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}}
	f := newFixture(t, withScheme(scheme))
	f.store.Seed(repository.TableUsers,
		tabular.Row{"Username": "erin", "Password": "$argon2id$v=19$m=65536,t=1,p=2$!!!$!!!", "Role": "user"},
	)

	_, err := f.auth.Authenticate(context.Background(), "erin", "pw1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestProvisionUser_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.ErrorIs(t, f.auth.ProvisionUser(ctx, "", "pw", domain.RoleUser), domain.ErrInvalidInput)
	assert.ErrorIs(t, f.auth.ProvisionUser(ctx, "eve", "pw", domain.Role("driver")), domain.ErrInvalidInput)

	require.NoError(t, f.auth.ProvisionUser(ctx, "eve", "pw", domain.RoleUser))
	assert.ErrorIs(t, f.auth.ProvisionUser(ctx, "eve", "pw", domain.RoleUser), domain.ErrUserExists)
}

func TestListUsers_AdminOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedUsers(f)

	_, err := f.auth.ListUsers(ctx, userSession("alice"))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	users, err := f.auth.ListUsers(ctx, adminSession())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
