package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/diagnosis/shuttle-bookings/pkg/auth"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	tok, err := auth.NewSessionToken("alice", "user", "secret", time.Minute)
	require.NoError(t, err)

	claims, err := auth.Parse(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user", claims.Role)
}

func TestSessionToken_Rejects(t *testing.T) {
	tok, err := auth.NewSessionToken("alice", "admin", "secret", time.Minute)
	require.NoError(t, err)

	_, err = auth.Parse(tok, "other-secret")
	assert.Error(t, err)

	expired, err := auth.NewSessionToken("alice", "admin", "secret", -time.Minute)
	require.NoError(t, err)
	_, err = auth.Parse(expired, "secret")
	assert.Error(t, err)

	_, err = auth.Parse("not-a-token", "secret")
	assert.Error(t, err)
}

func TestSchemeFor(t *testing.T) {
	for _, name := range []string{"", "plaintext", "argon2id", "bcrypt", "BCRYPT"} {
		s, err := auth.SchemeFor(name)
		require.NoError(t, err, name)
		assert.NotNil(t, s)
	}
	_, err := auth.SchemeFor("md5")
	assert.Error(t, err)
}

func TestPasswordSchemes(t *testing.T) {
	schemes := []auth.PasswordScheme{
		auth.Plaintext{},
		auth.Argon2id{Params: testArgonParams()},
		auth.Bcrypt{Cost: bcrypt.MinCost},
	}
	for _, s := range schemes {
		t.Run(s.Name(), func(t *testing.T) {
			stored, err := s.Hash("pw1")
			require.NoError(t, err)

			ok, err := s.Verify(stored, "pw1")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = s.Verify(stored, "PW1")
			require.NoError(t, err)
			assert.False(t, ok, "comparison is case-sensitive")

			ok, err = s.Verify(stored, "pw1 ")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestHashedSchemes_LegacyPlaintextRowDoesNotMatch(t *testing.T) {
	ok, err := auth.Argon2id{Params: testArgonParams()}.Verify("pw1", "pw1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = auth.Bcrypt{Cost: bcrypt.MinCost}.Verify("pw1", "pw1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashedSchemes_DamagedHashDoesNotMatch(t *testing.T) {
	argon := auth.Argon2id{Params: testArgonParams()}
	cases := []struct {
		scheme auth.PasswordScheme
		stored string
	}{
		{argon, "$argon2id$v=19$m=65536,t=1,p=2$!!!$!!!"},
		{argon, "$argon2id$v=19$m=65536,t=1,p=2$c2FsdA$!!"},
		{argon, "$argon2id$v=19$m=lots,t=1,p=2$c2FsdA$aGFzaA"},
		{auth.Bcrypt{Cost: bcrypt.MinCost}, "$2a$04$not-a-real-bcrypt-hash"},
	}
	for _, tc := range cases {
		ok, err := tc.scheme.Verify(tc.stored, "pw1")
		require.NoError(t, err, tc.stored)
		assert.False(t, ok, tc.stored)
	}
}
