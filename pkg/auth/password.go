package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// PasswordScheme turns a password into the stored credential and checks a
// presented password against it.
type PasswordScheme interface {
	Name() string
	Hash(password string) (string, error)
	Verify(stored, presented string) (bool, error)
}

func SchemeFor(name string) (PasswordScheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "plaintext", "plain":
		return Plaintext{}, nil
	case "argon2id":
		return Argon2id{Params: argon2id.DefaultParams}, nil
	case "bcrypt":
		return Bcrypt{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", name)
	}
}

// Plaintext stores the password as given and compares exactly.
type Plaintext struct{}

func (Plaintext) Name() string { return "plaintext" }

func (Plaintext) Hash(password string) (string, error) { return password, nil }

func (Plaintext) Verify(stored, presented string) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1, nil
}

type Argon2id struct {
	Params *argon2id.Params
}

func (Argon2id) Name() string { return "argon2id" }

func (a Argon2id) Hash(password string) (string, error) {
	return argon2id.CreateHash(password, a.Params)
}

func (Argon2id) Verify(stored, presented string) (bool, error) {
	// Every error here comes from decoding stored: a legacy credential or
	// a damaged hash. Either way it is a mismatch, not an outage.
	ok, err := argon2id.ComparePasswordAndHash(presented, stored)
	return err == nil && ok, nil
}

type Bcrypt struct {
	Cost int
}

func (Bcrypt) Name() string { return "bcrypt" }

func (b Bcrypt) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), b.Cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (Bcrypt) Verify(stored, presented string) (bool, error) {
	// A malformed stored hash is a mismatch, not an outage.
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(presented)) == nil, nil
}
