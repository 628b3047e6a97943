package auth_test

import "github.com/alexedwards/argon2id"

func testArgonParams() *argon2id.Params {
	return &argon2id.Params{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}
