package identity

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"

	"github.com/rotisserie/eris"
)

// ErrEmptyIdentifier is returned when Digest is handed an empty value.
// Callers must normalize first and route missing values to the exceptions
// path; hitting this error is a contract violation, not a data condition.
var ErrEmptyIdentifier = eris.New("identity: empty identifier")

// Digester computes one-way digests of normalized identifiers.
//
// With an empty salt the digest is plain SHA-512, deterministic across runs,
// processes and machines, so the same physical identifier collapses to the
// same digest in every dataset ever hashed with this scheme. That keeps
// digests joinable with externally hashed files at the cost of being
// brute-forceable over small identifier spaces. A non-empty salt switches to
// HMAC-SHA-512, which closes the dictionary attack but breaks comparability
// with anything hashed under a different (or no) salt.
type Digester struct {
	salt []byte
}

// NewDigester returns a Digester. salt may be empty for the unsalted scheme.
func NewDigester(salt string) *Digester {
	d := &Digester{}
	if salt != "" {
		d.salt = []byte(salt)
	}
	return d
}

// Salted reports whether the digester uses a keyed hash.
func (d *Digester) Salted() bool { return len(d.salt) > 0 }

// Digest returns the lowercase hex digest of a normalized identifier.
func (d *Digester) Digest(v string) (string, error) {
	if v == "" {
		return "", ErrEmptyIdentifier
	}
	if len(d.salt) > 0 {
		mac := hmac.New(sha512.New, d.salt)
		mac.Write([]byte(v))
		return hex.EncodeToString(mac.Sum(nil)), nil
	}
	sum := sha512.Sum512([]byte(v))
	return hex.EncodeToString(sum[:]), nil
}
