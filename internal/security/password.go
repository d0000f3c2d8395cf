package security

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for stored passwords.
const DefaultCost = 12

// bcrypt only reads the first 72 bytes of its input and x/crypto refuses
// anything longer.
const maxBcryptInput = 72

var ErrMismatch = errors.New("password does not match")

type Hasher struct {
	cost      int
	dummyHash []byte
}

// NewHasher builds the dummy hash up front so the first unknown-email login
// costs the same as every later one.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), cost)
	if err != nil {
		panic("security: build dummy hash: " + err.Error())
	}

	return &Hasher{cost: cost, dummyHash: dummy}
}

// HashPassword hashes a plain text password with bcrypt.
func (h *Hasher) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(plain), h.cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword returns ErrMismatch on a wrong password, any other error means
// the stored hash is unusable.
func (h *Hasher) CheckPassword(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(plain))

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}

	return err
}

// CheckDummy spends the same work as CheckPassword against a throwaway hash.
// Login calls it when the email is unknown.
func (h *Hasher) CheckDummy(plain string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, bcryptInput(plain))
}

func (h *Hasher) Cost() int {
	return h.cost
}

// bcryptInput passes short passwords through unchanged. Longer ones are
// replaced by their base64 SHA-256 digest (44 bytes), so every byte still
// counts and the result fits bcrypt's limit.
func bcryptInput(plain string) []byte {
	if len(plain) <= maxBcryptInput {
		return []byte(plain)
	}

	sum := sha256.Sum256([]byte(plain))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
