package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// ErrBadCredentials is returned for any credential failure. Username and
// password mismatches are deliberately indistinguishable.
var ErrBadCredentials = errors.New("invalid username or password")

const (
	// DefaultIterations is the PBKDF2 work factor used when none is configured
	DefaultIterations = 600000
	// DefaultSaltLength is the random salt length in bytes
	DefaultSaltLength = 16

	keyLength  = 32
	hashPrefix = "pbkdf2:sha256"
)

// HashParams holds the tunable password hashing parameters. Iteration count
// and salt length are explicit configuration, not library defaults.
type HashParams struct {
	Iterations int
	SaltLength int
}

// DefaultHashParams returns the production hashing parameters
func DefaultHashParams() HashParams {
	return HashParams{
		Iterations: DefaultIterations,
		SaltLength: DefaultSaltLength,
	}
}

// HashPassword derives a salted PBKDF2-SHA256 hash of password, encoded as
// "pbkdf2:sha256:<iterations>$<salt>$<key>" with hex salt and key. A fresh
// random salt is generated per hash.
func HashPassword(password string, params HashParams) (string, error) {
	if params.Iterations <= 0 || params.SaltLength <= 0 {
		return "", fmt.Errorf("invalid hash parameters: iterations=%d salt_length=%d", params.Iterations, params.SaltLength)
	}

	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, params.Iterations, keyLength, sha256.New)
	return fmt.Sprintf("%s:%d$%s$%s", hashPrefix, params.Iterations, hex.EncodeToString(salt), hex.EncodeToString(key)), nil
}

// CheckPassword verifies a password against an encoded hash. The iteration
// count and salt are read back from the hash itself, so verification keeps
// working after the configured work factor changes.
func CheckPassword(password, encoded string) bool {
	iterations, salt, key, err := parseHash(encoded)
	if err != nil {
		return false
	}

	derived := pbkdf2.Key([]byte(password), salt, iterations, len(key), sha256.New)
	return subtle.ConstantTimeCompare(derived, key) == 1
}

func parseHash(encoded string) (int, []byte, []byte, error) {
	rest, ok := strings.CutPrefix(encoded, hashPrefix+":")
	if !ok {
		return 0, nil, nil, fmt.Errorf("unsupported hash format")
	}

	parts := strings.Split(rest, "$")
	if len(parts) != 3 {
		return 0, nil, nil, fmt.Errorf("malformed hash")
	}

	iterations, err := strconv.Atoi(parts[0])
	if err != nil || iterations <= 0 {
		return 0, nil, nil, fmt.Errorf("malformed iteration count")
	}

	salt, err := hex.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return 0, nil, nil, fmt.Errorf("malformed salt")
	}

	key, err := hex.DecodeString(parts[2])
	if err != nil || len(key) == 0 {
		return 0, nil, nil, fmt.Errorf("malformed key")
	}

	return iterations, salt, key, nil
}

// Gate verifies submitted credentials against the configured admin account.
// The password is held only as a salted iterated hash.
type Gate struct {
	username     string
	passwordHash string
}

// NewGate creates a Gate for the configured admin username and password hash
func NewGate(username, passwordHash string) *Gate {
	return &Gate{
		username:     username,
		passwordHash: passwordHash,
	}
}

// VerifyCredentials checks the submitted username/password pair. Both checks
// run unconditionally so a username mismatch and a password mismatch take
// the same path and produce the identical ErrBadCredentials.
func (g *Gate) VerifyCredentials(username, password string) error {
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passwordOK := CheckPassword(password, g.passwordHash)

	if !usernameOK || !passwordOK {
		return ErrBadCredentials
	}
	return nil
}
