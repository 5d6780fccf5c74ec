package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/appli/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// CredentialAlgorithm tags credentials produced by PasswordVault.
	CredentialAlgorithm = "pbkdf2_sha256"
	// DefaultIterations is the PBKDF2 work factor for new credentials.
	DefaultIterations = 100_000

	saltSize = 16
	keySize  = 32
)

// PasswordVault hashes passwords into self-describing credential strings
// of the form pbkdf2_sha256$<iterations>$<salt hex>$<key hex> and verifies
// candidates against them.
//
// The iteration count is stored with every credential, so raising it only
// affects new hashes; NeedsRehash reports credentials below the current cost.
type PasswordVault struct {
	iterations int
	dummy      string
}

// NewPasswordVault returns a vault using DefaultIterations.
func NewPasswordVault() *PasswordVault {
	return newPasswordVault(DefaultIterations)
}

// NewPasswordVaultWithIterations returns a vault with a custom work factor.
// Values below 1 fall back to DefaultIterations.
func NewPasswordVaultWithIterations(iterations int) *PasswordVault {
	if iterations < 1 {
		iterations = DefaultIterations
	}
	return newPasswordVault(iterations)
}

// newPasswordVault derives the dummy credential up front so the first
// unknown-account login costs one verification like every later one.
func newPasswordVault(iterations int) *PasswordVault {
	v := &PasswordVault{iterations: iterations}

	pw, err := common.MakeRandHexString(16)
	if err != nil {
		pw = "dummy-password-0"
	}
	v.dummy, _ = v.Hash(pw)

	return v
}

// Hash derives a new credential for password with a fresh random salt.
// It returns common.ErrInvalidInput when password is not valid UTF-8 text.
func (v *PasswordVault) Hash(password string) (string, error) {
	if !utf8.ValidString(password) {
		return "", fmt.Errorf("%w: password must be valid text", common.ErrInvalidInput)
	}

	salt := common.GenerateRandByteArray(saltSize)
	key := pbkdf2.Key([]byte(password), salt, v.iterations, keySize, sha256.New)

	return fmt.Sprintf("%s$%d$%s$%s",
		CredentialAlgorithm, v.iterations, hex.EncodeToString(salt), hex.EncodeToString(key)), nil
}

// Verify reports whether password matches credential. Malformed credentials
// never match; Verify does not return errors.
func (v *PasswordVault) Verify(password, credential string) bool {
	iterations, salt, want, ok := parseCredential(credential)
	if !ok {
		return false
	}

	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// NeedsRehash reports whether credential was derived with fewer iterations
// than the vault currently uses. Malformed credentials need rehashing.
func (v *PasswordVault) NeedsRehash(credential string) bool {
	iterations, _, _, ok := parseCredential(credential)
	return !ok || iterations < v.iterations
}

// DummyCredential returns a valid credential for a random password. Verifying
// against it costs the same as verifying a real one, so callers can keep the
// unknown-account path as slow as the wrong-password path.
func (v *PasswordVault) DummyCredential() string {
	return v.dummy
}

func parseCredential(credential string) (iterations int, salt, key []byte, ok bool) {
	parts := strings.Split(credential, "$")
	if len(parts) != 4 || parts[0] != CredentialAlgorithm {
		return 0, nil, nil, false
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return 0, nil, nil, false
	}

	salt, err = hex.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return 0, nil, nil, false
	}

	key, err = hex.DecodeString(parts[3])
	if err != nil || len(key) == 0 {
		return 0, nil, nil, false
	}

	return iterations, salt, key, true
}
