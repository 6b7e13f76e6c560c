// Package guard verifies the administrator passcode that gates parent mode,
// tracks consecutive failures, and enforces a temporary lockout with a
// security-question recovery path.
package guard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskward/taskward/internal/clock"
)

// Logical key names in the secret store.
const (
	keyPasscodeHash   = "admin_passcode_hash"
	keySecurityQn     = "security_question"
	keySecurityAnswer = "security_answer_hash"
	keyLockoutUntil   = "lockout_until"
	keyFailedAttempts = "failed_attempts"
)

const passcodeLen = 6

var ErrBadPasscode = errors.New("passcode must be exactly 6 digits")

// SecretStore is the durable, access-controlled key-value store holding
// hashes and lockout state. The guard never persists plaintext.
type SecretStore interface {
	GetSecret(key string) (string, bool, error)
	SetSecret(key, value string) error
	DeleteSecret(key string) error
}

type Guard struct {
	secrets     SecretStore
	clock       clock.Clock
	maxAttempts int
	lockout     time.Duration
}

func New(secrets SecretStore, clk clock.Clock, maxAttempts int, lockout time.Duration) *Guard {
	return &Guard{secrets: secrets, clock: clk, maxAttempts: maxAttempts, lockout: lockout}
}

func validPasscode(passcode string) bool {
	if len(passcode) != passcodeLen {
		return false
	}
	for _, c := range passcode {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// SetCredential stores a one-way hash of the passcode. The plaintext leaves
// scope as soon as hashing returns.
func (g *Guard) SetCredential(passcode string) error {
	if !validPasscode(passcode) {
		return ErrBadPasscode
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash passcode: %w", err)
	}
	return g.secrets.SetSecret(keyPasscodeHash, string(hash))
}

func (g *Guard) HasCredential() (bool, error) {
	_, ok, err := g.secrets.GetSecret(keyPasscodeHash)
	return ok, err
}

// Verify compares the input against the stored hash. A mismatch is a false
// return, not an error. Verification is refused outright while locked out;
// the failure counter engages the lockout when it reaches the configured
// maximum. Success, or a naturally expired lockout, clears both.
func (g *Guard) Verify(passcode string) (bool, error) {
	locked, err := g.lockedNow()
	if err != nil {
		return false, err
	}
	if locked {
		return false, nil
	}

	hash, ok, err := g.secrets.GetSecret(keyPasscodeHash)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)) != nil {
		return false, g.recordFailure()
	}

	return true, g.clearLockState()
}

// lockedNow reports whether a lockout is in force, clearing expired state
// as a side effect.
func (g *Guard) lockedNow() (bool, error) {
	until, ok, err := g.lockoutExpiry()
	if err != nil || !ok {
		return false, err
	}
	if g.clock.Now().Before(until) {
		return true, nil
	}
	return false, g.clearLockState()
}

func (g *Guard) lockoutExpiry() (time.Time, bool, error) {
	raw, ok, err := g.secrets.GetSecret(keyLockoutUntil)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse lockout expiry: %w", err)
	}
	return time.Unix(unix, 0), true, nil
}

// LockedUntil returns the active lockout expiry, if any.
func (g *Guard) LockedUntil() (time.Time, bool, error) {
	until, ok, err := g.lockoutExpiry()
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	if g.clock.Now().Before(until) {
		return until, true, nil
	}
	return time.Time{}, false, nil
}

func (g *Guard) recordFailure() error {
	attempts, err := g.failedAttempts()
	if err != nil {
		return err
	}
	attempts++
	if err := g.secrets.SetSecret(keyFailedAttempts, strconv.Itoa(attempts)); err != nil {
		return err
	}
	if attempts >= g.maxAttempts {
		until := g.clock.Now().Add(g.lockout)
		return g.secrets.SetSecret(keyLockoutUntil, strconv.FormatInt(until.Unix(), 10))
	}
	return nil
}

func (g *Guard) failedAttempts() (int, error) {
	raw, ok, err := g.secrets.GetSecret(keyFailedAttempts)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse failed attempts: %w", err)
	}
	return n, nil
}

func (g *Guard) clearLockState() error {
	if err := g.secrets.DeleteSecret(keyFailedAttempts); err != nil {
		return err
	}
	return g.secrets.DeleteSecret(keyLockoutUntil)
}

// SetRecovery registers the security question and the normalized answer
// hash used for passcode recovery.
func (g *Guard) SetRecovery(question, answer string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return errors.New("security question must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(normalizeAnswer(answer)), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash answer: %w", err)
	}
	if err := g.secrets.SetSecret(keySecurityQn, question); err != nil {
		return err
	}
	return g.secrets.SetSecret(keySecurityAnswer, string(hash))
}

// Question returns the registered security question, if any.
func (g *Guard) Question() (string, bool, error) {
	return g.secrets.GetSecret(keySecurityQn)
}

// VerifyRecoveryAnswer checks a normalized answer against the stored hash.
// Success clears lockout state unconditionally so SetCredential can run
// again.
func (g *Guard) VerifyRecoveryAnswer(answer string) (bool, error) {
	hash, ok, err := g.secrets.GetSecret(keySecurityAnswer)
	if err != nil || !ok {
		return false, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(normalizeAnswer(answer))) != nil {
		return false, nil
	}
	return true, g.clearLockState()
}

func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
