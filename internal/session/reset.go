package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// ResetCodeTTL is how long a password reset code stays valid.
	ResetCodeTTL = 10 * time.Minute
	// MaxResetAttempts wrong guesses burn the code.
	MaxResetAttempts = 5
)

var (
	ErrResetCodeInvalid = errors.New("Invalid verification code")
	ErrResetCodeExpired = errors.New("Verification code expired")
)

// ResetCodes keeps one pending password reset code per email address.
type ResetCodes struct {
	rdb *redis.Client
}

func NewResetCodes(rdb *redis.Client) *ResetCodes {
	return &ResetCodes{rdb: rdb}
}

func resetKey(email string) string {
	return "password-reset:" + strings.ToLower(strings.TrimSpace(email))
}

// newResetCode returns six random digits.
func newResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Issue replaces any pending code for email with a fresh one that expires
// ResetCodeTTL after now. The redis key outlives the expiry a little so a late
// attempt is reported as expired rather than unknown.
func (r *ResetCodes) Issue(ctx context.Context, email string, now time.Time) (string, error) {
	code, err := newResetCode()
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	key := resetKey(email)
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, "code", code, "expires_at", now.Add(ResetCodeTTL).Unix(), "attempts", 0)
		p.Expire(ctx, key, 2*ResetCodeTTL)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store reset code: %w", err)
	}
	return code, nil
}

// Check verifies code for email without consuming it.
func (r *ResetCodes) Check(ctx context.Context, email, code string, now time.Time) error {
	key := resetKey(email)
	fields, err := r.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("load reset code: %w", err)
	}
	stored, ok := fields["code"]
	if !ok {
		return ErrResetCodeInvalid
	}
	if strings.TrimSpace(code) != stored {
		attempts, err := r.rdb.HIncrBy(ctx, key, "attempts", 1).Result()
		if err != nil {
			return fmt.Errorf("count reset attempts: %w", err)
		}
		if attempts >= MaxResetAttempts {
			r.Clear(ctx, email)
		}
		return ErrResetCodeInvalid
	}
	expires, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil || !now.Before(time.Unix(expires, 0)) {
		return ErrResetCodeExpired
	}
	return nil
}

// Clear drops the pending code for email.
func (r *ResetCodes) Clear(ctx context.Context, email string) {
	if err := r.rdb.Del(ctx, resetKey(email)).Err(); err != nil {
		logger.Error().Err(err).Msg("Error clearing reset code")
	}
}
