package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	PurposeVerify = "verify"
	PurposeReset  = "reset"
)

var (
	ErrCooldown        = errors.New("a code was sent recently, try again later")
	ErrInvalidCode     = errors.New("invalid or expired code")
	ErrTooManyAttempts = errors.New("too many attempts, request a new code")
)

type Options struct {
	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int
}

// Service issues and checks one-time email codes stored in Redis.
type Service struct {
	rdb  redis.Cmdable
	opts Options
	gen  func() (string, error)
}

func NewService(rdb redis.Cmdable, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = time.Minute
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	return &Service{rdb: rdb, opts: opts, gen: sixDigits}
}

func (s *Service) TTL() time.Duration { return s.opts.TTL }

func codeKey(purpose, email string) string {
	return fmt.Sprintf("otp:%s:%s", purpose, strings.ToLower(email))
}

func cooldownKey(purpose, email string) string {
	return fmt.Sprintf("otp:cooldown:%s:%s", purpose, strings.ToLower(email))
}

func sixDigits() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Issue creates a fresh code, replacing any previous one for the same purpose.
func (s *Service) Issue(ctx context.Context, purpose, email string) (string, error) {
	ok, err := s.rdb.SetNX(ctx, cooldownKey(purpose, email), 1, s.opts.Cooldown).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrCooldown
	}

	code, err := s.gen()
	if err != nil {
		return "", err
	}

	key := codeKey(purpose, email)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, "code", code, "attempts", 0)
	pipe.Expire(ctx, key, s.opts.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return code, nil
}

// Verify consumes the code on success. Wrong guesses count towards
// MaxAttempts, after which the code is dropped.
func (s *Service) Verify(ctx context.Context, purpose, email, code string) error {
	key := codeKey(purpose, email)
	stored, err := s.rdb.HGet(ctx, key, "code").Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidCode
	}
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(code))) == 1 {
		return s.rdb.Del(ctx, key).Err()
	}

	attempts, err := s.rdb.HIncrBy(ctx, key, "attempts", 1).Result()
	if err != nil {
		return err
	}
	if attempts >= int64(s.opts.MaxAttempts) {
		if err := s.rdb.Del(ctx, key).Err(); err != nil {
			return err
		}
		return ErrTooManyAttempts
	}
	return ErrInvalidCode
}
