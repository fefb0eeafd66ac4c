// Package slug turns post titles into URL-safe, unique identifiers.
package slug

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// MaxAttempts bounds the suffix loop in ResolveUnique.
const MaxAttempts = 5

var (
	nonAlnum     = regexp.MustCompile(`[^a-z0-9]+`)
	ErrExhausted = errors.New("slug: no free candidate")
)

// ExistsFunc reports whether a slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Derive lowercases s, collapses every run of characters outside [a-z0-9]
// into a single "-" and trims the ends. An empty result becomes a UUID.
func Derive(s string) string {
	out := nonAlnum.ReplaceAllString(strings.ToLower(s), "-")
	out = strings.Trim(out, "-")
	if out == "" {
		return uuid.NewString()
	}
	return out
}

// ResolveUnique returns candidate when it is free, otherwise candidate
// suffixed with a fresh UUID. The check is advisory: the store's unique
// constraint stays the final arbiter.
func ResolveUnique(ctx context.Context, candidate string, exists ExistsFunc) (string, error) {
	taken, err := exists(ctx, candidate)
	if err != nil {
		return "", err
	}
	if !taken {
		return candidate, nil
	}
	for i := 0; i < MaxAttempts; i++ {
		next := WithSuffix(candidate)
		taken, err := exists(ctx, next)
		if err != nil {
			return "", err
		}
		if !taken {
			return next, nil
		}
	}
	return "", ErrExhausted
}

func WithSuffix(base string) string { return base + "-" + uuid.NewString() }
