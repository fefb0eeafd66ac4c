package slug

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":           "hello-world",
		"  Go   Concurrency 101 ": "go-concurrency-101",
		"---Already-Slugged---":   "already-slugged",
		"Çay ve Kahve":            "ay-ve-kahve",
		"MiXeD_case__title":       "mixed-case-title",
	}
	for in, want := range cases {
		assert.Equal(t, want, Derive(in), in)
	}
}

func TestDerive_EmptyFallsBackToUUID(t *testing.T) {
	for _, in := range []string{"", "!!!", "   ", "日本語"} {
		got := Derive(in)
		_, err := uuid.Parse(got)
		assert.NoError(t, err, "input %q produced %q", in, got)
	}
}

func TestResolveUnique(t *testing.T) {
	ctx := context.Background()
	taken := map[string]bool{"hello-world": true}
	exists := func(_ context.Context, s string) (bool, error) { return taken[s], nil }

	got, err := ResolveUnique(ctx, "fresh", exists)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)

	got, err = ResolveUnique(ctx, "hello-world", exists)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(got, "hello-world-"))
	_, err = uuid.Parse(strings.TrimPrefix(got, "hello-world-"))
	assert.NoError(t, err)
}

func TestResolveUnique_Bounded(t *testing.T) {
	calls := 0
	always := func(context.Context, string) (bool, error) { calls++; return true, nil }

	_, err := ResolveUnique(context.Background(), "x", always)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, MaxAttempts+1, calls)
}

func TestResolveUnique_PropagatesLookupError(t *testing.T) {
	boom := errors.New("db down")
	_, err := ResolveUnique(context.Background(), "x", func(context.Context, string) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}
