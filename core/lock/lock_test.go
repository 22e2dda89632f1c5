package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/whaleen/warehouse-sub004/core/lock"

	"github.com/stretchr/testify/assert"
)

func TestMemory_MutualExclusion(t *testing.T) {
	l := lock.NewMemory()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "reconcile:main:salvage", time.Minute)
	assert.NoError(t, err)
	assert.NotNil(t, release)

	// Second acquire on the same key fails while held.
	_, err = l.Acquire(ctx, "reconcile:main:salvage", time.Minute)
	assert.ErrorIs(t, err, lock.ErrHeld)

	// A different key is independent.
	release2, err := l.Acquire(ctx, "reconcile:main:finished_goods", time.Minute)
	assert.NoError(t, err)
	release2()

	release()

	// Released lock can be re-acquired.
	release3, err := l.Acquire(ctx, "reconcile:main:salvage", time.Minute)
	assert.NoError(t, err)
	release3()
}

func TestMemory_TTLExpiry(t *testing.T) {
	l := lock.NewMemory()
	ctx := context.Background()

	_, err := l.Acquire(ctx, "k", 10*time.Millisecond)
	assert.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	// Expired without release: a dead run must not wedge the category.
	release, err := l.Acquire(ctx, "k", time.Minute)
	assert.NoError(t, err)
	release()
}
