package runlock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockSerializesRuns(t *testing.T) {
	lock := NewLocal()
	ctx := context.Background()

	release, err := lock.Acquire(ctx)
	require.NoError(t, err)

	_, err = lock.Acquire(ctx)
	assert.ErrorIs(t, err, ErrHeld)

	require.NoError(t, release(ctx))

	release, err = lock.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}
