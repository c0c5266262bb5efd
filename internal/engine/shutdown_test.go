package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally/v4"

	"github.com/roach88/h2o/internal/testutil"
)

func newTestDrain(oxygen, hydrogen int64, scope tally.Scope) (*ShutdownCoordinator, *SharedState, *WaitQueue, *WaitQueue) {
	state := NewSharedState(oxygen, hydrogen)
	oq := NewWaitQueue("oxygen", int(oxygen))
	hq := NewWaitQueue("hydrogen", int(hydrogen))
	c := NewShutdownCoordinator(state, oq, hq, oxygen, hydrogen, nil, newMetrics(scope))
	return c, state, oq, hq
}

func TestShutdownCoordinator_PostsSurplusTokens(t *testing.T) {
	scope := tally.NewTestScope("h2o", nil)
	c, state, oq, hq := newTestDrain(5, 3, scope)

	res, err := c.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DrainResult{Oxygen: 4, Hydrogen: 1}, res)
	assert.Equal(t, 4, oq.Pending())
	assert.Equal(t, 1, hq.Pending())

	a, err := oq.Await(context.Background())
	require.NoError(t, err)
	assert.True(t, a.Drained)

	snap, err := state.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Shutdown)

	assert.Equal(t, int64(4), testutil.CounterValue(scope, "h2o.atoms_drained", map[string]string{"species": "O"}))
	assert.Equal(t, int64(1), testutil.CounterValue(scope, "h2o.atoms_drained", map[string]string{"species": "H"}))
}

func TestShutdownCoordinator_OnlyOnce(t *testing.T) {
	c, _, oq, hq := newTestDrain(2, 2, nil)

	first, err := c.Drain(context.Background())
	require.NoError(t, err)
	second, err := c.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, oq.Pending())
	assert.Equal(t, 0, hq.Pending())
}

func TestShutdownCoordinator_NothingToDrain(t *testing.T) {
	c, _, oq, hq := newTestDrain(2, 4, nil)

	res, err := c.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DrainResult{}, res)
	assert.Equal(t, 0, oq.Pending())
	assert.Equal(t, 0, hq.Pending())
}

func TestShutdownCoordinator_WaitsForPairingLock(t *testing.T) {
	c, state, oq, _ := newTestDrain(2, 2, nil)
	p, err := state.lockPairing(context.Background())
	require.NoError(t, err)
	defer p.unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Drain(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, oq.Pending(), "no tokens before the flag is set")
}
