package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/h2o/internal/ir"
)

func TestSharedState_MaxMolecules(t *testing.T) {
	tests := []struct {
		oxygen, hydrogen, want int64
	}{
		{1, 2, 1},
		{5, 2, 1},
		{1, 1, 0},
		{3, 7, 3},
		{10, 20, 10},
		{2, 9, 2},
	}
	for _, tt := range tests {
		s := NewSharedState(tt.oxygen, tt.hydrogen)
		assert.Equal(t, tt.want, s.MaxMolecules(), "O=%d H=%d", tt.oxygen, tt.hydrogen)
	}
}

func TestSharedState_AtomIDsPerSpecies(t *testing.T) {
	s := NewSharedState(2, 2)

	assert.Equal(t, int64(1), s.NextAtomID(ir.Oxygen))
	assert.Equal(t, int64(1), s.NextAtomID(ir.Hydrogen))
	assert.Equal(t, int64(2), s.NextAtomID(ir.Oxygen))
	assert.Equal(t, int64(2), s.NextAtomID(ir.Hydrogen))
}

func TestPairing_ReadyAndCommit(t *testing.T) {
	s := NewSharedState(2, 4)
	ctx := context.Background()

	p, err := s.lockPairing(ctx)
	require.NoError(t, err)

	p.arrive(ir.Hydrogen)
	assert.False(t, p.ready(ir.Hydrogen), "one hydrogen")
	p.arrive(ir.Hydrogen)
	assert.False(t, p.ready(ir.Hydrogen), "two hydrogens, no oxygen")
	p.arrive(ir.Oxygen)
	assert.True(t, p.ready(ir.Oxygen))

	assert.Equal(t, int64(1), p.commit())
	snap := p.snapshot()
	assert.Equal(t, StateSnapshot{Molecule: 1}, snap)
	p.unlock()
}

func TestPairing_ShutdownBlocksCommit(t *testing.T) {
	s := NewSharedState(1, 2)
	p, err := s.lockPairing(context.Background())
	require.NoError(t, err)
	defer p.unlock()

	p.arrive(ir.Oxygen)
	p.arrive(ir.Hydrogen)
	p.arrive(ir.Hydrogen)
	p.setShutdown()

	assert.True(t, p.shuttingDown())
	assert.False(t, p.ready(ir.Hydrogen))
}

func TestSharedState_SnapshotWaitsForLock(t *testing.T) {
	s := NewSharedState(1, 2)
	p, err := s.lockPairing(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Snapshot(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	p.unlock()
	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Shutdown)
}

func TestSharedState_ReleaseMoleculeHandsLockBack(t *testing.T) {
	s := NewSharedState(1, 2)
	_, err := s.lockPairing(context.Background())
	require.NoError(t, err)

	s.releaseMolecule()
	p, err := s.lockPairing(context.Background())
	require.NoError(t, err)
	p.unlock()
}
