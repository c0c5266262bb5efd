package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/h2o/internal/ir"
)

func TestRuntimeError_Error(t *testing.T) {
	cause := errors.New("disk full")
	err := NewSinkError(Record{Species: ir.Hydrogen, Atom: 3, Kind: ir.KindCreated}, cause)

	assert.Equal(t, "SINK_FAILED: cannot write created event (atom=H 3): disk full", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestRuntimeError_Codes(t *testing.T) {
	resource := NewResourceError("create output file", errors.New("denied"))
	spawn := NewSpawnError(ir.Oxygen, errors.New("no threads"))
	cancelled := NewCancelledError(context.Canceled)

	assert.True(t, IsResourceError(fmt.Errorf("wrapped: %w", resource)))
	assert.False(t, IsResourceError(spawn))
	assert.False(t, IsSinkError(resource))

	assert.Equal(t, ErrCodeSpawn, spawn.Code)
	assert.Equal(t, "SPAWN_FAILED: cannot start atom (atom=O 0): no threads", spawn.Error())

	assert.True(t, IsCancelled(cancelled))
	assert.True(t, IsCancelled(context.DeadlineExceeded))
	assert.False(t, IsCancelled(resource))
}
