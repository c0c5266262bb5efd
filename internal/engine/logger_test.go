package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/h2o/internal/ir"
	"github.com/roach88/h2o/internal/testutil"
)

func TestLogger_StampsInOrder(t *testing.T) {
	sink := testutil.NewMemorySink()
	l := NewLogger(NewClock(), sink)

	ev, err := l.Emit(Record{Species: ir.Oxygen, Atom: 1, Kind: ir.KindStarted})
	require.NoError(t, err)
	assert.Equal(t, int64(1), ev.Seq)

	ev, err = l.Emit(Record{Species: ir.Hydrogen, Atom: 2, Kind: ir.KindCreating, Molecule: 1})
	require.NoError(t, err)
	assert.Equal(t, "2: H 2: creating molecule 1", ev.String())

	assert.Len(t, sink.Events(), 2)
	assert.Equal(t, 2, sink.Flushes(), "one flush per line")
}

func TestLogger_ConcurrentEmitsAreContiguous(t *testing.T) {
	sink := testutil.NewMemorySink()
	l := NewLogger(NewClock(), sink)

	const writers, perWriter = 20, 50
	var wg sync.WaitGroup
	for w := 1; w <= writers; w++ {
		wg.Add(1)
		go func(atom int64) {
			defer wg.Done()
			for range perWriter {
				_, err := l.Emit(Record{Species: ir.Hydrogen, Atom: atom, Kind: ir.KindStarted})
				assert.NoError(t, err)
			}
		}(int64(w))
	}
	wg.Wait()

	events := sink.Events()
	require.Len(t, events, writers*perWriter)
	for i, ev := range events {
		assert.Equal(t, int64(i+1), ev.Seq, "sequence must follow write order")
	}
}

func TestLogger_Stats(t *testing.T) {
	l := NewLogger(NewClock())

	records := []Record{
		{Species: ir.Oxygen, Atom: 1, Kind: ir.KindCreated, Molecule: 1},
		{Species: ir.Hydrogen, Atom: 1, Kind: ir.KindCreated, Molecule: 1},
		{Species: ir.Oxygen, Atom: 2, Kind: ir.KindUnpaired},
		{Species: ir.Hydrogen, Atom: 3, Kind: ir.KindUnpaired},
		{Species: ir.Hydrogen, Atom: 4, Kind: ir.KindUnpaired},
	}
	for _, r := range records {
		_, err := l.Emit(r)
		require.NoError(t, err)
	}

	stats := l.Stats()
	assert.Equal(t, int64(5), stats.Lines)
	assert.Equal(t, int64(1), stats.Molecules)
	assert.Equal(t, int64(1), stats.UnpairedOxygen)
	assert.Equal(t, int64(2), stats.UnpairedHydrogen)
}

func TestLogger_SinkFailure(t *testing.T) {
	l := NewLogger(NewClock(), &testutil.FailingSink{After: 1, Err: errors.New("disk full")})

	_, err := l.Emit(Record{Species: ir.Oxygen, Atom: 1, Kind: ir.KindStarted})
	require.NoError(t, err)

	_, err = l.Emit(Record{Species: ir.Oxygen, Atom: 1, Kind: ir.KindQueued})
	require.Error(t, err)
	assert.True(t, IsSinkError(err))
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, int64(1), l.Stats().Lines, "failed line is not counted")
}

func TestLogger_CloseClosesSinks(t *testing.T) {
	sink := testutil.NewMemorySink()
	l := NewLogger(NewClock(), sink)

	require.NoError(t, l.Close())
	assert.True(t, sink.Closed())
	require.NoError(t, l.Close(), "second close is a no-op")

	_, err := l.Emit(Record{Species: ir.Oxygen, Atom: 1, Kind: ir.KindStarted})
	assert.True(t, IsSinkError(err))
}
