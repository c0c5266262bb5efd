package engine

import (
	"github.com/uber-go/tally/v4"

	"github.com/roach88/h2o/internal/ir"
)

// Metric names reported on the configured tally scope.
const (
	MetricAtomsStarted     = "atoms_started"
	MetricPairings         = "pairings_committed"
	MetricMoleculesCreated = "molecules_created"
	MetricAtomsDrained     = "atoms_drained"
	MetricRunLatency       = "run_latency"
)

type metrics struct {
	scope      tally.Scope
	started    tally.Counter
	pairings   tally.Counter
	created    tally.Counter
	runLatency tally.Timer
}

func newMetrics(scope tally.Scope) *metrics {
	if scope == nil {
		scope = tally.NoopScope
	}
	return &metrics{
		scope:      scope,
		started:    scope.Counter(MetricAtomsStarted),
		pairings:   scope.Counter(MetricPairings),
		created:    scope.Counter(MetricMoleculesCreated),
		runLatency: scope.Timer(MetricRunLatency),
	}
}

func (m *metrics) drained(sp ir.Species) tally.Counter {
	return m.scope.Tagged(map[string]string{"species": string(sp)}).Counter(MetricAtomsDrained)
}
