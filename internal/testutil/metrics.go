package testutil

import "github.com/uber-go/tally/v4"

// CounterValue sums the counters named name (fully qualified, e.g.
// "h2o.atoms_started") whose tags include every entry of tags.
func CounterValue(scope tally.TestScope, name string, tags map[string]string) int64 {
	var total int64
	for _, c := range scope.Snapshot().Counters() {
		if c.Name() != name {
			continue
		}
		if !containsTags(c.Tags(), tags) {
			continue
		}
		total += c.Value()
	}
	return total
}

func containsTags(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

// TimerCount returns how many values the timer named name recorded.
func TimerCount(scope tally.TestScope, name string) int {
	n := 0
	for _, tm := range scope.Snapshot().Timers() {
		if tm.Name() == name {
			n += len(tm.Values())
		}
	}
	return n
}
