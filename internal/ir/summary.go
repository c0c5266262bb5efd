package ir

// Summary condenses a run into the counts that are deterministic for a
// given configuration, regardless of how the scheduler interleaved atoms.
type Summary struct {
	Oxygen           int64 `json:"oxygen" yaml:"oxygen"`
	Hydrogen         int64 `json:"hydrogen" yaml:"hydrogen"`
	MaxMolecules     int64 `json:"max_molecules" yaml:"max_molecules"`
	Molecules        int64 `json:"molecules" yaml:"molecules"`
	UnpairedOxygen   int64 `json:"unpaired_oxygen" yaml:"unpaired_oxygen"`
	UnpairedHydrogen int64 `json:"unpaired_hydrogen" yaml:"unpaired_hydrogen"`
	Lines            int64 `json:"lines" yaml:"lines"`
}

// MaxMolecules is min(oxygen, hydrogen/2), the number of molecules any
// complete run of the given pool must produce.
func MaxMolecules(oxygen, hydrogen int64) int64 {
	return min(oxygen, hydrogen/2)
}

// ExpectedSummary computes the summary every correct run must produce.
// Each atom logs started and going to queue, paired atoms log two more
// lines and surplus atoms one.
func ExpectedSummary(oxygen, hydrogen int64) Summary {
	m := MaxMolecules(oxygen, hydrogen)
	unO := oxygen - m
	unH := hydrogen - 2*m
	return Summary{
		Oxygen:           oxygen,
		Hydrogen:         hydrogen,
		MaxMolecules:     m,
		Molecules:        m,
		UnpairedOxygen:   unO,
		UnpairedHydrogen: unH,
		Lines:            2*(oxygen+hydrogen) + 2*3*m + unO + unH,
	}
}

// Canonical returns the summary as a map suitable for MarshalCanonical.
func (s Summary) Canonical() map[string]any {
	return map[string]any{
		"oxygen":            s.Oxygen,
		"hydrogen":          s.Hydrogen,
		"max_molecules":     s.MaxMolecules,
		"molecules":         s.Molecules,
		"unpaired_oxygen":   s.UnpairedOxygen,
		"unpaired_hydrogen": s.UnpairedHydrogen,
		"lines":             s.Lines,
	}
}
