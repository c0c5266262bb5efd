package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/h2o/internal/ir"
)

// Rule names a verified property.
type Rule string

const (
	RuleSeq       Rule = "seq"
	RuleLifecycle Rule = "lifecycle"
	RuleMolecule  Rule = "molecule"
	RuleRounds    Rule = "rounds"
	RuleDrain     Rule = "drain"
)

// Violation describes one broken property.
type Violation struct {
	Rule    Rule   `json:"rule"`
	Seq     int64  `json:"seq,omitempty"`
	Message string `json:"message"`
}

func (v Violation) Error() string {
	if v.Seq > 0 {
		return fmt.Sprintf("%s at seq %d: %s", v.Rule, v.Seq, v.Message)
	}
	return fmt.Sprintf("%s: %s", v.Rule, v.Message)
}

// Verification is the outcome of Verify.
type Verification struct {
	Summary    ir.Summary  `json:"summary"`
	Violations []Violation `json:"violations,omitempty"`
}

// OK reports whether no property was violated.
func (v *Verification) OK() bool {
	return len(v.Violations) == 0
}

// Err returns nil for a clean run, or an error listing every violation.
func (v *Verification) Err() error {
	if v.OK() {
		return nil
	}
	var buf strings.Builder
	fmt.Fprintf(&buf, "%d violation(s):", len(v.Violations))
	for _, viol := range v.Violations {
		fmt.Fprintf(&buf, "\n  %s", viol.Error())
	}
	return fmt.Errorf("%s", buf.String())
}

func (v *Verification) add(rule Rule, seq int64, format string, args ...any) {
	v.Violations = append(v.Violations, Violation{
		Rule:    rule,
		Seq:     seq,
		Message: fmt.Sprintf(format, args...),
	})
}

type atomKey struct {
	species ir.Species
	id      int64
}

type atomTrack struct {
	kinds    []ir.EventKind
	molecule int64
}

type moleculeTrack struct {
	first, last  int64 // seq of first and last line of the molecule
	oxygenCreate int64 // seq of the oxygen's creating line
	creating     map[ir.Species]int
	created      map[ir.Species]int
}

// Verify checks the events of one complete run of a pool of the given
// size. Events must be in log order.
func Verify(events []ir.Event, oxygen, hydrogen int64) *Verification {
	v := &Verification{}
	maxMolecules := ir.MaxMolecules(oxygen, hydrogen)

	atoms := make(map[atomKey]*atomTrack)
	molecules := make(map[int64]*moleculeTrack)
	var lastMoleculeSeq, firstUnpairedSeq int64

	for i, ev := range events {
		if want := int64(i + 1); ev.Seq != want {
			v.add(RuleSeq, ev.Seq, "expected sequence number %d", want)
		}

		limit := oxygen
		if ev.Species == ir.Hydrogen {
			limit = hydrogen
		}
		if !ev.Species.Valid() || ev.Atom < 1 || ev.Atom > limit {
			v.add(RuleLifecycle, ev.Seq, "atom %s %d outside pool", ev.Species, ev.Atom)
			continue
		}

		key := atomKey{ev.Species, ev.Atom}
		a := atoms[key]
		if a == nil {
			a = &atomTrack{}
			atoms[key] = a
		}
		a.kinds = append(a.kinds, ev.Kind)

		switch ev.Kind {
		case ir.KindCreating, ir.KindCreated:
			if a.molecule != 0 && a.molecule != ev.Molecule {
				v.add(RuleLifecycle, ev.Seq, "%s %d switched from molecule %d to %d", ev.Species, ev.Atom, a.molecule, ev.Molecule)
			}
			a.molecule = ev.Molecule
			trackMolecule(v, molecules, ev)
			lastMoleculeSeq = ev.Seq
		case ir.KindUnpaired:
			if firstUnpairedSeq == 0 {
				firstUnpairedSeq = ev.Seq
			}
			if ev.Species == ir.Oxygen {
				v.Summary.UnpairedOxygen++
			} else {
				v.Summary.UnpairedHydrogen++
			}
		}
		v.Summary.Lines++
	}

	checkLifecycles(v, atoms, oxygen, hydrogen)
	checkMolecules(v, molecules, maxMolecules)

	if firstUnpairedSeq != 0 && firstUnpairedSeq < lastMoleculeSeq {
		v.add(RuleDrain, firstUnpairedSeq, "surplus atom released before the last molecule line (seq %d)", lastMoleculeSeq)
	}
	if want := oxygen - maxMolecules; v.Summary.UnpairedOxygen != want {
		v.add(RuleDrain, 0, "%d oxygen(s) not paired, expected %d", v.Summary.UnpairedOxygen, want)
	}
	if want := hydrogen - 2*maxMolecules; v.Summary.UnpairedHydrogen != want {
		v.add(RuleDrain, 0, "%d hydrogen(s) not paired, expected %d", v.Summary.UnpairedHydrogen, want)
	}

	v.Summary.Oxygen = oxygen
	v.Summary.Hydrogen = hydrogen
	v.Summary.MaxMolecules = maxMolecules
	v.Summary.Molecules = int64(len(molecules))
	return v
}

func trackMolecule(v *Verification, molecules map[int64]*moleculeTrack, ev ir.Event) {
	m := molecules[ev.Molecule]
	if m == nil {
		m = &moleculeTrack{
			first:    ev.Seq,
			creating: make(map[ir.Species]int, 2),
			created:  make(map[ir.Species]int, 2),
		}
		molecules[ev.Molecule] = m
	}
	m.last = ev.Seq

	switch ev.Kind {
	case ir.KindCreating:
		m.creating[ev.Species]++
		if ev.Species == ir.Oxygen {
			m.oxygenCreate = ev.Seq
		}
	case ir.KindCreated:
		m.created[ev.Species]++
		if m.oxygenCreate == 0 {
			v.add(RuleMolecule, ev.Seq, "%s %d reports molecule %d created before its oxygen began creating", ev.Species, ev.Atom, ev.Molecule)
		}
	}
}

// lifecycles lists the two legal per-atom event sequences.
var (
	pairedLifecycle   = []ir.EventKind{ir.KindStarted, ir.KindQueued, ir.KindCreating, ir.KindCreated}
	unpairedLifecycle = []ir.EventKind{ir.KindStarted, ir.KindQueued, ir.KindUnpaired}
)

func checkLifecycles(v *Verification, atoms map[atomKey]*atomTrack, oxygen, hydrogen int64) {
	for _, sp := range []ir.Species{ir.Oxygen, ir.Hydrogen} {
		n := oxygen
		if sp == ir.Hydrogen {
			n = hydrogen
		}
		for id := int64(1); id <= n; id++ {
			a := atoms[atomKey{sp, id}]
			if a == nil {
				v.add(RuleLifecycle, 0, "%s %d logged nothing", sp, id)
				continue
			}
			if !sameKinds(a.kinds, pairedLifecycle) && !sameKinds(a.kinds, unpairedLifecycle) {
				v.add(RuleLifecycle, 0, "%s %d logged %s", sp, id, joinKinds(a.kinds))
			}
		}
	}
}

func checkMolecules(v *Verification, molecules map[int64]*moleculeTrack, maxMolecules int64) {
	ids := make([]int64, 0, len(molecules))
	for id := range molecules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if int64(len(ids)) != maxMolecules {
		v.add(RuleMolecule, 0, "%d molecule(s) formed, expected %d", len(ids), maxMolecules)
	}
	for i, id := range ids {
		if want := int64(i + 1); id != want {
			v.add(RuleMolecule, 0, "molecule id %d where %d was expected", id, want)
		}
		m := molecules[id]
		for _, sp := range []ir.Species{ir.Oxygen, ir.Hydrogen} {
			want := 1
			if sp == ir.Hydrogen {
				want = 2
			}
			if m.creating[sp] != want || m.created[sp] != want {
				v.add(RuleMolecule, m.first, "molecule %d has %d creating and %d created %s line(s), expected %d",
					id, m.creating[sp], m.created[sp], sp, want)
			}
		}
		if i > 0 {
			prev := molecules[ids[i-1]]
			if m.first < prev.last {
				v.add(RuleRounds, m.first, "molecule %d starts before molecule %d finished (seq %d)", id, ids[i-1], prev.last)
			}
		}
	}
}

func sameKinds(got, want []ir.EventKind) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func joinKinds(kinds []ir.EventKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
