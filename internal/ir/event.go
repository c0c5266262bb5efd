package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Species identifies the kind of atom that produced an event.
type Species string

const (
	Oxygen   Species = "O"
	Hydrogen Species = "H"
)

// Valid reports whether s is one of the two modelled species.
func (s Species) Valid() bool {
	return s == Oxygen || s == Hydrogen
}

// ParseSpecies converts the one-letter log tag back to a Species.
func ParseSpecies(s string) (Species, error) {
	sp := Species(s)
	if !sp.Valid() {
		return "", fmt.Errorf("unknown species %q", s)
	}
	return sp, nil
}

// EventKind is the fixed tag of an atom lifecycle step.
type EventKind string

const (
	// KindStarted is logged once when the atom actor begins.
	KindStarted EventKind = "started"
	// KindQueued is logged after the pre-queue delay, right before pairing.
	KindQueued EventKind = "queued"
	// KindCreating is logged by each of the three atoms admitted to a molecule.
	KindCreating EventKind = "creating"
	// KindCreated is logged once the bond has formed.
	KindCreated EventKind = "created"
	// KindUnpaired is logged by a surplus atom released by the shutdown drain.
	KindUnpaired EventKind = "unpaired"
)

// HasMolecule reports whether events of this kind carry a molecule id.
func (k EventKind) HasMolecule() bool {
	return k == KindCreating || k == KindCreated
}

// Event is one stamped line of the run log.
type Event struct {
	Seq      int64     `json:"seq"`
	Species  Species   `json:"species"`
	Atom     int64     `json:"atom"`
	Kind     EventKind `json:"kind"`
	Molecule int64     `json:"molecule,omitempty"`
}

// Text returns the event part of the line, after the atom tag.
func (e Event) Text() string {
	switch e.Kind {
	case KindStarted:
		return "started"
	case KindQueued:
		return "going to queue"
	case KindCreating:
		return "creating molecule " + strconv.FormatInt(e.Molecule, 10)
	case KindCreated:
		return "molecule " + strconv.FormatInt(e.Molecule, 10) + " created"
	case KindUnpaired:
		if e.Species == Oxygen {
			return "not enough H"
		}
		return "not enough O or H"
	default:
		return string(e.Kind)
	}
}

// String renders the line without its trailing newline.
func (e Event) String() string {
	line := e.AppendLine(make([]byte, 0, 48))
	return string(line[:len(line)-1])
}

// AppendLine appends "<seq>: <species> <atom>: <text>\n" to b.
func (e Event) AppendLine(b []byte) []byte {
	b = strconv.AppendInt(b, e.Seq, 10)
	b = append(b, ": "...)
	b = append(b, e.Species...)
	b = append(b, ' ')
	b = strconv.AppendInt(b, e.Atom, 10)
	b = append(b, ": "...)
	b = append(b, e.Text()...)
	return append(b, '\n')
}

// ParseLine decodes a single log line (with or without trailing newline).
// It is strict: any deviation from the emitted format is an error, which
// lets verification detect torn or interleaved writes.
func ParseLine(line string) (Event, error) {
	line = strings.TrimSuffix(line, "\n")

	seqPart, rest, ok := strings.Cut(line, ": ")
	if !ok {
		return Event{}, fmt.Errorf("missing sequence separator in %q", line)
	}
	seq, err := parsePositive(seqPart)
	if err != nil {
		return Event{}, fmt.Errorf("bad sequence number in %q: %w", line, err)
	}

	atomPart, text, ok := strings.Cut(rest, ": ")
	if !ok {
		return Event{}, fmt.Errorf("missing atom separator in %q", line)
	}
	speciesPart, idPart, ok := strings.Cut(atomPart, " ")
	if !ok {
		return Event{}, fmt.Errorf("malformed atom tag in %q", line)
	}
	species, err := ParseSpecies(speciesPart)
	if err != nil {
		return Event{}, fmt.Errorf("line %q: %w", line, err)
	}
	atom, err := parsePositive(idPart)
	if err != nil {
		return Event{}, fmt.Errorf("bad atom id in %q: %w", line, err)
	}

	ev := Event{Seq: seq, Species: species, Atom: atom}
	if err := ev.parseText(text); err != nil {
		return Event{}, fmt.Errorf("line %q: %w", line, err)
	}
	return ev, nil
}

func (e *Event) parseText(text string) error {
	switch {
	case text == "started":
		e.Kind = KindStarted
	case text == "going to queue":
		e.Kind = KindQueued
	case strings.HasPrefix(text, "creating molecule "):
		m, err := parsePositive(strings.TrimPrefix(text, "creating molecule "))
		if err != nil {
			return fmt.Errorf("bad molecule id: %w", err)
		}
		e.Kind, e.Molecule = KindCreating, m
	case strings.HasPrefix(text, "molecule ") && strings.HasSuffix(text, " created"):
		m, err := parsePositive(strings.TrimSuffix(strings.TrimPrefix(text, "molecule "), " created"))
		if err != nil {
			return fmt.Errorf("bad molecule id: %w", err)
		}
		e.Kind, e.Molecule = KindCreated, m
	case text == "not enough H" && e.Species == Oxygen:
		e.Kind = KindUnpaired
	case text == "not enough O or H" && e.Species == Hydrogen:
		e.Kind = KindUnpaired
	default:
		return fmt.Errorf("unknown event %q", text)
	}
	return nil
}

// parsePositive accepts only plain decimal digits with value >= 1.
func parsePositive(s string) (int64, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, fmt.Errorf("%q is not a decimal number", s)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("%q must be at least 1", s)
	}
	return n, nil
}
