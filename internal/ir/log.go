package ir

import (
	"bufio"
	"fmt"
	"io"
)

// LineError reports the 1-based line number of an unparseable log line.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ParseLog reads a complete run log. Blank lines are not allowed; a
// half-written final line without its newline is reported as torn.
func ParseLog(r io.Reader) ([]Event, error) {
	br := bufio.NewReader(r)
	events := []Event{}

	for n := 1; ; n++ {
		line, err := br.ReadString('\n')
		if err == io.EOF {
			if line != "" {
				return events, &LineError{Line: n, Err: fmt.Errorf("torn line %q (no newline)", line)}
			}
			return events, nil
		}
		if err != nil {
			return events, fmt.Errorf("read log: %w", err)
		}

		ev, perr := ParseLine(line)
		if perr != nil {
			return events, &LineError{Line: n, Err: perr}
		}
		events = append(events, ev)
	}
}

// WriteLog writes events in the same encoding the engine's text sink uses.
func WriteLog(w io.Writer, events []Event) error {
	buf := make([]byte, 0, 64)
	for _, ev := range events {
		buf = ev.AppendLine(buf[:0])
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write log: %w", err)
		}
	}
	return nil
}
