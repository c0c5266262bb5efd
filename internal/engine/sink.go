package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/roach88/h2o/internal/ir"
)

// Sink receives stamped events from the Logger, one at a time, under the
// log lock. Flush is called after every Write.
type Sink interface {
	Write(ev ir.Event) error
	Flush() error
	Close() error
}

// TextSink writes events in the line format of ir.Event.
type TextSink struct {
	w      *bufio.Writer
	closer io.Closer
	buf    []byte
}

// NewTextSink writes to w. The sink does not close w.
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: bufio.NewWriter(w), buf: make([]byte, 0, 64)}
}

// CreateFileSink truncates or creates path and writes events to it.
// Closing the sink closes the file.
func CreateFileSink(path string) (*TextSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, NewResourceError(fmt.Sprintf("create output file %s", path), err)
	}
	s := NewTextSink(f)
	s.closer = f
	return s, nil
}

func (s *TextSink) Write(ev ir.Event) error {
	s.buf = ev.AppendLine(s.buf[:0])
	_, err := s.w.Write(s.buf)
	return err
}

func (s *TextSink) Flush() error {
	return s.w.Flush()
}

func (s *TextSink) Close() error {
	err := s.w.Flush()
	if s.closer != nil {
		err = errors.Join(err, s.closer.Close())
		s.closer = nil
	}
	return err
}
