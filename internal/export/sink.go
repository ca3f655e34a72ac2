package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/legalhold/pkg/models"
)

// Sink receives export records. Emit must return nil only once the record
// has been handed off; the event is marked exported after that.
type Sink interface {
	Emit(ctx context.Context, record *models.ExportRecord) error
}

// JSONLineSink writes one JSON document per line.
type JSONLineSink struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

// NewJSONLineSink writes records to w.
func NewJSONLineSink(w io.Writer) *JSONLineSink {
	return &JSONLineSink{w: w}
}

// NewFileSink appends records to the file at path, creating it if needed.
func NewFileSink(path string) (*JSONLineSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	return &JSONLineSink{w: f, closer: f}, nil
}

// OpenSink builds the sink named in the configuration: "stdout" or "file".
func OpenSink(kind, path string) (*JSONLineSink, error) {
	switch kind {
	case "", "stdout":
		return NewJSONLineSink(os.Stdout), nil
	case "file":
		if path == "" {
			return nil, fmt.Errorf("export sink %q requires a path", kind)
		}
		return NewFileSink(path)
	default:
		return nil, fmt.Errorf("unknown export sink %q", kind)
	}
}

// Emit writes the record as a single line.
func (s *JSONLineSink) Emit(ctx context.Context, record *models.ExportRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode export record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(line); err != nil {
		return fmt.Errorf("failed to write export record: %w", err)
	}
	return nil
}

// Close closes the underlying file, if any.
func (s *JSONLineSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
