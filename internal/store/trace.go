package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const traceFile = "trace.jsonl"

// TraceEntry is one optimization round, stored as a JSON line in trace.jsonl.
type TraceEntry struct {
	Round int `json:"round"` // 1-based, continues across resumes

	// Value is the best objective value sampled in this round and BestValue the
	// best of the whole run so far
	Value     float64 `json:"value"`
	BestValue float64 `json:"bestValue"`

	Evaluations int       `json:"evaluations,omitempty"` // cumulative within one run
	Timestamp   time.Time `json:"timestamp"`

	// Solution is the round's best solution; nil keeps the trace small
	Solution []float64 `json:"solution,omitempty"`
}

func tracePath(baseDir, runID string) string {
	return filepath.Join(runDir(baseDir, runID), traceFile)
}

// TraceWriter appends entries to <baseDir>/runs/<runID>/trace.jsonl through a
// buffer. It is safe for concurrent use.
type TraceWriter struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
}

// NewTraceWriter opens the trace of a run. With resume set, entries are added
// after the existing ones; otherwise the trace starts empty.
func NewTraceWriter(baseDir, runID string, resume bool) (*TraceWriter, error) {
	if err := os.MkdirAll(runDir(baseDir, runID), 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if resume {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(tracePath(baseDir, runID), flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	buf := bufio.NewWriterSize(file, 64*1024)
	return &TraceWriter{file: file, buf: buf, enc: json.NewEncoder(buf)}, nil
}

// Write buffers one entry. It reaches the file on Flush or Close.
func (tw *TraceWriter) Write(entry TraceEntry) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.enc.Encode(entry); err != nil {
		return fmt.Errorf("failed to write trace entry: %w", err)
	}
	return nil
}

// Flush writes buffered entries and syncs the file.
func (tw *TraceWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace: %w", err)
	}
	if err := tw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync trace file: %w", err)
	}
	return nil
}

// Close flushes and closes the trace file.
func (tw *TraceWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	flushErr := tw.buf.Flush()
	closeErr := tw.file.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to flush trace on close: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close trace file: %w", closeErr)
	}
	return nil
}

// Path returns the trace file path.
func (tw *TraceWriter) Path() string {
	return tw.file.Name()
}

// TraceReader streams the entries of a trace.
type TraceReader struct {
	file *os.File
	dec  *json.Decoder
}

// NewTraceReader opens the trace of a run. A missing trace is a NotFoundError.
func NewTraceReader(baseDir, runID string) (*TraceReader, error) {
	file, err := os.Open(tracePath(baseDir, runID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{RunID: runID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	return &TraceReader{file: file, dec: json.NewDecoder(bufio.NewReader(file))}, nil
}

// Read returns the next entry, or io.EOF after the last one.
func (tr *TraceReader) Read() (*TraceEntry, error) {
	var entry TraceEntry
	if err := tr.dec.Decode(&entry); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode trace entry: %w", err)
	}
	return &entry, nil
}

// ReadAll returns the remaining entries.
func (tr *TraceReader) ReadAll() ([]TraceEntry, error) {
	var entries []TraceEntry
	for {
		entry, err := tr.Read()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
}

// Close closes the trace file.
func (tr *TraceReader) Close() error {
	if err := tr.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}
	return nil
}

// ReadTrace loads the whole trace of a run.
func ReadTrace(baseDir, runID string) ([]TraceEntry, error) {
	tr, err := NewTraceReader(baseDir, runID)
	if err != nil {
		return nil, err
	}
	defer tr.Close()
	return tr.ReadAll()
}

// Improvements keeps the first entry and every entry whose running best
// differs from the one before it.
func Improvements(entries []TraceEntry) []TraceEntry {
	var out []TraceEntry
	for i, e := range entries {
		if i == 0 || e.BestValue != entries[i-1].BestValue {
			out = append(out, e)
		}
	}
	return out
}
