// Package diag provides the diagnostic event sinks used by the native host.
//
// The host's stdout carries framed protocol messages, so diagnostics go to
// stderr and to an append-only log file instead. Retention of that file is
// left to the operator.
package diag

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// Level is the severity of an event.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a single diagnostic record. Fields holds alternating key/value pairs.
type Event struct {
	Time    time.Time
	Level   Level
	Message string
	Fields  []any
}

// Sink receives diagnostic events.
type Sink interface {
	Record(ev Event)
}

// Helpers so call sites read like a logger.

func Debug(s Sink, msg string, fields ...any) { emit(s, LevelDebug, msg, fields) }
func Info(s Sink, msg string, fields ...any)  { emit(s, LevelInfo, msg, fields) }
func Warn(s Sink, msg string, fields ...any)  { emit(s, LevelWarn, msg, fields) }
func Error(s Sink, msg string, fields ...any) { emit(s, LevelError, msg, fields) }

func emit(s Sink, level Level, msg string, fields []any) {
	if s == nil {
		return
	}
	s.Record(Event{Time: time.Now(), Level: level, Message: msg, Fields: fields})
}

// FileSink appends one JSON line per event to a file. The file is opened in
// append mode for every write and closed afterwards.
type FileSink struct {
	path string
	mu   sync.Mutex
}

// NewFileSink returns a sink writing to path. The file is created on first write.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the log file location.
func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) Record(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		// Nowhere left to report this; stdout is reserved for the protocol.
		return
	}
	defer f.Close()

	logger := pterm.DefaultLogger.
		WithWriter(f).
		WithFormatter(pterm.LogFormatterJSON).
		WithLevel(pterm.LogLevelTrace).
		WithTime(true)
	write(logger, ev)
}

// WriterSink renders events with pterm, typically on stderr. Terminals get
// the colored formatter; anything else gets plain JSON lines.
type WriterSink struct {
	logger *pterm.Logger
	mu     sync.Mutex
}

// NewWriterSink returns a sink that prints events at or above min to w.
func NewWriterSink(w io.Writer, min Level) *WriterSink {
	logger := pterm.DefaultLogger.
		WithWriter(w).
		WithLevel(toPterm(min)).
		WithTime(true)
	if !isTerminal(w) {
		logger = logger.WithFormatter(pterm.LogFormatterJSON)
	}
	return &WriterSink{logger: logger}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewStderrSink is NewWriterSink on os.Stderr.
func NewStderrSink(min Level) *WriterSink {
	return NewWriterSink(os.Stderr, min)
}

func (s *WriterSink) Record(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	write(s.logger, ev)
}

func write(logger *pterm.Logger, ev Event) {
	args := logger.Args(ev.Fields...)
	switch ev.Level {
	case LevelDebug:
		logger.Debug(ev.Message, args)
	case LevelInfo:
		logger.Info(ev.Message, args)
	case LevelWarn:
		logger.Warn(ev.Message, args)
	default:
		logger.Error(ev.Message, args)
	}
}

func toPterm(l Level) pterm.LogLevel {
	switch l {
	case LevelDebug:
		return pterm.LogLevelDebug
	case LevelInfo:
		return pterm.LogLevelInfo
	case LevelWarn:
		return pterm.LogLevelWarn
	default:
		return pterm.LogLevelError
	}
}

type multi []Sink

// Multi fans each event out to every non-nil sink.
func Multi(sinks ...Sink) Sink {
	var m multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m multi) Record(ev Event) {
	for _, s := range m {
		s.Record(ev)
	}
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(Event) {}

// Memory keeps events in memory. It is meant for tests.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Record(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

// Events returns a copy of the recorded events.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Messages returns the recorded messages in order.
func (m *Memory) Messages() []string {
	events := m.Events()
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Message
	}
	return out
}
