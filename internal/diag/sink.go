// Package diag records per-step simulation events to an append-only line log
// without stalling the physics loop.
//
// Producers enqueue with a non-blocking send; when the queue is full the event is
// dropped and counted. One consumer goroutine owns the writer, so every line is
// written whole. Close marks the queue closed, lets the consumer drain what is
// left and then flushes and closes the underlying file.
package diag

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const DefaultQueueSize = 1024

var ErrClosed = errors.New("diag: sink closed")

type Sink struct {
	log    *zap.Logger
	w      *bufio.Writer
	closer io.Closer

	mu     sync.RWMutex
	closed bool
	queue  chan string
	done   chan struct{}

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// New starts a sink writing to w. If w is an io.Closer it is closed by Close.
func New(w io.Writer, size int, log *zap.Logger) *Sink {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Sink{
		log:   log,
		w:     bufio.NewWriter(w),
		queue: make(chan string, size),
		done:  make(chan struct{}),
	}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	go s.consume()
	return s
}

// Open appends to the file at path, creating it if needed.
func Open(path string, size int, log *zap.Logger) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("diag: open %s: %w", path, err)
	}
	return New(f, size, log), nil
}

// Emit enqueues one event. It never blocks; it reports false when the event was
// dropped because the queue is full or the sink is closed.
func (s *Sink) Emit(event string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return false
	}
	select {
	case s.queue <- event:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

func (s *Sink) Emitf(format string, args ...any) bool {
	return s.Emit(fmt.Sprintf(format, args...))
}

func (s *Sink) consume() {
	defer close(s.done)
	for event := range s.queue {
		s.write(event)
		if len(s.queue) == 0 {
			s.flush()
		}
	}
	s.flush()
}

func (s *Sink) write(event string) {
	line := strings.ReplaceAll(event, "\n", " ") + "\n"
	if _, err := s.w.WriteString(line); err != nil {
		s.fail("write", err)
		return
	}
	s.written.Add(1)
}

func (s *Sink) flush() {
	if err := s.w.Flush(); err != nil {
		s.fail("flush", err)
	}
}

// fail logs and swallows an I/O error; diagnostics never reach the physics path.
func (s *Sink) fail(op string, err error) {
	if s.failed.Add(1) == 1 {
		s.log.Warn("diagnostics write failed", zap.String("op", op), zap.Error(err))
		return
	}
	s.log.Debug("diagnostics write failed", zap.String("op", op), zap.Error(err))
}

// Close stops accepting events, waits for the consumer to drain the queue and
// closes the underlying writer. Calls after the first return ErrClosed.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			s.log.Warn("diagnostics close failed", zap.Error(err))
			return err
		}
	}
	return nil
}

func (s *Sink) Written() uint64 { return s.written.Load() }
func (s *Sink) Dropped() uint64 { return s.dropped.Load() }
func (s *Sink) Failed() uint64  { return s.failed.Load() }
