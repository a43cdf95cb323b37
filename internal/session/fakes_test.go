package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrymomot/wagate/internal/credentials"
)

type sentMessage struct {
	to, text string
}

type fakeHandle struct {
	mu        sync.Mutex
	sent      []sentMessage
	sendErr   error
	logoutErr error
	logouts   int
	closed    bool
	onLogout  func()
}

func (h *fakeHandle) Send(_ context.Context, to, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sendErr != nil {
		return h.sendErr
	}
	h.sent = append(h.sent, sentMessage{to: to, text: text})
	return nil
}

func (h *fakeHandle) Logout(context.Context) error {
	h.mu.Lock()
	h.logouts++
	hook := h.onLogout
	err := h.logoutErr
	h.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *fakeHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *fakeHandle) messages() []sentMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]sentMessage(nil), h.sent...)
}

// fakeEngine records every Connect call and lets tests emit events on the
// handler of any attempt.
type fakeEngine struct {
	mu       sync.Mutex
	err      error
	creds    []credentials.Bundle
	handlers []func(Event)
	handles  []*fakeHandle
	// during runs inside Connect before it returns.
	during func(emit func(Event))
	// failAfter makes Connect fail once during has returned.
	failAfter error
}

func (e *fakeEngine) Connect(_ context.Context, creds credentials.Bundle, handler func(Event)) (Handle, error) {
	e.mu.Lock()
	e.creds = append(e.creds, creds)
	if e.err != nil {
		err := e.err
		e.mu.Unlock()
		return nil, err
	}
	h := &fakeHandle{}
	e.handlers = append(e.handlers, handler)
	e.handles = append(e.handles, h)
	during := e.during
	failAfter := e.failAfter
	e.mu.Unlock()

	if during != nil {
		during(handler)
	}
	if failAfter != nil {
		return nil, failAfter
	}
	return h, nil
}

func (e *fakeEngine) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.during = nil
	e.failAfter = nil
}

func (e *fakeEngine) connects() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.creds)
}

// emit sends ev through the handler of attempt i (0-based).
func (e *fakeEngine) emit(i int, ev Event) {
	e.mu.Lock()
	handler := e.handlers[i]
	e.mu.Unlock()
	handler(ev)
}

// emitLast sends ev through the most recent handler.
func (e *fakeEngine) emitLast(ev Event) {
	e.mu.Lock()
	handler := e.handlers[len(e.handlers)-1]
	e.mu.Unlock()
	handler(ev)
}

func (e *fakeEngine) handle(i int) *fakeHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handles[i]
}

func (e *fakeEngine) lastHandle() *fakeHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handles[len(e.handles)-1]
}

type manualTimer struct {
	mu      sync.Mutex
	delay   time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *manualTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// fire runs the callback unless the timer was stopped.
func (t *manualTimer) fire() {
	if t.isStopped() {
		return
	}
	t.f()
}

// fireAnyway runs the callback even if Stop won the race, as a real timer
// that already fired would.
func (t *manualTimer) fireAnyway() {
	t.f()
}

type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (s *manualScheduler) schedule(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *manualScheduler) last() *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers[len(s.timers)-1]
}

type fakeSink struct {
	mu         sync.Mutex
	challenges []string
	clears     int
}

func (s *fakeSink) Deliver(ch string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges = append(s.challenges, ch)
}

func (s *fakeSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
}

func (s *fakeSink) delivered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.challenges...)
}

func (s *fakeSink) clearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

// failingStore wraps a MemoryStore and fails Clear.
type failingStore struct {
	*credentials.MemoryStore
}

func (failingStore) Clear(context.Context) error {
	return errors.New("disk full")
}

// hookStore wraps a MemoryStore and runs onClear before clearing.
type hookStore struct {
	*credentials.MemoryStore
	onClear func()
}

func (s *hookStore) Clear(ctx context.Context) error {
	if hook := s.onClear; hook != nil {
		s.onClear = nil
		hook()
	}
	return s.MemoryStore.Clear(ctx)
}

// gatedSink blocks its first Clear until release is closed.
type gatedSink struct {
	fakeSink
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedSink() *gatedSink {
	return &gatedSink{entered: make(chan struct{}), release: make(chan struct{})}
}

func (s *gatedSink) Clear() {
	first := false
	s.once.Do(func() { first = true })
	s.fakeSink.Clear()
	if first {
		close(s.entered)
		<-s.release
	}
}
