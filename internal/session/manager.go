package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/wagate/internal/credentials"
	"github.com/dmitrymomot/wagate/pkg/logger"
	"github.com/dmitrymomot/wagate/pkg/statemachine"
)

// ConnectResult tells how RequestConnect handled the request.
type ConnectResult int

const (
	// ConnectStarted means a new connection attempt was started.
	ConnectStarted ConnectResult = iota + 1
	// ConnectRestarted means the session left LoggedOut and started over.
	ConnectRestarted
	// ConnectPending means an attempt was already in flight.
	ConnectPending
)

func (r ConnectResult) String() string {
	switch r {
	case ConnectStarted:
		return "started"
	case ConnectRestarted:
		return "restarted"
	case ConnectPending:
		return "pending"
	default:
		return "unknown"
	}
}

// Manager owns the engine handle and the session lifecycle. It is safe for
// concurrent use.
type Manager struct {
	engine   Engine
	store    credentials.Store
	sink     ChallengeSink
	log      *slog.Logger
	delay    time.Duration
	domain   string
	schedule Scheduler

	mu         sync.Mutex
	fsm        *statemachine.Machine
	handle     Handle
	dialing    bool
	loggingOut bool
	gen        uint64
	timer      Timer
	backlog    []Event
	// clears counts credential wipes; a pending Save from an older epoch is dropped.
	clears uint64

	// storeMu orders credential writes against wipes. Taken before mu.
	storeMu sync.Mutex
}

// New creates a Manager in the Disconnected state.
func New(engine Engine, store credentials.Store, opts ...Option) (*Manager, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if store == nil {
		return nil, ErrNilStore
	}

	m := &Manager{
		engine:   engine,
		store:    store,
		sink:     noopSink{},
		log:      logger.Discard(),
		delay:    DefaultReconnectDelay,
		domain:   DefaultRecipientDomain,
		schedule: afterFunc,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(slog.String("component", "session"))
	m.fsm = newLifecycle(func(from, to statemachine.State, event statemachine.Event) {
		m.log.Debug("session transition",
			logger.Transition(from.Name(), to.Name()),
			slog.String("event", event.Name()),
		)
	})
	return m, nil
}

// Status returns the current lifecycle state.
func (m *Manager) Status() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return stateOf(m.fsm.Current())
}

// LoggedIn reports whether the session is Connected.
func (m *Manager) LoggedIn() bool {
	return m.Status() == StateConnected
}

// Start begins a connection attempt and waits for the engine to accept it.
// It reports ErrConnectInProgress when an attempt is in flight or a handle
// is live, and ErrEngineInit when the engine could not be started.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	gen, err := m.beginDialLocked(ctx)
	m.mu.Unlock()
	if err != nil {
		if errors.Is(err, ErrConnectInProgress) {
			m.log.InfoContext(ctx, "connect skipped", logger.Error(err))
		}
		return err
	}
	return m.connect(ctx, gen)
}

// RequestConnect starts a connection attempt in the background. It fails
// with ErrAlreadyConnected when the session is Connected and restarts the
// lifecycle when the session was logged out.
func (m *Manager) RequestConnect(ctx context.Context) (ConnectResult, error) {
	m.mu.Lock()
	if m.fsm.Is(StateConnected) {
		m.mu.Unlock()
		return 0, ErrAlreadyConnected
	}
	if m.dialing || m.handle != nil {
		m.mu.Unlock()
		return ConnectPending, nil
	}

	result := ConnectStarted
	if m.fsm.Is(StateLoggedOut) {
		result = ConnectRestarted
	}
	gen, err := m.beginDialLocked(ctx)
	m.mu.Unlock()
	if err != nil {
		return 0, err
	}

	go m.connectAsync(context.WithoutCancel(ctx), gen)
	return result, nil
}

// Logout invalidates the remote session, clears the stored credentials and
// leaves the session LoggedOut. Local teardown always completes; an engine
// failure is reported afterwards as ErrEngineLogout.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.loggingOut || m.fsm.Is(StateDisconnected, StateLoggedOut) {
		m.mu.Unlock()
		return ErrNoActiveSession
	}
	m.loggingOut = true
	m.clears++
	m.stopTimerLocked()
	h := m.handle
	m.mu.Unlock()

	m.log.InfoContext(ctx, "logging out")

	var engineErr error
	if h != nil {
		engineErr = h.Logout(ctx)
	}
	if err := m.clearCredentials(ctx); err != nil {
		m.log.ErrorContext(ctx, "failed to clear credentials", logger.Error(err))
	}

	m.mu.Lock()
	m.gen++
	m.dialing = false
	m.backlog = nil
	m.stopTimerLocked()
	old := m.handle
	m.handle = nil
	if !m.fsm.Is(StateLoggedOut) {
		m.fireLocked(ctx, evLogout)
	}
	m.loggingOut = false
	m.mu.Unlock()

	m.sink.Clear()
	if old != nil {
		m.closeHandle(old)
	}

	if engineErr != nil {
		m.log.ErrorContext(ctx, "engine logout failed", logger.Error(engineErr))
		return errors.Join(ErrEngineLogout, engineErr)
	}
	m.log.InfoContext(ctx, "logged out")
	return nil
}

// Send delivers text to recipient over the live connection. A bare phone
// number is addressed with the configured recipient domain.
func (m *Manager) Send(ctx context.Context, recipient, text string) error {
	m.mu.Lock()
	h := m.handle
	connected := m.fsm.Is(StateConnected)
	m.mu.Unlock()

	if !connected || h == nil {
		return ErrNotConnected
	}

	to := m.Address(recipient)
	if err := h.Send(ctx, to, text); err != nil {
		m.log.WarnContext(ctx, "message delivery failed", logger.Recipient(to), logger.Error(err))
		return errors.Join(ErrDeliveryFailed, err)
	}
	m.log.DebugContext(ctx, "message sent", logger.Recipient(to))
	return nil
}

// Address turns a bare phone number into a network address. Recipients
// already containing "@" are returned unchanged.
func (m *Manager) Address(recipient string) string {
	recipient = strings.TrimSpace(recipient)
	if strings.Contains(recipient, "@") {
		return recipient
	}
	recipient = strings.TrimPrefix(recipient, "+")
	return recipient + "@" + m.domain
}

// Run starts the session and keeps it alive until ctx is done, then shuts
// it down without logging out.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil && !errors.Is(err, ErrConnectInProgress) {
		m.log.ErrorContext(ctx, "initial connect failed", logger.Error(err))
	}
	<-ctx.Done()
	m.Shutdown()
	return nil
}

// Shutdown cancels any pending reconnect and closes the live handle. The
// stored credentials are kept so the next start resumes the session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.stopTimerLocked()
	m.gen++
	m.dialing = false
	m.backlog = nil
	h := m.handle
	m.handle = nil
	if m.fsm.Is(StateConnecting, StateAwaitingPairing, StateConnected) {
		m.fireLocked(context.Background(), evShutdown)
	}
	m.mu.Unlock()

	if h != nil {
		m.closeHandle(h)
	}
	m.log.Info("session shut down")
}

// beginDialLocked moves the lifecycle into Connecting and opens a new
// generation. Callers hold m.mu.
func (m *Manager) beginDialLocked(ctx context.Context) (uint64, error) {
	if m.dialing || m.handle != nil {
		return 0, ErrConnectInProgress
	}
	if m.fsm.Is(StateLoggedOut) {
		m.loggingOut = false
		if err := m.fireLocked(ctx, evReset); err != nil {
			return 0, err
		}
	}
	if err := m.fireLocked(ctx, evDial); err != nil {
		return 0, err
	}

	m.stopTimerLocked()
	m.gen++
	m.dialing = true
	m.backlog = nil
	return m.gen, nil
}

func (m *Manager) connectAsync(ctx context.Context, gen uint64) {
	defer m.recoverPanic("connect")
	if err := m.connect(ctx, gen); err != nil {
		m.log.ErrorContext(ctx, "connect failed", logger.Error(err))
	}
}

// connect asks the engine for a new handle for generation gen and installs
// it, replaying events the engine reported while Connect was running.
func (m *Manager) connect(ctx context.Context, gen uint64) error {
	log := m.log.With(logger.Generation(gen))
	log.InfoContext(ctx, "connecting")

	creds, err := m.store.Load(ctx)
	var h Handle
	if err == nil {
		h, err = m.engine.Connect(ctx, creds, m.dispatcher(gen))
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		log.InfoContext(ctx, "connection attempt superseded")
		if h != nil {
			m.closeHandle(h)
		}
		return nil
	}

	m.dialing = false
	if err != nil || h == nil {
		// Events the failed attempt may still report must not apply.
		m.gen++
		m.backlog = nil
		m.fireLocked(ctx, evFail)
		m.mu.Unlock()
		if err == nil {
			err = errNoHandle
		}
		log.ErrorContext(ctx, "engine failed to initialize", logger.Error(err))
		if h != nil {
			m.closeHandle(h)
		}
		return errors.Join(ErrEngineInit, err)
	}

	m.handle = h
	backlog := m.backlog
	m.backlog = nil

	var effects []func()
	for _, ev := range backlog {
		if gen != m.gen {
			break
		}
		effects = append(effects, m.applyLocked(ev)...)
	}
	m.mu.Unlock()

	run(effects)
	return nil
}

// dispatcher returns the event handler bound to generation gen.
func (m *Manager) dispatcher(gen uint64) func(Event) {
	return func(ev Event) {
		defer m.recoverPanic("event handler")

		m.mu.Lock()
		if gen != m.gen {
			m.mu.Unlock()
			m.log.Debug("dropping event from superseded connection",
				slog.String("event", ev.Kind.String()),
				logger.Generation(gen),
			)
			return
		}
		if m.dialing {
			m.backlog = append(m.backlog, ev)
			m.mu.Unlock()
			return
		}
		effects := m.applyLocked(ev)
		m.mu.Unlock()

		run(effects)
	}
}

// applyLocked updates the lifecycle for ev and returns the side effects to
// run once m.mu is released. Callers hold m.mu.
func (m *Manager) applyLocked(ev Event) []func() {
	ctx := context.Background()

	switch ev.Kind {
	case EventOpen:
		if !m.fsm.Is(StateConnecting, StateAwaitingPairing) {
			return nil
		}
		m.loggingOut = false
		m.fireLocked(ctx, evOpen)
		m.log.Info("session connected", logger.Generation(m.gen))
		return []func(){m.sink.Clear}

	case EventPairingChallenge:
		if m.fsm.Is(StateConnected) || ev.Challenge == "" {
			return nil
		}
		m.fireLocked(ctx, evChallenge)
		challenge := ev.Challenge
		return []func(){func() { m.sink.Deliver(challenge) }}

	case EventCredentialsUpdate:
		if m.loggingOut || len(ev.Credentials) == 0 {
			return nil
		}
		update := ev.Credentials.Clone()
		epoch := m.clears
		return []func(){func() { m.saveCredentials(ctx, update, epoch) }}

	case EventClose:
		return m.closeLocked(ctx, ev)

	default:
		m.log.Warn("unknown engine event", slog.String("event", ev.Kind.String()))
		return nil
	}
}

func (m *Manager) closeLocked(ctx context.Context, ev Event) []func() {
	reason := Classify(ev.StatusCode)
	m.log.Info("connection closed",
		logger.Reason(reason.String(), ev.StatusCode),
		logger.Error(ev.Err),
		logger.Generation(m.gen),
	)

	var effects []func()
	if old := m.handle; old != nil {
		effects = append(effects, func() { m.closeHandle(old) })
	}
	m.handle = nil
	m.gen++
	m.stopTimerLocked()

	switch {
	case m.loggingOut:
		m.fireLocked(ctx, evLogout)

	case reason == Unauthorized:
		m.fireLocked(ctx, evRevoke)
		m.clears++
		effects = append(effects, m.sink.Clear, func() {
			if err := m.clearCredentials(ctx); err != nil {
				m.log.Error("failed to clear revoked credentials", logger.Error(err))
			}
		})

	default:
		m.fireLocked(ctx, evDrop)
		gen := m.gen
		m.timer = m.schedule(m.delay, func() { m.reconnect(gen) })
		m.log.Info("reconnect scheduled", logger.Duration(m.delay))
	}
	return effects
}

// saveCredentials persists update unless the credentials were wiped after
// the update was received.
func (m *Manager) saveCredentials(ctx context.Context, update credentials.Bundle, epoch uint64) {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	m.mu.Lock()
	stale := epoch != m.clears || m.loggingOut
	m.mu.Unlock()
	if stale {
		m.log.Debug("dropping credentials update after wipe")
		return
	}
	if err := m.store.Save(ctx, update); err != nil {
		m.log.Error("failed to persist credentials", logger.Error(err))
	}
}

func (m *Manager) clearCredentials(ctx context.Context) error {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()
	return m.store.Clear(ctx)
}

// reconnect is the timer callback. It only dials when nothing has happened
// to the session since the timer was scheduled.
func (m *Manager) reconnect(gen uint64) {
	defer m.recoverPanic("reconnect")

	m.mu.Lock()
	if gen != m.gen || m.loggingOut || !m.fsm.Is(StateConnecting) || m.handle != nil || m.dialing {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	next, err := m.beginDialLocked(context.Background())
	m.mu.Unlock()
	if err != nil {
		m.log.Warn("reconnect skipped", logger.Error(err))
		return
	}

	if err := m.connect(context.Background(), next); err != nil {
		m.log.Error("reconnect failed", logger.Error(err))
	}
}

// fireLocked applies a lifecycle event. A rejected event is a bug in the
// dispatch logic; it is logged and the state is left unchanged.
func (m *Manager) fireLocked(ctx context.Context, ev statemachine.Event) error {
	if err := m.fsm.Fire(ev); err != nil {
		m.log.ErrorContext(ctx, "invalid session transition",
			logger.State(m.fsm.Current().Name()),
			slog.String("event", ev.Name()),
			logger.Error(err),
		)
		return err
	}
	return nil
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) closeHandle(h Handle) {
	if err := h.Close(); err != nil {
		m.log.Debug("closing engine handle", logger.Error(err))
	}
}

func (m *Manager) recoverPanic(where string) {
	if r := recover(); r != nil {
		m.log.Error("recovered panic", slog.String("where", where), slog.String("panic", fmt.Sprint(r)))
	}
}

func run(effects []func()) {
	for _, f := range effects {
		f()
	}
}
