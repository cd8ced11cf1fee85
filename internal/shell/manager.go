package shell

import (
	"fmt"
	"os"
	"time"

	"github.com/cygnusterm/cygnus/internal/infrastructure/logging"
	"github.com/cygnusterm/cygnus/internal/infrastructure/monitoring"
)

// Options configures a Manager.
type Options struct {
	// Interpreter is the shell binary used for commands and the sentinel.
	Interpreter string
	// InitialCwd roots the session; defaults to the process working dir.
	InitialCwd string
	// HistoryCapacity bounds the history buffer.
	HistoryCapacity int
	// EventBuffer is the per-subscriber live event channel size.
	EventBuffer int
}

// Manager is the core context created once at startup and passed by
// reference to every entry point. It exclusively owns the history buffer and
// the session state; callers interact only through its methods.
type Manager struct {
	history    *History
	session    *Session
	hub        *Hub
	executor   *Executor
	canceller  *Canceller
	supervisor *Supervisor
	logger     *logging.Logger
}

// NewManager wires the core together. Call Start to launch the background
// sentinel and Stop to shut it down.
func NewManager(opts Options, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}

	history := NewHistory(opts.HistoryCapacity)
	session := NewSession(opts.InitialCwd)
	hub := NewHub(opts.EventBuffer)
	streamer := NewStreamer(history, hub)
	executor := NewExecutor(session, history, hub, streamer, logger)
	executor.SetInterpreter(opts.Interpreter)
	canceller := NewCanceller(session, logger)
	supervisor := NewSupervisor(session, history, hub, logger)
	supervisor.SetInterpreter(opts.Interpreter)

	return &Manager{
		history:    history,
		session:    session,
		hub:        hub,
		executor:   executor,
		canceller:  canceller,
		supervisor: supervisor,
		logger:     logger,
	}
}

// WithMetrics wires prometheus counters into the core's hooks.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	if metrics == nil {
		return m
	}
	m.history.SetEvictionHook(metrics.RecordHistoryEviction)
	m.hub.SetDropHook(metrics.RecordDroppedEvent)
	m.executor.streamer.SetLineHook(func(kind EntryKind) {
		stream := "stdout"
		if kind == KindStderr {
			stream = "stderr"
		}
		metrics.RecordOutputLine(stream)
	})
	m.executor.SetDoneHook(func(success bool, d time.Duration) {
		metrics.RecordCommand(success, d)
	})
	m.supervisor.SetCrashHooks(metrics.RecordShellCrash, metrics.RecordShellRestart)
	return m
}

// Start launches the background sentinel process.
func (m *Manager) Start() error {
	return m.supervisor.Start()
}

// Stop shuts down the sentinel. Safe to call once at process shutdown.
func (m *Manager) Stop() {
	m.supervisor.Stop()
}

// Execute runs one command to completion. See Executor.Execute.
func (m *Manager) Execute(req Request) (*Result, error) {
	return m.executor.Execute(req)
}

// Cancel interrupts the active command. See Canceller.Cancel.
func (m *Manager) Cancel() error {
	return m.canceller.Cancel()
}

// History returns a snapshot of all entries in order.
func (m *Manager) History() []Entry {
	return m.history.Snapshot()
}

// Cwd returns the session's current working directory.
func (m *Manager) Cwd() string {
	return m.session.Cwd()
}

// Busy reports whether a command is currently running.
func (m *Manager) Busy() bool {
	return m.session.Busy()
}

// State returns the sentinel's lifecycle state.
func (m *Manager) State() SessionState {
	return m.supervisor.State()
}

// ChangeDirectory updates the session cwd after validating the target, then
// records and broadcasts an informational notification.
func (m *Manager) ChangeDirectory(path string) (string, error) {
	abs, err := m.session.ChangeDirectory(path)
	if err != nil {
		return "", err
	}
	note := NewNotification(fmt.Sprintf("Changed directory to: %s", abs), LevelInfo)
	m.history.Push(note)
	m.hub.Notification(note)
	return abs, nil
}

// HomeDir returns the current user's home directory.
func (m *Manager) HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home directory: %w", err)
	}
	return home, nil
}

// Subscribe registers a live event subscriber.
func (m *Manager) Subscribe() *Subscriber {
	return m.hub.Subscribe()
}

// Unsubscribe removes a live event subscriber.
func (m *Manager) Unsubscribe(sub *Subscriber) {
	m.hub.Unsubscribe(sub)
}
