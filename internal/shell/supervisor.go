package shell

import (
	"fmt"
	"io"
	"os/exec"
	"sync"

	"go.uber.org/zap"

	"github.com/cygnusterm/cygnus/internal/infrastructure/logging"
)

// SessionState is the lifecycle state of the background sentinel process.
type SessionState int32

const (
	StateStarting SessionState = iota
	StateRunning
	StateCrashed
	StateStopped
)

// String returns the lowercase state name.
func (s SessionState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateCrashed:
		return "crashed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Supervisor spawns and monitors the long-lived background session process.
// The sentinel executes no user commands; it exists so an externally killed
// shell is detected and replaced. On an unexpected exit the supervisor
// restarts it exactly once per crash, preserving the working directory and
// the history buffer, and appends a "Shell restarted" notification. If that
// restart itself fails the session stays crashed and no further attempts are
// made.
type Supervisor struct {
	session     *Session
	history     *History
	sink        EventSink
	logger      *logging.Logger
	interpreter string

	mu       sync.Mutex
	state    SessionState
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stopping bool

	onCrash   func() // optional, called once per detected crash
	onRestart func() // optional, called once per successful restart
}

// NewSupervisor creates a supervisor for the session's sentinel process.
func NewSupervisor(session *Session, history *History, sink EventSink, logger *logging.Logger) *Supervisor {
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Supervisor{
		session:     session,
		history:     history,
		sink:        sink,
		logger:      logger,
		interpreter: DefaultInterpreter,
		state:       StateStarting,
	}
}

// SetInterpreter overrides the shell used for the sentinel.
func (sv *Supervisor) SetInterpreter(path string) {
	if path != "" {
		sv.interpreter = path
	}
}

// SetCrashHooks registers callbacks invoked on crash detection and on
// successful restart. Must be set before Start.
func (sv *Supervisor) SetCrashHooks(onCrash, onRestart func()) {
	sv.onCrash = onCrash
	sv.onRestart = onRestart
}

// Start spawns the sentinel bound to the current working directory and
// launches the monitor goroutine.
func (sv *Supervisor) Start() error {
	sv.mu.Lock()
	defer sv.mu.Unlock()

	if sv.state == StateRunning {
		return nil
	}
	if sv.stopping {
		return ErrSessionStopped
	}
	if err := sv.spawnLocked(); err != nil {
		return err
	}
	sv.logger.Info("Shell session started",
		zap.Int("pid", sv.cmd.Process.Pid),
		zap.String("cwd", sv.session.Cwd()),
	)
	return nil
}

// State returns the sentinel's lifecycle state.
func (sv *Supervisor) State() SessionState {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return sv.state
}

// Stop shuts the sentinel down. The exit is not treated as a crash and no
// restart happens.
func (sv *Supervisor) Stop() {
	sv.mu.Lock()
	sv.stopping = true
	cmd := sv.cmd
	stdin := sv.stdin
	sv.state = StateStopped
	sv.mu.Unlock()

	if stdin != nil {
		stdin.Close()
	}
	if cmd != nil && cmd.Process != nil {
		cmd.Process.Kill()
	}
	sv.logger.Info("Shell session stopped")
}

// spawnLocked starts a fresh sentinel. Caller holds sv.mu.
func (sv *Supervisor) spawnLocked() error {
	cmd := exec.Command(sv.interpreter)
	cmd.Dir = sv.session.Cwd()
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	// The sentinel idles on a pipe we never write to, so it lives until
	// killed or explicitly stopped.
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	sv.cmd = cmd
	sv.stdin = stdin
	sv.state = StateRunning
	go sv.monitor(cmd)
	return nil
}

// monitor awaits the sentinel's exit and drives crash recovery.
func (sv *Supervisor) monitor(cmd *exec.Cmd) {
	err := cmd.Wait()

	sv.mu.Lock()
	if sv.stopping || sv.cmd != cmd {
		sv.mu.Unlock()
		return
	}

	sv.state = StateCrashed
	sv.logger.Warn("Shell session crashed unexpectedly",
		zap.Int("pid", cmd.Process.Pid),
		zap.Error(err),
	)
	if sv.onCrash != nil {
		sv.onCrash()
	}

	// Single unconditional restart, cwd and history preserved.
	if spawnErr := sv.spawnLocked(); spawnErr != nil {
		sv.mu.Unlock()
		sv.logger.Error("Shell session failed to restart", zap.Error(spawnErr))
		sv.notify(NewNotification(
			fmt.Sprintf("Shell session failed to restart: %v", spawnErr),
			LevelError,
		))
		return
	}
	pid := sv.cmd.Process.Pid
	sv.mu.Unlock()

	sv.logger.Warn("Shell restarted", zap.Int("pid", pid))
	if sv.onRestart != nil {
		sv.onRestart()
	}
	sv.notify(NewNotification("Shell restarted", LevelWarning))
}

func (sv *Supervisor) notify(e Entry) {
	sv.history.Push(e)
	sv.sink.Notification(e)
}
