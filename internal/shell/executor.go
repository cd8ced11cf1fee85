package shell

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cygnusterm/cygnus/internal/infrastructure/logging"
)

// DefaultInterpreter runs submitted commands.
const DefaultInterpreter = "/bin/sh"

// Request describes one command submission.
type Request struct {
	Command string `json:"command" binding:"required"`
	// WorkingDir overrides the session cwd for this command only.
	WorkingDir string `json:"cwd,omitempty"`
}

// Result is the outcome of a completed command.
type Result struct {
	ExecutionID string  `json:"execution_id"`
	Success     bool    `json:"success"`
	ExitCode    *int    `json:"exit_code,omitempty"`
	Error       *string `json:"error,omitempty"`
}

// Executor owns one command's full lifecycle: admission, spawn, streaming,
// wait, result construction. At most one command runs at a time; a second
// execute fails fast with ErrBusy and never queues.
type Executor struct {
	session     *Session
	history     *History
	sink        EventSink
	streamer    *Streamer
	logger      *logging.Logger
	interpreter string
	onDone      func(success bool, d time.Duration) // optional completion hook
}

// NewExecutor creates an executor bound to the session and history.
func NewExecutor(session *Session, history *History, sink EventSink, streamer *Streamer, logger *logging.Logger) *Executor {
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		session:     session,
		history:     history,
		sink:        sink,
		streamer:    streamer,
		logger:      logger,
		interpreter: DefaultInterpreter,
	}
}

// SetInterpreter overrides the shell used to run commands.
func (ex *Executor) SetInterpreter(path string) {
	if path != "" {
		ex.interpreter = path
	}
}

// SetDoneHook registers a callback invoked after every completed command.
// Must be set before the executor is shared across goroutines.
func (ex *Executor) SetDoneHook(fn func(success bool, d time.Duration)) {
	ex.onDone = fn
}

// Execute runs one command to completion, streaming its output line by line
// into history and the event sink. Returns the result once the child exits.
//
// Validation and the busy check happen before any side effect: a rejected
// request spawns no process and mutates no buffer.
func (ex *Executor) Execute(req Request) (*Result, error) {
	command := strings.TrimSpace(req.Command)
	if command == "" {
		return nil, ErrEmptyCommand
	}

	workingDir := req.WorkingDir
	if workingDir != "" {
		info, err := os.Stat(workingDir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidPath, workingDir)
		}
	}

	if !ex.session.tryAcquire() {
		ex.logger.Warn("Rejected command while busy", zap.String("command", command))
		return nil, ErrBusy
	}
	defer ex.session.release()

	if workingDir == "" {
		workingDir = ex.session.Cwd()
	}

	execID := uuid.NewString()
	started := time.Now()
	ex.logger.Info("Executing command",
		zap.String("execution_id", execID),
		zap.String("command", command),
		zap.String("cwd", workingDir),
	)

	cmdEntry := NewCommand(command)
	ex.history.Push(cmdEntry)
	ex.sink.OutputLine(cmdEntry)

	cmd := exec.Command(ex.interpreter, "-c", command)
	cmd.Dir = workingDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		ex.logger.Error("Failed to spawn process", zap.String("execution_id", execID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	ex.session.setActive(cmd.Process)
	ex.logger.Debug("Process spawned",
		zap.String("execution_id", execID),
		zap.Int("pid", cmd.Process.Pid),
	)

	var readers sync.WaitGroup
	ex.streamer.Go(stdout, KindStdout, &readers)
	ex.streamer.Go(stderr, KindStderr, &readers)

	// Both pipes must be drained before Wait releases their fds.
	readers.Wait()

	waitErr := cmd.Wait()
	duration := time.Since(started)

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		ex.logger.Error("Failed to wait for process",
			zap.String("execution_id", execID),
			zap.Error(waitErr),
		)
		if ex.onDone != nil {
			ex.onDone(false, duration)
		}
		return nil, fmt.Errorf("%w: %v", ErrWait, waitErr)
	}

	exitCode := cmd.ProcessState.ExitCode()
	success := exitCode == 0

	ex.logger.Info("Command completed",
		zap.String("execution_id", execID),
		zap.Int("exit_code", exitCode),
		zap.Bool("success", success),
		zap.Duration("duration", duration),
	)
	if ex.onDone != nil {
		ex.onDone(success, duration)
	}

	result := &Result{ExecutionID: execID, Success: success, ExitCode: &exitCode}
	if !success {
		msg := fmt.Sprintf("Command exited with code %d", exitCode)
		result.Error = &msg
	}
	return result, nil
}
