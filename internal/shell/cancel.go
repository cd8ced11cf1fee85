package shell

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cygnusterm/cygnus/internal/infrastructure/logging"
)

// Canceller delivers an interrupt signal to the currently active command
// process. It never terminates the process forcibly and never clears the
// busy flag itself; busy clears when the executor observes the child's
// natural termination.
type Canceller struct {
	session *Session
	logger  *logging.Logger
}

// NewCanceller creates a canceller bound to the session.
func NewCanceller(session *Session, logger *logging.Logger) *Canceller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Canceller{session: session, logger: logger}
}

// Cancel sends an interrupt to the active command. Returns ErrNotRunning
// when no command is active. A process that exited between the check and the
// signal counts as a successful no-op.
func (c *Canceller) Cancel() error {
	proc := c.session.activeProcess()
	if proc == nil {
		c.logger.Warn("Cancel requested but no command is running")
		return ErrNotRunning
	}

	c.logger.Info("Sending interrupt to running command", zap.Int("pid", proc.Pid))
	if err := proc.Signal(os.Interrupt); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return fmt.Errorf("failed to send interrupt: %w", err)
	}
	return nil
}
