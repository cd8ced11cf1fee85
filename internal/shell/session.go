package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Session tracks the working directory, busy flag, and the handle of the
// currently running command process. The busy flag and the active handle are
// guarded by one mutex so the check-and-set on admission is atomic.
type Session struct {
	mu     sync.Mutex
	cwd    string
	busy   bool
	active *os.Process
}

// NewSession creates a session rooted at the given working directory. An
// empty cwd falls back to the process's working directory, then the home
// directory, then the filesystem root.
func NewSession(cwd string) *Session {
	if cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			cwd = wd
		} else if home, err := os.UserHomeDir(); err == nil {
			cwd = home
		} else {
			cwd = string(os.PathSeparator)
		}
	}
	return &Session{cwd: cwd}
}

// Cwd returns the current working directory.
func (s *Session) Cwd() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cwd
}

// Busy reports whether a command is currently running.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// ChangeDirectory validates the target path, resolving relative paths
// against the current working directory, and swaps the cwd on success.
// Returns the new absolute path. The session state is untouched on failure.
func (s *Session) ChangeDirectory(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(s.Cwd(), target)
	}

	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: not a directory: %s", ErrInvalidPath, abs)
	}

	s.mu.Lock()
	s.cwd = abs
	s.mu.Unlock()
	return abs, nil
}

// tryAcquire atomically flips busy from false to true. Returns false if a
// command is already running.
func (s *Session) tryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

// setActive records the running command's process handle. Only valid while
// busy is held.
func (s *Session) setActive(p *os.Process) {
	s.mu.Lock()
	s.active = p
	s.mu.Unlock()
}

// release clears the busy flag and the active handle.
func (s *Session) release() {
	s.mu.Lock()
	s.busy = false
	s.active = nil
	s.mu.Unlock()
}

// activeProcess returns the running command's handle, or nil when idle.
func (s *Session) activeProcess() *os.Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.busy {
		return nil
	}
	return s.active
}
