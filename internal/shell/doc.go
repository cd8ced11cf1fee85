// Package shell implements the process-lifecycle and output-management core
// of the terminal service.
//
// The core owns four pieces of state, all created once by NewManager and
// never shared mutably outside this package:
//   - History: bounded, eviction-aware store of everything produced
//   - Session: working directory, busy flag, active process handle
//   - Supervisor: background sentinel process with crash detection/restart
//   - Hub: live event fan-out to display-layer subscribers
//
// Control flow for one command: Executor checks the busy flag, appends a
// Command entry, spawns `sh -c <command>` against the session cwd, and a
// Streamer goroutine per pipe turns stdout/stderr bytes into line entries
// (history first, then the event hub). When the child exits the executor
// builds a Result and releases the busy flag. A Canceller may interrupt the
// child at any point; cancellation is cooperative at the OS level and the
// read loops drain naturally once the pipes close.
//
// Independently, the Supervisor monitors a long-lived sentinel shell. The
// sentinel runs no user commands; if it dies unexpectedly it is restarted
// once per crash, preserving cwd and history, and a "Shell restarted"
// notification is appended.
package shell
