// Command server runs the Cygnus shell service: an HTTP + WebSocket front
// for a single monitored shell session with line-streamed command execution,
// bounded history, and interrupt-based cancellation.
package main
