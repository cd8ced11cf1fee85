package shell

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

// Streamer converts a process's raw pipe bytes into discrete line entries.
// Each complete line is pushed into history first, then forwarded to the
// event sink. Per-stream order is preserved; interleaving between stdout and
// stderr is best-effort.
type Streamer struct {
	history *History
	sink    EventSink
	onLine  func(kind EntryKind) // optional, called once per produced line
}

// NewStreamer creates a streamer writing into the given history and sink.
func NewStreamer(history *History, sink EventSink) *Streamer {
	if sink == nil {
		sink = NopSink{}
	}
	return &Streamer{history: history, sink: sink}
}

// SetLineHook registers a callback invoked for every produced line. Must be
// set before streaming starts.
func (st *Streamer) SetLineHook(fn func(kind EntryKind)) {
	st.onLine = fn
}

// Go starts a reader goroutine for one pipe, tracked by wg.
func (st *Streamer) Go(r io.Reader, kind EntryKind, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		st.Stream(r, kind)
	}()
}

// Stream reads the pipe until EOF, emitting one entry per line. A partial
// final line with no terminator is flushed when the pipe closes.
func (st *Streamer) Stream(r io.Reader, kind EntryKind) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			st.emit(kind, trimLineEnding(line))
		}
		if err != nil {
			// io.EOF when the process closes its pipe; read errors also end
			// the stream, everything read so far has already been flushed.
			return
		}
	}
}

func (st *Streamer) emit(kind EntryKind, text string) {
	entry := NewLine(kind, text)
	st.history.Push(entry)
	st.sink.OutputLine(entry)
	if st.onLine != nil {
		st.onLine(kind)
	}
}

func trimLineEnding(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
