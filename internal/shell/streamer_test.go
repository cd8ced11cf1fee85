package shell

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures forwarded events in order.
type recordingSink struct {
	mu            sync.Mutex
	lines         []Entry
	notifications []Entry
}

func (r *recordingSink) OutputLine(e Entry) {
	r.mu.Lock()
	r.lines = append(r.lines, e)
	r.mu.Unlock()
}

func (r *recordingSink) Notification(e Entry) {
	r.mu.Lock()
	r.notifications = append(r.notifications, e)
	r.mu.Unlock()
}

func (r *recordingSink) outputLines() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.lines...)
}

func (r *recordingSink) notificationEntries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.notifications...)
}

func TestStreamerSplitsLines(t *testing.T) {
	h := NewHistory(100)
	sink := &recordingSink{}
	st := NewStreamer(h, sink)

	st.Stream(strings.NewReader("one\ntwo\nthree\n"), KindStdout)

	snap := h.Snapshot()
	require.Equal(t, []string{"one", "two", "three"}, texts(snap))
	for _, e := range snap {
		assert.Equal(t, KindStdout, e.Kind)
	}
	assert.Equal(t, texts(snap), texts(sink.outputLines()))
}

func TestStreamerFlushesPartialFinalLine(t *testing.T) {
	h := NewHistory(100)
	st := NewStreamer(h, nil)

	st.Stream(strings.NewReader("complete\npartial"), KindStdout)

	assert.Equal(t, []string{"complete", "partial"}, texts(h.Snapshot()))
}

func TestStreamerHandlesCRLF(t *testing.T) {
	h := NewHistory(100)
	st := NewStreamer(h, nil)

	st.Stream(strings.NewReader("dos\r\nunix\n"), KindStdout)

	assert.Equal(t, []string{"dos", "unix"}, texts(h.Snapshot()))
}

func TestStreamerTagsStderr(t *testing.T) {
	h := NewHistory(100)
	st := NewStreamer(h, nil)

	st.Stream(strings.NewReader("boom\n"), KindStderr)

	snap := h.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, KindStderr, snap[0].Kind)
	assert.Equal(t, "boom", snap[0].Text)
}

func TestStreamerCapsLongLines(t *testing.T) {
	h := NewHistory(100)
	st := NewStreamer(h, nil)

	long := strings.Repeat("z", MaxLineLength+100)
	st.Stream(strings.NewReader(long+"\n"), KindStdout)

	snap := h.Snapshot()
	require.Len(t, snap, 1)
	assert.True(t, strings.HasSuffix(snap[0].Text, TruncationMarker))
}

func TestStreamerEmptyInput(t *testing.T) {
	h := NewHistory(100)
	st := NewStreamer(h, nil)

	st.Stream(strings.NewReader(""), KindStdout)

	assert.Equal(t, 0, h.Len())
}

func TestStreamerLineHook(t *testing.T) {
	h := NewHistory(100)
	st := NewStreamer(h, nil)

	var kinds []EntryKind
	st.SetLineHook(func(kind EntryKind) { kinds = append(kinds, kind) })

	st.Stream(strings.NewReader("a\nb\n"), KindStderr)

	assert.Equal(t, []EntryKind{KindStderr, KindStderr}, kinds)
}

func TestStreamerGoTracksWaitGroup(t *testing.T) {
	h := NewHistory(100)
	st := NewStreamer(h, nil)

	var wg sync.WaitGroup
	st.Go(strings.NewReader("x\ny\n"), KindStdout, &wg)
	wg.Wait()

	assert.Equal(t, []string{"x", "y"}, texts(h.Snapshot()))
}
