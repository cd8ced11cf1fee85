package shell

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func texts(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

func countNotifications(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if e.Kind == KindNotification {
			n++
		}
	}
	return n
}

func TestHistoryPushAndSnapshot(t *testing.T) {
	h := NewHistory(100)

	h.Push(NewStdout("line1"))
	h.Push(NewStdout("line2"))

	require.Equal(t, 2, h.Len())
	assert.Equal(t, []string{"line1", "line2"}, texts(h.Snapshot()))
	assert.False(t, h.Warned())
}

func TestHistorySnapshotIsACopy(t *testing.T) {
	h := NewHistory(10)
	h.Push(NewStdout("original"))

	snap := h.Snapshot()
	snap[0].Text = "mutated"

	assert.Equal(t, "original", h.Snapshot()[0].Text)
}

func TestHistoryEvictionScenario(t *testing.T) {
	h := NewHistory(3)

	h.Push(NewStdout("A"))
	h.Push(NewStdout("B"))
	h.Push(NewStdout("C"))
	require.Equal(t, []string{"A", "B", "C"}, texts(h.Snapshot()))
	require.False(t, h.Warned())

	// First overflow: A evicted, warning inserted before D.
	h.Push(NewStdout("D"))
	snap := h.Snapshot()
	require.Equal(t, 4, len(snap))
	assert.Equal(t, "B", snap[0].Text)
	assert.Equal(t, "C", snap[1].Text)
	assert.Equal(t, KindNotification, snap[2].Kind)
	assert.Equal(t, LevelWarning, snap[2].Level)
	assert.Equal(t, "Output truncated: line limit (3) exceeded", snap[2].Text)
	assert.Equal(t, "D", snap[3].Text)
	assert.True(t, h.Warned())

	// Subsequent overflow: oldest evicted, no second warning, length stable.
	h.Push(NewStdout("E"))
	snap = h.Snapshot()
	require.Equal(t, 4, len(snap))
	assert.Equal(t, []string{"C", snap[1].Text, "D", "E"}, texts(snap))
	assert.Equal(t, KindNotification, snap[1].Kind)
	assert.Equal(t, 1, countNotifications(snap))
}

func TestHistoryWarningFlagSurvivesEviction(t *testing.T) {
	h := NewHistory(3)

	// Push enough that the warning itself ages out of the buffer.
	for i := 0; i < 20; i++ {
		h.Push(NewStdout(fmt.Sprintf("line%d", i)))
	}

	assert.True(t, h.Warned())
	assert.Equal(t, 0, countNotifications(h.Snapshot()))
	assert.Equal(t, 4, h.Len())
}

func TestHistoryEvictionHook(t *testing.T) {
	h := NewHistory(2)
	evicted := 0
	h.SetEvictionHook(func() { evicted++ })

	h.Push(NewStdout("a"))
	h.Push(NewStdout("b"))
	require.Equal(t, 0, evicted)

	h.Push(NewStdout("c"))
	assert.Equal(t, 1, evicted)
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(2)
	h.Push(NewStdout("a"))
	h.Push(NewStdout("b"))
	h.Push(NewStdout("c"))
	require.True(t, h.Warned())

	h.Clear()

	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Snapshot())
	assert.False(t, h.Warned())
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, DefaultHistoryCapacity, h.capacity)
}

func TestHistoryCapacityLaw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 50).Draw(t, "capacity")
		pushes := rapid.IntRange(0, 300).Draw(t, "pushes")

		h := NewHistory(capacity)
		for i := 0; i < pushes; i++ {
			h.Push(NewStdout(fmt.Sprintf("line%d", i)))
			if !h.Warned() && h.Len() > capacity {
				t.Fatalf("length %d exceeds capacity %d before first eviction", h.Len(), capacity)
			}
			if h.Len() > capacity+1 {
				t.Fatalf("length %d exceeds capacity+1 (%d)", h.Len(), capacity+1)
			}
		}
	})
}

func TestHistorySingleWarningLaw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 40).Draw(t, "capacity")
		pushes := rapid.IntRange(0, 200).Draw(t, "pushes")

		h := NewHistory(capacity)
		for i := 0; i < pushes; i++ {
			h.Push(NewStdout(fmt.Sprintf("line%d", i)))
		}

		if n := countNotifications(h.Snapshot()); n > 1 {
			t.Fatalf("truncation warning appears %d times", n)
		}
		if pushes > capacity && !h.Warned() {
			t.Fatalf("no truncation warning after %d pushes into capacity %d", pushes, capacity)
		}
	})
}

func TestHistoryOrderPreservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(10, 100).Draw(t, "capacity")
		pushes := rapid.IntRange(0, capacity-1).Draw(t, "pushes")

		h := NewHistory(capacity)
		want := make([]string, pushes)
		for i := 0; i < pushes; i++ {
			want[i] = fmt.Sprintf("line%d", i)
			h.Push(NewStdout(want[i]))
		}

		got := texts(h.Snapshot())
		if len(got) != pushes {
			t.Fatalf("snapshot length %d, want %d", len(got), pushes)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("entry %d: got %q, want %q", i, got[i], want[i])
			}
		}
	})
}
