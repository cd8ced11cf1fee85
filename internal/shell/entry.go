package shell

import (
	"encoding/json"
	"fmt"
	"time"
)

// MaxLineLength is the cap on the text of a single entry. Longer lines are
// truncated and marked.
const MaxLineLength = 10000

// TruncationMarker is appended to lines cut at MaxLineLength.
const TruncationMarker = " [truncated]"

// EntryKind tags the variant of an Entry.
type EntryKind string

const (
	KindCommand      EntryKind = "Command"
	KindStdout       EntryKind = "Stdout"
	KindStderr       EntryKind = "Stderr"
	KindNotification EntryKind = "Notification"
)

// Level is the severity of a Notification entry.
type Level string

const (
	LevelInfo    Level = "Info"
	LevelWarning Level = "Warning"
	LevelError   Level = "Error"
)

// Entry is one immutable line of terminal history: a command echo, a line of
// stdout or stderr, or a system notification. Timestamp is wall-clock
// milliseconds since the Unix epoch.
type Entry struct {
	Kind      EntryKind
	Text      string
	Level     Level // set only for KindNotification
	Timestamp int64
}

// NewCommand creates a command-echo entry stamped with the current time.
func NewCommand(text string) Entry {
	return Entry{Kind: KindCommand, Text: capText(text), Timestamp: NowMillis()}
}

// NewStdout creates a stdout line entry stamped with the current time.
func NewStdout(text string) Entry {
	return Entry{Kind: KindStdout, Text: capText(text), Timestamp: NowMillis()}
}

// NewStderr creates a stderr line entry stamped with the current time.
func NewStderr(text string) Entry {
	return Entry{Kind: KindStderr, Text: capText(text), Timestamp: NowMillis()}
}

// NewNotification creates a system notification entry stamped with the
// current time.
func NewNotification(message string, level Level) Entry {
	return Entry{Kind: KindNotification, Text: capText(message), Level: level, Timestamp: NowMillis()}
}

// NewLine creates a stream entry of the given kind. Only KindStdout and
// KindStderr are valid stream kinds.
func NewLine(kind EntryKind, text string) Entry {
	return Entry{Kind: kind, Text: capText(text), Timestamp: NowMillis()}
}

// NowMillis returns the current wall-clock time in Unix milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// capText enforces MaxLineLength, cutting on a rune boundary.
func capText(text string) string {
	if len(text) <= MaxLineLength {
		return text
	}
	runes := []rune(text)
	if len(runes) <= MaxLineLength {
		return text
	}
	return string(runes[:MaxLineLength]) + TruncationMarker
}

// Wire shape matches the frontend contract: a tagged envelope
// {"type": "...", "data": {...}}.

type lineData struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type notificationData struct {
	Message   string `json:"message"`
	Level     Level  `json:"level"`
	Timestamp int64  `json:"timestamp"`
}

type entryEnvelope struct {
	Type EntryKind       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes the entry as a tagged envelope.
func (e Entry) MarshalJSON() ([]byte, error) {
	var data interface{}
	switch e.Kind {
	case KindCommand, KindStdout, KindStderr:
		data = lineData{Text: e.Text, Timestamp: e.Timestamp}
	case KindNotification:
		data = notificationData{Message: e.Text, Level: e.Level, Timestamp: e.Timestamp}
	default:
		return nil, fmt.Errorf("unknown entry kind: %q", e.Kind)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(entryEnvelope{Type: e.Kind, Data: raw})
}

// UnmarshalJSON decodes a tagged envelope back into an Entry.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var env entryEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	switch env.Type {
	case KindCommand, KindStdout, KindStderr:
		var d lineData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		*e = Entry{Kind: env.Type, Text: d.Text, Timestamp: d.Timestamp}
	case KindNotification:
		var d notificationData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return err
		}
		*e = Entry{Kind: KindNotification, Text: d.Message, Level: d.Level, Timestamp: d.Timestamp}
	default:
		return fmt.Errorf("unknown entry kind: %q", env.Type)
	}
	return nil
}
