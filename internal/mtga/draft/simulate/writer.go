package simulate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const logPrefix = "[UnityCrossThreadLogger]==> "

// Writer appends simulated draft lines to a client log.
type Writer struct {
	path  string
	pause time.Duration
}

// NewWriter creates a writer for the log at path. pause is slept between the
// join and pack lines so a watcher sees them as separate writes.
func NewWriter(path string, pause time.Duration) *Writer {
	return &Writer{path: path, pause: pause}
}

// Path returns the log file being written.
func (w *Writer) Path() string {
	return w.path
}

// EventName builds the internal event name the watcher keys on,
// e.g. PremierDraft_BLB_20260117.
func EventName(format, set string, date time.Time) string {
	return fmt.Sprintf("%s_%s_%s", format, strings.ToUpper(set), date.Format("20060102"))
}

// WriteLine appends one line, creating the log directory if needed.
func (w *Writer) WriteLine(line string) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to write log: %w", err)
	}
	return nil
}

type eventJoin struct {
	InternalEventName string `json:"InternalEventName"`
}

type draftNotify struct {
	DraftPack   []string `json:"DraftPack"`
	PickNumber  int      `json:"PickNumber"`
	PickedCards []string `json:"PickedCards"`
}

// WriteDraft appends an Event_Join line followed by a Draft.Notify line
// offering pack as the first pick.
func (w *Writer) WriteDraft(eventName string, pack []string) error {
	join, err := json.Marshal(eventJoin{InternalEventName: eventName})
	if err != nil {
		return err
	}
	if err := w.WriteLine(logPrefix + "Event_Join " + string(join)); err != nil {
		return err
	}

	if w.pause > 0 {
		time.Sleep(w.pause)
	}

	if pack == nil {
		pack = []string{}
	}
	notify, err := json.Marshal(draftNotify{DraftPack: pack, PickNumber: 1, PickedCards: []string{}})
	if err != nil {
		return err
	}
	return w.WriteLine(logPrefix + "Draft.Notify " + string(notify))
}
