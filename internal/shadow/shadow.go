// Package shadow keeps an append-only journal of every command pushed to the
// live stack, together with the undo and redo operations interleaved with
// them. The journal is never truncated by live editing, so replaying it from
// the base document reproduces the live document at capture time.
package shadow

import (
	"encoding/json"

	"plot-digitizer/internal/command"
	"plot-digitizer/internal/logging"
	"plot-digitizer/pkg/errors"

	"github.com/charmbracelet/log"
)

// LogVersion is the current journal format version.
const LogVersion = 1

// Op is a journaled stack operation.
type Op string

const (
	OpPush Op = "push"
	OpUndo Op = "undo"
	OpRedo Op = "redo"
)

// Entry is one journaled operation. Command is set only for pushes.
type Entry struct {
	Op      Op              `json:"op"`
	Command *command.Record `json:"command,omitempty"`
}

// Log is the serialized journal.
type Log struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// Pushes returns the number of push entries.
func (l Log) Pushes() int {
	n := 0
	for _, e := range l.Entries {
		if e.Op == OpPush {
			n++
		}
	}
	return n
}

// Stack records mediator operations. It implements mediator.Recorder.
type Stack struct {
	entries []Entry
	err     error
	logger  *log.Logger
}

// NewStack creates an empty journal. A nil logger discards.
func NewStack(logger *log.Logger) *Stack {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Stack{logger: logger}
}

// RecordPush appends the serialized command. A command that cannot be
// serialized poisons the journal; Log reports the failure.
func (s *Stack) RecordPush(cmd command.Command) {
	rec, err := cmd.Record()
	if err != nil {
		s.logger.Error("cannot journal command", "kind", cmd.Kind(), "err", err)
		if s.err == nil {
			s.err = err
		}
		return
	}
	s.entries = append(s.entries, Entry{Op: OpPush, Command: &rec})
}

func (s *Stack) RecordUndo() { s.entries = append(s.entries, Entry{Op: OpUndo}) }
func (s *Stack) RecordRedo() { s.entries = append(s.entries, Entry{Op: OpRedo}) }

// Commands returns every pushed record in push order, including commands the
// live stack has since discarded.
func (s *Stack) Commands() []command.Record {
	var out []command.Record
	for _, e := range s.entries {
		if e.Op == OpPush {
			out = append(out, *e.Command)
		}
	}
	return out
}

// Log returns a copy of the journal.
func (s *Stack) Log() (Log, error) {
	if s.err != nil {
		return Log{}, errors.Wrap(errors.ErrCodeInternal, s.err, "journal incomplete")
	}
	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return Log{Version: LogVersion, Entries: entries}, nil
}

// MarshalJSON implements json.Marshaler.
func (s *Stack) MarshalJSON() ([]byte, error) {
	l, err := s.Log()
	if err != nil {
		return nil, err
	}
	return json.Marshal(l)
}
