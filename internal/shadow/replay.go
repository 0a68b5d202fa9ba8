package shadow

import (
	"encoding/json"
	"slices"

	"plot-digitizer/internal/command"
	"plot-digitizer/internal/document"
	"plot-digitizer/pkg/errors"
)

// Step is a decoded journal entry. Command is nil for undo and redo.
type Step struct {
	Op      Op
	Command command.Command
}

// cursorState is the replay stack as it was before a step.
type cursorState struct {
	stack []command.Command
	index int
}

// Replayer rebuilds documents from a decoded journal. Its cursor is
// independent of any live mediator.
type Replayer struct {
	steps []Step

	// diagnostic cursor
	pos     int
	current cursorState
	history []cursorState
}

// LoadCommands parses a serialized journal. Corrupt or truncated input fails
// with CORRUPT_LOG; nothing is returned in that case.
func LoadCommands(data []byte) (*Replayer, error) {
	var l Log
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCorruptLog, err, "cannot parse command log")
	}
	return FromLog(l)
}

// FromLog decodes every journal entry and checks that the undo and redo
// markers are consistent with the pushes before them.
func FromLog(l Log) (*Replayer, error) {
	if l.Version > LogVersion {
		return nil, errors.New(errors.ErrCodeUnsupported, "command log version %d, newest known is %d", l.Version, LogVersion)
	}
	if l.Version < 1 {
		return nil, errors.New(errors.ErrCodeCorruptLog, "command log has invalid version %d", l.Version)
	}

	steps := make([]Step, 0, len(l.Entries))
	depth, index := 0, 0
	for i, e := range l.Entries {
		switch e.Op {
		case OpPush:
			if e.Command == nil {
				return nil, errors.New(errors.ErrCodeCorruptLog, "entry %d: push without command", i)
			}
			cmd, err := command.Decode(*e.Command)
			if err != nil {
				return nil, errors.Wrap(errors.GetCode(err), err, "entry %d", i)
			}
			steps = append(steps, Step{Op: OpPush, Command: cmd})
			index++
			depth = index
		case OpUndo:
			if index == 0 {
				return nil, errors.New(errors.ErrCodeCorruptLog, "entry %d: undo with nothing applied", i)
			}
			index--
			steps = append(steps, Step{Op: OpUndo})
		case OpRedo:
			if index == depth {
				return nil, errors.New(errors.ErrCodeCorruptLog, "entry %d: redo with nothing undone", i)
			}
			index++
			steps = append(steps, Step{Op: OpRedo})
		default:
			return nil, errors.New(errors.ErrCodeCorruptLog, "entry %d: unknown operation %q", i, e.Op)
		}
	}
	return &Replayer{steps: steps}, nil
}

// Steps returns the decoded journal.
func (r *Replayer) Steps() []Step {
	return slices.Clone(r.steps)
}

// Commands returns every pushed command in original order.
func (r *Replayer) Commands() []command.Command {
	var out []command.Command
	for _, s := range r.steps {
		if s.Op == OpPush {
			out = append(out, s.Command)
		}
	}
	return out
}

// Run applies the whole journal to a copy of base. On failure the partial
// result is discarded and nil is returned.
func (r *Replayer) Run(base *document.Document) (*document.Document, error) {
	doc := base.Clone()
	var st cursorState
	for i, s := range r.steps {
		if err := apply(doc, &st, s); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCorruptLog, err, "replay step %d (%s)", i, s.Op)
		}
	}
	return doc, nil
}

// apply performs one step on doc, updating the replay stack.
func apply(doc *document.Document, st *cursorState, s Step) error {
	switch s.Op {
	case OpPush:
		if err := s.Command.Redo(doc); err != nil {
			return err
		}
		st.stack = append(st.stack[:st.index], s.Command)
		st.index++
	case OpUndo:
		if st.index == 0 {
			return errors.New(errors.ErrCodeCorruptLog, "nothing to undo")
		}
		if err := st.stack[st.index-1].Undo(doc); err != nil {
			return err
		}
		st.index--
	case OpRedo:
		if st.index == len(st.stack) {
			return errors.New(errors.ErrCodeCorruptLog, "nothing to redo")
		}
		if err := st.stack[st.index].Redo(doc); err != nil {
			return err
		}
		st.index++
	}
	return nil
}

// Cursor returns how many steps the diagnostic cursor has applied.
func (r *Replayer) Cursor() int { return r.pos }

func (r *Replayer) CanRedo() bool { return r.pos < len(r.steps) }
func (r *Replayer) CanUndo() bool { return r.pos > 0 }

// Redo applies the next journal step to doc. doc must be the document the
// cursor has been driving since its first step.
func (r *Replayer) Redo(doc *document.Document) error {
	if !r.CanRedo() {
		return errors.New(errors.ErrCodeUnavailable, "replay is complete")
	}
	saved := cursorState{stack: slices.Clone(r.current.stack), index: r.current.index}
	if err := apply(doc, &r.current, r.steps[r.pos]); err != nil {
		r.current = saved
		return errors.Wrap(errors.ErrCodeCorruptLog, err, "replay step %d", r.pos)
	}
	r.history = append(r.history, saved)
	r.pos++
	return nil
}

// Undo reverts the most recent journal step applied by Redo.
func (r *Replayer) Undo(doc *document.Document) error {
	if !r.CanUndo() {
		return errors.New(errors.ErrCodeUnavailable, "replay is at the start")
	}
	prev := r.history[len(r.history)-1]
	var err error
	switch r.steps[r.pos-1].Op {
	case OpPush:
		err = r.steps[r.pos-1].Command.Undo(doc)
	case OpUndo:
		err = prev.stack[prev.index-1].Redo(doc)
	case OpRedo:
		err = prev.stack[prev.index].Undo(doc)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeCorruptLog, err, "revert replay step %d", r.pos-1)
	}
	r.current = prev
	r.history = r.history[:len(r.history)-1]
	r.pos--
	return nil
}

