package transform

import (
	"plot-digitizer/internal/logging"

	"github.com/charmbracelet/log"
)

// State is the validity state of the document's transformation.
type State int

const (
	StateUndefined State = iota
	StateDefined
)

func (s State) String() string {
	if s == StateDefined {
		return "defined"
	}
	return "undefined"
}

// Transition describes what an Update changed.
type Transition int

const (
	// TransitionNone: validity and value unchanged.
	TransitionNone Transition = iota
	// TransitionDefined: UNDEFINED -> DEFINED.
	TransitionDefined
	// TransitionUndefined: DEFINED -> UNDEFINED.
	TransitionUndefined
	// TransitionChanged: still DEFINED, but the fitted value changed.
	TransitionChanged
)

func (t Transition) String() string {
	switch t {
	case TransitionDefined:
		return "undefined->defined"
	case TransitionUndefined:
		return "defined->undefined"
	case TransitionChanged:
		return "defined->defined"
	default:
		return "none"
	}
}

// Machine tracks the transformation's validity for the life of one open
// document and notifies dependents on transitions.
//
// A transition into DEFINED fires both the defined hooks (full point
// recompute) and the axes-checker hooks. A DEFINED->DEFINED value change
// fires only the axes-checker hooks; point graph positions are refreshed by
// the session after every command regardless.
type Machine struct {
	state   State
	current Transformation
	logger  *log.Logger

	onDefined     []func(Transformation)
	onUndefined   []func()
	onAxesChecker []func(Transformation)
}

// NewMachine returns a machine in the UNDEFINED state.
func NewMachine(logger *log.Logger) *Machine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Machine{logger: logger}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// OnDefined registers a hook for UNDEFINED -> DEFINED.
func (m *Machine) OnDefined(fn func(Transformation)) {
	m.onDefined = append(m.onDefined, fn)
}

// OnUndefined registers a hook for DEFINED -> UNDEFINED.
func (m *Machine) OnUndefined(fn func()) {
	m.onUndefined = append(m.onUndefined, fn)
}

// OnAxesChecker registers a hook for refreshing the axis-validity overlay.
func (m *Machine) OnAxesChecker(fn func(Transformation)) {
	m.onAxesChecker = append(m.onAxesChecker, fn)
}

// Update records the newly computed transformation and fires the hooks for
// whatever transition it implies.
func (m *Machine) Update(next Transformation) Transition {
	prev := m.current
	m.current = next

	var tr Transition
	switch {
	case !prev.IsDefined() && next.IsDefined():
		tr = TransitionDefined
		m.state = StateDefined
	case prev.IsDefined() && !next.IsDefined():
		tr = TransitionUndefined
		m.state = StateUndefined
	case next.IsDefined() && !prev.Equal(next):
		tr = TransitionChanged
	default:
		return TransitionNone
	}

	m.logger.Debug("transformation transition", "transition", tr, "state", m.state)

	switch tr {
	case TransitionDefined:
		for _, fn := range m.onDefined {
			fn(next)
		}
		for _, fn := range m.onAxesChecker {
			fn(next)
		}
	case TransitionUndefined:
		for _, fn := range m.onUndefined {
			fn()
		}
	case TransitionChanged:
		for _, fn := range m.onAxesChecker {
			fn(next)
		}
	}
	return tr
}

// Reset returns the machine to UNDEFINED without firing hooks, for when the
// document it tracks is replaced.
func (m *Machine) Reset() {
	m.state = StateUndefined
	m.current = Transformation{}
}
