// Package command defines the reversible units of change applied to a
// document. Every command captures at construction all the state it needs to
// redo and undo itself, and serializes to a versioned Record so the shadow
// journal can rebuild it later.
package command

import (
	"encoding/json"

	"plot-digitizer/internal/document"
	"plot-digitizer/pkg/errors"

	"github.com/google/uuid"
)

// RecordVersion is the current payload format version.
const RecordVersion = 1

// Kind names a command variant in serialized records.
type Kind string

const (
	KindAddAxisPoint   Kind = "add_axis_point"
	KindEditAxisPoint  Kind = "edit_axis_point"
	KindAddPoint       Kind = "add_point"
	KindMovePoints     Kind = "move_points"
	KindDeletePoints   Kind = "delete_points"
	KindCopy           Kind = "copy"
	KindCut            Kind = "cut"
	KindSettingsCoords Kind = "settings_coords"
	KindSettingsFilter Kind = "settings_filter"
	KindSettingsCurves Kind = "settings_curves"
)

// Kinds lists every command variant.
func Kinds() []Kind {
	return []Kind{
		KindAddAxisPoint, KindEditAxisPoint, KindAddPoint, KindMovePoints, KindDeletePoints,
		KindCopy, KindCut, KindSettingsCoords, KindSettingsFilter, KindSettingsCurves,
	}
}

// Command is a reversible document edit.
type Command interface {
	Kind() Kind
	// Label is the human-readable text shown in undo/redo menus.
	Label() string
	Redo(doc *document.Document) error
	Undo(doc *document.Document) error
	Record() (Record, error)
}

// Clipboard is text a command wants placed on the system clipboard. HTML is
// empty when the points were exported in screen coordinates.
type Clipboard struct {
	CSV  string
	HTML string
}

// ClipboardWriter is implemented by commands that produce clipboard content
// when redone.
type ClipboardWriter interface {
	ClipboardContent() Clipboard
}

// Record is the serialized form of a command.
type Record struct {
	Version int             `json:"version"`
	Kind    Kind            `json:"kind"`
	Label   string          `json:"label"`
	Payload json.RawMessage `json:"payload"`
}

func newRecord(c Command, payload any) (Record, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Record{}, errors.Wrap(errors.ErrCodeInternal, err, "encode %s", c.Kind())
	}
	return Record{
		Version: RecordVersion,
		Kind:    c.Kind(),
		Label:   c.Label(),
		Payload: data,
	}, nil
}

// Decode rebuilds a command from its record.
func Decode(r Record) (Command, error) {
	if r.Version > RecordVersion {
		return nil, errors.New(errors.ErrCodeUnsupported, "command %s has version %d, newest known is %d",
			r.Kind, r.Version, RecordVersion)
	}
	if r.Version < 1 {
		return nil, errors.New(errors.ErrCodeCorruptLog, "command %s has invalid version %d", r.Kind, r.Version)
	}

	var c Command
	switch r.Kind {
	case KindAddAxisPoint:
		c = &AddAxisPoint{}
	case KindEditAxisPoint:
		c = &EditAxisPoint{}
	case KindAddPoint:
		c = &AddPoint{}
	case KindMovePoints:
		c = &MovePoints{}
	case KindDeletePoints:
		c = &DeletePoints{}
	case KindCopy:
		c = &Copy{}
	case KindCut:
		c = &Cut{}
	case KindSettingsCoords:
		c = &SettingsCoords{}
	case KindSettingsFilter:
		c = &SettingsFilter{}
	case KindSettingsCurves:
		c = &SettingsCurves{}
	default:
		return nil, errors.New(errors.ErrCodeCorruptLog, "unknown command kind %q", r.Kind)
	}

	if len(r.Payload) == 0 {
		return nil, errors.New(errors.ErrCodeCorruptLog, "command %s has no payload", r.Kind)
	}
	if err := json.Unmarshal(r.Payload, c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCorruptLog, err, "decode %s", r.Kind)
	}
	if v, ok := c.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCorruptLog, err, "decode %s", r.Kind)
		}
	}
	return c, nil
}

func newID() string {
	return uuid.NewString()
}
