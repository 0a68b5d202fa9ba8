package document

import (
	"encoding/json"
	"os"
	"time"

	"plot-digitizer/pkg/errors"
)

// FileVersion is the current document file format version.
const FileVersion = 1

// Extension is the conventional document file extension.
const Extension = ".dig"

// File is the on-disk form of a document (.dig).
type File struct {
	Version  int       `json:"version"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Document *Document `json:"document"`
}

// NewFile wraps a document for saving.
func NewFile(doc *Document) *File {
	now := time.Now().UTC()
	return &File{
		Version:  FileVersion,
		Created:  now,
		Modified: now,
		Document: doc,
	}
}

// Decode parses a document file held in memory. The name is only used in
// error messages.
func Decode(name string, data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoadFailed, err, "cannot read file %s", name)
	}
	if f.Version < 1 || f.Version > FileVersion {
		return nil, errors.Wrap(errors.ErrCodeLoadFailed,
			errors.New(errors.ErrCodeUnsupported, "file version %d", f.Version),
			"cannot read file %s", name)
	}
	if f.Document == nil {
		return nil, errors.New(errors.ErrCodeLoadFailed, "cannot read file %s: no document", name)
	}
	if err := f.Document.validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoadFailed, err, "cannot read file %s", name)
	}
	return &f, nil
}

// Load loads a document file from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoadFailed, err, "cannot read file %s", path)
	}
	return Decode(path, data)
}

// Save writes the file to path, updating its modification time.
func (f *File) Save(path string) error {
	f.Modified = time.Now().UTC()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// validate checks the identifier invariants of a freshly decoded document.
func (d *Document) validate() error {
	seen := make(map[string]bool)
	check := func(id string) error {
		if id == "" {
			return errors.New(errors.ErrCodeInvalidInput, "point without identifier")
		}
		if seen[id] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate point identifier %s", id)
		}
		seen[id] = true
		return nil
	}
	for _, p := range d.Axes {
		if err := check(p.ID); err != nil {
			return err
		}
	}
	names := make(map[string]bool)
	for _, c := range d.Curves {
		if names[c.Name] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate curve name %q", c.Name)
		}
		names[c.Name] = true
		for _, p := range c.Points {
			if err := check(p.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
