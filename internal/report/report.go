// Package report captures diagnostic error reports: the document as it was
// before any command, the full shadow journal, the call site that triggered
// the capture and a fingerprint of the producing environment. Opening a
// report replays the journal to reach the captured state.
package report

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"runtime"
	"strconv"
	"time"

	"plot-digitizer/internal/document"
	"plot-digitizer/internal/shadow"
	"plot-digitizer/internal/version"
	"plot-digitizer/pkg/errors"

	"github.com/google/uuid"
)

// FormatVersion is the current report format version.
const FormatVersion = 1

// Report is a serialized error report.
type Report struct {
	Version     int             `json:"version"`
	ID          string          `json:"id"`
	Created     time.Time       `json:"created"`
	Application version.Info    `json:"application"`
	Environment EnvironmentInfo `json:"environment"`
	Image       ImageSize       `json:"image"`
	File        OriginalFile    `json:"file"`
	Log         shadow.Log      `json:"log"`
	Error       ErrorContext    `json:"error"`
}

// EnvironmentInfo fingerprints the machine that produced a report.
type EnvironmentInfo struct {
	Endian    string `json:"endian"`
	WordSize  int    `json:"word_size"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	GoVersion string `json:"go_version"`
}

// ImageSize is the size of the background image.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// OriginalFile is the document the journal starts from. Path is omitted for
// imported images.
type OriginalFile struct {
	Imported bool               `json:"imported"`
	Path     string             `json:"path,omitempty"`
	Document *document.Document `json:"document"`
}

// ErrorContext is where and why the report was captured.
type ErrorContext struct {
	Context string `json:"context"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Comment string `json:"comment"`
}

// Environment returns the fingerprint of the running process.
func Environment() EnvironmentInfo {
	endian := "big"
	if binary.NativeEndian.Uint16([]byte{1, 0}) == 1 {
		endian = "little"
	}
	return EnvironmentInfo{
		Endian:    endian,
		WordSize:  strconv.IntSize,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		GoVersion: runtime.Version(),
	}
}

// New assembles a report. base is the document before any command; when it
// came from an imported image its path is stripped.
func New(base *document.Document, imported bool, path string, log shadow.Log, ctx ErrorContext) *Report {
	doc := base.Clone()
	if imported {
		doc.Image.Path = ""
		path = ""
	}
	return &Report{
		Version:     FormatVersion,
		ID:          uuid.NewString(),
		Created:     time.Now().UTC(),
		Application: version.Current(),
		Environment: Environment(),
		Image:       ImageSize{Width: doc.Image.Width, Height: doc.Image.Height},
		File:        OriginalFile{Imported: imported, Path: path, Document: doc},
		Log:         log,
		Error:       ctx,
	}
}

// Replayer decodes the report's journal.
func (r *Report) Replayer() (*shadow.Replayer, error) {
	return shadow.FromLog(r.Log)
}

// Write encodes the report as indented JSON.
func (r *Report) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Read decodes and checks a report.
func Read(rd io.Reader) (*Report, error) {
	var r Report
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoadFailed, err, "cannot parse error report")
	}
	if r.Version < 1 || r.Version > FormatVersion {
		return nil, errors.New(errors.ErrCodeUnsupported, "error report version %d", r.Version)
	}
	if r.File.Document == nil {
		return nil, errors.New(errors.ErrCodeLoadFailed, "error report has no original document")
	}
	return &r, nil
}

// WriteFile saves the report to path.
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile loads a report from path.
func ReadFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoadFailed, err, "cannot read error report %s", path)
	}
	defer f.Close()

	r, err := Read(f)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "%s", path)
	}
	return r, nil
}
