package command

import (
	"html"
	"strconv"
	"strings"

	"plot-digitizer/internal/document"
	"plot-digitizer/pkg/errors"
)

// Copy exports selected graph points to the clipboard. It does not change the
// document; it sits on the undo stack so replay reproduces the clipboard.
type Copy struct {
	TransformDefined bool             `json:"transform_defined"`
	CSV              string           `json:"csv"`
	HTML             string           `json:"html"`
	Curves           []document.Curve `json:"curves"`
}

// NewCopy exports the selected graph points curve by curve. Graph coordinates
// are used when the transformation is defined, screen coordinates otherwise.
func NewCopy(doc *document.Document, ids []string, transformDefined bool) (*Copy, error) {
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}

	var csv, table strings.Builder
	c := &Copy{TransformDefined: transformDefined}
	for _, curve := range doc.Curves {
		var exported *document.Curve
		for _, p := range curve.Points {
			if !selected[p.ID] {
				continue
			}
			if exported == nil {
				c.Curves = append(c.Curves, document.Curve{Name: curve.Name})
				exported = &c.Curves[len(c.Curves)-1]
				csv.WriteString("X\t" + curve.Name + "\n")
				table.WriteString("<table>\n<tr><th>X</th><th>" + html.EscapeString(curve.Name) + "</th></tr>\n")
			}

			pos := p.PosScreen
			if transformDefined {
				pos = p.PosGraph
			}
			x, y := formatValue(pos.X), formatValue(pos.Y)
			csv.WriteString(x + "\t" + y + "\n")
			table.WriteString("<tr><td>" + x + "</td><td>" + y + "</td></tr>\n")
			exported.Points = append(exported.Points, p)
		}
		if exported != nil {
			table.WriteString("</table>\n")
		}
	}
	if len(c.Curves) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no graph points selected")
	}

	c.CSV = csv.String()
	c.HTML = table.String()
	return c, nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (c *Copy) Kind() Kind    { return KindCopy }
func (c *Copy) Label() string { return "Copy" }

func (c *Copy) Redo(*document.Document) error { return nil }
func (c *Copy) Undo(*document.Document) error { return nil }

func (c *Copy) Record() (Record, error) { return newRecord(c, c) }

// ClipboardContent returns CSV always and HTML only for graph coordinates.
func (c *Copy) ClipboardContent() Clipboard {
	if !c.TransformDefined {
		return Clipboard{CSV: c.CSV}
	}
	return Clipboard{CSV: c.CSV, HTML: c.HTML}
}

func (c *Copy) validate() error {
	if c.CSV == "" {
		return errors.New(errors.ErrCodeInvalidInput, "copy has no content")
	}
	return nil
}

// Cut copies the selected points and then deletes them.
type Cut struct {
	Copy
	Delete DeletePoints `json:"delete"`
}

// NewCut exports the selected graph points and removes every selected point.
func NewCut(doc *document.Document, ids []string, transformDefined bool) (*Cut, error) {
	cp, err := NewCopy(doc, ids, transformDefined)
	if err != nil {
		return nil, err
	}
	del, err := NewDeletePoints(doc, ids)
	if err != nil {
		return nil, err
	}
	return &Cut{Copy: *cp, Delete: *del}, nil
}

func (c *Cut) Kind() Kind    { return KindCut }
func (c *Cut) Label() string { return "Cut" }

func (c *Cut) Redo(doc *document.Document) error { return c.Delete.Redo(doc) }
func (c *Cut) Undo(doc *document.Document) error { return c.Delete.Undo(doc) }

func (c *Cut) Record() (Record, error) { return newRecord(c, c) }

func (c *Cut) validate() error {
	if err := c.Copy.validate(); err != nil {
		return err
	}
	return c.Delete.validate()
}
