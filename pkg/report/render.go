package report

import (
	"fmt"
	"io"

	"github.com/truconsent/truscanner/pkg/sarif"
)

// Render writes s in the given format. colored only affects FormatHuman.
func Render(w io.Writer, format Format, s Scan, colored bool) error {
	switch format {
	case FormatHuman:
		return WriteHuman(w, s, colored)
	case FormatText:
		return WriteText(w, s)
	case FormatMarkdown:
		return WriteMarkdown(w, s)
	case FormatJSON:
		return WriteJSON(w, s)
	case FormatSARIF:
		return sarif.Build(s.Catalog, s.Findings).Write(w)
	}
	return fmt.Errorf("unknown report format: %q", format)
}

// RenderDB writes a database scan. Only text and JSON are supported;
// human output uses the text layout.
func RenderDB(w io.Writer, format Format, s DBScan) error {
	switch format {
	case FormatHuman, FormatText:
		return WriteDBText(w, s)
	case FormatJSON:
		return WriteDBJSON(w, s)
	}
	return fmt.Errorf("format %q is not supported for database reports", format)
}
