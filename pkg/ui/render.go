package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/pterm/pterm"

	"github.com/arthur-debert/objstore/pkg/errors"
)

// Row is one line of a listing.
type Row struct {
	Key     string `json:"key"`
	Type    string `json:"type"`
	Address string `json:"address"`
	Managed bool   `json:"managed,omitempty"`
}

// Renderer writes command output in one format. FormatAuto must be
// resolved before building a Renderer.
type Renderer struct {
	out    io.Writer
	format Format
	styles *Styles
}

// NewRenderer returns a renderer writing to out.
func NewRenderer(out io.Writer, format Format) *Renderer {
	if format == FormatAuto {
		format = FormatText
	}
	return &Renderer{out: out, format: format, styles: DefaultStyles()}
}

// Format returns the format the renderer writes.
func (r *Renderer) Format() Format { return r.format }

// Rows renders a listing.
func (r *Renderer) Rows(rows []Row) error {
	switch r.format {
	case FormatJSON:
		if rows == nil {
			rows = []Row{}
		}
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)

	case FormatTerminal:
		data := pterm.TableData{{"KEY", "TYPE", "ADDRESS", "MANAGED"}}
		for _, row := range rows {
			data = append(data, []string{
				r.styles.Get("Key").Render(row.Key),
				r.styles.Get("Type").Render(row.Type),
				r.styles.Get("Muted").Render(row.Address),
				managedMark(row.Managed),
			})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return errors.Wrap(err, errors.ErrInternal, "render table")
		}
		_, err = fmt.Fprintln(r.out, table)
		return err

	default:
		tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tTYPE\tADDRESS\tMANAGED")
		for _, row := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Key, row.Type, row.Address, managedMark(row.Managed))
		}
		return tw.Flush()
	}
}

func managedMark(managed bool) string {
	if managed {
		return "yes"
	}
	return ""
}

// Value renders a single decoded value.
func (r *Renderer) Value(key string, v any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"key": key, "value": v})
	default:
		_, err := fmt.Fprintf(r.out, "%v\n", v)
		return err
	}
}

// Markdown renders a markdown document, styled on terminals and verbatim
// otherwise.
func (r *Renderer) Markdown(md string) error {
	if r.format != FormatTerminal {
		_, err := io.WriteString(r.out, md)
		return err
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		_, werr := io.WriteString(r.out, md)
		return werr
	}
	out, err := renderer.Render(md)
	if err != nil {
		_, werr := io.WriteString(r.out, md)
		return werr
	}
	_, err = io.WriteString(r.out, out)
	return err
}

// Success prints a confirmation line.
func (r *Renderer) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	switch r.format {
	case FormatJSON:
		return
	case FormatTerminal:
		fmt.Fprintln(r.out, r.styles.Get("Success").Render(msg))
	default:
		fmt.Fprintln(r.out, msg)
	}
}

// Error renders err with its code when it has one.
func (r *Renderer) Error(err error) {
	if err == nil {
		return
	}
	code := errors.GetErrorCode(err)

	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		_ = enc.Encode(map[string]any{"error": err.Error(), "code": string(code)})
	case FormatTerminal:
		line := r.styles.Get("Error").Render("Error: " + err.Error())
		if code != "" && code != errors.ErrUnknown {
			line += " " + r.styles.Get("ErrorCode").Render("["+string(code)+"]")
		}
		fmt.Fprintln(r.out, line)
	default:
		line := "Error: " + err.Error()
		if code != "" && code != errors.ErrUnknown {
			line += " [" + string(code) + "]"
		}
		fmt.Fprintln(r.out, strings.TrimSpace(line))
	}
}
