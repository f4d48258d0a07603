package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	successStyle = color.New(color.FgGreen)
	errorStyle   = color.New(color.FgRed)
	warnStyle    = color.New(color.FgYellow)
	infoStyle    = color.New(color.FgCyan)
	boldStyle    = color.New(color.Bold)
	dimStyle     = color.New(color.Faint)
)

// Output handles formatted command output, honoring the --json flag.
type Output struct {
	writer   io.Writer
	jsonMode bool
}

// NewOutput creates an Output bound to the command's writer.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{
		writer:   cmd.OutOrStdout(),
		jsonMode: jsonMode,
	}
}

// IsJSON reports whether JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON writes data as indented JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Printf writes a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Println writes a message with a trailing newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Success writes a green line.
func (o *Output) Success(format string, args ...interface{}) {
	successStyle.Fprintf(o.writer, format+"\n", args...)
}

// Error writes a red line.
func (o *Output) Error(format string, args ...interface{}) {
	errorStyle.Fprintf(o.writer, format+"\n", args...)
}

// Warning writes a yellow line.
func (o *Output) Warning(format string, args ...interface{}) {
	warnStyle.Fprintf(o.writer, format+"\n", args...)
}

// Info writes a cyan line.
func (o *Output) Info(format string, args ...interface{}) {
	infoStyle.Fprintf(o.writer, format+"\n", args...)
}

// Bold writes a bold line.
func (o *Output) Bold(format string, args ...interface{}) {
	boldStyle.Fprintf(o.writer, format+"\n", args...)
}

// Dim writes a faint line.
func (o *Output) Dim(format string, args ...interface{}) {
	dimStyle.Fprintf(o.writer, format+"\n", args...)
}

// Table renders rows with each column padded to its widest cell.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a table with the given header cells.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{headers: headers, output: output}
}

// AddRow appends one row.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visibleWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && visibleWidth(cell) > widths[i] {
				widths[i] = visibleWidth(cell)
			}
		}
	}

	headerCells := make([]string, len(t.headers))
	for i, h := range t.headers {
		headerCells[i] = boldStyle.Sprint(h)
	}
	t.printRow(headerCells, widths)
	t.printSeparator(widths)

	for _, row := range t.rows {
		t.printRow(row, widths)
	}
}

func (t *Table) printRow(cells []string, widths []int) {
	parts := make([]string, 0, len(cells))
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		padding := widths[i] - visibleWidth(cell)
		if padding < 0 {
			padding = 0
		}
		parts = append(parts, cell+strings.Repeat(" ", padding))
	}
	t.output.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
}

func (t *Table) printSeparator(widths []int) {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	t.output.Println(dimStyle.Sprint(strings.Join(parts, "--")))
}

var ansiEscapes = regexp.MustCompile("\x1b\\[[0-9;]*m")

// visibleWidth is the printed rune count of s with color codes removed.
func visibleWidth(s string) int {
	return len([]rune(ansiEscapes.ReplaceAllString(s, "")))
}
