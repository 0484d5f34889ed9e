package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5733"))
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// printTable writes rows as a bordered lipgloss table on a terminal and as
// tab-aligned text otherwise, so output stays greppable when piped.
func printTable(w io.Writer, styled bool, headers []string, rows [][]string) {
	if styled {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(borderStyle).
			Headers(headers...).
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		fmt.Fprintln(w, t.Render())
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()
}

func printTitle(w io.Writer, styled bool, s string) {
	if styled {
		fmt.Fprintln(w, titleStyle.Render(s))
		return
	}
	fmt.Fprintln(w, "# "+s)
}

func printError(w io.Writer, styled bool, s string) {
	if styled {
		fmt.Fprintln(w, errorStyle.Render(s))
		return
	}
	fmt.Fprintln(w, "error: "+s)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emit prints v as JSON when --output json was given and calls render
// otherwise.
func emit(v any, render func(w io.Writer, styled bool)) error {
	switch outputFmt {
	case "json":
		return printJSON(os.Stdout, v)
	case "table", "":
		render(os.Stdout, isTerminal(os.Stdout))
		return nil
	default:
		return fmt.Errorf("unknown output format %q: want table or json", outputFmt)
	}
}

func num(v float64, prec int) string {
	return fmt.Sprintf("%.*f", prec, v)
}
