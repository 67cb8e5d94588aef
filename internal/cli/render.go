package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/marginlang/margin/pkg/margin"
)

func renderResults(w io.Writer, format string, results []margin.Result) {
	switch format {
	case "csv":
		renderResultsCSV(w, results)
	default:
		renderResultsTable(w, results)
	}
}

func renderResultsTable(w io.Writer, results []margin.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Directive", "Result"})
	for _, res := range results {
		out := res.Output
		if res.Err != "" {
			out = "error: " + res.Err
		}
		t.AppendRow(table.Row{res.Source, out})
	}
	t.Render()
	fmt.Fprintf(w, "(%d directives)\n", len(results))
}

func renderResultsCSV(w io.Writer, results []margin.Result) {
	fmt.Fprintln(w, "directive,result,error")
	for _, res := range results {
		fmt.Fprintf(w, "%s,%s,%s\n", escapeCSV(res.Source), escapeCSV(res.Output), escapeCSV(res.Err))
	}
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
