package cmd

import (
	"strings"

	"github.com/pterm/pterm"
)

// PrintTableNoPad renders data as a table with trailing cell padding
// stripped from every line, so narrow terminals and pipes stay readable.
func PrintTableNoPad(data pterm.TableData, hasHeader bool) {
	out, err := pterm.DefaultTable.WithHasHeader(hasHeader).WithData(data).Srender()
	if err != nil {
		pterm.Error.Printf("failed to render table: %v\n", err)
		return
	}
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	pterm.Println(strings.Join(lines, "\n"))
}
