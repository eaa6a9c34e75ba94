package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/bv-juan-bedoya/search-agent-tool/internal/fecha"
	"github.com/bv-juan-bedoya/search-agent-tool/internal/filter"
)

// reportRow is the outcome of resolving one query from the input file.
type reportRow struct {
	Query      string
	Resolution string
	Kind       string
	Filter     string
	Err        string
}

// reportData is everything the table and PDF renderers need.
type reportData struct {
	ReferenceDate time.Time
	Rows          []reportRow
}

var reportCmd = LeafCommand{
	Use:   "report",
	Short: "Batch-resolve a file of Spanish queries and review the outcomes",
	Args:  cobra.NoArgs,
	BoolFlags: []BoolFlag{
		{Name: "plain", Usage: "force plain table output (no interactive viewer)"},
	},
	StrFlags: []StringFlag{
		{Name: "file", Usage: "file with one query per line ('#' starts a comment)"},
		{Name: "date", Usage: "reference date (YYYY-MM-DD, default: today)"},
		{Name: "export", Usage: "write a PDF summary to this path"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fileFlag, _ := cmd.Flags().GetString("file")
		dateFlag, _ := cmd.Flags().GetString("date")
		exportFlag, _ := cmd.Flags().GetString("export")
		plainFlag, _ := cmd.Flags().GetBool("plain")

		if fileFlag == "" {
			return fmt.Errorf("--file is required")
		}

		f, err := os.Open(fileFlag)
		if err != nil {
			return err
		}
		defer f.Close()

		queries, err := loadQueries(f)
		if err != nil {
			return err
		}
		if len(queries) == 0 {
			return fmt.Errorf("no queries in %s", fileFlag)
		}

		nowFn, err := referenceClock(dateFlag)
		if err != nil {
			return err
		}

		data := buildReport(queries, nowFn)

		if exportFlag != "" {
			confirm := AlwaysYes()
			if isatty.IsTerminal(os.Stdin.Fd()) {
				confirm = NewConfirmFunc()
			}
			if _, statErr := os.Stat(exportFlag); statErr == nil {
				ok, err := confirm("Overwrite " + exportFlag + "?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), Warning("export cancelled"))
					return nil
				}
			}
			if err := renderReportPDF(data, exportFlag); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), Info("report saved to "+exportFlag))
			return nil
		}

		if !plainFlag && isatty.IsTerminal(os.Stdout.Fd()) {
			return runReportViewer(data)
		}
		renderReportTable(cmd.OutOrStdout(), data)
		return nil
	},
}.Build()

// loadQueries reads one query per line, skipping blanks and '#' comments.
func loadQueries(r io.Reader) ([]string, error) {
	var queries []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	return queries, scanner.Err()
}

func buildReport(queries []string, nowFn func() time.Time) reportData {
	data := reportData{ReferenceDate: nowFn()}
	for _, q := range queries {
		data.Rows = append(data.Rows, resolveToRow(q, nowFn))
	}
	return data
}

func resolveToRow(query string, nowFn func() time.Time) reportRow {
	row := reportRow{Query: query}
	res, err := fecha.ResolveAt(query, nowFn())
	if err != nil {
		row.Err = err.Error()
		return row
	}
	row.Resolution = res.String()
	row.Kind = res.Kind().String()
	row.Filter = filter.Expression("", res)
	return row
}

const reportQueryColWidth = 48

// renderReportTable writes the plain (non-interactive) table.
func renderReportTable(w io.Writer, data reportData) {
	fmt.Fprintf(w, "Reference date: %s\n\n", data.ReferenceDate.Format("2006-01-02"))
	fmt.Fprintf(w, "%-*s  %-23s  %s\n", reportQueryColWidth, "QUERY", "RESOLUTION", "KIND")
	for _, row := range data.Rows {
		outcome, kind := row.Resolution, row.Kind
		if row.Err != "" {
			outcome, kind = "error: "+row.Err, "-"
		}
		fmt.Fprintf(w, "%-*s  %-23s  %s\n", reportQueryColWidth, truncateQuery(row.Query), outcome, kind)
	}
	fmt.Fprintf(w, "\n%d queries, %d resolved\n", len(data.Rows), countResolved(data.Rows))
}

func truncateQuery(q string) string {
	runes := []rune(q)
	if len(runes) <= reportQueryColWidth {
		return q
	}
	return string(runes[:reportQueryColWidth-3]) + "..."
}

func countResolved(rows []reportRow) int {
	n := 0
	for _, row := range rows {
		if row.Err == "" {
			n++
		}
	}
	return n
}
