package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadQueries(t *testing.T) {
	input := `
# evaluation queries
¿Cuánto fue la producción el 29 de abril?

la semana pasada
  # indented comments are skipped too
`
	queries, err := loadQueries(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"¿Cuánto fue la producción el 29 de abril?",
		"la semana pasada",
	}, queries)
}

func TestBuildReport(t *testing.T) {
	data := buildReport([]string{
		"el 29 de abril",
		"la semana pasada",
		"sin fecha alguna",
	}, fixedNow)

	require.Len(t, data.Rows, 3)

	assert.Equal(t, "2025-04-29", data.Rows[0].Resolution)
	assert.Equal(t, "single", data.Rows[0].Kind)
	assert.Contains(t, data.Rows[0].Filter, "eq 2025-04-29T00:00:00Z")

	assert.Equal(t, "2025-05-05..2025-05-11", data.Rows[1].Resolution)
	assert.Equal(t, "range", data.Rows[1].Kind)

	assert.Empty(t, data.Rows[2].Resolution)
	assert.NotEmpty(t, data.Rows[2].Err)
}

func TestRenderReportTable(t *testing.T) {
	data := buildReport([]string{"el 29 de abril", "sin fecha alguna"}, fixedNow)

	buf := new(bytes.Buffer)
	renderReportTable(buf, data)
	out := buf.String()

	assert.Contains(t, out, "Reference date: 2025-05-15")
	assert.Contains(t, out, "2025-04-29")
	assert.Contains(t, out, "error:")
	assert.Contains(t, out, "2 queries, 1 resolved")
}

func TestTruncateQuery(t *testing.T) {
	short := "corta"
	assert.Equal(t, short, truncateQuery(short))

	long := strings.Repeat("ñ", reportQueryColWidth+10)
	got := truncateQuery(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, []rune(got), reportQueryColWidth)
}

func TestReportCommandPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	require.NoError(t, os.WriteFile(path, []byte("el 29 de abril\nla semana pasada\n"), 0644))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"report", "--file", path, "--date", "2025-05-15", "--plain"})
	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "2025-04-29")
	assert.Contains(t, buf.String(), "2025-05-05..2025-05-11")
}

func TestReportCommandRequiresFile(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	// flag values persist between executions on the shared command tree,
	// so clear --file explicitly
	rootCmd.SetArgs([]string{"report", "--file=", "--plain"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--file is required")
}

func TestReportCommandEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("# solo comentarios\n"), 0644))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"report", "--file", path, "--plain"})
	err := rootCmd.Execute()

	assert.Error(t, err)
}

func TestReportExportPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	require.NoError(t, os.WriteFile(path, []byte("el 29 de abril\n"), 0644))
	out := filepath.Join(t.TempDir(), "report.pdf")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"report", "--file", path, "--date", "2025-05-15", "--export", out})
	err := rootCmd.Execute()

	require.NoError(t, err)
	info, statErr := os.Stat(out)
	require.NoError(t, statErr)
	assert.Greater(t, info.Size(), int64(0))
}

func TestReportViewModelScrolling(t *testing.T) {
	data := buildReport([]string{"hoy", "ayer", "anteayer", "la semana pasada", "el mes pasado"}, fixedNow)
	m := reportViewModel{data: data, termWidth: 100, termHeight: 6}

	assert.Equal(t, 2, m.visibleRows())
	assert.Equal(t, 3, m.maxScroll())

	view := m.View()
	assert.Contains(t, view, "reference 2025-05-15")
	assert.Contains(t, view, "hoy")
}
