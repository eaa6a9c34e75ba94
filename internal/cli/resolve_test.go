package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bv-juan-bedoya/search-agent-tool/internal/agent"
	"github.com/bv-juan-bedoya/search-agent-tool/internal/fecha"
)

func fixedNow() time.Time {
	// Thursday, May 15, 2025
	return time.Date(2025, 5, 15, 10, 30, 0, 0, time.UTC)
}

func execResolve(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"resolve"}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestResolveCommandSingleDate(t *testing.T) {
	out, err := execResolve(t, "el 29 de abril", "--date", "2025-05-15")
	require.NoError(t, err)
	assert.Contains(t, out, `{"date":"2025-04-29"}`)
}

func TestResolveCommandRange(t *testing.T) {
	out, err := execResolve(t, "la semana pasada", "--date", "2025-05-15")
	require.NoError(t, err)
	assert.Contains(t, out, `{"start":"2025-05-05","end":"2025-05-11"}`)
}

func TestResolveCommandWithFilter(t *testing.T) {
	out, err := execResolve(t, "el 29 de abril", "--date", "2025-05-15", "--filter")
	require.NoError(t, err)
	assert.Contains(t, out, "metadata_spo_item_release_date eq 2025-04-29T00:00:00Z")
}

func TestResolveCommandCustomField(t *testing.T) {
	out, err := execResolve(t, "ayer", "--date", "2025-05-15", "--filter", "--field", "release_date")
	require.NoError(t, err)
	assert.Contains(t, out, "release_date eq 2025-05-14T00:00:00Z")
}

func TestResolveCommandNoDate(t *testing.T) {
	_, err := execResolve(t, "sin fecha alguna", "--date", "2025-05-15")
	assert.Error(t, err)
}

func TestResolveCommandBadDateFlag(t *testing.T) {
	_, err := execResolve(t, "ayer", "--date", "15/05/2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected YYYY-MM-DD")
}

func TestReferenceClockDefaultsToNow(t *testing.T) {
	nowFn, err := referenceClock("")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), nowFn(), time.Minute)
}

func TestPrintResolvedPretty(t *testing.T) {
	res, err := fecha.ResolveAt("la semana pasada", fixedNow())
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	printResolvedPretty(buf, "", true, res)

	assert.Contains(t, buf.String(), "2025-05-05..2025-05-11")
	assert.Contains(t, buf.String(), "range")
	assert.Contains(t, buf.String(), "metadata_spo_item_release_date")
}

func TestRunResolveWritesShape(t *testing.T) {
	buf := new(bytes.Buffer)
	cmd := resolveCmd
	cmd.SetOut(buf)
	cmd.SetContext(context.Background())

	err := runResolve(cmd, "las últimas 2 semanas", "", false, agent.Local{Now: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, "{\"start\":\"2025-04-28\",\"end\":\"2025-05-11\"}\n", buf.String())
}
