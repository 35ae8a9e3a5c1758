package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gti/mgmt-dashboard/internal/models"
)

// Monday morning; the sample day puts the planning review two hours later
var fixedNow = time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	cmd := newRootCommand(&Deps{
		Out:  &out,
		Logs: &logs,
		Now:  func() time.Time { return fixedNow },
	})
	cmd.SetArgs(append(args, "--timezone", "UTC"))
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	err := cmd.Execute()
	return out.String(), err
}

func TestEventsCommand(t *testing.T) {
	out, err := run(t, "events", "-o", "json")
	require.NoError(t, err)

	var events []models.CalendarEvent
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 6)
	assert.Equal(t, "evt-planning-review", events[0].ID)

	out, err = run(t, "ls", "--days", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Events (1):")
	assert.Contains(t, out, "2025-06-02 10:00")
	assert.Contains(t, out, "Q2 Planning Review")

	out, err = run(t, "events", "--limit", "2", "-o", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	assert.Len(t, events, 2)
}

func TestConflictsCommand(t *testing.T) {
	out, err := run(t, "conflicts", "-o", "json")
	require.NoError(t, err)

	var conflicts []models.CalendarInsight
	require.NoError(t, json.Unmarshal([]byte(out), &conflicts))
	require.Len(t, conflicts, 1)
	assert.ElementsMatch(t, []string{"evt-vendor-sync", "evt-design-crit"}, conflicts[0].RelatedEventIDs)

	out, err = run(t, "conflicts")
	require.NoError(t, err)
	assert.Contains(t, out, "Conflicts (1):")
}

func TestDailyCommand(t *testing.T) {
	out, err := run(t, "daily")
	require.NoError(t, err)
	assert.Contains(t, out, "Daily insights for 2025-06-02")
	assert.Contains(t, out, "10:00-10:45  Q2 Planning Review")

	out, err = run(t, "daily", "-o", "yaml")
	require.NoError(t, err)
	var daily map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &daily))
	assert.Equal(t, "2025-06-02", daily["date"])
}

func TestAnalyzeCommand(t *testing.T) {
	out, err := run(t, "analyze", "--range", "week", "-o", "json")
	require.NoError(t, err)

	var resp models.CalendarAnalysisResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Summary.ConflictCount)
	assert.Equal(t, 5, resp.Summary.TotalEvents, "the cancelled offsite is skipped")

	out, err = run(t, "analyze", "--range", "week", "--include-cancelled", "-o", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 6, resp.Summary.TotalEvents)

	_, err = run(t, "analyze", "--range", "decade")
	assert.ErrorContains(t, err, "invalid range")
}

func TestPrepCommand(t *testing.T) {
	out, err := run(t, "prep", "evt-planning-review")
	require.NoError(t, err)
	assert.Contains(t, out, "# Q2 Planning Review")
	assert.Contains(t, out, "Attendees:")

	_, err = run(t, "prep", "evt-missing")
	assert.Error(t, err)

	_, err = run(t, "prep")
	assert.Error(t, err)
}

func TestOutputFormatValidation(t *testing.T) {
	_, err := run(t, "events", "-o", "xml")
	assert.ErrorContains(t, err, "invalid output format")
}

func TestRulesValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := strings.Join([]string{
		"rules:",
		"  - name: Notify finance",
		"    category: other",
		"    action: notify",
		"    priority: 20",
		"    enabled: true",
		"  - name: Escalate large",
		"    category: budget",
		"    action: escalate",
		"    priority: 5",
		"    enabled: true",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	out, err := run(t, "rules", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Rules (2):")
	assert.Less(t, strings.Index(out, "Escalate large"), strings.Index(out, "Notify finance"))

	out, err = run(t, "rules", "validate", path, "-o", "json")
	require.NoError(t, err)
	var rules []models.DecisionRule
	require.NoError(t, json.Unmarshal([]byte(out), &rules))
	require.Len(t, rules, 2)
	assert.Equal(t, 5, rules[0].Priority)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rules:\n  - name: x\n    category: travel\n    action: notify\n"), 0o644))
	_, err = run(t, "rules", "validate", bad)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
