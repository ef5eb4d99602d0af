package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cli struct {
	t  *testing.T
	db string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("REPERTOIRE_TOKEN_SECRET", "test-secret")
	t.Setenv("REPERTOIRE_LOG_LEVEL", "error")
	return &cli{t: t, db: filepath.Join(dir, "repertoire.db")}
}

func (c *cli) run(stdin string, args ...string) (string, string, error) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(args, "--db", c.db))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, errOut, err := c.run("", args...)
	require.NoError(c.t, err, errOut)
	return out
}

func TestCLI_EndToEnd(t *testing.T) {
	c := newCLI(t)

	c.mustRun("performer", "add", "ana", "--name", "Ana")
	c.mustRun("piece", "add", "moonlight", "--title", "Moonlight Sonata", "--publish")
	c.mustRun("piece", "add", "etude", "--publish=false")

	list := c.mustRun("piece", "list")
	assert.Contains(t, list, "moonlight")
	assert.Contains(t, list, "draft")
	assert.Contains(t, list, "2 pieces")

	var v struct {
		Level struct {
			ID string `json:"id"`
		} `json:"level"`
		PracticeCount int    `json:"practice_count"`
		GoalDate      string `json:"goal_date"`
	}
	out := c.mustRun("session", "record", "--performer", "ana", "--piece", "moonlight",
		"--minutes", "20", "--confidence", "4", "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "learning", v.Level.ID)
	assert.Equal(t, 1, v.PracticeCount)

	_, _, err := c.run("", "session", "record", "--performer", "ana", "--piece", "etude", "--json")
	assert.ErrorContains(t, err, "etude")

	out = c.mustRun("goal", "set", "moonlight", "2030-01-01", "--performer", "ana", "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "2030-01-01", v.GoalDate)

	out = c.mustRun("goal", "get", "moonlight", "--performer", "ana", "--json")
	assert.JSONEq(t, `{"goal_date":"2030-01-01"}`, out)

	reports := `{"piece_id":"moonlight","duration_minutes":30,"confidence_rating":4}

{"piece_id":"moonlight","duration_minutes":"long"}
`
	out, errOut, err := c.run(reports, "session", "import", "-", "--performer", "ana")
	assert.Error(t, err)
	assert.Contains(t, out, "1 imported, 1 failed")
	assert.Contains(t, errOut, "line 3:")

	var views []map[string]any
	out = c.mustRun("skill", "list", "--performer", "ana", "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.EqualValues(t, 2, views[0]["practice_count"])

	var items []map[string]any
	out = c.mustRun("session", "history", "--performer", "ana", "--piece", "moonlight", "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	assert.NotEmpty(t, items[0]["applied_at"])

	// Both sessions were applied when recorded, so a retry is refused.
	_, _, err = c.run("", "session", "retry", items[0]["id"].(string), "--performer", "ana")
	assert.ErrorContains(t, err, "already applied")
	_, _, err = c.run("", "session", "retry", items[0]["id"].(string))
	assert.ErrorContains(t, err, "--performer is required")

	out = c.mustRun("skill", "list", "--performer", "ana", "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	assert.EqualValues(t, 2, views[0]["practice_count"])

	card := c.mustRun("skill", "show", "moonlight", "--performer", "ana")
	assert.Contains(t, card, "moonlight")
	assert.Contains(t, card, "2030-01-01")

	_, _, err = c.run("", "skill", "show", "nocturne", "--performer", "ana")
	assert.ErrorContains(t, err, "no practice recorded")

	token := c.mustRun("performer", "token", "ana")
	assert.Equal(t, 3, strings.Count(strings.TrimSpace(token), ".")+1)
}

func TestCLI_PerformerRequired(t *testing.T) {
	c := newCLI(t)
	_, _, err := c.run("", "skill", "list", "--performer", "")
	assert.ErrorContains(t, err, "--performer is required")
}

func TestCLI_Version(t *testing.T) {
	c := newCLI(t)
	assert.Equal(t, "repertoire (devel)\n", c.mustRun("version"))
}
