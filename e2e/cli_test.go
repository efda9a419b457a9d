package e2e_test

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	dbPath     string
}

func newCLIRunner(t *testing.T) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "cardtally-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/cardtally")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		dbPath:     filepath.Join(t.TempDir(), "tally.db"),
	}
}

func (r *cliRunner) command(stdin string, args ...string) *exec.Cmd {
	fullArgs := append([]string{
		"--db-path", r.dbPath,
		"--tz", "UTC",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "CARDTALLY_STORAGE=sqlite", "CARDTALLY_OUTPUT=text")
	cmd.Stdin = strings.NewReader(stdin)
	return cmd
}

// run executes one JSON invocation. stdout is returned on success and
// stderr on failure, keeping log lines out of the decoded output.
func (r *cliRunner) run(args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := r.command("", append([]string{"--output", "json"}, args...)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stderr.String(), err
	}
	return stdout.String(), nil
}

func (r *cliRunner) shell(script string) (string, error) {
	output, err := r.command(script, "shell").CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// Response types for JSON parsing
type addResponse struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"`
}

type submitResponse struct {
	Round *struct {
		ID      string `json:"id"`
		Entries []struct {
			Player string `json:"player"`
			Score  int    `json:"score"`
		} `json:"round"`
	} `json:"round"`
	Sum            int            `json:"sum"`
	Balanced       bool           `json:"balanced"`
	Totals         map[string]int `json:"totals"`
	LedgerBalanced bool           `json:"ledger_balanced"`
}

type totalsResponse struct {
	Filtered struct {
		Total    int            `json:"total"`
		ByPlayer map[string]int `json:"by_player"`
	} `json:"filtered"`
	Overall struct {
		Total    int            `json:"total"`
		ByPlayer map[string]int `json:"by_player"`
	} `json:"overall"`
	Balanced bool `json:"balanced"`
}

type historyResponse struct {
	Rounds []struct {
		RoundID string `json:"round_id"`
		Sum     int    `json:"sum"`
	} `json:"rounds"`
}

func decode[T any](t *testing.T, output string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(output), &v), "output: %s", output)
	return v
}

func TestCLIEveningFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	cli := newCLIRunner(t)

	out, err := cli.run("player", "add", "Alice", "Bob", "Carol", "Bob")
	require.NoError(t, err, out)
	added := decode[addResponse](t, out)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, added.Added)
	assert.Equal(t, []string{"Bob"}, added.Skipped)

	out, err = cli.run("round", "submit", "Alice=10", "Bob=-5", "Carol=-5")
	require.NoError(t, err, out)
	submitted := decode[submitResponse](t, out)
	require.NotNil(t, submitted.Round)
	assert.Len(t, submitted.Round.Entries, 3)
	assert.True(t, submitted.Balanced)

	out, err = cli.run("round", "submit", "Alice=10", "Bob=-5", "Carol=-3")
	require.NoError(t, err, out)
	submitted = decode[submitResponse](t, out)
	assert.Equal(t, 2, submitted.Sum)
	assert.False(t, submitted.LedgerBalanced)

	out, err = cli.run("totals")
	require.NoError(t, err, out)
	totals := decode[totalsResponse](t, out)
	assert.False(t, totals.Balanced)
	assert.Equal(t, 2, totals.Overall.Total)
	assert.Equal(t, map[string]int{"Alice": 20, "Bob": -10, "Carol": -8}, totals.Overall.ByPlayer)

	out, err = cli.run("history")
	require.NoError(t, err, out)
	history := decode[historyResponse](t, out)
	require.Len(t, history.Rounds, 2)
	assert.NotEqual(t, history.Rounds[0].RoundID, history.Rounds[1].RoundID)

	// A corrective round brings the ledger back to zero
	out, err = cli.run("round", "submit", "Carol=-2")
	require.NoError(t, err, out)

	out, err = cli.run("totals", "--player", "Carol")
	require.NoError(t, err, out)
	totals = decode[totalsResponse](t, out)
	assert.True(t, totals.Balanced)
	assert.Equal(t, map[string]int{"Carol": -10}, totals.Filtered.ByPlayer)

	out, err = cli.run("round", "reset", "--yes")
	require.NoError(t, err, out)

	out, err = cli.run("totals")
	require.NoError(t, err, out)
	totals = decode[totalsResponse](t, out)
	assert.True(t, totals.Balanced)
	assert.Empty(t, totals.Overall.ByPlayer)
}

func TestCLIShellSession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	cli := newCLIRunner(t)

	script := strings.Join([]string{
		"player add Alice Bob",
		"round submit Alice=3 Bob=-2",
		"round undo",
		"round submit Alice=3 Bob=-3",
		"totals",
		"quit",
	}, "\n")

	out, err := cli.shell(script)
	require.NoError(t, err, out)

	assert.Contains(t, out, "Added Alice")
	assert.Contains(t, out, "this round sums to +1")
	assert.Contains(t, out, "Last round undone")
	assert.Contains(t, out, "Ledger balanced")
	assert.Contains(t, out, "Next dealer: Bob")

	// The undo state belongs to the shell session only
	out, err = cli.run("round", "undo")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"undone": false`)
}

func TestCLIFailsOnBadInput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	cli := newCLIRunner(t)

	out, err := cli.run("history", "--date", "2024-13-01")
	require.Error(t, err)
	assert.Contains(t, out, "YYYY-MM-DD")

	out, err = cli.run("round", "submit", "nonsense")
	require.Error(t, err)
	assert.Contains(t, out, "expected NAME=SCORE")
}
