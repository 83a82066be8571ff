package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chansync/internal/channel"
	"github.com/roach88/chansync/internal/store"
	"github.com/roach88/chansync/internal/testutil"
)

const twoOpenYAML = `channels:
  - funding_txid: "123"
    short_channel_id: 10x11x12
    state: Opened
    spendable_msat: 100
    receivable_msat: 1000
  - funding_txid: "456"
    short_channel_id: 13x14x15
    state: Opened
    spendable_msat: 200
    receivable_msat: 2000
`

const onlyFirstYAML = `channels:
  - funding_txid: "123"
    short_channel_id: 10x11x12
    state: Opened
    spendable_msat: 100
    receivable_msat: 1000
`

// cliEnv runs commands against one database in a scratch directory with a
// deterministic clock and run ids.
type cliEnv struct {
	t     *testing.T
	dir   string
	db    string
	clock *testutil.StepClock
	ids   *testutil.SequentialRunIDs
}

// newCLIEnv changes into a fresh temp dir so no config file is picked up.
func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	return &cliEnv{
		t:     t,
		dir:   dir,
		db:    filepath.Join(dir, "chansync.db"),
		clock: testutil.NewStepClock(testutil.Epoch, time.Minute),
		ids:   testutil.NewSequentialRunIDs("run"),
	}
}

// writeSnapshot writes content to name in the env's directory.
func (e *cliEnv) writeSnapshot(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the root command with args plus --db.
func (e *cliEnv) run(args ...string) (stdout, stderr string, err error) {
	e.t.Helper()
	opts := &RootOptions{Clock: e.clock, RunIDs: e.ids}
	cmd := newRootCommand(opts)

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append(args, "--db", e.db))

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSyncThenList_Golden(t *testing.T) {
	fixtures, err := filepath.Abs(filepath.Join("testdata", "golden"))
	require.NoError(t, err)

	env := newCLIEnv(t)
	first := env.writeSnapshot("two_open.yaml", twoOpenYAML)
	second := env.writeSnapshot("only_first.yaml", onlyFirstYAML)

	out, _, err := env.run("sync", first)
	require.NoError(t, err)
	assert.Contains(t, out, "Synced 2 channel(s) at 2024-01-01T00:00:00Z (run run-1)")
	assert.Contains(t, out, "  Inserted:     2\n")

	out, _, err = env.run("sync", second)
	require.NoError(t, err)
	assert.Contains(t, out, "Synced 1 channel(s) at 2024-01-01T00:01:00Z (run run-2)")
	assert.Contains(t, out, "  First closed: 1\n")
	assert.Contains(t, out, "  Swept:        1\n")

	out, _, err = env.run("list")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir(fixtures),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "list_text", []byte(out))
}

func TestSync_JSONReport(t *testing.T) {
	env := newCLIEnv(t)
	snap := env.writeSnapshot("two_open.yaml", twoOpenYAML)

	out, _, err := env.run("sync", snap, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   store.SyncReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, store.SyncReport{
		RunID:        "run-1",
		SyncedAt:     testutil.Epoch,
		SnapshotSize: 2,
		Inserted:     2,
	}, resp.Data)
}

func TestSync_MissingSnapshot(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run("sync", filepath.Join(env.dir, "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")

	// Nothing was written
	out, _, err = env.run("history")
	require.NoError(t, err)
	assert.Equal(t, "No sync runs recorded.\n", out)
}

func TestSync_InvalidSnapshot(t *testing.T) {
	env := newCLIEnv(t)
	snap := env.writeSnapshot("bad.yaml", `channels:
  - funding_txid: "123"
    state: Exploded
`)

	_, _, err := env.run("sync", snap)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSync_WritesMetricsFile(t *testing.T) {
	env := newCLIEnv(t)
	snap := env.writeSnapshot("two_open.yaml", twoOpenYAML)
	metricsPath := filepath.Join(env.dir, "chansync.prom")

	_, _, err := env.run("sync", snap, "--metrics-file", metricsPath)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `chansync_sync_runs_total{result="ok"} 1`)
	assert.Contains(t, text, `chansync_channels_reconciled_total{action="insert"} 2`)
	assert.Contains(t, text, `chansync_channels{state="Opened"} 2`)
	assert.Contains(t, text, `chansync_channels{state="Closed"} 0`)
}

func TestSync_MetricsFileFromConfig(t *testing.T) {
	env := newCLIEnv(t)
	snap := env.writeSnapshot("two_open.yaml", twoOpenYAML)
	require.NoError(t, os.WriteFile(filepath.Join(env.dir, "chansync.yaml"),
		[]byte("metrics_file: from-config.prom\n"), 0o644))

	_, _, err := env.run("sync", snap)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(env.dir, "from-config.prom"))
}

func TestSync_ListFailureReportsJSONError(t *testing.T) {
	env := newCLIEnv(t)
	snap := env.writeSnapshot("two_open.yaml", twoOpenYAML)

	// Stored balances that cannot be read back make the post-sync listing fail
	st, err := store.Open(env.db)
	require.NoError(t, err)
	_, err = st.DB().Exec(`
		CREATE TRIGGER corrupt_balance AFTER INSERT ON channels
		BEGIN
			UPDATE channels SET spendable_msat = -1 WHERE funding_txid = NEW.funding_txid;
		END
	`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := env.run("sync", snap, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDatabase, resp.Error.Code)
	assert.Equal(t, "failed to list channels", resp.Error.Message)
}

func TestShow(t *testing.T) {
	env := newCLIEnv(t)
	snap := env.writeSnapshot("two_open.yaml", twoOpenYAML)
	_, _, err := env.run("sync", snap)
	require.NoError(t, err)

	t.Run("text", func(t *testing.T) {
		out, _, err := env.run("show", "456")
		require.NoError(t, err)
		assert.Contains(t, out, "Funding txid:     456\n")
		assert.Contains(t, out, "Short channel id: 13x14x15\n")
		assert.Contains(t, out, "State:            Opened\n")
		assert.Contains(t, out, "Receivable:       2,000 msat (2.000 sat)\n")
		assert.Contains(t, out, "Closed at:        -\n")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := env.run("show", "123", "--format", "json")
		require.NoError(t, err)

		var resp struct {
			Data channel.Channel `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, channel.Channel{
			FundingTxID:    "123",
			ShortChannelID: "10x11x12",
			State:          channel.StateOpened,
			SpendableMsat:  100,
			ReceivableMsat: 1000,
		}, resp.Data)
	})

	t.Run("not found", func(t *testing.T) {
		out, _, err := env.run("show", "999")
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrChannelNotFound)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E004]")
	})
}

func TestList_Empty(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run("list")
	require.NoError(t, err)
	assert.Equal(t, "No channels stored.\n", out)

	out, _, err = env.run("list", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":[]}`, out)
}

func TestHistory(t *testing.T) {
	env := newCLIEnv(t)
	first := env.writeSnapshot("two_open.yaml", twoOpenYAML)
	second := env.writeSnapshot("only_first.yaml", onlyFirstYAML)
	_, _, err := env.run("sync", first)
	require.NoError(t, err)
	_, _, err = env.run("sync", second)
	require.NoError(t, err)

	out, _, err := env.run("history", "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t,
		"run-2  2024-01-01T00:01:00Z  snapshot=1 inserted=0 refreshed=1 first_closed=1 swept=1\n",
		out)

	out, _, err = env.run("history", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data []store.SyncRun `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "run-2", resp.Data[0].ID)
	assert.Equal(t, "run-1", resp.Data[1].ID)
}

func TestVerboseLogsToStderr(t *testing.T) {
	env := newCLIEnv(t)
	snap := env.writeSnapshot("two_open.yaml", twoOpenYAML)

	out, errOut, err := env.run("sync", snap, "-v")
	require.NoError(t, err)
	assert.NotContains(t, out, "Loaded 2 channel(s)")
	assert.Contains(t, errOut, "Loaded 2 channel(s) from "+snap)
	assert.Contains(t, errOut, "channels synced")
}

func TestFormatMsat(t *testing.T) {
	tests := []struct {
		msat uint64
		want string
	}{
		{0, "0 msat (0.000 sat)"},
		{1, "1 msat (0.001 sat)"},
		{1000, "1,000 msat (1.000 sat)"},
		{1234567, "1,234,567 msat (1234.567 sat)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatMsat(tt.msat))
		})
	}
}

func TestFormatClosedAt(t *testing.T) {
	assert.Equal(t, "-", formatClosedAt(channel.Channel{}))
	assert.Equal(t, "2024-01-01T00:01:00Z",
		formatClosedAt(channel.Channel{ClosedAt: channel.Unix(testutil.Epoch.Add(time.Minute))}))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (stand-in for testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q) failed: %v", dir, err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
