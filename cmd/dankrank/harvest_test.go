package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dankrank/pkg/config"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommand(f *runFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	f.register(cmd)
	return cmd
}

func TestConfigFlagsOnlyChanged(t *testing.T) {
	var f runFlags
	cmd := newTestCommand(&f)
	require.NoError(t, cmd.ParseFlags([]string{"--top-k", "5", "--window", "12h", "-d", "/tmp/dank", "--stop-on-non-image"}))

	flags := f.configFlags(cmd)
	assert.Equal(t, map[string]interface{}{
		"top-k":             5,
		"window":            12 * time.Hour,
		"destination":       "/tmp/dank",
		"stop-on-non-image": true,
	}, flags)

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(flags)
	assert.Equal(t, 5, cfg.Rank.TopK)
	assert.Equal(t, 12*time.Hour, cfg.Rank.Window)
	assert.Equal(t, "/tmp/dank", cfg.Download.Destination)
	assert.True(t, cfg.Rank.StopOnNonImage)
	assert.Equal(t, 10, cfg.Download.Workers)
}

func TestAccountsFromArgsAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.txt")
	require.NoError(t, os.WriteFile(path, []byte("# daily\n@memes\nfunny, dank\n"), 0o644))

	f := runFlags{file: path}
	accounts, err := f.accounts([]string{"dank,cats", "@dogs"}, config.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"dank", "cats", "dogs", "memes", "funny"}, accounts)
}

func TestAccountsFallBackToConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Schedule.Accounts = []string{"memes", "dank"}

	var f runFlags
	accounts, err := f.accounts(nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"memes", "dank"}, accounts)
}

func TestAccountsRequired(t *testing.T) {
	var f runFlags
	_, err := f.accounts(nil, config.DefaultConfig())
	assert.Error(t, err)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "****", mask("short"))
	assert.Equal(t, "1234****wxyz", mask("1234567890abcdefwxyz"))
}

func TestReadLine(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, _ = w.WriteString("  myuser \nignored\n")
	require.NoError(t, w.Close())

	line, err := readLine(r)
	require.NoError(t, err)
	assert.Equal(t, "myuser", line)
}
