package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "bigflow", root.Use)

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"eval", "validate", "trace", "test", "history", "replay"})
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestDatabaseFlagsRequired(t *testing.T) {
	for _, name := range []string{"history", "replay"} {
		t.Run(name, func(t *testing.T) {
			_, _, err := execute(t, NewRootCommand(), name, "some-layout")
			require.Error(t, err)
			assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, NewRootCommand(), "validate", "--format", "xml", starterLevel)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootLogsToStderr(t *testing.T) {
	t.Setenv(LogFormatEnv, "")

	out, errOut, err := execute(t, NewRootCommand(), "eval", "--format", "json", starterLevel)
	require.NoError(t, err)

	assert.True(t, json.Valid([]byte(out)), "stdout must stay pure JSON: %s", out)
	assert.Contains(t, errOut, "level started")
	assert.Contains(t, errOut, "level_name=starter")
}

func TestRootJSONLogFormat(t *testing.T) {
	t.Setenv(LogFormatEnv, "json")

	_, errOut, err := execute(t, NewRootCommand(), "eval", starterLevel)
	require.NoError(t, err)

	line, _, _ := strings.Cut(errOut, "\n")
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &record))
	assert.Equal(t, "level started", record["msg"])
	assert.Equal(t, "starter", record["level_name"])
}

func TestRootInvalidLogFormat(t *testing.T) {
	t.Setenv(LogFormatEnv, "xml")

	_, _, err := execute(t, NewRootCommand(), "eval", starterLevel)
	require.Error(t, err)
	assert.Contains(t, err.Error(), LogFormatEnv)
}

func TestNewLogger_Verbose(t *testing.T) {
	buf := &bytes.Buffer{}

	quiet, err := newLogger(buf, false, "text")
	require.NoError(t, err)
	quiet.Debug("hidden")
	assert.Empty(t, buf.String())

	verbose, err := newLogger(buf, true, "")
	require.NoError(t, err)
	verbose.Debug("shown", "node_id", 3)
	assert.Contains(t, buf.String(), "msg=shown node_id=3")
}
