package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weeklyDoc = `name: weekly
query:
  select: [s.id, s.name]
  from:
    - {entity: survey, as: s}
  where: {op: eq, args: [s.kind, {const: weekly}]}
  order_by:
    - {by: s.id, dir: desc}
  limit: 10
`

var surveySetup = []string{
	"--setup", "create table survey (id integer primary key, name text not null, kind text not null)",
	"--setup", "insert into survey values (1, 'alpha', 'weekly'), (2, 'beta', 'daily'), (3, 'gamma', 'weekly')",
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "querytext", cmd.Use)
	assert.Contains(t, cmd.Long, "pattern tables")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"render", "validate", "dialects", "exec", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
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

	dialectFlag := cmd.PersistentFlags().Lookup("dialect")
	require.NotNil(t, dialectFlag)
	assert.Equal(t, "d", dialectFlag.Shorthand)
	assert.Equal(t, "oracle", dialectFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestRenderCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	renderCmd, _, err := cmd.Find([]string{"render"})
	require.NoError(t, err)

	watchFlag := renderCmd.Flags().Lookup("watch")
	require.NotNil(t, watchFlag)
	assert.Equal(t, "w", watchFlag.Shorthand)

	jobsFlag := renderCmd.Flags().Lookup("jobs")
	require.NotNil(t, jobsFlag)
	assert.Equal(t, "4", jobsFlag.DefValue)

	for _, name := range []string{"count", "placeholder", "debounce"} {
		assert.NotNil(t, renderCmd.Flags().Lookup(name), name)
	}
}

func TestExecCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	execCmd, _, err := cmd.Find([]string{"exec"})
	require.NoError(t, err)

	driverFlag := execCmd.Flags().Lookup("driver")
	require.NotNil(t, driverFlag)
	assert.Equal(t, "sqlite3", driverFlag.DefValue)

	dsnFlag := execCmd.Flags().Lookup("dsn")
	require.NotNil(t, dsnFlag)
	assert.Equal(t, ":memory:", dsnFlag.DefValue)

	for _, name := range []string{"count", "setup", "placeholder"} {
		assert.NotNil(t, execCmd.Flags().Lookup(name), name)
	}
}

func TestInvalidFormatIsConfigError(t *testing.T) {
	_, _, err := execute(t, "dialects", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("json"))
	assert.True(t, isValidFormat("text"))
	assert.False(t, isValidFormat("yaml"))
	assert.False(t, isValidFormat(""))
}
