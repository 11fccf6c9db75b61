package cmd_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/mfe"
	"github.com/GoCodeAlone/mfe/cmd/mfectl/cmd"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := cmd.NewRootCommand()
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeManifest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "units.yaml")
	content := `
units:
  - name: navbar
    routes: ["/"]
  - name: settings
    routes: ["/settings"]
  - name: chat
    kind: parcel
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootCommand(t *testing.T) {
	rootCmd := cmd.NewRootCommand()
	assert.Equal(t, "mfectl", rootCmd.Use)

	out, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "micro-frontend lifecycle runtime")
}

func TestVersionInfo(t *testing.T) {
	assert.Contains(t, cmd.PrintVersion(), "mfectl v")

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "commit:")
}

func TestFormatCommand(t *testing.T) {
	out, err := run(t, "format", "28", "a", "b", "-m", "example")
	require.NoError(t, err)
	assert.Contains(t, out, "#28: example See ")
	assert.Contains(t, out, "?code=28&arg=a&arg=b")

	out, err = run(t, "format", "23", "navbar", "--catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "There is already a unit registered with the name 'navbar'")

	_, err = run(t, "format", "abc")
	assert.ErrorIs(t, err, mfe.ErrInvalidErrorCode)

	_, err = run(t, "format", "999", "--catalog")
	assert.ErrorIs(t, err, mfe.ErrInvalidErrorCode)
}

func TestDecodeCommand(t *testing.T) {
	formatted := mfe.FormatErrorMessage(23, "dup", "navbar")

	out, err := run(t, "decode", formatted)
	require.NoError(t, err)

	var decoded struct {
		Code    int      `json:"code"`
		Args    []string `json:"args"`
		Catalog string   `json:"catalog"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 23, decoded.Code)
	assert.Equal(t, []string{"navbar"}, decoded.Args)
	assert.Equal(t, "There is already a unit registered with the name 'navbar'", decoded.Catalog)

	_, err = run(t, "decode", "not a formatted message")
	assert.ErrorIs(t, err, mfe.ErrNotFormattedMessage)
}

func TestInspectCommand(t *testing.T) {
	path := writeManifest(t)

	out, err := run(t, "inspect", "-f", path, "-l", "/settings")
	require.NoError(t, err)
	assert.Contains(t, out, "Location: /settings")
	lines := strings.Split(out, "\n")
	var settingsLine string
	for _, line := range lines {
		if strings.HasPrefix(line, "settings") {
			settingsLine = line
		}
	}
	assert.Contains(t, settingsLine, "NOT_LOADED")
	assert.Contains(t, settingsLine, "load")

	out, err = run(t, "inspect", "-f", path, "-l", "/", "--json")
	require.NoError(t, err)
	var report struct {
		Units   []mfe.UnitSnapshot `json:"units"`
		Changes map[string]string  `json:"changes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Units, 3)
	assert.Equal(t, map[string]string{"navbar": "load"}, report.Changes)

	_, err = run(t, "inspect")
	assert.Error(t, err)
}

func TestInspectWithConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "mfe.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("unhandled_queue_size = 0\n"), 0o600))

	_, err := run(t, "inspect", "-c", cfgPath, "-f", writeManifest(t))
	assert.ErrorIs(t, err, mfe.ErrConfigInvalidQueueSize)
}
