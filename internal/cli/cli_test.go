package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isseis/go-safe-envrc/internal/appconfig"
	"github.com/isseis/go-safe-envrc/internal/envfile"
	"github.com/isseis/go-safe-envrc/internal/profile"
	"github.com/isseis/go-safe-envrc/internal/security"
)

// runCLI executes the root command with the given arguments against a
// temporary home and returns stdout.
func runCLI(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv(appconfig.EnvConfigDir, filepath.Join(home, ".config", "safe-envrc"))

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func testHome(t *testing.T) string {
	t.Helper()
	home, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestAllowListFlow(t *testing.T) {
	home := testHome(t)
	project := filepath.Join(home, "project")
	require.NoError(t, os.Mkdir(project, 0o755))
	rc := filepath.Join(project, ".envrc")
	writeFile(t, rc, "GREETING=hello\nTARGET=${GREETING} world\n")

	out, err := runCLI(t, home, "allow", rc)
	require.NoError(t, err)
	assert.Contains(t, out, "allowed")

	out, err = runCLI(t, home, "list", project)
	require.NoError(t, err)
	assert.Contains(t, out, "GREETING=hello")
	assert.Contains(t, out, "TARGET=hello world")
}

func TestDenyRemovesContribution(t *testing.T) {
	home := testHome(t)
	rc := filepath.Join(home, ".envrc")
	writeFile(t, rc, "X=1\n")

	_, err := runCLI(t, home, "allow", rc)
	require.NoError(t, err)
	_, err = runCLI(t, home, "deny", rc)
	require.NoError(t, err)

	out, err := runCLI(t, home, "list", home)
	require.NoError(t, err)
	assert.NotContains(t, out, "X=1")
}

func TestExportShells(t *testing.T) {
	home := testHome(t)
	rc := filepath.Join(home, ".envrc")
	writeFile(t, rc, "MSG=it's here\n")
	_, err := runCLI(t, home, "allow", rc)
	require.NoError(t, err)

	out, err := runCLI(t, home, "export", "bash", home)
	require.NoError(t, err)
	assert.Contains(t, out, `export MSG='it'\''s here'`)

	out, err = runCLI(t, home, "export", "fish", home)
	require.NoError(t, err)
	assert.Contains(t, out, `set -gx MSG 'it\'s here'`)

	_, err = runCLI(t, home, "export", "powershell", home)
	assert.ErrorIs(t, err, ErrUnsupportedShell)
}

func TestPruneReportsCount(t *testing.T) {
	home := testHome(t)
	rc := filepath.Join(home, ".envrc")
	writeFile(t, rc, "X=1\n")
	_, err := runCLI(t, home, "allow", rc)
	require.NoError(t, err)
	require.NoError(t, os.Remove(rc))

	out, err := runCLI(t, home, "prune")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 stale entries")

	out, err = runCLI(t, home, "prune")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 0 stale entries")
}

func TestStatusOutput(t *testing.T) {
	home := testHome(t)
	rc := filepath.Join(home, ".envrc")
	writeFile(t, rc, "X=1\n")

	out, err := runCLI(t, home, "status", home)
	require.NoError(t, err)
	assert.Contains(t, out, "no decision (default deny)")
	assert.Contains(t, out, "active profile: none")

	_, err = runCLI(t, home, "allow", rc)
	require.NoError(t, err)

	out, err = runCLI(t, home, "status", home)
	require.NoError(t, err)
	assert.Contains(t, out, "allowed")
}

func TestProfileCommands(t *testing.T) {
	home := testHome(t)
	rc := filepath.Join(home, ".envrc")
	overlay := filepath.Join(home, ".envrc.staging")
	writeFile(t, rc, "VAR=base\n")
	writeFile(t, overlay, "VAR=staging\n")

	_, err := runCLI(t, home, "allow", rc)
	require.NoError(t, err)
	_, err = runCLI(t, home, "allow", overlay)
	require.NoError(t, err)

	_, err = runCLI(t, home, "profile", "use", home, "staging")
	require.NoError(t, err)

	out, err := runCLI(t, home, "profile", "show", home)
	require.NoError(t, err)
	assert.Contains(t, out, "staging")

	out, err = runCLI(t, home, "list", home)
	require.NoError(t, err)
	assert.Contains(t, out, "VAR=staging")

	_, err = runCLI(t, home, "profile", "clear", home)
	require.NoError(t, err)

	out, err = runCLI(t, home, "list", home)
	require.NoError(t, err)
	assert.Contains(t, out, "VAR=base")
}

func TestListMasksSensitiveValues(t *testing.T) {
	home := testHome(t)
	rc := filepath.Join(home, ".envrc")
	writeFile(t, rc, "DB_PASSWORD=hunter2\nGREETING=hello\n")
	_, err := runCLI(t, home, "allow", rc)
	require.NoError(t, err)

	out, err := runCLI(t, home, "list", home)
	require.NoError(t, err)
	assert.Contains(t, out, "DB_PASSWORD=[REDACTED]")
	assert.Contains(t, out, "GREETING=hello")

	out, err = runCLI(t, home, "list", "--show-values", home)
	require.NoError(t, err)
	assert.Contains(t, out, "DB_PASSWORD=hunter2")
}

func TestProfileUseRejectsInvalidName(t *testing.T) {
	home := testHome(t)
	_, err := runCLI(t, home, "profile", "use", home, "bad.name")
	assert.ErrorIs(t, err, profile.ErrInvalidProfileName)
}

func TestAllowTraversalFails(t *testing.T) {
	home := testHome(t)
	_, err := runCLI(t, home, "allow", home+"/../evil/.envrc")
	assert.ErrorIs(t, err, security.ErrPathTraversal)
}

func TestExitCodeMapping(t *testing.T) {
	assert.Equal(t, exitSecurity, exitCode(security.ErrPathTraversal))
	assert.Equal(t, exitValidation, exitCode(envfile.ErrCircularReference))
	assert.Equal(t, exitValidation, exitCode(envfile.ErrExpansionDepthExceeded))
	assert.Equal(t, exitValidation, exitCode(profile.ErrInvalidProfileName))
	assert.Equal(t, exitValidation, exitCode(os.ErrNotExist))
}

func TestMergeEnviron(t *testing.T) {
	environ := []string{"KEEP=ambient", "OVERRIDE=ambient"}
	vars := map[string]string{"OVERRIDE": "loaded", "NEW": "loaded"}

	merged := mergeEnviron(environ, vars)
	assert.Contains(t, merged, "KEEP=ambient")
	assert.Contains(t, merged, "OVERRIDE=loaded")
	assert.Contains(t, merged, "NEW=loaded")
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "'plain'", shellQuote("plain"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
	assert.Equal(t, "''", shellQuote(""))

	assert.Equal(t, "'plain'", fishQuote("plain"))
	assert.Equal(t, `'it\'s'`, fishQuote("it's"))
	assert.Equal(t, `'a\\b'`, fishQuote(`a\b`))
}
