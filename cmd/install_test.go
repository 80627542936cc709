package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/task-agents/native-host/internal/manifest"
)

const testExtensionID = "abcdefghijklmnopabcdefghijklmnop"

func newTestInstallCmd(t *testing.T) (InstallCmd, string, string) {
	t.Helper()
	root := t.TempDir()
	binary := filepath.Join(root, "bin", "task-agents-host")
	require.NoError(t, os.MkdirAll(filepath.Dir(binary), 0755))
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0755))

	hosts := filepath.Join(root, "hosts")
	c := InstallCmd{
		hostsDir: func(b manifest.Browser) (string, error) {
			return filepath.Join(hosts, string(b)), nil
		},
		registryKey: func(manifest.Browser, string) string { return "" },
		executable:  func() (string, error) { return binary, nil },
	}
	return c, hosts, binary
}

func TestInstall_WritesManifest(t *testing.T) {
	setupStdoutCapture(t)
	c, hosts, binary := newTestInstallCmd(t)

	err := c.Install(context.Background(), InstallInput{
		ExtensionIDs: []string{testExtensionID},
		Browsers:     []string{"chrome", "chromium"},
	})
	require.NoError(t, err)

	for _, b := range []string{"chrome", "chromium"} {
		m, err := manifest.Read(filepath.Join(hosts, b), manifest.HostName)
		require.NoError(t, err, b)
		resolved, err := filepath.EvalSymlinks(binary)
		require.NoError(t, err)
		assert.Equal(t, resolved, m.Path)
		assert.Equal(t, []string{"chrome-extension://" + testExtensionID + "/"}, m.AllowedOrigins)
	}
	assert.Contains(t, outBuf.String(), "Installed chrome manifest")
}

func TestInstall_DryRunWritesNothing(t *testing.T) {
	setupStdoutCapture(t)
	c, hosts, _ := newTestInstallCmd(t)

	require.NoError(t, c.Install(context.Background(), InstallInput{
		ExtensionIDs: []string{testExtensionID},
		DryRun:       true,
	}))

	_, err := os.Stat(filepath.Join(hosts, "chrome"))
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, outBuf.String(), "Would write chrome manifest")
}

func TestInstall_JSONOutput(t *testing.T) {
	setupStdoutCapture(t)
	read := captureStdout(t)
	c, _, _ := newTestInstallCmd(t)

	require.NoError(t, c.Install(context.Background(), InstallInput{
		ExtensionIDs: []string{testExtensionID},
		Output:       "json",
	}))

	out := read()
	assert.Contains(t, out, `"allowed_origins"`)
	assert.Contains(t, out, `"written": true`)
}

func TestInstall_RejectsBadInput(t *testing.T) {
	c, _, _ := newTestInstallCmd(t)

	err := c.Install(context.Background(), InstallInput{ExtensionIDs: []string{testExtensionID}, Browsers: []string{"netscape"}})
	assert.ErrorIs(t, err, manifest.ErrUnsupportedBrowser)

	err = c.Install(context.Background(), InstallInput{ExtensionIDs: []string{"not-an-id"}})
	assert.ErrorIs(t, err, manifest.ErrInvalidExtensionID)

	err = c.Install(context.Background(), InstallInput{ExtensionIDs: []string{testExtensionID}, BinaryPath: "/does/not/exist"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host binary not found")
}

func TestUninstall(t *testing.T) {
	setupStdoutCapture(t)
	c, hosts, _ := newTestInstallCmd(t)

	require.NoError(t, c.Install(context.Background(), InstallInput{ExtensionIDs: []string{testExtensionID}}))
	require.NoError(t, c.Uninstall(context.Background(), UninstallInput{}))

	_, err := os.Stat(filepath.Join(hosts, "chrome", manifest.Filename(manifest.HostName)))
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, outBuf.String(), "Removed chrome manifest")

	require.NoError(t, c.Uninstall(context.Background(), UninstallInput{}))
	assert.Contains(t, outBuf.String(), "No chrome manifest found")
}
