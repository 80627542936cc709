package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/task-agents/native-host/internal/manifest"
	"github.com/task-agents/native-host/pkg/util"
)

// InstallCmd registers the host with browsers, independent of cobra.
type InstallCmd struct {
	hostsDir    func(b manifest.Browser) (string, error)
	registryKey func(b manifest.Browser, name string) string
	executable  func() (string, error)
}

type InstallInput struct {
	Name         string
	ExtensionIDs []string
	Browsers     []string
	BinaryPath   string
	DryRun       bool
	Output       string
}

type UninstallInput struct {
	Name     string
	Browsers []string
}

// installResult is printed for -o json.
type installResult struct {
	Browser     string            `json:"browser"`
	Path        string            `json:"path"`
	RegistryKey string            `json:"registry_key,omitempty"`
	Manifest    manifest.Manifest `json:"manifest"`
	Written     bool              `json:"written"`
}

func newInstallCmd() InstallCmd {
	return InstallCmd{
		hostsDir:    manifest.HostsDir,
		registryKey: manifest.RegistryKey,
		executable:  os.Executable,
	}
}

func (c InstallCmd) Install(ctx context.Context, in InstallInput) error {
	if in.Output != "" && in.Output != "json" {
		return fmt.Errorf("unsupported --output value: use 'json'")
	}

	browsers, err := parseBrowsers(in.Browsers)
	if err != nil {
		return err
	}

	binary, err := c.binaryPath(in.BinaryPath)
	if err != nil {
		return err
	}

	m, err := manifest.New(in.Name, binary, in.ExtensionIDs)
	if err != nil {
		return err
	}

	var results []installResult
	for _, b := range browsers {
		dir, err := c.hostsDir(b)
		if err != nil {
			return err
		}
		res := installResult{
			Browser:     string(b),
			Path:        filepath.Join(dir, manifest.Filename(m.Name)),
			RegistryKey: c.registryKey(b, m.Name),
			Manifest:    m,
		}
		if !in.DryRun {
			if res.Path, err = manifest.Write(m, dir); err != nil {
				return err
			}
			res.Written = true
		}
		results = append(results, res)
	}

	if in.Output == "json" {
		return util.PrintPrettyJSON(results)
	}

	for _, res := range results {
		if in.DryRun {
			pterm.Info.Printf("Would write %s manifest to %s\n", res.Browser, res.Path)
		} else {
			pterm.Success.Printf("Installed %s manifest at %s\n", res.Browser, res.Path)
		}
		if res.RegistryKey != "" {
			pterm.Info.Println("Register it with:")
			fmt.Printf("  reg add \"%s\" /ve /t REG_SZ /d \"%s\" /f\n", res.RegistryKey, res.Path)
		}
	}
	PrintTableNoPad(pterm.TableData{
		{"Property", "Value"},
		{"Host Name", m.Name},
		{"Binary", m.Path},
		{"Allowed Origins", util.JoinOrDash(m.AllowedOrigins...)},
	}, true)
	return nil
}

func (c InstallCmd) Uninstall(ctx context.Context, in UninstallInput) error {
	browsers, err := parseBrowsers(in.Browsers)
	if err != nil {
		return err
	}
	name := in.Name
	if name == "" {
		name = manifest.HostName
	}

	for _, b := range browsers {
		dir, err := c.hostsDir(b)
		if err != nil {
			return err
		}
		removed, err := manifest.Remove(dir, name)
		if err != nil {
			return err
		}
		if removed {
			pterm.Success.Printf("Removed %s manifest from %s\n", b, dir)
		} else {
			pterm.Info.Printf("No %s manifest found in %s\n", b, dir)
		}
		if key := c.registryKey(b, name); key != "" {
			pterm.Info.Printf("Remove the registry key with: reg delete \"%s\" /f\n", key)
		}
	}
	return nil
}

// binaryPath resolves the host binary to the absolute, symlink-free path
// Chrome will execute.
func (c InstallCmd) binaryPath(override string) (string, error) {
	path := override
	if path == "" {
		exe, err := c.executable()
		if err != nil {
			return "", fmt.Errorf("failed to locate the host binary: %w", err)
		}
		path = exe
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("host binary not found at %s: %w", abs, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("host binary path %s is a directory", abs)
	}
	return abs, nil
}

func parseBrowsers(names []string) ([]manifest.Browser, error) {
	if len(names) == 0 {
		return []manifest.Browser{manifest.BrowserChrome}, nil
	}
	supported := manifest.Browsers()
	var out []manifest.Browser
	for _, n := range lo.Uniq(names) {
		b := manifest.Browser(n)
		if !lo.Contains(supported, b) {
			return nil, fmt.Errorf("%w: %s (supported: %s)", manifest.ErrUnsupportedBrowser, n,
				util.JoinOrDash(lo.Map(supported, func(b manifest.Browser, _ int) string { return string(b) })...))
		}
		out = append(out, b)
	}
	return out, nil
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register the native messaging host with the browser",
	Long: `Write the native messaging host manifest so the browser can launch this
binary for the given extensions.

Examples:
  # Chrome, current binary
  task-agents-host install --extension-id abcdefghijklmnopabcdefghijklmnop

  # Chrome and Chromium, preview only
  task-agents-host install --extension-id abcdefghijklmnopabcdefghijklmnop --browser chrome --browser chromium --dry-run`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the native messaging host manifest",
	Args:  cobra.NoArgs,
	RunE:  runUninstall,
}

func init() {
	installCmd.Flags().StringP("output", "o", "", "Output format: json for the written manifests")
	installCmd.Flags().StringSlice("extension-id", []string{}, "Extension id or chrome-extension:// origin allowed to connect (repeatable, required)")
	installCmd.Flags().StringSlice("browser", []string{}, "Browser to register with: chrome, chromium, brave, edge (repeatable, default chrome)")
	installCmd.Flags().String("name", manifest.HostName, "Native messaging host name")
	installCmd.Flags().String("path", "", "Host binary to register (default: this binary)")
	installCmd.Flags().Bool("dry-run", false, "Show what would be written without writing")
	_ = installCmd.MarkFlagRequired("extension-id")

	uninstallCmd.Flags().StringSlice("browser", []string{}, "Browser to unregister from (repeatable, default chrome)")
	uninstallCmd.Flags().String("name", manifest.HostName, "Native messaging host name")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	ids, _ := cmd.Flags().GetStringSlice("extension-id")
	browsers, _ := cmd.Flags().GetStringSlice("browser")
	name, _ := cmd.Flags().GetString("name")
	path, _ := cmd.Flags().GetString("path")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	return newInstallCmd().Install(cmd.Context(), InstallInput{
		Name:         name,
		ExtensionIDs: ids,
		Browsers:     browsers,
		BinaryPath:   path,
		DryRun:       dryRun,
		Output:       output,
	})
}

func runUninstall(cmd *cobra.Command, args []string) error {
	browsers, _ := cmd.Flags().GetStringSlice("browser")
	name, _ := cmd.Flags().GetString("name")

	return newInstallCmd().Uninstall(cmd.Context(), UninstallInput{
		Name:     name,
		Browsers: browsers,
	})
}
