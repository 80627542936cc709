package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/task-agents/native-host/internal/config"
	"github.com/task-agents/native-host/internal/manifest"
	"github.com/task-agents/native-host/pkg/util"
)

type statusCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type statusGroup struct {
	Name   string        `json:"name"`
	Checks []statusCheck `json:"checks"`
}

type statusResponse struct {
	Status string        `json:"status"`
	Groups []statusGroup `json:"groups"`
}

const (
	statusOK      = "ok"
	statusWarning = "warning"
	statusMissing = "missing"
)

// StatusCmd reports whether the host is installed and its paths are usable.
type StatusCmd struct {
	configPath string
	cfg        *config.Config
	hostsDir   func(b manifest.Browser) (string, error)
}

type StatusInput struct {
	Output string
}

func (c StatusCmd) Run(ctx context.Context, in StatusInput) error {
	if in.Output != "" && in.Output != "json" {
		return fmt.Errorf("unsupported --output value: use 'json'")
	}

	resp := c.collect()
	if in.Output == "json" {
		return util.PrintPrettyJSON(resp)
	}
	printStatus(resp)
	return nil
}

func (c StatusCmd) collect() statusResponse {
	paths := statusGroup{Name: "Paths", Checks: []statusCheck{
		pathCheck("Config file", c.configPath, false, statusWarning),
		pathCheck("Agents root", c.cfg.AgentsRoot, true, statusMissing),
		pathCheck("History file", c.cfg.HistoryFile, false, statusWarning),
		pathCheck("Log file", c.cfg.LogFile, false, statusWarning),
	}}

	fallbacks := statusGroup{Name: "Fallback Directories"}
	for _, dir := range c.cfg.FallbackDirectories {
		fallbacks.Checks = append(fallbacks.Checks, pathCheck(dir, dir, true, statusMissing))
	}

	browsers := statusGroup{Name: "Browsers"}
	for _, b := range manifest.Browsers() {
		check := statusCheck{Name: string(b), Status: statusMissing}
		dir, err := c.hostsDir(b)
		if err != nil {
			check.Detail = err.Error()
			browsers.Checks = append(browsers.Checks, check)
			continue
		}
		m, err := manifest.Read(dir, manifest.HostName)
		switch {
		case err == nil:
			check.Status = statusOK
			check.Detail = util.JoinOrDash(m.AllowedOrigins...)
			if _, statErr := os.Stat(m.Path); statErr != nil {
				check.Status = statusWarning
				check.Detail = "manifest points at missing binary " + m.Path
			}
		case os.IsNotExist(err):
			check.Detail = "not installed"
		default:
			check.Status = statusWarning
			check.Detail = err.Error()
		}
		browsers.Checks = append(browsers.Checks, check)
	}

	groups := []statusGroup{paths, fallbacks, browsers}
	overall := statusOK
	all := lo.FlatMap(groups, func(g statusGroup, _ int) []statusCheck { return g.Checks })
	if lo.ContainsBy(all, func(c statusCheck) bool { return c.Status != statusOK && c.Name != "Config file" }) {
		overall = statusWarning
	}
	// A host no browser knows about cannot be reached at all.
	if !lo.ContainsBy(browsers.Checks, func(c statusCheck) bool { return c.Status == statusOK }) {
		overall = statusMissing
	}
	return statusResponse{Status: overall, Groups: groups}
}

func pathCheck(name, path string, wantDir bool, absent string) statusCheck {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir() != wantDir:
		kind := "a file"
		if wantDir {
			kind = "a directory"
		}
		return statusCheck{Name: name, Status: statusWarning, Detail: fmt.Sprintf("%s is not %s", path, kind)}
	case err == nil:
		return statusCheck{Name: name, Status: statusOK, Detail: path}
	case os.IsNotExist(err):
		return statusCheck{Name: name, Status: absent, Detail: path + " (not found)"}
	default:
		return statusCheck{Name: name, Status: statusWarning, Detail: err.Error()}
	}
}

var statusDisplay = map[string]struct {
	label string
	rgb   pterm.RGB
}{
	statusOK:      {label: "OK", rgb: pterm.NewRGB(31, 163, 130)},
	statusWarning: {label: "Warning", rgb: pterm.NewRGB(245, 158, 11)},
	statusMissing: {label: "Missing", rgb: pterm.NewRGB(239, 68, 68)},
}

func getStatusDisplay(status string) (string, pterm.RGB) {
	if d, ok := statusDisplay[status]; ok {
		return d.label, d.rgb
	}
	return "Unknown", pterm.NewRGB(128, 128, 128)
}

func coloredDot(rgb pterm.RGB) string {
	return rgb.Sprint("●")
}

func printStatus(resp statusResponse) {
	label, rgb := getStatusDisplay(resp.Status)
	pterm.Println()
	pterm.Println("  " + fmt.Sprintf("Host Status: %s", rgb.Sprint(label)))

	for _, group := range resp.Groups {
		pterm.Println()
		pterm.Println("  " + pterm.Bold.Sprint(group.Name))
		if len(group.Checks) == 0 {
			pterm.Println("    -")
			continue
		}
		for _, check := range group.Checks {
			checkLabel, checkColor := getStatusDisplay(check.Status)
			pterm.Printf("    %s %-20s %-8s %s\n", coloredDot(checkColor), check.Name, checkLabel, check.Detail)
		}
	}
	pterm.Println()
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the host installation and configured paths",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringP("output", "o", "", "Output format (json)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	rt := getRuntime(cmd)
	output, _ := cmd.Flags().GetString("output")

	c := StatusCmd{configPath: rt.configPath, cfg: rt.cfg, hostsDir: manifest.HostsDir}
	return c.Run(cmd.Context(), StatusInput{Output: output})
}
