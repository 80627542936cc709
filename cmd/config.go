package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/task-agents/native-host/internal/config"
	"github.com/task-agents/native-host/pkg/util"
)

// ConfigCmd prints the effective configuration.
type ConfigCmd struct {
	path string
	cfg  *config.Config
}

type ConfigShowInput struct {
	Output string
}

func (c ConfigCmd) Show(ctx context.Context, in ConfigShowInput) error {
	if in.Output != "" && in.Output != "json" && in.Output != "toml" {
		return fmt.Errorf("unsupported --output value: use 'json' or 'toml'")
	}

	if in.Output == "json" {
		return util.PrintPrettyJSON(c.cfg)
	}

	data, err := c.cfg.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if in.Output == "toml" {
		fmt.Print(string(data))
		return nil
	}

	if _, err := os.Stat(c.path); err == nil {
		pterm.Info.Printf("Configuration file: %s\n", c.path)
	} else {
		pterm.Info.Printf("Configuration file: %s (not found, using defaults)\n", c.path)
	}
	pterm.Println()
	pterm.Println(string(data))
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the host configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration after file and environment overrides",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configShowCmd.Flags().StringP("output", "o", "", "Output format: json or toml")

	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	rt := getRuntime(cmd)
	output, _ := cmd.Flags().GetString("output")

	c := ConfigCmd{path: rt.configPath, cfg: rt.cfg}
	return c.Show(cmd.Context(), ConfigShowInput{Output: output})
}
