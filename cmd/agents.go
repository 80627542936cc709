package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/task-agents/native-host/internal/agents"
	"github.com/task-agents/native-host/pkg/util"
)

// AgentCatalog defines the subset of agents.Catalog that we use.
type AgentCatalog interface {
	List(ctx context.Context) ([]agents.Descriptor, error)
	Find(ctx context.Context, name string) (agents.Descriptor, bool, error)
}

// AgentsCmd handles agent template operations independent of cobra.
type AgentsCmd struct {
	catalog AgentCatalog
	root    string
}

type AgentsListInput struct {
	Output string
}

type AgentsShowInput struct {
	Name   string
	Raw    bool
	Output string
}

var templateStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 1)

func (c AgentsCmd) List(ctx context.Context, in AgentsListInput) error {
	if in.Output != "" && in.Output != "json" {
		return fmt.Errorf("unsupported --output value: use 'json'")
	}

	list, err := c.catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list agents: %w", err)
	}

	if in.Output == "json" {
		if list == nil {
			list = []agents.Descriptor{}
		}
		return util.PrintPrettyJSON(list)
	}

	if len(list) == 0 {
		pterm.Info.Printf("No agents found in %s\n", c.root)
		return nil
	}

	tableData := pterm.TableData{{"Name", "Display Name", "Type", "Description"}}
	for _, a := range list {
		tableData = append(tableData, []string{
			a.Name,
			a.DisplayName,
			a.Type,
			util.OrDash(util.Truncate(a.Description, 60)),
		})
	}
	PrintTableNoPad(tableData, true)
	return nil
}

func (c AgentsCmd) Show(ctx context.Context, in AgentsShowInput) error {
	if in.Output != "" && in.Output != "json" {
		return fmt.Errorf("unsupported --output value: use 'json'")
	}

	a, ok, err := c.catalog.Find(ctx, in.Name)
	if err != nil {
		return fmt.Errorf("failed to list agents: %w", err)
	}
	if !ok {
		return fmt.Errorf("agent '%s' not found in %s", in.Name, c.root)
	}

	if in.Output == "json" {
		return util.PrintPrettyJSON(a)
	}
	if in.Raw {
		fmt.Print(a.Template)
		return nil
	}

	PrintTableNoPad(pterm.TableData{
		{"Property", "Value"},
		{"Name", a.Name},
		{"Display Name", a.DisplayName},
		{"Type", a.Type},
		{"Description", util.OrDash(a.Description)},
	}, true)
	pterm.Println()
	pterm.Println(templateStyle.Render(strings.TrimRight(a.Template, "\n")))
	return nil
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Inspect agent templates",
	Long:  "Commands for inspecting the agent templates the extension offers",
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agent templates",
	Args:  cobra.NoArgs,
	RunE:  runAgentsList,
}

var agentsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show an agent template",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentsShow,
}

func init() {
	agentsListCmd.Flags().StringP("output", "o", "", "Output format: json for the raw host response")

	agentsShowCmd.Flags().StringP("output", "o", "", "Output format: json for the raw host response")
	agentsShowCmd.Flags().Bool("raw", false, "Print only the template text")

	agentsCmd.AddCommand(agentsListCmd)
	agentsCmd.AddCommand(agentsShowCmd)
	rootCmd.AddCommand(agentsCmd)
}

func runAgentsList(cmd *cobra.Command, args []string) error {
	rt := getRuntime(cmd)
	output, _ := cmd.Flags().GetString("output")

	c := AgentsCmd{catalog: rt.catalog(), root: rt.cfg.AgentsRoot}
	return c.List(cmd.Context(), AgentsListInput{Output: output})
}

func runAgentsShow(cmd *cobra.Command, args []string) error {
	rt := getRuntime(cmd)
	output, _ := cmd.Flags().GetString("output")
	raw, _ := cmd.Flags().GetBool("raw")

	c := AgentsCmd{catalog: rt.catalog(), root: rt.cfg.AgentsRoot}
	return c.Show(cmd.Context(), AgentsShowInput{
		Name:   args[0],
		Raw:    raw,
		Output: output,
	})
}
