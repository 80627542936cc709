package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/task-agents/native-host/internal/history"
	"github.com/task-agents/native-host/pkg/util"
)

// HistoryService defines the subset of history.Store that we use.
type HistoryService interface {
	List() ([]history.Entry, error)
	Clear() error
}

// HistoryCmd handles command history operations independent of cobra.
type HistoryCmd struct {
	store HistoryService
}

type HistoryListInput struct {
	Limit  int
	Output string
}

type HistoryClearInput struct {
	SkipConfirm bool
}

func (c HistoryCmd) List(ctx context.Context, in HistoryListInput) error {
	if in.Output != "" && in.Output != "json" {
		return fmt.Errorf("unsupported --output value: use 'json'")
	}
	if in.Limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	entries, err := c.store.List()
	if err != nil {
		return err
	}
	if in.Limit > 0 && len(entries) > in.Limit {
		entries = entries[:in.Limit]
	}

	if in.Output == "json" {
		return util.PrintPrettyJSON(entries)
	}

	if len(entries) == 0 {
		pterm.Info.Println("No saved commands")
		return nil
	}

	tableData := pterm.TableData{{"ID", "Saved", "Agent", "Prompt", "Files"}}
	for _, e := range entries {
		tableData = append(tableData, []string{
			e.ID,
			util.FormatMillis(e.Timestamp),
			util.OrDash(e.Agent),
			util.OrDash(util.Truncate(e.Prompt, 50)),
			strconv.Itoa(len(e.Files)),
		})
	}
	PrintTableNoPad(tableData, true)
	return nil
}

func (c HistoryCmd) Clear(ctx context.Context, in HistoryClearInput) error {
	if !in.SkipConfirm {
		pterm.DefaultInteractiveConfirm.DefaultText = "Are you sure you want to clear the command history?"
		ok, _ := pterm.DefaultInteractiveConfirm.Show()
		if !ok {
			pterm.Info.Println("Clear cancelled")
			return nil
		}
	}

	if err := c.store.Clear(); err != nil {
		return err
	}
	pterm.Success.Println("Cleared command history")
	return nil
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage saved commands",
	Long:  "Commands for the command history the extension saves through the host",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved commands, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved command",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	historyListCmd.Flags().StringP("output", "o", "", "Output format: json for the raw host response")
	historyListCmd.Flags().Int("limit", 0, "Maximum number of entries to show")

	historyClearCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := getRuntime(cmd).history()
	if err != nil {
		return err
	}
	c := HistoryCmd{store: store}
	return c.List(cmd.Context(), HistoryListInput{Limit: limit, Output: output})
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	skip, _ := cmd.Flags().GetBool("yes")

	store, err := getRuntime(cmd).history()
	if err != nil {
		return err
	}
	c := HistoryCmd{store: store}
	return c.Clear(cmd.Context(), HistoryClearInput{SkipConfirm: skip})
}
