package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/browser"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/task-agents/native-host/internal/resolver"
	"github.com/task-agents/native-host/pkg/util"
)

// ResolverService is the part of resolver.Resolver the resolve commands use.
type ResolverService interface {
	ResolveFile(ctx context.Context, filename string, searchPaths []string) resolver.Result
	ResolveFolder(ctx context.Context, foldername string) resolver.Result
	FallbackDirectories() []string
}

// ResolveCmd runs lookups from the terminal, independent of cobra.
type ResolveCmd struct {
	resolver ResolverService
	open     func(path string) error
}

type ResolveFileInput struct {
	Filename    string
	SearchPaths []string
	Open        bool
	Output      string
}

type ResolveFolderInput struct {
	Foldername string
	Open       bool
	Output     string
}

func (c ResolveCmd) File(ctx context.Context, in ResolveFileInput) error {
	if in.Output != "" && in.Output != "json" {
		return fmt.Errorf("unsupported --output value: use 'json'")
	}

	res := c.resolver.ResolveFile(ctx, in.Filename, in.SearchPaths)
	if in.Output == "json" {
		return util.PrintPrettyJSON(res)
	}
	if !res.Success {
		c.printMiss(res)
		return fmt.Errorf("%s", res.Error)
	}

	size := "-"
	if res.Size != nil {
		size = fmt.Sprintf("%s (%d bytes)", util.FormatBytes(*res.Size), *res.Size)
	}
	PrintTableNoPad(pterm.TableData{
		{"Property", "Value"},
		{"Path", res.Path},
		{"Size", size},
		{"Modified", util.OrDash(res.Modified)},
		{"Found By", util.OrDash(string(res.Tier))},
	}, true)

	return c.maybeOpen(in.Open, res.Path)
}

func (c ResolveCmd) Folder(ctx context.Context, in ResolveFolderInput) error {
	if in.Output != "" && in.Output != "json" {
		return fmt.Errorf("unsupported --output value: use 'json'")
	}

	res := c.resolver.ResolveFolder(ctx, in.Foldername)
	if in.Output == "json" {
		return util.PrintPrettyJSON(res)
	}
	if !res.Success {
		c.printMiss(res)
		return fmt.Errorf("%s", res.Error)
	}

	PrintTableNoPad(pterm.TableData{
		{"Property", "Value"},
		{"Path", res.Path},
		{"Found By", util.OrDash(string(res.Tier))},
	}, true)

	return c.maybeOpen(in.Open, res.Path)
}

func (c ResolveCmd) printMiss(res resolver.Result) {
	pterm.Warning.Println(res.Error)
	if res.SearchedPaths != nil && len(*res.SearchedPaths) > 0 {
		pterm.Info.Printf("Search paths: %s\n", strings.Join(*res.SearchedPaths, ", "))
	}
	pterm.Info.Printf("Fallback directories: %s\n", util.JoinOrDash(c.resolver.FallbackDirectories()...))
}

func (c ResolveCmd) maybeOpen(open bool, path string) error {
	if !open {
		return nil
	}
	if err := c.open(path); err != nil {
		pterm.Warning.Printf("Could not open %s: %v\n", path, err)
		return nil
	}
	pterm.Success.Printf("Opened %s\n", path)
	return nil
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve file and folder names to absolute paths",
	Long:  "Run the same lookups the extension requests: caller search paths first, then the configured fallback directories",
}

var resolveFileCmd = &cobra.Command{
	Use:   "file <filename>",
	Short: "Find a file by name",
	Long: `Find a regular file by name.

Each --search-path is checked first, in order. A bare name is then looked
up below the fallback directories with the fast search and, failing
that, the depth-bounded recursive search.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolveFile,
}

var resolveFolderCmd = &cobra.Command{
	Use:   "folder <foldername>",
	Short: "Find a folder by name below the fallback directories",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolveFolder,
}

func init() {
	resolveFileCmd.Flags().StringP("output", "o", "", "Output format: json for the raw host response")
	resolveFileCmd.Flags().StringArray("search-path", []string{}, "Directory to check before the fallback directories (repeatable)")
	resolveFileCmd.Flags().Bool("open", false, "Open the file with the default application")

	resolveFolderCmd.Flags().StringP("output", "o", "", "Output format: json for the raw host response")
	resolveFolderCmd.Flags().Bool("open", false, "Open the folder in the file manager")

	resolveCmd.AddCommand(resolveFileCmd)
	resolveCmd.AddCommand(resolveFolderCmd)
	rootCmd.AddCommand(resolveCmd)
}

func runResolveFile(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	searchPaths, _ := cmd.Flags().GetStringArray("search-path")
	open, _ := cmd.Flags().GetBool("open")

	c := ResolveCmd{resolver: getRuntime(cmd).resolver(), open: browser.OpenFile}
	return c.File(cmd.Context(), ResolveFileInput{
		Filename:    args[0],
		SearchPaths: searchPaths,
		Open:        open,
		Output:      output,
	})
}

func runResolveFolder(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	open, _ := cmd.Flags().GetBool("open")

	c := ResolveCmd{resolver: getRuntime(cmd).resolver(), open: browser.OpenFile}
	return c.Folder(cmd.Context(), ResolveFolderInput{
		Foldername: args[0],
		Open:       open,
		Output:     output,
	})
}
