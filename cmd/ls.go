package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/pkg/ui"
)

var lsCmd = &cobra.Command{
	Use:     "ls [folder-id]",
	Aliases: []string{"list"},
	Short:   "List the entries of a folder",
	Long:    `List the files and folders inside a folder, or at the root when no folder is given. (alias: list)`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runLs,
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	parent := domain.Root()
	if len(args) == 1 {
		folder, err := catalogService.GetFolder(ctx, args[0])
		if err != nil {
			return fmt.Errorf("folder %s: %w", args[0], err)
		}
		parent = domain.InFolder(folder.ID)
		fmt.Println(ui.FormatHeader(ui.IconFolder, folder.Title))
	}

	entries, err := catalogService.GetEntriesByParent(ctx, parent)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println(ui.FormatMuted("(empty)"))
		return nil
	}

	sortEntries(entries)
	fmt.Print(renderEntries(entries))
	fmt.Println(ui.FormatMuted(fmt.Sprintf("%d entr%s", len(entries), plural(len(entries), "y", "ies"))))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
