package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/pkg/ui"
)

var rmFolder bool

var rmCmd = &cobra.Command{
	Use:   "rm <entry-id>",
	Short: "Delete a catalog entry",
	Long: `Delete a file or folder record.

Deleting a folder does not delete its children, and blobs are left in storage.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rmCmd.Flags().BoolVar(&rmFolder, "folder", false, "Delete a folder instead of a file")
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	var deleted domain.Entry
	var err error
	if rmFolder {
		deleted, err = catalogService.DeleteFolder(ctx, args[0])
	} else {
		deleted, err = catalogService.DeleteFile(ctx, args[0])
	}
	if err != nil {
		return err
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Deleted %s %s", deleted.Kind(), deleted.DisplayTitle())))
	return nil
}
