package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/ccw/pkg/ui"
)

var mkdirParent string

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <title>",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runMkdir,
}

func init() {
	mkdirCmd.Flags().StringVarP(&mkdirParent, "parent", "p", "", "Parent folder id (default: root)")
}

func runMkdir(cmd *cobra.Command, args []string) error {
	folder, err := catalogService.CreateFolder(getContext(), parentFromFlag(mkdirParent), args[0])
	if err != nil {
		return err
	}

	fmt.Println(ui.FormatSuccess("Folder created: " + folder.Title))
	fmt.Println(ui.RenderKeyValue("ID", folder.ID))
	return nil
}
