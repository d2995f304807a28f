package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/ccw/internal/core/services"
	"github.com/kamal-hamza/ccw/pkg/ui"
)

var (
	putParent string
	putType   string
	putName   string
)

var putCmd = &cobra.Command{
	Use:   "put <path>",
	Short: "Upload a local file into the catalog",
	Long: `Upload a local file as a new catalog entry.

The content type is derived from the file extension unless --type is given.
The printed id can be used as the --src of a job.`,
	Args: cobra.ExactArgs(1),
	RunE: runPut,
}

func init() {
	putCmd.Flags().StringVarP(&putParent, "parent", "p", "", "Destination folder id (default: root)")
	putCmd.Flags().StringVar(&putType, "type", "", "Content type override")
	putCmd.Flags().StringVar(&putName, "name", "", "Entry title (default: file name)")
}

func runPut(cmd *cobra.Command, args []string) error {
	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}

	name := putName
	if name == "" {
		name = filepath.Base(path)
	}
	contentType := putType
	if contentType == "" {
		contentType = services.ContentTypeOf(name)
	}

	ctx := getContext()
	if putParent != "" {
		if _, err := catalogService.GetFolder(ctx, putParent); err != nil {
			return fmt.Errorf("folder %s: %w", putParent, err)
		}
	}

	file, err := catalogService.Upload(ctx, services.UploadRequest{
		FolderID:    putParent,
		Name:        name,
		Size:        info.Size(),
		ContentType: contentType,
		Path:        path,
	})
	if err != nil {
		return err
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Uploaded %s (%s)", file.Title, ui.HumanSize(file.Size))))
	fmt.Println(ui.RenderKeyValue("ID", file.ID))
	fmt.Println(ui.RenderKeyValue("URL", file.DownloadURL))
	return nil
}
