package cmd

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/pkg/ui"
)

var (
	getFolder bool
	getCopy   bool
	getIn     string
)

var getCmd = &cobra.Command{
	Use:   "get [entry-id]",
	Short: "Show an entry",
	Long: `Show the metadata of a file or folder.

Without an id, an interactive picker lists the entries of --in (or the root).
--copy puts a file's download URL on the clipboard.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getFolder, "folder", false, "Look the id up as a folder")
	getCmd.Flags().BoolVar(&getCopy, "copy", false, "Copy the download URL to the clipboard")
	getCmd.Flags().StringVar(&getIn, "in", "", "Folder to pick from when no id is given")
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	var entry domain.Entry
	var err error

	switch {
	case len(args) == 1 && getFolder:
		entry, err = catalogService.GetFolder(ctx, args[0])
	case len(args) == 1:
		entry, err = catalogService.GetEntry(ctx, args[0])
	default:
		entry, err = pickEntry(parentFromFlag(getIn))
	}
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}

	fmt.Print(describeEntry(entry))

	if getCopy {
		file, ok := entry.(*domain.File)
		if !ok {
			return fmt.Errorf("%s is a folder and has no download URL", entry.EntryID())
		}
		if err := clipboard.WriteAll(file.DownloadURL); err != nil {
			fmt.Println(ui.FormatMuted("(Clipboard access failed)"))
		} else {
			fmt.Println(ui.FormatSuccess("Download URL copied"))
		}
	}

	return nil
}

// pickEntry launches the fuzzy finder over the entries of a folder
func pickEntry(parent *string) (domain.Entry, error) {
	entries, err := catalogService.GetEntriesByParent(getContext(), parent)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		fmt.Println(ui.FormatInfo("No entries in " + domain.ParentString(parent)))
		return nil, nil
	}
	sortEntries(entries)

	idx, err := fuzzyfinder.Find(
		entries,
		func(i int) string {
			e := entries[i]
			return fmt.Sprintf("%s %s  %s", entryIcon(e), e.DisplayTitle(), e.EntryID())
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return describeEntry(entries[i])
		}),
		fuzzyfinder.WithPromptString(ui.IconFolder+" "),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			fmt.Println(ui.FormatInfo("Selection cancelled."))
			return nil, nil
		}
		return nil, err
	}

	return entries[idx], nil
}
