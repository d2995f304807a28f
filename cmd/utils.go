package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/pkg/ui"
)

// GetPreferredEditor returns the editor command from env, or default
func GetPreferredEditor() string {
	if env := os.Getenv("EDITOR"); env != "" {
		return env
	}
	return "vi"
}

// OpenInEditor opens path in the user's editor and waits for it to exit
func OpenInEditor(path string) error {
	c := exec.Command(GetPreferredEditor(), path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}

// parentFromFlag maps an optional folder id flag to a parent pointer (empty = root)
func parentFromFlag(id string) *string {
	return domain.InFolder(strings.TrimSpace(id))
}

// sortEntries orders folders before files, then by title
func sortEntries(entries []domain.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Kind() != b.Kind() {
			return a.Kind() == domain.KindFolder
		}
		return strings.ToLower(a.DisplayTitle()) < strings.ToLower(b.DisplayTitle())
	})
}

// entryIcon returns the icon of an entry kind
func entryIcon(entry domain.Entry) string {
	switch entry.(type) {
	case *domain.Folder:
		return ui.IconFolder
	default:
		return ui.IconFile
	}
}

// renderEntries renders entries as a table
func renderEntries(entries []domain.Entry) string {
	table := ui.NewTable([]ui.TableColumn{
		{Header: "", Width: 2},
		{Header: "ID", Width: 36},
		{Header: "TITLE", Width: 20},
		{Header: "TYPE"},
		{Header: "SIZE", Align: "right"},
		{Header: "MODIFIED"},
	})

	for _, entry := range entries {
		kind, size := "folder", "-"
		if f, ok := entry.(*domain.File); ok {
			kind = f.MimeType
			size = ui.HumanSize(f.Size)
		}
		table.AddRow([]string{
			entryIcon(entry),
			entry.EntryID(),
			entry.DisplayTitle(),
			kind,
			size,
			entry.Modified().Local().Format("2006-01-02 15:04"),
		})
	}

	return table.Render()
}

// describeEntry renders the details of a single entry
func describeEntry(entry domain.Entry) string {
	var b strings.Builder
	fmt.Fprintln(&b, ui.FormatHeader(entryIcon(entry), entry.DisplayTitle()))
	fmt.Fprintln(&b, ui.RenderKeyValue("ID", entry.EntryID()))
	fmt.Fprintln(&b, ui.RenderKeyValue("Kind", string(entry.Kind())))
	fmt.Fprintln(&b, ui.RenderKeyValue("Parent", domain.ParentString(entry.Parent())))
	fmt.Fprintln(&b, ui.RenderKeyValue("Created", entry.Created().Local().Format("2006-01-02 15:04:05")))
	fmt.Fprintln(&b, ui.RenderKeyValue("Modified", entry.Modified().Local().Format("2006-01-02 15:04:05")))

	if f, ok := entry.(*domain.File); ok {
		fmt.Fprintln(&b, ui.RenderKeyValue("Type", f.MimeType))
		fmt.Fprintln(&b, ui.RenderKeyValue("Size", fmt.Sprintf("%s (%d bytes)", ui.HumanSize(f.Size), f.Size)))
		if f.OriginalFilename != "" {
			fmt.Fprintln(&b, ui.RenderKeyValue("Original name", f.OriginalFilename))
		}
		if f.Checksum != "" {
			fmt.Fprintln(&b, ui.RenderKeyValue("BLAKE3", f.Checksum))
		}
		fmt.Fprintln(&b, ui.RenderKeyValue("URL", f.DownloadURL))
	}

	return b.String()
}
