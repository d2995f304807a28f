package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/pkg/ui"
)

var statsOut string

var statsCmd = &cobra.Command{
	Use:   "stats [folder-id]",
	Short: "Show catalog statistics",
	Long: `Walk a folder (or the whole catalog from the root) and summarize its files.

Includes:
  - File and folder counts
  - Total stored bytes
  - Breakdown by content type

An HTML report with charts is written to --out (default: <data dir>/reports/stats.html).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsOut, "out", "o", "", "Path of the HTML report")
}

// typeStat aggregates the files of one content type
type typeStat struct {
	ContentType string
	Files       int
	Bytes       int64
}

// catalogStats is the result of walking a folder tree
type catalogStats struct {
	Folders int
	Files   int
	Bytes   int64
	ByType  []typeStat // largest first
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	scope := "catalog"
	root := domain.Root()
	if len(args) == 1 {
		folder, err := catalogService.GetFolder(ctx, args[0])
		if err != nil {
			return fmt.Errorf("folder %s: %w", args[0], err)
		}
		scope = folder.Title
		root = domain.InFolder(folder.ID)
	}

	fmt.Println(ui.FormatRocket("Analyzing " + scope + "..."))

	stats, err := collectStats(ctx, root)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Folders", fmt.Sprintf("%d", stats.Folders)))
	fmt.Println(ui.RenderKeyValue("Files", fmt.Sprintf("%d", stats.Files)))
	fmt.Println(ui.RenderKeyValue("Stored", ui.HumanSize(stats.Bytes)))

	if len(stats.ByType) > 0 {
		fmt.Println()
		t := ui.NewTable([]ui.TableColumn{
			{Header: "TYPE"},
			{Header: "FILES", Align: "right"},
			{Header: "SIZE", Align: "right"},
		})
		for _, ts := range stats.ByType {
			t.AddRow([]string{ts.ContentType, fmt.Sprintf("%d", ts.Files), ui.HumanSize(ts.Bytes)})
		}
		fmt.Print(t.Render())
	}

	out := statsOut
	if out == "" {
		out = appHome.ReportPath("stats.html")
	}
	if err := writeStatsReport(out, scope, stats); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(ui.FormatSuccess("Report written to " + out))
	return nil
}

// collectStats walks the folder tree below parent breadth-first
func collectStats(ctx context.Context, parent *string) (*catalogStats, error) {
	var files []*domain.File
	folders := 0
	visited := map[string]bool{}

	queue := []*string{parent}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		entries, err := catalogService.GetEntriesByParent(ctx, current)
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			switch e := entry.(type) {
			case *domain.File:
				files = append(files, e)
			case *domain.Folder:
				if visited[e.ID] {
					continue
				}
				visited[e.ID] = true
				folders++
				queue = append(queue, domain.InFolder(e.ID))
			}
		}
	}

	stats := summarizeFiles(files)
	stats.Folders = folders
	return stats, nil
}

// summarizeFiles aggregates files by content type
func summarizeFiles(files []*domain.File) *catalogStats {
	stats := &catalogStats{}
	byType := map[string]*typeStat{}

	for _, f := range files {
		stats.Files++
		stats.Bytes += f.Size

		ct := f.MimeType
		if ct == "" {
			ct = domain.DefaultMimeType
		}
		ts, ok := byType[ct]
		if !ok {
			ts = &typeStat{ContentType: ct}
			byType[ct] = ts
		}
		ts.Files++
		ts.Bytes += f.Size
	}

	for _, ts := range byType {
		stats.ByType = append(stats.ByType, *ts)
	}
	sort.Slice(stats.ByType, func(i, j int) bool {
		a, b := stats.ByType[i], stats.ByType[j]
		if a.Bytes != b.Bytes {
			return a.Bytes > b.Bytes
		}
		return a.ContentType < b.ContentType
	})

	return stats
}

// writeStatsReport renders the breakdown as an HTML page with two charts
func writeStatsReport(path, scope string, stats *catalogStats) error {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Stored bytes by type", Subtitle: scope}),
	)
	pieData := make([]opts.PieData, 0, len(stats.ByType))
	for _, ts := range stats.ByType {
		pieData = append(pieData, opts.PieData{Name: ts.ContentType, Value: ts.Bytes})
	}
	pie.AddSeries("bytes", pieData)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Files by type", Subtitle: scope}),
	)
	names := make([]string, 0, len(stats.ByType))
	barData := make([]opts.BarData, 0, len(stats.ByType))
	for _, ts := range stats.ByType {
		names = append(names, ts.ContentType)
		barData = append(barData, opts.BarData{Value: ts.Files})
	}
	bar.SetXAxis(names).AddSeries("files", barData)

	page := components.NewPage()
	page.PageTitle = "ccw stats"
	page.AddCharts(pie, bar)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
