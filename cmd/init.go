package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/ccw/pkg/config"
	"github.com/kamal-hamza/ccw/pkg/ui"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the ccw data directory",
	Long: `Initialize the local data directory and a default configuration.

This creates ~/.local/share/ccw/ with the following structure:
  - spool/     : Queued job descriptors (local backend)
  - blobs/     : Stored file contents (local backend)
  - contexts/  : Image build contexts, one directory per image
  - reports/   : Generated reports
and writes ~/.config/ccw/config.yaml when it does not exist.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	if appHome.Exists() {
		fmt.Println(ui.FormatWarning("Data directory already initialized"))
		fmt.Println(ui.FormatMuted("Location: " + appHome.RootPath))
		return nil
	}

	fmt.Println(ui.FormatRocket("Initializing ccw..."))
	fmt.Println()

	if err := appHome.Initialize(); err != nil {
		fmt.Println(ui.FormatError("Failed to initialize data directory"))
		return err
	}

	if err := createDefaultConfig(configPath); err != nil {
		fmt.Println(ui.FormatWarning("Failed to create default config: " + err.Error()))
	} else {
		fmt.Println(ui.FormatSuccess("Configuration ready"))
	}

	if err := createExampleContext(appHome.ContextPath("example")); err != nil {
		fmt.Println(ui.FormatWarning("Failed to create example build context: " + err.Error()))
	} else {
		fmt.Println(ui.FormatSuccess("Example build context (contexts/example) created"))
	}

	fmt.Println(ui.FormatSuccess("Data directory initialized successfully!"))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Location", appHome.RootPath))
	fmt.Println(ui.RenderKeyValue("Config", configPath))
	fmt.Println()
	fmt.Println(ui.FormatInfo("Next steps:"))
	fmt.Println(ui.FormatMuted("  1. Upload an input: ccw put ./photo.png"))
	fmt.Println(ui.FormatMuted("  2. Create an output folder: ccw mkdir results"))
	fmt.Println(ui.FormatMuted("  3. Queue a job: ccw submit --image example --cmd 'ls -l' --src <file> --dst <folder>"))
	fmt.Println(ui.FormatMuted("  4. Start the worker: ccw run"))

	return nil
}

// createDefaultConfig writes the default configuration unless a file already exists
func createDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return config.DefaultConfig().Save(path)
}

func createExampleContext(dir string) error {
	content := `# Build context for the "example" image.
# Jobs run with the workspace mounted at the configured mount path.
FROM alpine:3.20
RUN apk add --no-cache file
`
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create context directory: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(content), 0644)
}
