package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kamal-hamza/ccw/pkg/ui"
)

var configShow bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Edit the ccw configuration file",
	Long: `Open the configuration file in $EDITOR.

With --show, print the effective configuration (file values, defaults and flags merged).`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configShow, "show", false, "Print the effective configuration")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if configShow {
		data, err := yaml.Marshal(appConfig)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Println(ui.FormatMuted("# " + configPath))
		fmt.Print(string(data))
		return nil
	}

	// Ensure it exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found at %s (run 'ccw init')", configPath)
	}

	fmt.Println(ui.FormatInfo("Opening config: " + configPath))
	return OpenInEditor(configPath)
}
