package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/ccw/internal/adapters/container"
	"github.com/kamal-hamza/ccw/pkg/config"
	"github.com/kamal-hamza/ccw/pkg/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the health of your ccw installation",
	Long: `Diagnose issues with your CCW setup.

Checks for:
  - Data directory and configuration
  - Docker binary and daemon
  - Build contexts
  - Queue backlog (local backend)`,
	Run: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) {
	fmt.Println(ui.FormatTitle("🏥 CCW Doctor"))
	fmt.Println()

	// 1. Local state
	checkStep("Data Directory", func() error {
		if !appHome.Exists() {
			return fmt.Errorf("not found at %s (run 'ccw init')", appHome.RootPath)
		}
		return nil
	})

	checkStep("Configuration File", func() error {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return fmt.Errorf("missing at %s (defaults in use)", configPath)
		}
		return nil
	})

	checkStep("Configuration", func() error {
		return appConfig.Validate()
	})

	// 2. Container runtime
	checkStep("docker (Runtime)", func() error {
		if !container.IsAvailable(appConfig.Runtime.DockerBinary) {
			return fmt.Errorf("%s not found in PATH", appConfig.Runtime.DockerBinary)
		}
		return nil
	})

	checkStep("docker daemon", func() error {
		rt := container.NewDockerRuntime(appConfig.Runtime.DockerBinary, appConfig.Runtime.Shell, logger)
		version, err := rt.Version(getContext())
		if err != nil {
			return err
		}
		fmt.Printf("    %s\n", ui.StyleMuted.Render("server "+version))
		return nil
	})

	checkStep("Build Contexts", func() error {
		names, err := container.NewDirectoryResolver(appConfig.Runtime.ContextsDir).List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return fmt.Errorf("no Dockerfile under %s", appConfig.Runtime.ContextsDir)
		}
		fmt.Printf("    %s\n", ui.StyleMuted.Render(strings.Join(names, ", ")))
		return nil
	})

	checkStep("Workspace Root", func() error {
		probe, err := os.MkdirTemp(appConfig.Workspace.Root, "ccw-doctor-")
		if err != nil {
			return fmt.Errorf("not writable: %w", err)
		}
		return os.Remove(probe)
	})

	// 3. Backend
	fmt.Println()
	fmt.Println(ui.FormatInfo("Checking " + appConfig.Backend + " backend..."))

	switch appConfig.Backend {
	case config.BackendLocal:
		checkStep("Spool Queue", func() error {
			// count without opening the queue: opening restores claimed jobs
			pending, err := filepath.Glob(filepath.Join(appConfig.Queue.SpoolDir, "*.json"))
			if err != nil {
				return err
			}
			claimed, _ := filepath.Glob(filepath.Join(appConfig.Queue.SpoolDir, "*.claimed"))
			if _, err := os.Stat(appConfig.Queue.SpoolDir); err != nil {
				return fmt.Errorf("missing at %s", appConfig.Queue.SpoolDir)
			}
			fmt.Printf("    %s\n", ui.StyleMuted.Render(fmt.Sprintf("%d job(s) pending, %d in flight", len(pending), len(claimed))))
			return nil
		})
	case config.BackendAWS:
		checkStep("AWS Credentials", func() error {
			if os.Getenv("AWS_ACCESS_KEY_ID") == "" && os.Getenv("AWS_PROFILE") == "" {
				return fmt.Errorf("neither AWS_ACCESS_KEY_ID nor AWS_PROFILE set (instance roles still apply)")
			}
			return nil
		})
		checkStep("Queue URL", func() error {
			if appConfig.Queue.URL == "" {
				return fmt.Errorf("queue.url is not set")
			}
			return nil
		})
	}

	checkStep("Long-poll Wait", func() error {
		if appConfig.Wait() < time.Second {
			return fmt.Errorf("%s makes the worker busy-poll", appConfig.Wait())
		}
		return nil
	})
}

// checkStep runs a check function and prints the result nicely
func checkStep(name string, check func() error) {
	err := check()
	if err == nil {
		fmt.Printf("%s %s\n", ui.FormatSuccess("✔"), name)
	} else {
		fmt.Printf("%s %s\n", ui.FormatError("✘"), name)
		fmt.Printf("    %s\n", ui.StyleMuted.Render(err.Error()))
	}
}
