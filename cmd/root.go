package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/ccw/internal/adapters/container"
	"github.com/kamal-hamza/ccw/internal/adapters/fetch"
	"github.com/kamal-hamza/ccw/internal/core/ports"
	"github.com/kamal-hamza/ccw/internal/core/services"
	"github.com/kamal-hamza/ccw/pkg/config"
	"github.com/kamal-hamza/ccw/pkg/home"
	"github.com/kamal-hamza/ccw/pkg/logging"
	"github.com/kamal-hamza/ccw/pkg/ui"
)

var (
	// Global state
	appHome   *home.Home
	appConfig *config.Config
	logger    *log.Logger

	// Global flags
	configPath    string
	backendFlag   string
	logLevelFlag  string
	logFormatFlag string

	// Adapters
	appDB            *sql.DB
	jobQueue         ports.Queue
	entryRepo        ports.EntryRepository
	notificationRepo ports.NotificationRepository
	blobStore        ports.BlobStore
	dockerRuntime    *container.DockerRuntime
	contextResolver  *container.DirectoryResolver
	inputFetcher     *fetch.HTTPFetcher

	// Services
	catalogService      *services.CatalogService
	notificationService *services.NotificationService
	executionService    *services.ExecutionService
	dispatchService     *services.DispatchService
)

// commands that only need configuration, not a backend
var settingsOnly = map[string]bool{
	"init":   true,
	"config": true,
	"doctor": true,
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ccw",
	Short: "CCW - container job worker",
	Long: ui.StyleTitle.Render("CCW") + " - Container Job Worker\n\n" +
		"Consumes job descriptors from a queue, runs each job in a disposable container\n" +
		"and files the container's output into the artifact catalog.",
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
	SilenceUsage:       true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Worker
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(submitCmd)

	// Catalog
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(statsCmd)

	// Notifications
	rootCmd.AddCommand(notificationsCmd)

	// Setup
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/ccw/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage and queue backend: local or aws")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "log format: text, json, logfmt")
}

// initializeApp initializes the application components
func initializeApp(cmd *cobra.Command, args []string) error {
	// Version and help need nothing
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	if err := loadSettings(); err != nil {
		return err
	}

	if settingsOnly[cmd.Name()] {
		return nil
	}

	// The local backend keeps its state in the data directory
	if appConfig.Backend == config.BackendLocal && !appHome.Exists() {
		fmt.Println(ui.FormatError("Data directory not initialized"))
		fmt.Println(ui.FormatInfo("Run 'ccw init' to initialize it"))
		return fmt.Errorf("missing data directory %s", appHome.RootPath)
	}

	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return wireBackend(getContext())
}

// loadSettings resolves paths, reads the config file and builds the logger
func loadSettings() error {
	h, err := home.New()
	if err != nil {
		return fmt.Errorf("failed to determine data directory: %w", err)
	}
	appHome = h

	if configPath == "" {
		configPath = appHome.ConfigPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if backendFlag != "" {
		cfg.Backend = backendFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if logFormatFlag != "" {
		cfg.LogFormat = logFormatFlag
	}
	cfg.ApplyDataDir(appHome.RootPath)
	appConfig = cfg

	l, err := logging.New(os.Stderr, logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		return err
	}
	logger = l

	return nil
}

// shutdownApp releases what initializeApp opened
func shutdownApp(cmd *cobra.Command, args []string) error {
	if appDB != nil {
		err := appDB.Close()
		appDB = nil
		return err
	}
	return nil
}

// getContext returns a context for operations
func getContext() context.Context {
	return context.Background()
}
