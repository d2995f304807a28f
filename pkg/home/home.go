package home

import (
	"fmt"
	"os"
	"path/filepath"
)

// Home represents the directories the worker keeps its local state in
type Home struct {
	RootPath     string
	SpoolPath    string
	BlobsPath    string
	ContextsPath string
	ReportsPath  string
	ConfigPath   string
}

// New creates a new Home instance with XDG-compliant paths
func New() (*Home, error) {
	rootPath, rootErr := getDataRoot()
	configPath, configErr := getConfigPath()
	if rootErr != nil {
		return nil, fmt.Errorf("failed to determine data root: %w", rootErr)
	}
	if configErr != nil {
		return nil, fmt.Errorf("failed to determine config path: %w", configErr)
	}

	return At(rootPath, configPath), nil
}

// At builds a Home rooted at an explicit directory
func At(rootPath, configPath string) *Home {
	return &Home{
		RootPath:     rootPath,
		SpoolPath:    filepath.Join(rootPath, "spool"),
		BlobsPath:    filepath.Join(rootPath, "blobs"),
		ContextsPath: filepath.Join(rootPath, "contexts"),
		ReportsPath:  filepath.Join(rootPath, "reports"),
		ConfigPath:   configPath,
	}
}

// getDataRoot returns the data directory path
// Follows XDG Base Directory specification on Unix and uses AppData on Windows
func getDataRoot() (string, error) {
	// Check XDG_DATA_HOME first (Unix-like systems)
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, "ccw"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// Check if we're on Windows by looking for APPDATA
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "ccw"), nil
	}

	// Fall back to ~/.local/share/ccw (Unix-like systems)
	return filepath.Join(homeDir, ".local", "share", "ccw"), nil
}

func getConfigPath() (string, error) {
	// Check XDG_CONFIG_HOME first (Unix-like systems)
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "ccw", "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "ccw-config", "config.yaml"), nil
	}

	// Fall back to ~/.config/ccw/config.yaml (Unix-like systems)
	return filepath.Join(homeDir, ".config", "ccw", "config.yaml"), nil
}

// Initialize creates the directory structure if it doesn't exist
func (h *Home) Initialize() error {
	directories := []string{
		h.RootPath,
		h.SpoolPath,
		h.BlobsPath,
		h.ContextsPath,
		h.ReportsPath,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Exists checks if the data directory has been initialized
func (h *Home) Exists() bool {
	info, err := os.Stat(h.RootPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// ContextPath returns the build context directory for an image name
func (h *Home) ContextPath(name string) string {
	return filepath.Join(h.ContextsPath, name)
}

// ReportPath returns the full path for a generated report
func (h *Home) ReportPath(filename string) string {
	return filepath.Join(h.ReportsPath, filename)
}
