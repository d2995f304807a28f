package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Backends
const (
	BackendLocal = "local"
	BackendAWS   = "aws"
)

type Config struct {
	Backend   string `yaml:"backend"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Queue         QueueConfig        `yaml:"queue"`
	AWS           AWSConfig          `yaml:"aws"`
	Catalog       CatalogConfig      `yaml:"catalog"`
	Notifications NotificationConfig `yaml:"notifications"`
	Runtime       RuntimeConfig      `yaml:"runtime"`
	Workspace     WorkspaceConfig    `yaml:"workspace"`
}

// QueueConfig configures where jobs come from and how they are acknowledged
type QueueConfig struct {
	URL               string `yaml:"url"`       // SQS queue url (aws backend)
	SpoolDir          string `yaml:"spool_dir"` // spool directory (local backend)
	WaitSeconds       int    `yaml:"wait_seconds"`
	MaxMessages       int    `yaml:"max_messages"`
	VisibilityTimeout int    `yaml:"visibility_timeout"`
	AckPolicy         string `yaml:"ack_policy"`
}

type AWSConfig struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"` // custom endpoint, e.g. localstack
}

// CatalogConfig configures entry metadata and blob storage
type CatalogConfig struct {
	// aws backend
	EntriesTable        string `yaml:"entries_table"`
	ParentIndex         string `yaml:"parent_index"`
	Bucket              string `yaml:"bucket"`
	DownloadURLTemplate string `yaml:"download_url_template"`

	// local backend
	DatabasePath string `yaml:"database_path"`
	BlobDir      string `yaml:"blob_dir"`
	BlobBaseURL  string `yaml:"blob_base_url"`
}

type NotificationConfig struct {
	Table       string `yaml:"table"`
	UserIndex   string `yaml:"user_index"`
	DefaultUser string `yaml:"default_user"`
}

type RuntimeConfig struct {
	DockerBinary string `yaml:"docker_binary"`
	ContextsDir  string `yaml:"contexts_dir"`
	MountPath    string `yaml:"mount_path"`
	Shell        string `yaml:"shell"`
}

type WorkspaceConfig struct {
	Root string `yaml:"root"`
}

// DefaultConfig returns a Config struct with default values.
// Local paths are left empty and filled in from the data directory by ApplyDataDir.
func DefaultConfig() *Config {
	return &Config{
		Backend:   BackendLocal,
		LogLevel:  "info",
		LogFormat: "text",
		Queue: QueueConfig{
			WaitSeconds:       20,
			MaxMessages:       1,
			VisibilityTimeout: 0,
			AckPolicy:         "before_dispatch",
		},
		AWS: AWSConfig{
			Region: "eu-west-1",
		},
		Catalog: CatalogConfig{
			EntriesTable:        "CCEntries",
			ParentIndex:         "parentIdx",
			Bucket:              "ccstore",
			DownloadURLTemplate: "https://s3-{region}.amazonaws.com/{bucket}/{key}",
		},
		Notifications: NotificationConfig{
			Table:       "CCNotifications",
			UserIndex:   "userIdIdx",
			DefaultUser: "worker",
		},
		Runtime: RuntimeConfig{
			DockerBinary: "docker",
			MountPath:    "/download",
			Shell:        "/bin/sh",
		},
		Workspace: WorkspaceConfig{
			Root: os.TempDir(),
		},
	}
}

// Load reads configuration from the specified file path
func Load(path string) (*Config, error) {
	// Start with default config
	cfg := DefaultConfig()

	// Try to read the file
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config (not an error)
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults restores essential values a partial file left empty
func (c *Config) applyDefaults() {
	d := DefaultConfig()

	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.Queue.WaitSeconds <= 0 {
		c.Queue.WaitSeconds = d.Queue.WaitSeconds
	}
	if c.Queue.MaxMessages <= 0 {
		c.Queue.MaxMessages = d.Queue.MaxMessages
	}
	if c.Queue.AckPolicy == "" {
		c.Queue.AckPolicy = d.Queue.AckPolicy
	}
	if c.AWS.Region == "" {
		c.AWS.Region = d.AWS.Region
	}
	if c.Catalog.EntriesTable == "" {
		c.Catalog.EntriesTable = d.Catalog.EntriesTable
	}
	if c.Catalog.ParentIndex == "" {
		c.Catalog.ParentIndex = d.Catalog.ParentIndex
	}
	if c.Catalog.Bucket == "" {
		c.Catalog.Bucket = d.Catalog.Bucket
	}
	if c.Catalog.DownloadURLTemplate == "" {
		c.Catalog.DownloadURLTemplate = d.Catalog.DownloadURLTemplate
	}
	if c.Notifications.Table == "" {
		c.Notifications.Table = d.Notifications.Table
	}
	if c.Notifications.UserIndex == "" {
		c.Notifications.UserIndex = d.Notifications.UserIndex
	}
	if c.Notifications.DefaultUser == "" {
		c.Notifications.DefaultUser = d.Notifications.DefaultUser
	}
	if c.Runtime.DockerBinary == "" {
		c.Runtime.DockerBinary = d.Runtime.DockerBinary
	}
	if c.Runtime.MountPath == "" {
		c.Runtime.MountPath = d.Runtime.MountPath
	}
	if c.Runtime.Shell == "" {
		c.Runtime.Shell = d.Runtime.Shell
	}
	if c.Workspace.Root == "" {
		c.Workspace.Root = d.Workspace.Root
	}
}

// ApplyDataDir points unset local paths into the data directory
func (c *Config) ApplyDataDir(dataDir string) {
	if c.Queue.SpoolDir == "" {
		c.Queue.SpoolDir = filepath.Join(dataDir, "spool")
	}
	if c.Catalog.DatabasePath == "" {
		c.Catalog.DatabasePath = filepath.Join(dataDir, "ccw.db")
	}
	if c.Catalog.BlobDir == "" {
		c.Catalog.BlobDir = filepath.Join(dataDir, "blobs")
	}
	if c.Runtime.ContextsDir == "" {
		c.Runtime.ContextsDir = filepath.Join(dataDir, "contexts")
	}
}

// Validate checks that the configuration can drive the selected backend
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if c.Queue.SpoolDir == "" || c.Catalog.DatabasePath == "" || c.Catalog.BlobDir == "" {
			return fmt.Errorf("local backend requires queue.spool_dir, catalog.database_path and catalog.blob_dir")
		}
	case BackendAWS:
		if c.Queue.URL == "" {
			return fmt.Errorf("aws backend requires queue.url")
		}
		if c.AWS.Region == "" {
			return fmt.Errorf("aws backend requires aws.region")
		}
	default:
		return fmt.Errorf("unknown backend %q (expected %s or %s)", c.Backend, BackendLocal, BackendAWS)
	}

	if c.Queue.MaxMessages < 1 || c.Queue.MaxMessages > 10 {
		return fmt.Errorf("queue.max_messages must be between 1 and 10, got %d", c.Queue.MaxMessages)
	}
	if c.Queue.WaitSeconds < 0 || c.Queue.WaitSeconds > 20 {
		return fmt.Errorf("queue.wait_seconds must be between 0 and 20, got %d", c.Queue.WaitSeconds)
	}
	if c.Queue.VisibilityTimeout < 0 {
		return fmt.Errorf("queue.visibility_timeout cannot be negative")
	}
	if !isValidAckPolicy(c.Queue.AckPolicy) {
		return fmt.Errorf("unknown queue.ack_policy %q", c.Queue.AckPolicy)
	}
	if !filepath.IsAbs(c.Runtime.MountPath) && !isPosixAbs(c.Runtime.MountPath) {
		return fmt.Errorf("runtime.mount_path must be absolute, got %q", c.Runtime.MountPath)
	}
	return nil
}

// Wait returns the queue long-poll duration
func (c *Config) Wait() time.Duration {
	return time.Duration(c.Queue.WaitSeconds) * time.Second
}

// Visibility returns the queue visibility timeout
func (c *Config) Visibility() time.Duration {
	return time.Duration(c.Queue.VisibilityTimeout) * time.Second
}

// Save persists the current configuration to the specified file path
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// isValidAckPolicy checks if the acknowledgement policy is known
func isValidAckPolicy(policy string) bool {
	validPolicies := []string{"before_dispatch", "after_success"}
	for _, valid := range validPolicies {
		if policy == valid {
			return true
		}
	}
	return false
}

// container paths are always slash-separated
func isPosixAbs(path string) bool {
	return len(path) > 0 && path[0] == '/'
}
