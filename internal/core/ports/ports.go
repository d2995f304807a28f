package ports

import (
	"context"
	"io"
	"time"

	"github.com/kamal-hamza/ccw/internal/core/domain"
)

// Message is a single queue delivery
type Message struct {
	ID            string
	ReceiptHandle string
	Body          []byte
}

// Queue defines the port for the job message queue
type Queue interface {
	// Receive waits up to wait for at most max messages.
	// An empty slice means the wait elapsed without a delivery.
	Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error)

	// Delete acknowledges a message so it is never delivered again
	Delete(ctx context.Context, receiptHandle string) error

	// Send enqueues a message body and returns its id
	Send(ctx context.Context, body []byte) (string, error)
}

// EntryRepository defines the port for catalog metadata persistence.
// Entries are keyed by (id, kind) and indexed on their parent.
type EntryRepository interface {
	// GetFile returns domain.ErrEntryNotFound when no file has the id
	GetFile(ctx context.Context, id string) (*domain.File, error)

	// GetFolder returns domain.ErrEntryNotFound when no folder has the id
	GetFolder(ctx context.Context, id string) (*domain.Folder, error)

	// Save upserts an entry keyed by (id, kind)
	Save(ctx context.Context, entry domain.Entry) error

	// Delete removes the record for (id, kind)
	Delete(ctx context.Context, id string, kind domain.Kind) error

	// ListByParent returns every entry whose parent matches (nil = root)
	ListByParent(ctx context.Context, parent *string) ([]domain.Entry, error)
}

// NotificationRepository defines the port for notification persistence
type NotificationRepository interface {
	// Save upserts a notification keyed by id
	Save(ctx context.Context, n *domain.Notification) error

	// ListByUser returns every notification addressed to the user
	ListByUser(ctx context.Context, userID string) ([]domain.Notification, error)
}

// BlobStore defines the port for binary content storage
type BlobStore interface {
	// Put streams body under key and returns the public download URL
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// Fetcher defines the port for downloading remote content
type Fetcher interface {
	// Fetch streams the resource at url into dest and returns the bytes written
	Fetch(ctx context.Context, url string, dest string) (int64, error)
}

// BuildContextResolver locates the build context of an image
type BuildContextResolver interface {
	// Resolve returns the directory holding the image's build context
	Resolve(image string) (string, error)
}

// BuildRequest describes an image build
type BuildRequest struct {
	Image      string
	ContextDir string
}

// BuildResult holds the outcome of an image build
type BuildResult struct {
	ExitCode int
	Output   string
}

// RunRequest describes a container run
type RunRequest struct {
	Image     string
	Command   string
	Workspace string // host directory bind-mounted into the container
	MountPath string // in-container path of the workspace
	Remove    bool   // destroy the container once it exits
}

// RunResult holds the outcome of a container run
type RunResult struct {
	ExitCode int
	Output   string
}

// ContainerRuntime defines the port for building images and running containers
type ContainerRuntime interface {
	// Build builds an image from a context directory.
	// A non-zero exit code is reported in the result, not as an error.
	Build(ctx context.Context, req BuildRequest) (*BuildResult, error)

	// Run runs a container and waits for it to exit
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
}
