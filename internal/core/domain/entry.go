package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the variant of a catalog entry.
// Together with the entry id it forms the storage key.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// DefaultMimeType is used when a file's content type is unknown
const DefaultMimeType = "application/octet-stream"

var (
	// ErrEntryNotFound is returned when no entry exists for an (id, kind) pair
	ErrEntryNotFound = errors.New("entry not found")

	// ErrMissingID is returned when a file is saved without a pre-assigned id
	ErrMissingID = errors.New("entry id is required")
)

// Entry is a File or a Folder stored in the catalog.
// The interface is sealed: only *File and *Folder implement it.
type Entry interface {
	EntryID() string
	Kind() Kind
	Parent() *string
	DisplayTitle() string
	Created() time.Time
	Modified() time.Time

	isEntry()
}

// File is the metadata of a stored blob
type File struct {
	ID               string
	ParentID         *string // nil means the entry lives at the root
	Title            string
	MimeType         string
	OriginalFilename string
	Size             int64
	DownloadURL      string
	Checksum         string // blake3 hex digest of the blob, empty when unknown
	CreatedAt        time.Time
	ModifiedAt       time.Time
}

// Folder groups entries. Its children are the entries whose ParentID equals its ID.
type Folder struct {
	ID         string
	ParentID   *string
	Title      string
	CreatedAt  time.Time
	ModifiedAt time.Time
}

func (f *File) EntryID() string      { return f.ID }
func (f *File) Kind() Kind           { return KindFile }
func (f *File) Parent() *string      { return f.ParentID }
func (f *File) DisplayTitle() string { return f.Title }
func (f *File) Created() time.Time   { return f.CreatedAt }
func (f *File) Modified() time.Time  { return f.ModifiedAt }
func (*File) isEntry()               {}

func (f *Folder) EntryID() string      { return f.ID }
func (f *Folder) Kind() Kind           { return KindFolder }
func (f *Folder) Parent() *string      { return f.ParentID }
func (f *Folder) DisplayTitle() string { return f.Title }
func (f *Folder) Created() time.Time   { return f.CreatedAt }
func (f *Folder) Modified() time.Time  { return f.ModifiedAt }
func (*Folder) isEntry()               {}

// Now returns the current time at the precision entries are stored with
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// NewID generates a fresh opaque identifier
func NewID() string {
	return uuid.NewString()
}

// Root returns the parent reference of a top-level entry
func Root() *string {
	return nil
}

// InFolder returns a parent reference for the given folder id.
// An empty id refers to the root.
func InFolder(folderID string) *string {
	if folderID == "" {
		return nil
	}
	id := folderID
	return &id
}

// ParentString renders a parent reference for display
func ParentString(parent *string) string {
	if parent == nil {
		return "(root)"
	}
	return *parent
}

// SameParent reports whether two parent references point to the same folder
func SameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// NewFile creates a file entry with a fresh id
func NewFile(parent *string, title string) *File {
	now := Now()
	return &File{
		ID:               NewID(),
		ParentID:         parent,
		Title:            title,
		MimeType:         DefaultMimeType,
		OriginalFilename: title,
		CreatedAt:        now,
		ModifiedAt:       now,
	}
}

// NewFolder creates a folder entry with a fresh id
func NewFolder(parent *string, title string) *Folder {
	now := Now()
	return &Folder{
		ID:         NewID(),
		ParentID:   parent,
		Title:      title,
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

// ParseKind converts a stored kind string into a Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindFile:
		return KindFile, nil
	case KindFolder:
		return KindFolder, nil
	default:
		return "", fmt.Errorf("unknown entry kind %q", s)
	}
}

// ValidateTitle checks if an entry title is usable
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title cannot be empty")
	}

	if len(title) > 255 {
		return fmt.Errorf("title too long (max 255 characters)")
	}

	return nil
}
