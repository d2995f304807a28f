package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"lukechampine.com/blake3"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/internal/core/ports"
)

// CatalogService manages File and Folder entries and their blobs
type CatalogService struct {
	entries ports.EntryRepository
	blobs   ports.BlobStore
	logger  *log.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(entries ports.EntryRepository, blobs ports.BlobStore, logger *log.Logger) *CatalogService {
	return &CatalogService{
		entries: entries,
		blobs:   blobs,
		logger:  orDiscard(logger),
	}
}

// UploadRequest describes a local file to store in the catalog
type UploadRequest struct {
	FolderID    string // destination folder, empty for the root
	Name        string
	Size        int64
	ContentType string
	Path        string // local path of the content
}

// GetFile looks up a file by id.
// Returns domain.ErrEntryNotFound when it does not exist.
func (s *CatalogService) GetFile(ctx context.Context, id string) (*domain.File, error) {
	return s.entries.GetFile(ctx, id)
}

// GetFolder looks up a folder by id.
// Returns domain.ErrEntryNotFound when it does not exist.
func (s *CatalogService) GetFolder(ctx context.Context, id string) (*domain.Folder, error) {
	return s.entries.GetFolder(ctx, id)
}

// GetEntry looks up an entry of either kind, trying files first
func (s *CatalogService) GetEntry(ctx context.Context, id string) (domain.Entry, error) {
	file, err := s.entries.GetFile(ctx, id)
	if err == nil {
		return file, nil
	}
	if !errors.Is(err, domain.ErrEntryNotFound) {
		return nil, err
	}
	return s.entries.GetFolder(ctx, id)
}

// SaveFile upserts a file. The id must already be assigned.
func (s *CatalogService) SaveFile(ctx context.Context, file *domain.File) error {
	if file.ID == "" {
		return domain.ErrMissingID
	}
	if file.Size < 0 {
		return fmt.Errorf("invalid file size %d", file.Size)
	}
	if file.MimeType == "" {
		file.MimeType = domain.DefaultMimeType
	}

	file.ModifiedAt = domain.Now()
	if file.CreatedAt.IsZero() {
		file.CreatedAt = file.ModifiedAt
	}

	if err := s.entries.Save(ctx, file); err != nil {
		return fmt.Errorf("failed to save file %s: %w", file.ID, err)
	}
	return nil
}

// SaveFolder upserts a folder, assigning an id when it has none
func (s *CatalogService) SaveFolder(ctx context.Context, folder *domain.Folder) error {
	if folder.ID == "" {
		folder.ID = domain.NewID()
	}

	folder.ModifiedAt = domain.Now()
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = folder.ModifiedAt
	}

	if err := s.entries.Save(ctx, folder); err != nil {
		return fmt.Errorf("failed to save folder %s: %w", folder.ID, err)
	}
	return nil
}

// CreateFolder creates and saves a new folder
func (s *CatalogService) CreateFolder(ctx context.Context, parent *string, title string) (*domain.Folder, error) {
	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}

	if parent != nil {
		if _, err := s.entries.GetFolder(ctx, *parent); err != nil {
			return nil, fmt.Errorf("failed to load parent folder %s: %w", *parent, err)
		}
	}

	folder := domain.NewFolder(parent, title)
	if err := s.SaveFolder(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// DeleteFile removes a file record and returns its last known state.
// The blob is left in storage.
func (s *CatalogService) DeleteFile(ctx context.Context, id string) (*domain.File, error) {
	file, err := s.entries.GetFile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load file %s: %w", id, err)
	}

	if err := s.entries.Delete(ctx, id, domain.KindFile); err != nil {
		return nil, fmt.Errorf("failed to delete file %s: %w", id, err)
	}

	s.logger.Info("file deleted", "entry", id, "title", file.Title)
	return file, nil
}

// DeleteFolder removes a folder record and returns its last known state.
// Children are not touched.
func (s *CatalogService) DeleteFolder(ctx context.Context, id string) (*domain.Folder, error) {
	folder, err := s.entries.GetFolder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load folder %s: %w", id, err)
	}

	if err := s.entries.Delete(ctx, id, domain.KindFolder); err != nil {
		return nil, fmt.Errorf("failed to delete folder %s: %w", id, err)
	}

	s.logger.Info("folder deleted", "entry", id, "title", folder.Title)
	return folder, nil
}

// GetEntriesByParent returns all files and folders directly under parent (nil = root).
// The result is never nil.
func (s *CatalogService) GetEntriesByParent(ctx context.Context, parent *string) ([]domain.Entry, error) {
	entries, err := s.entries.ListByParent(ctx, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries of %s: %w", domain.ParentString(parent), err)
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	return entries, nil
}

// Upload streams a local file into blob storage and records it as a new File entry
func (s *CatalogService) Upload(ctx context.Context, req UploadRequest) (*domain.File, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("upload name cannot be empty")
	}

	file := domain.NewFile(domain.InFolder(req.FolderID), req.Name)
	file.Size = req.Size
	if req.ContentType != "" {
		file.MimeType = req.ContentType
	}

	src, err := os.Open(req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", req.Path, err)
	}
	defer src.Close()

	// 1. Stream into the blob store, hashing on the way
	hasher := blake3.New(32, nil)
	url, err := s.blobs.Put(ctx, file.ID, io.TeeReader(src, hasher), req.Size, file.MimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to store blob for %s: %w", req.Name, err)
	}
	file.DownloadURL = url
	file.Checksum = hex.EncodeToString(hasher.Sum(nil))

	// 2. Record the entry
	if err := s.SaveFile(ctx, file); err != nil {
		return nil, err
	}

	s.logger.Info("file uploaded",
		"entry", file.ID,
		"name", req.Name,
		"size", req.Size,
		"type", file.MimeType,
		"folder", domain.ParentString(file.ParentID))

	return file, nil
}
