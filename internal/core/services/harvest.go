package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/kamal-hamza/ccw/internal/core/domain"
)

// OutputFile is a file produced by a container run
type OutputFile struct {
	Name        string
	Size        int64
	ContentType string
	Path        string
}

// DiscoverOutputs walks the workspace and returns every regular file worth uploading.
// The input artifact (named inputID) and empty files are skipped.
// Walk errors are logged and the walk continues with the remaining entries.
func DiscoverOutputs(root, inputID string, logger *log.Logger) []OutputFile {
	logger = orDiscard(logger)
	var outputs []OutputFile

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("workspace walk error", "path", path, "err", err)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		name := d.Name()
		if name == inputID {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Warn("failed to stat output", "path", path, "err", err)
			return nil
		}
		if info.Size() == 0 {
			logger.Debug("skipping empty output", "file", name)
			return nil
		}

		outputs = append(outputs, OutputFile{
			Name:        name,
			Size:        info.Size(),
			ContentType: ContentTypeOf(name),
			Path:        path,
		})
		return nil
	})

	return outputs
}

// ContentTypeOf determines the content type from a file name's extension
func ContentTypeOf(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return domain.DefaultMimeType
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return domain.DefaultMimeType
}

// harvest uploads every discovered output to the job's destination folder.
// A failed upload does not stop the others; the failures are returned joined.
func (s *ExecutionService) harvest(ctx context.Context, job *domain.Job, ws string, logger *log.Logger) ([]*domain.File, error) {
	outputs := DiscoverOutputs(ws, job.Src, logger)
	logger.Info("outputs discovered", "count", len(outputs))

	var uploaded []*domain.File
	var errs []error
	for _, out := range outputs {
		file, err := s.catalog.Upload(ctx, UploadRequest{
			FolderID:    job.Dst,
			Name:        out.Name,
			Size:        out.Size,
			ContentType: out.ContentType,
			Path:        out.Path,
		})
		if err != nil {
			logger.Error("upload failed", "file", out.Name, "err", err)
			errs = append(errs, fmt.Errorf("failed to upload %s: %w", out.Name, err))
			continue
		}
		uploaded = append(uploaded, file)
	}

	return uploaded, errors.Join(errs...)
}

// lastLine returns the last non-empty line of command output
func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
