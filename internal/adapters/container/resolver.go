package container

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/internal/core/ports"
)

// DirectoryResolver maps an image to <root>/<image name without tag>
type DirectoryResolver struct {
	root string
}

// NewDirectoryResolver creates a resolver over the build contexts directory
func NewDirectoryResolver(root string) *DirectoryResolver {
	return &DirectoryResolver{root: root}
}

// Ensure it implements the interface
var _ ports.BuildContextResolver = (*DirectoryResolver)(nil)

// Resolve returns the build context of image, which must hold a Dockerfile
func (r *DirectoryResolver) Resolve(image string) (string, error) {
	if err := domain.ValidateImage(image); err != nil {
		return "", err
	}

	root, err := filepath.Abs(r.root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve contexts directory: %w", err)
	}

	dir := filepath.Join(root, filepath.FromSlash(domain.ImageName(image)))
	if !strings.HasPrefix(dir, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes the contexts directory", domain.ErrInvalidImage, image)
	}

	if _, err := os.Stat(filepath.Join(dir, "Dockerfile")); err != nil {
		return "", fmt.Errorf("no build context for %s: %w", image, err)
	}
	return dir, nil
}

// List returns the image names that have a build context
func (r *DirectoryResolver) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(r.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != "Dockerfile" {
			return nil
		}
		rel, err := filepath.Rel(r.root, filepath.Dir(path))
		if err != nil || rel == "." {
			return nil
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan contexts directory: %w", err)
	}
	return names, nil
}
