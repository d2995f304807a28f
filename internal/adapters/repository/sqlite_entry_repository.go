package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/internal/core/ports"
)

// SQLiteEntryRepository stores catalog entries in a local SQLite database
type SQLiteEntryRepository struct {
	db *sql.DB
}

// NewSQLiteEntryRepository creates a repository on an opened database
func NewSQLiteEntryRepository(db *sql.DB) *SQLiteEntryRepository {
	return &SQLiteEntryRepository{db: db}
}

// Ensure it implements the interface
var _ ports.EntryRepository = (*SQLiteEntryRepository)(nil)

const entryColumns = `entry_id, kind, parent_id, title, mime_type, original_filename, filesize, download_url, checksum, created_at, modified_at`

// GetFile retrieves a file by id
func (r *SQLiteEntryRepository) GetFile(ctx context.Context, id string) (*domain.File, error) {
	entry, err := r.get(ctx, id, domain.KindFile)
	if err != nil {
		return nil, err
	}
	return entry.(*domain.File), nil
}

// GetFolder retrieves a folder by id
func (r *SQLiteEntryRepository) GetFolder(ctx context.Context, id string) (*domain.Folder, error) {
	entry, err := r.get(ctx, id, domain.KindFolder)
	if err != nil {
		return nil, err
	}
	return entry.(*domain.Folder), nil
}

func (r *SQLiteEntryRepository) get(ctx context.Context, id string, kind domain.Kind) (domain.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE entry_id = ? AND kind = ?`, id, string(kind))

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s: %w", kind, id, err)
	}
	return entry, nil
}

// Save upserts an entry
func (r *SQLiteEntryRepository) Save(ctx context.Context, entry domain.Entry) error {
	var (
		mimeType, original, size, url, checksum sql.NullString
	)

	switch e := entry.(type) {
	case *domain.File:
		mimeType = sql.NullString{String: e.MimeType, Valid: true}
		original = sql.NullString{String: e.OriginalFilename, Valid: true}
		size = sql.NullString{String: EncodeSize(e.Size), Valid: true}
		url = sql.NullString{String: e.DownloadURL, Valid: true}
		checksum = sql.NullString{String: e.Checksum, Valid: e.Checksum != ""}
	case *domain.Folder:
	default:
		return fmt.Errorf("unsupported entry type %T", entry)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.EntryID(),
		string(entry.Kind()),
		EncodeParent(entry.Parent()),
		entry.DisplayTitle(),
		mimeType, original, size, url, checksum,
		EncodeTime(entry.Created()),
		EncodeTime(entry.Modified()),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s %s: %w", entry.Kind(), entry.EntryID(), err)
	}
	return nil
}

// Delete removes an entry. Deleting a missing entry is not an error.
func (r *SQLiteEntryRepository) Delete(ctx context.Context, id string, kind domain.Kind) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE entry_id = ? AND kind = ?`, id, string(kind))
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}
	return nil
}

// ListByParent returns the entries under parent ordered by title
func (r *SQLiteEntryRepository) ListByParent(ctx context.Context, parent *string) ([]domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE parent_id = ? ORDER BY title, entry_id`, EncodeParent(parent))
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (domain.Entry, error) {
	var (
		id, kind, parent, title, created, modified string
		mimeType, original, size, url, checksum    sql.NullString
	)
	if err := row.Scan(&id, &kind, &parent, &title, &mimeType, &original, &size, &url, &checksum, &created, &modified); err != nil {
		return nil, err
	}

	k, err := domain.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	createdAt, err := DecodeTime(created)
	if err != nil {
		return nil, err
	}
	modifiedAt, err := DecodeTime(modified)
	if err != nil {
		return nil, err
	}

	switch k {
	case domain.KindFile:
		n, err := DecodeSize(size.String)
		if err != nil {
			return nil, err
		}
		return &domain.File{
			ID:               id,
			ParentID:         DecodeParent(parent),
			Title:            title,
			MimeType:         mimeType.String,
			OriginalFilename: original.String,
			Size:             n,
			DownloadURL:      url.String,
			Checksum:         checksum.String,
			CreatedAt:        createdAt,
			ModifiedAt:       modifiedAt,
		}, nil
	default:
		return &domain.Folder{
			ID:         id,
			ParentID:   DecodeParent(parent),
			Title:      title,
			CreatedAt:  createdAt,
			ModifiedAt: modifiedAt,
		}, nil
	}
}
