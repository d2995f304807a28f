package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/internal/core/ports"
)

// SQLiteNotificationRepository stores notifications in a local SQLite database
type SQLiteNotificationRepository struct {
	db *sql.DB
}

// NewSQLiteNotificationRepository creates a repository on an opened database
func NewSQLiteNotificationRepository(db *sql.DB) *SQLiteNotificationRepository {
	return &SQLiteNotificationRepository{db: db}
}

// Ensure it implements the interface
var _ ports.NotificationRepository = (*SQLiteNotificationRepository)(nil)

// Save upserts a notification
func (r *SQLiteNotificationRepository) Save(ctx context.Context, n *domain.Notification) error {
	attrs, err := json.Marshal(n.Attributes)
	if err != nil {
		return fmt.Errorf("failed to encode attributes: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO notifications (id, user_id, created_at, attributes) VALUES (?, ?, ?, ?)`,
		n.ID, n.UserID, EncodeTime(n.CreatedAt), string(attrs))
	if err != nil {
		return fmt.Errorf("failed to write notification %s: %w", n.ID, err)
	}
	return nil
}

// ListByUser returns every notification addressed to the user
func (r *SQLiteNotificationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, created_at, attributes FROM notifications WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var id, user, created, attrs string
		if err := rows.Scan(&id, &user, &created, &attrs); err != nil {
			return nil, err
		}

		createdAt, err := DecodeTime(created)
		if err != nil {
			return nil, err
		}

		n := domain.Notification{ID: id, UserID: user, CreatedAt: createdAt}
		if err := json.Unmarshal([]byte(attrs), &n.Attributes); err != nil {
			return nil, fmt.Errorf("failed to decode attributes of %s: %w", id, err)
		}
		if n.Attributes == nil {
			n.Attributes = map[string]string{}
		}
		result = append(result, n)
	}
	return result, rows.Err()
}
