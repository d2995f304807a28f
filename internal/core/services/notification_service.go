package services

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/internal/core/ports"
)

// NotificationService records lifecycle events for users
type NotificationService struct {
	repo   ports.NotificationRepository
	logger *log.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo ports.NotificationRepository, logger *log.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		logger: orDiscard(logger),
	}
}

// CreateNotification builds an unsaved notification with a content attribute
func (s *NotificationService) CreateNotification(userID, message string) *domain.Notification {
	return domain.NewNotification(userID, message)
}

// SaveNotification upserts a notification, assigning an id when it has none
func (s *NotificationService) SaveNotification(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = domain.NewID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = domain.Now()
	}
	if n.Attributes == nil {
		n.Attributes = map[string]string{}
	}

	if err := s.repo.Save(ctx, n); err != nil {
		return fmt.Errorf("failed to save notification %s: %w", n.ID, err)
	}

	s.logger.Debug("notification saved", "id", n.ID, "user", n.UserID, "content", n.Content())
	return nil
}

// Notify creates and saves a notification carrying message and extra attributes
func (s *NotificationService) Notify(ctx context.Context, userID, message string, attrs map[string]string) (*domain.Notification, error) {
	n := s.CreateNotification(userID, message)
	for k, v := range attrs {
		if k == domain.AttrContent {
			continue
		}
		n.Attributes[k] = v
	}

	if err := s.SaveNotification(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// GetNotifications returns every notification for the user, oldest first
func (s *NotificationService) GetNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	notifications, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for %s: %w", userID, err)
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}

	sort.Slice(notifications, func(i, j int) bool {
		a, b := notifications[i], notifications[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		// timestamps are millisecond precision, so a job's start and finish can tie
		if ra, rb := eventRank(a), eventRank(b); ra != rb {
			return ra < rb
		}
		return a.ID < b.ID
	})
	return notifications, nil
}

// eventRank orders a job's start before anything else it records and its finish last
func eventRank(n domain.Notification) int {
	switch n.Attributes[domain.AttrEvent] {
	case domain.EventJobStarted:
		return 0
	case domain.EventJobFinished:
		return 2
	default:
		return 1
	}
}

// orDiscard substitutes a silent logger for nil
func orDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.New(io.Discard)
	}
	return logger
}
