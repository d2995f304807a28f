package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/internal/core/ports/mocks"
)

func TestNotificationService_CreateNotification(t *testing.T) {
	svc := NewNotificationService(mocks.NewMockNotificationRepository(), nil)

	n := svc.CreateNotification("alice", "Job started")

	if n.ID == "" {
		t.Error("expected id to be assigned")
	}
	if n.UserID != "alice" {
		t.Errorf("expected user 'alice', got '%s'", n.UserID)
	}
	if n.Content() != "Job started" {
		t.Errorf("expected content 'Job started', got '%s'", n.Content())
	}
	if len(n.Attributes) != 1 {
		t.Errorf("expected exactly one attribute, got %d", len(n.Attributes))
	}
}

func TestNotificationService_SaveNotification_FillsMissingFields(t *testing.T) {
	repo := mocks.NewMockNotificationRepository()
	svc := NewNotificationService(repo, nil)

	n := &domain.Notification{UserID: "bob"}
	if err := svc.SaveNotification(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n.ID == "" || n.CreatedAt.IsZero() || n.Attributes == nil {
		t.Errorf("expected id, time and attributes to be filled, got %+v", n)
	}
	if len(repo.All()) != 1 {
		t.Errorf("expected 1 stored notification, got %d", len(repo.All()))
	}
}

func TestNotificationService_SaveNotification_Upserts(t *testing.T) {
	repo := mocks.NewMockNotificationRepository()
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	n := svc.CreateNotification("bob", "first")
	if err := svc.SaveNotification(ctx, n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n.Attributes[domain.AttrContent] = "second"
	if err := svc.SaveNotification(ctx, n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := repo.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 stored notification, got %d", len(all))
	}
	if all[0].Content() != "second" {
		t.Errorf("expected overwritten content, got '%s'", all[0].Content())
	}
}

func TestNotificationService_Notify_MergesAttributes(t *testing.T) {
	repo := mocks.NewMockNotificationRepository()
	svc := NewNotificationService(repo, nil)

	n, err := svc.Notify(context.Background(), "carol", "Job finished", map[string]string{
		domain.AttrEvent:   domain.EventJobFinished,
		domain.AttrContent: "ignored",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n.Content() != "Job finished" {
		t.Errorf("content must not be overridden by attrs, got '%s'", n.Content())
	}
	if n.Attributes[domain.AttrEvent] != domain.EventJobFinished {
		t.Errorf("expected event attribute, got '%s'", n.Attributes[domain.AttrEvent])
	}
}

func TestNotificationService_Notify_SaveFailure(t *testing.T) {
	repo := mocks.NewMockNotificationRepository()
	repo.SetShouldFail(true, errors.New("table missing"))
	svc := NewNotificationService(repo, nil)

	if _, err := svc.Notify(context.Background(), "dave", "x", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestNotificationService_GetNotifications(t *testing.T) {
	repo := mocks.NewMockNotificationRepository()
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	// saved out of order
	for i, offset := range []int{3, 1, 2} {
		n := svc.CreateNotification("erin", "msg")
		n.CreatedAt = base.Add(time.Duration(offset) * time.Minute)
		n.Attributes["seq"] = string(rune('a' + i))
		if err := svc.SaveNotification(ctx, n); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := svc.SaveNotification(ctx, svc.CreateNotification("frank", "other user")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetNotifications(ctx, "erin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(got))
	}

	// every item is distinct and ordered by creation time
	seen := map[string]bool{}
	for i, n := range got {
		if seen[n.ID] {
			t.Errorf("duplicate notification %s", n.ID)
		}
		seen[n.ID] = true
		if i > 0 && n.CreatedAt.Before(got[i-1].CreatedAt) {
			t.Error("notifications are not ordered by creation time")
		}
	}
	if got[0].Attributes["seq"] != "b" {
		t.Errorf("expected oldest notification first, got seq %s", got[0].Attributes["seq"])
	}
}

func TestNotificationService_GetNotifications_SameMillisecond(t *testing.T) {
	repo := mocks.NewMockNotificationRepository()
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	at := time.Date(2024, 3, 1, 12, 0, 0, 5_000_000, time.UTC)
	// finish stored before start, both in the same millisecond
	for _, event := range []string{domain.EventJobFinished, domain.EventJobStarted} {
		n := svc.CreateNotification("erin", event)
		n.CreatedAt = at
		n.Attributes[domain.AttrEvent] = event
		if err := svc.SaveNotification(ctx, n); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := svc.GetNotifications(ctx, "erin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0].Attributes[domain.AttrEvent] != domain.EventJobStarted || got[1].Attributes[domain.AttrEvent] != domain.EventJobFinished {
		t.Errorf("expected start before finish, got %s then %s",
			got[0].Attributes[domain.AttrEvent], got[1].Attributes[domain.AttrEvent])
	}
}

func TestNotificationService_GetNotifications_Unknown(t *testing.T) {
	svc := NewNotificationService(mocks.NewMockNotificationRepository(), nil)

	got, err := svc.GetNotifications(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}
