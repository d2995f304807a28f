package domain

import (
	"testing"
	"time"
)

func TestNewFile(t *testing.T) {
	parent := InFolder("folder-1")
	file := NewFile(parent, "report.pdf")

	if file.ID == "" {
		t.Fatal("expected generated id")
	}
	if file.Kind() != KindFile {
		t.Errorf("expected kind file, got %s", file.Kind())
	}
	if !SameParent(file.Parent(), parent) {
		t.Errorf("expected parent folder-1, got %s", ParentString(file.Parent()))
	}
	if file.MimeType != DefaultMimeType {
		t.Errorf("expected default mime type, got %q", file.MimeType)
	}
	if file.OriginalFilename != "report.pdf" {
		t.Errorf("expected original filename to default to title, got %q", file.OriginalFilename)
	}
	if !file.CreatedAt.Equal(file.ModifiedAt) {
		t.Error("expected created and modified dates to match on creation")
	}
	if file.CreatedAt.Location() != time.UTC {
		t.Error("expected UTC timestamps")
	}
	if file.CreatedAt.Nanosecond()%int(time.Millisecond) != 0 {
		t.Error("expected millisecond precision")
	}
}

func TestNewFolder_UniqueIDs(t *testing.T) {
	a := NewFolder(Root(), "a")
	b := NewFolder(Root(), "b")

	if a.ID == b.ID {
		t.Error("expected unique ids")
	}
	if a.Kind() != KindFolder {
		t.Errorf("expected kind folder, got %s", a.Kind())
	}
	if a.Parent() != nil {
		t.Error("expected root folder to have nil parent")
	}
}

func TestInFolder(t *testing.T) {
	if InFolder("") != nil {
		t.Error("expected empty id to mean root")
	}
	if p := InFolder("x"); p == nil || *p != "x" {
		t.Error("expected pointer to x")
	}
}

func TestSameParent(t *testing.T) {
	tests := []struct {
		name string
		a, b *string
		want bool
	}{
		{"both root", nil, nil, true},
		{"root and folder", nil, InFolder("x"), false},
		{"same folder", InFolder("x"), InFolder("x"), true},
		{"different folder", InFolder("x"), InFolder("y"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameParent(tt.a, tt.b); got != tt.want {
				t.Errorf("SameParent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("file"); err != nil || k != KindFile {
		t.Errorf("expected file, got %s (%v)", k, err)
	}
	if k, err := ParseKind("Folder"); err != nil || k != KindFolder {
		t.Errorf("expected folder, got %s (%v)", k, err)
	}
	if _, err := ParseKind("link"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestNewNotification(t *testing.T) {
	n := NewNotification("alice", "hello")

	if n.ID == "" {
		t.Error("expected generated id")
	}
	if n.UserID != "alice" {
		t.Errorf("expected user alice, got %q", n.UserID)
	}
	if n.Content() != "hello" {
		t.Errorf("expected content hello, got %q", n.Content())
	}
	if len(n.Attributes) != 1 {
		t.Errorf("expected a single attribute, got %d", len(n.Attributes))
	}
}
