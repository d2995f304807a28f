package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/kamal-hamza/ccw/internal/core/domain"
)

// fakeDynamo is an in-memory table serving every query in pages of pageSize items
type fakeDynamo struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	order    []string
	pageSize int
	queries  int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}, pageSize: 2}
}

func itemKey(item map[string]types.AttributeValue) string {
	if _, ok := item[attrEntryID]; ok {
		return stringAttr(item, attrEntryID) + "/" + stringAttr(item, attrKind)
	}
	return stringAttr(item, "id")
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[itemKey(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := itemKey(in.Item)
	if _, ok := f.items[key]; !ok {
		f.order = append(f.order, key)
	}
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, itemKey(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++

	var attr, want string
	for _, name := range in.ExpressionAttributeNames {
		attr = name
	}
	for _, v := range in.ExpressionAttributeValues {
		want = v.(*types.AttributeValueMemberS).Value
	}

	var matches []map[string]types.AttributeValue
	for _, key := range f.order {
		item, ok := f.items[key]
		if ok && stringAttr(item, attr) == want {
			matches = append(matches, item)
		}
	}

	start := 0
	if in.ExclusiveStartKey != nil {
		start, _ = strconv.Atoi(stringAttr(in.ExclusiveStartKey, "pos"))
	}
	end := start + f.pageSize
	out := &dynamodb.QueryOutput{}
	if end < len(matches) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"pos": &types.AttributeValueMemberN{Value: strconv.Itoa(end)},
		}
	} else {
		end = len(matches)
	}
	if start < end {
		out.Items = matches[start:end]
	}
	return out, nil
}

func TestDynamoEntryRepository_FileRoundTrip(t *testing.T) {
	client := newFakeDynamo()
	repo := NewDynamoEntryRepository(client, "CCEntries", "parentIdx")
	ctx := context.Background()

	for _, size := range []int64{0, 1, 5_000_000_000} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			file := domain.NewFile(domain.Root(), "big.iso")
			file.Size = size
			if err := repo.Save(ctx, file); err != nil {
				t.Fatalf("failed to save: %v", err)
			}

			raw := client.items[file.ID+"/file"]
			n, ok := raw[attrFilesize].(*types.AttributeValueMemberN)
			if !ok || n.Value != strconv.FormatInt(size, 10) {
				t.Errorf("expected filesize stored as N %d, got %#v", size, raw[attrFilesize])
			}
			if stringAttr(raw, attrParentID) != RootSentinel {
				t.Errorf("expected root sentinel, got %q", stringAttr(raw, attrParentID))
			}

			got, err := repo.GetFile(ctx, file.ID)
			if err != nil {
				t.Fatalf("failed to get: %v", err)
			}
			if got.Size != size || got.ParentID != nil {
				t.Errorf("unexpected file %+v", got)
			}
			if !got.CreatedAt.Equal(file.CreatedAt) {
				t.Errorf("expected %v, got %v", file.CreatedAt, got.CreatedAt)
			}
		})
	}
}

func TestDynamoEntryRepository_NotFound(t *testing.T) {
	repo := NewDynamoEntryRepository(newFakeDynamo(), "CCEntries", "parentIdx")

	if _, err := repo.GetFolder(context.Background(), "missing"); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestDynamoEntryRepository_ListByParentFollowsPages(t *testing.T) {
	client := newFakeDynamo()
	repo := NewDynamoEntryRepository(client, "CCEntries", "parentIdx")
	ctx := context.Background()

	parent := domain.NewFolder(domain.Root(), "parent")
	if err := repo.Save(ctx, parent); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := repo.Save(ctx, domain.NewFile(domain.InFolder(parent.ID), fmt.Sprintf("f%d", i))); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if err := repo.Save(ctx, domain.NewFile(domain.Root(), fmt.Sprintf("root%d", i))); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
	}

	children, err := repo.ListByParent(ctx, domain.InFolder(parent.ID))
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(children) != 5 {
		t.Errorf("expected 5 children, got %d", len(children))
	}
	if client.queries != 3 {
		t.Errorf("expected 3 pages, got %d queries", client.queries)
	}

	root, err := repo.ListByParent(ctx, domain.Root())
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(root) != 6 {
		t.Errorf("expected 6 root entries, got %d", len(root))
	}
}

func TestDynamoEntryRepository_Delete(t *testing.T) {
	repo := NewDynamoEntryRepository(newFakeDynamo(), "CCEntries", "parentIdx")
	ctx := context.Background()

	folder := domain.NewFolder(domain.Root(), "doomed")
	if err := repo.Save(ctx, folder); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if err := repo.Delete(ctx, folder.ID, domain.KindFolder); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, err := repo.GetFolder(ctx, folder.ID); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestDynamoNotificationRepository_ListByUserDecodesEveryItem(t *testing.T) {
	client := newFakeDynamo()
	repo := NewDynamoNotificationRepository(client, "CCNotifications", "userIdIdx")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		n := domain.NewNotification("alice", fmt.Sprintf("message %d", i))
		n.Attributes[domain.AttrImage] = "img"
		if err := repo.Save(ctx, n); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
	}
	if err := repo.Save(ctx, domain.NewNotification("bob", "other")); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	got, err := repo.ListByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(got))
	}

	seen := map[string]bool{}
	for _, n := range got {
		seen[n.ID] = true
		if n.Attributes[domain.AttrImage] != "img" || n.UserID != "alice" {
			t.Errorf("unexpected notification %+v", n)
		}
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 distinct notifications, got %d", len(seen))
	}
}

func TestDynamoEntryRepository_ReadsExistingItem(t *testing.T) {
	client := newFakeDynamo()
	repo := NewDynamoEntryRepository(client, "CCEntries", "parentIdx")
	ctx := context.Background()

	client.items["e1/file"] = map[string]types.AttributeValue{
		"entryId":          &types.AttributeValueMemberS{Value: "e1"},
		"kind":             &types.AttributeValueMemberS{Value: "file"},
		"parentId":         &types.AttributeValueMemberS{Value: "null"},
		"title":            &types.AttributeValueMemberS{Value: "photo.png"},
		"mimeType":         &types.AttributeValueMemberS{Value: "image/png"},
		"originalFilename": &types.AttributeValueMemberS{Value: "photo.png"},
		"filesize":         &types.AttributeValueMemberN{Value: "42"},
		"downloadUrl":      &types.AttributeValueMemberS{Value: "https://s3-eu-west-1.amazonaws.com/ccstore/e1"},
		"createdDate":      &types.AttributeValueMemberS{Value: "2015-05-01T10:00:00.123Z"},
		"modifiedDate":     &types.AttributeValueMemberS{Value: "2015-05-02T11:30:00.000Z"},
	}

	file, err := repo.GetFile(ctx, "e1")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}

	wantCreated := time.Date(2015, 5, 1, 10, 0, 0, 123_000_000, time.UTC)
	wantModified := time.Date(2015, 5, 2, 11, 30, 0, 0, time.UTC)
	if !file.CreatedAt.Equal(wantCreated) {
		t.Errorf("expected created %v, got %v", wantCreated, file.CreatedAt)
	}
	if !file.ModifiedAt.Equal(wantModified) {
		t.Errorf("expected modified %v, got %v", wantModified, file.ModifiedAt)
	}
	if file.Size != 42 || file.ParentID != nil {
		t.Errorf("unexpected file %+v", file)
	}
}

func TestDynamoRepositories_TimestampAttributeNames(t *testing.T) {
	client := newFakeDynamo()
	ctx := context.Background()

	folder := domain.NewFolder(domain.Root(), "out")
	if err := NewDynamoEntryRepository(client, "CCEntries", "parentIdx").Save(ctx, folder); err != nil {
		t.Fatalf("failed to save folder: %v", err)
	}
	n := domain.NewNotification("alice", "hello")
	if err := NewDynamoNotificationRepository(client, "CCNotifications", "userIdIdx").Save(ctx, n); err != nil {
		t.Fatalf("failed to save notification: %v", err)
	}

	tests := []struct {
		name  string
		item  map[string]types.AttributeValue
		attrs []string
	}{
		{"entry", client.items[folder.ID+"/folder"], []string{"createdDate", "modifiedDate"}},
		{"notification", client.items[n.ID], []string{"createdDate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, attr := range tt.attrs {
				if stringAttr(tt.item, attr) == "" {
					t.Errorf("expected %s attribute, got %v", attr, tt.item)
				}
			}
			for _, attr := range []string{"createdAt", "modifiedAt"} {
				if _, ok := tt.item[attr]; ok {
					t.Errorf("unexpected %s attribute", attr)
				}
			}
		})
	}
}
