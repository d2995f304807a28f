package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/internal/core/ports"
)

// DynamoAPI is the subset of the DynamoDB client used by the repositories
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Entry item attribute names
const (
	attrEntryID          = "entryId"
	attrKind             = "kind"
	attrParentID         = "parentId"
	attrTitle            = "title"
	attrMimeType         = "mimeType"
	attrOriginalFilename = "originalFilename"
	attrFilesize         = "filesize"
	attrDownloadURL      = "downloadUrl"
	attrChecksum         = "checksum"
	attrCreatedDate      = "createdDate"
	attrModifiedDate     = "modifiedDate"
)

// DynamoEntryRepository stores catalog entries in a DynamoDB table keyed by
// (entryId, kind) with a global secondary index on parentId
type DynamoEntryRepository struct {
	client      DynamoAPI
	table       string
	parentIndex string
}

// NewDynamoEntryRepository creates a repository on the given table and parent index
func NewDynamoEntryRepository(client DynamoAPI, table, parentIndex string) *DynamoEntryRepository {
	return &DynamoEntryRepository{
		client:      client,
		table:       table,
		parentIndex: parentIndex,
	}
}

// Ensure it implements the interface
var _ ports.EntryRepository = (*DynamoEntryRepository)(nil)

// GetFile retrieves a file by id
func (r *DynamoEntryRepository) GetFile(ctx context.Context, id string) (*domain.File, error) {
	entry, err := r.get(ctx, id, domain.KindFile)
	if err != nil {
		return nil, err
	}
	file, ok := entry.(*domain.File)
	if !ok {
		return nil, fmt.Errorf("entry %s is not a file", id)
	}
	return file, nil
}

// GetFolder retrieves a folder by id
func (r *DynamoEntryRepository) GetFolder(ctx context.Context, id string) (*domain.Folder, error) {
	entry, err := r.get(ctx, id, domain.KindFolder)
	if err != nil {
		return nil, err
	}
	folder, ok := entry.(*domain.Folder)
	if !ok {
		return nil, fmt.Errorf("entry %s is not a folder", id)
	}
	return folder, nil
}

func (r *DynamoEntryRepository) get(ctx context.Context, id string, kind domain.Kind) (domain.Entry, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            entryKey(id, kind),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s: %w", kind, id, err)
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrEntryNotFound
	}
	return decodeEntryItem(out.Item)
}

// Save upserts an entry
func (r *DynamoEntryRepository) Save(ctx context.Context, entry domain.Entry) error {
	item, err := encodeEntryItem(entry)
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to write %s %s: %w", entry.Kind(), entry.EntryID(), err)
	}
	return nil
}

// Delete removes an entry
func (r *DynamoEntryRepository) Delete(ctx context.Context, id string, kind domain.Kind) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       entryKey(id, kind),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}
	return nil
}

// ListByParent queries the parent index, following every result page
func (r *DynamoEntryRepository) ListByParent(ctx context.Context, parent *string) ([]domain.Entry, error) {
	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(r.parentIndex),
		KeyConditionExpression: aws.String("#p = :p"),
		ExpressionAttributeNames: map[string]string{
			"#p": attrParentID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: EncodeParent(parent)},
		},
	})

	var entries []domain.Entry
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query children of %s: %w", domain.ParentString(parent), err)
		}
		for _, item := range page.Items {
			entry, err := decodeEntryItem(item)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func entryKey(id string, kind domain.Kind) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrEntryID: &types.AttributeValueMemberS{Value: id},
		attrKind:    &types.AttributeValueMemberS{Value: string(kind)},
	}
}

func encodeEntryItem(entry domain.Entry) (map[string]types.AttributeValue, error) {
	item := entryKey(entry.EntryID(), entry.Kind())
	item[attrParentID] = &types.AttributeValueMemberS{Value: EncodeParent(entry.Parent())}
	item[attrTitle] = &types.AttributeValueMemberS{Value: entry.DisplayTitle()}
	item[attrCreatedDate] = &types.AttributeValueMemberS{Value: EncodeTime(entry.Created())}
	item[attrModifiedDate] = &types.AttributeValueMemberS{Value: EncodeTime(entry.Modified())}

	switch e := entry.(type) {
	case *domain.File:
		item[attrMimeType] = &types.AttributeValueMemberS{Value: e.MimeType}
		item[attrOriginalFilename] = &types.AttributeValueMemberS{Value: e.OriginalFilename}
		item[attrFilesize] = &types.AttributeValueMemberN{Value: EncodeSize(e.Size)}
		item[attrDownloadURL] = &types.AttributeValueMemberS{Value: e.DownloadURL}
		if e.Checksum != "" {
			item[attrChecksum] = &types.AttributeValueMemberS{Value: e.Checksum}
		}
	case *domain.Folder:
	default:
		return nil, fmt.Errorf("unsupported entry type %T", entry)
	}
	return item, nil
}

func decodeEntryItem(item map[string]types.AttributeValue) (domain.Entry, error) {
	kind, err := domain.ParseKind(stringAttr(item, attrKind))
	if err != nil {
		return nil, err
	}
	createdAt, err := DecodeTime(stringAttr(item, attrCreatedDate))
	if err != nil {
		return nil, err
	}
	modifiedAt, err := DecodeTime(stringAttr(item, attrModifiedDate))
	if err != nil {
		return nil, err
	}

	id := stringAttr(item, attrEntryID)
	parent := DecodeParent(stringAttr(item, attrParentID))
	title := stringAttr(item, attrTitle)

	switch kind {
	case domain.KindFile:
		size, err := DecodeSize(stringAttr(item, attrFilesize))
		if err != nil {
			return nil, err
		}
		return &domain.File{
			ID:               id,
			ParentID:         parent,
			Title:            title,
			MimeType:         stringAttr(item, attrMimeType),
			OriginalFilename: stringAttr(item, attrOriginalFilename),
			Size:             size,
			DownloadURL:      stringAttr(item, attrDownloadURL),
			Checksum:         stringAttr(item, attrChecksum),
			CreatedAt:        createdAt,
			ModifiedAt:       modifiedAt,
		}, nil
	default:
		return &domain.Folder{
			ID:         id,
			ParentID:   parent,
			Title:      title,
			CreatedAt:  createdAt,
			ModifiedAt: modifiedAt,
		}, nil
	}
}

// stringAttr reads an S or N attribute as a string
func stringAttr(item map[string]types.AttributeValue, name string) string {
	switch v := item[name].(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	default:
		return ""
	}
}
