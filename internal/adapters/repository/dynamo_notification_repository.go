package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/internal/core/ports"
)

// notificationItem is the stored shape of a notification
type notificationItem struct {
	ID         string            `dynamodbav:"id"`
	UserID     string            `dynamodbav:"userId"`
	CreatedAt  string            `dynamodbav:"createdDate"`
	Attributes map[string]string `dynamodbav:"attributes"`
}

// DynamoNotificationRepository stores notifications in a DynamoDB table keyed by id
// with a global secondary index on userId
type DynamoNotificationRepository struct {
	client    DynamoAPI
	table     string
	userIndex string
}

// NewDynamoNotificationRepository creates a repository on the given table and user index
func NewDynamoNotificationRepository(client DynamoAPI, table, userIndex string) *DynamoNotificationRepository {
	return &DynamoNotificationRepository{
		client:    client,
		table:     table,
		userIndex: userIndex,
	}
}

// Ensure it implements the interface
var _ ports.NotificationRepository = (*DynamoNotificationRepository)(nil)

// Save upserts a notification
func (r *DynamoNotificationRepository) Save(ctx context.Context, n *domain.Notification) error {
	item, err := attributevalue.MarshalMap(notificationItem{
		ID:         n.ID,
		UserID:     n.UserID,
		CreatedAt:  EncodeTime(n.CreatedAt),
		Attributes: n.Attributes,
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification %s: %w", n.ID, err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to write notification %s: %w", n.ID, err)
	}
	return nil
}

// ListByUser queries the user index, following every result page.
// Every returned item is decoded on its own.
func (r *DynamoNotificationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(r.userIndex),
		KeyConditionExpression: aws.String("#u = :u"),
		ExpressionAttributeNames: map[string]string{
			"#u": "userId",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
		},
	})

	var result []domain.Notification
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query notifications of %s: %w", userID, err)
		}

		var items []notificationItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to decode notifications: %w", err)
		}

		for _, item := range items {
			createdAt, err := DecodeTime(item.CreatedAt)
			if err != nil {
				return nil, err
			}
			attrs := item.Attributes
			if attrs == nil {
				attrs = map[string]string{}
			}
			result = append(result, domain.Notification{
				ID:         item.ID,
				UserID:     item.UserID,
				CreatedAt:  createdAt,
				Attributes: attrs,
			})
		}
	}
	return result, nil
}
