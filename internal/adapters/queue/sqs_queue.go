package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/kamal-hamza/ccw/internal/core/ports"
)

// SQS long polling limits
const (
	maxSQSMessages = 10
	maxSQSWait     = 20 * time.Second
)

// SQSAPI is the subset of the SQS client used by the queue
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSQueue consumes jobs from an SQS queue with long polling
type SQSQueue struct {
	client            SQSAPI
	url               string
	visibilityTimeout int32
}

// NewSQSQueue creates a queue for url. visibilityTimeout is how long a received
// message stays hidden from other consumers.
func NewSQSQueue(client SQSAPI, url string, visibilityTimeout time.Duration) *SQSQueue {
	return &SQSQueue{
		client:            client,
		url:               url,
		visibilityTimeout: int32(visibilityTimeout / time.Second),
	}
}

// Ensure it implements the interface
var _ ports.Queue = (*SQSQueue)(nil)

// Receive long-polls for up to max messages
func (q *SQSQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]ports.Message, error) {
	if max < 1 {
		max = 1
	}
	if max > maxSQSMessages {
		max = maxSQSMessages
	}
	if wait > maxSQSWait {
		wait = maxSQSWait
	}
	if wait < 0 {
		wait = 0
	}

	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.url),
		MaxNumberOfMessages: int32(max),
		WaitTimeSeconds:     int32(wait / time.Second),
		VisibilityTimeout:   q.visibilityTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to receive from %s: %w", q.url, err)
	}

	msgs := make([]ports.Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, ports.Message{
			ID:            aws.ToString(m.MessageId),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			Body:          []byte(aws.ToString(m.Body)),
		})
	}
	return msgs, nil
}

// Delete acknowledges a received message
func (q *SQSQueue) Delete(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.url),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// Send enqueues a message body
func (q *SQSQueue) Send(ctx context.Context, body []byte) (string, error) {
	out, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.url),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to send to %s: %w", q.url, err)
	}
	return aws.ToString(out.MessageId), nil
}
