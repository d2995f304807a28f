package queue

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type fakeSQS struct {
	receive  *sqs.ReceiveMessageInput
	deleted  []string
	sent     []string
	messages []types.Message
	err      error
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.receive = in
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, f.err
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, aws.ToString(in.MessageBody))
	return &sqs.SendMessageOutput{MessageId: aws.String("mid-1")}, f.err
}

func TestSQSQueue_Receive(t *testing.T) {
	client := &fakeSQS{messages: []types.Message{{
		MessageId:     aws.String("m1"),
		ReceiptHandle: aws.String("r1"),
		Body:          aws.String(`{"type":"job"}`),
	}}}
	q := NewSQSQueue(client, "https://sqs.eu-west-1.amazonaws.com/123/jobs", 0)

	msgs, err := q.Receive(context.Background(), 50, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if client.receive.MaxNumberOfMessages != 10 {
		t.Errorf("expected max messages clamped to 10, got %d", client.receive.MaxNumberOfMessages)
	}
	if client.receive.WaitTimeSeconds != 20 {
		t.Errorf("expected wait clamped to 20s, got %d", client.receive.WaitTimeSeconds)
	}
	if client.receive.VisibilityTimeout != 0 {
		t.Errorf("expected visibility timeout 0, got %d", client.receive.VisibilityTimeout)
	}

	if len(msgs) != 1 || msgs[0].ID != "m1" || msgs[0].ReceiptHandle != "r1" || string(msgs[0].Body) != `{"type":"job"}` {
		t.Errorf("unexpected messages %+v", msgs)
	}
}

func TestSQSQueue_DeleteAndSend(t *testing.T) {
	client := &fakeSQS{}
	q := NewSQSQueue(client, "url", 30*time.Second)

	if err := q.Delete(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, err := q.Send(context.Background(), []byte("body"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if id != "mid-1" || len(client.sent) != 1 || client.sent[0] != "body" {
		t.Errorf("unexpected send %s %v", id, client.sent)
	}
	if len(client.deleted) != 1 || client.deleted[0] != "r1" {
		t.Errorf("unexpected deletes %v", client.deleted)
	}
}

func TestSQSQueue_ReceiveError(t *testing.T) {
	q := NewSQSQueue(&fakeSQS{err: errors.New("AWS.SimpleQueueService.NonExistentQueue")}, "url", 0)

	if _, err := q.Receive(context.Background(), 1, time.Second); err == nil {
		t.Fatal("expected error")
	}
}

func TestSpoolQueue_SendReceiveDelete(t *testing.T) {
	q, err := NewSpoolQueue(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to open spool: %v", err)
	}
	ctx := context.Background()

	first, err := q.Send(ctx, []byte("one"))
	if err != nil {
		t.Fatalf("failed to send: %v", err)
	}
	if _, err := q.Send(ctx, []byte("two")); err != nil {
		t.Fatalf("failed to send: %v", err)
	}

	msgs, err := q.Receive(ctx, 1, time.Second)
	if err != nil {
		t.Fatalf("failed to receive: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != first || string(msgs[0].Body) != "one" {
		t.Fatalf("expected the first message, got %+v", msgs)
	}

	if n, _ := q.Pending(); n != 1 {
		t.Errorf("expected 1 pending message, got %d", n)
	}

	if err := q.Delete(ctx, msgs[0].ReceiptHandle); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(q.Dir(), msgs[0].ReceiptHandle)); !os.IsNotExist(err) {
		t.Error("expected claimed file to be removed")
	}
}

func TestSpoolQueue_ReceiveEmptyTimesOut(t *testing.T) {
	q, err := NewSpoolQueue(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to open spool: %v", err)
	}

	start := time.Now()
	msgs, err := q.Receive(context.Background(), 1, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected no messages, got %d", len(msgs))
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("expected receive to wait for the full window")
	}
}

func TestSpoolQueue_ReceiveWakesOnSend(t *testing.T) {
	q, err := NewSpoolQueue(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to open spool: %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		q.Send(context.Background(), []byte("late"))
	}()

	msgs, err := q.Receive(context.Background(), 1, 5*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 1 || string(msgs[0].Body) != "late" {
		t.Errorf("expected the late message, got %+v", msgs)
	}
}

func TestSpoolQueue_RestoresUnacknowledged(t *testing.T) {
	dir := t.TempDir()
	q, err := NewSpoolQueue(dir, nil)
	if err != nil {
		t.Fatalf("failed to open spool: %v", err)
	}
	if _, err := q.Send(context.Background(), []byte("crash")); err != nil {
		t.Fatalf("failed to send: %v", err)
	}
	if _, err := q.Receive(context.Background(), 1, time.Second); err != nil {
		t.Fatalf("failed to receive: %v", err)
	}

	// a new process opens the same spool
	reopened, err := NewSpoolQueue(dir, nil)
	if err != nil {
		t.Fatalf("failed to reopen spool: %v", err)
	}
	msgs, err := reopened.Receive(context.Background(), 1, time.Second)
	if err != nil {
		t.Fatalf("failed to receive: %v", err)
	}
	if len(msgs) != 1 || string(msgs[0].Body) != "crash" {
		t.Errorf("expected the unacknowledged message again, got %+v", msgs)
	}
}

func TestSpoolQueue_CancelledContext(t *testing.T) {
	q, err := NewSpoolQueue(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to open spool: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Receive(ctx, 1, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSpoolQueue_DeleteRejectsPaths(t *testing.T) {
	q, err := NewSpoolQueue(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to open spool: %v", err)
	}

	for _, receipt := range []string{"../x.claimed", "x.json", ""} {
		if err := q.Delete(context.Background(), receipt); err == nil {
			t.Errorf("expected error for %q", receipt)
		}
	}
}
