package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kamal-hamza/ccw/internal/core/ports"
)

// AckPolicy decides when a received message is deleted from the queue
type AckPolicy string

const (
	// AckBeforeDispatch deletes the message as soon as it is received.
	// A job is never redelivered, so a crash during execution loses it.
	AckBeforeDispatch AckPolicy = "before_dispatch"

	// AckAfterSuccess deletes the message once the job completed or was skipped as malformed.
	// Failed jobs reappear after the queue's visibility window.
	AckAfterSuccess AckPolicy = "after_success"
)

// ParseAckPolicy converts a configuration value into an AckPolicy
func ParseAckPolicy(s string) (AckPolicy, error) {
	switch AckPolicy(s) {
	case "", AckBeforeDispatch:
		return AckBeforeDispatch, nil
	case AckAfterSuccess:
		return AckAfterSuccess, nil
	default:
		return "", fmt.Errorf("unknown ack policy %q (expected %s or %s)", s, AckBeforeDispatch, AckAfterSuccess)
	}
}

// Dispatcher handles one message body
type Dispatcher interface {
	Dispatch(ctx context.Context, body []byte) (*DispatchResponse, error)
}

// PollState is the outcome of one poll cycle
type PollState string

const (
	PollEmpty     PollState = "empty"
	PollSkipped   PollState = "skipped"
	PollCompleted PollState = "completed"
	PollFailed    PollState = "failed"
)

// ConsumerConfig holds the queue loop settings
type ConsumerConfig struct {
	MaxMessages int
	Wait        time.Duration
	Policy      AckPolicy
}

// ConsumerService is the worker's outer loop: receive, acknowledge, dispatch, repeat
type ConsumerService struct {
	queue      ports.Queue
	dispatcher Dispatcher
	config     ConsumerConfig
	logger     *log.Logger
}

// NewConsumerService creates a new consumer service
func NewConsumerService(queue ports.Queue, dispatcher Dispatcher, cfg ConsumerConfig, logger *log.Logger) *ConsumerService {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 1
	}
	if cfg.Wait <= 0 {
		cfg.Wait = 20 * time.Second
	}
	if cfg.Policy == "" {
		cfg.Policy = AckBeforeDispatch
	}

	return &ConsumerService{
		queue:      queue,
		dispatcher: dispatcher,
		config:     cfg,
		logger:     orDiscard(logger),
	}
}

// PollResult describes what happened to one received message
type PollResult struct {
	State     PollState
	MessageID string
	Dispatch  *DispatchResponse
	Err       error // the job's failure, when State is PollFailed
}

// Policy returns the acknowledgement policy in use
func (s *ConsumerService) Policy() AckPolicy {
	return s.config.Policy
}

// Run polls until ctx is cancelled or the queue itself fails.
// Job failures are logged and do not stop the loop.
func (s *ConsumerService) Run(ctx context.Context) error {
	s.logger.Info("worker started",
		"ack_policy", s.config.Policy,
		"wait", s.config.Wait,
		"max_messages", s.config.MaxMessages)

	for {
		if ctx.Err() != nil {
			s.logger.Info("worker stopped")
			return nil
		}

		if _, err := s.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				s.logger.Info("worker stopped")
				return nil
			}
			return err
		}
	}
}

// Poll runs one receive cycle. Messages are processed one after the other.
// The error is non-nil only for receive and acknowledgement failures.
func (s *ConsumerService) Poll(ctx context.Context) ([]PollResult, error) {
	msgs, err := s.queue.Receive(ctx, s.config.MaxMessages, s.config.Wait)
	if err != nil {
		s.logger.Error("receive failed", "err", err)
		return nil, fmt.Errorf("failed to receive messages: %w", err)
	}

	if len(msgs) == 0 {
		s.logger.Debug("no messages")
		return []PollResult{{State: PollEmpty}}, nil
	}

	results := make([]PollResult, 0, len(msgs))
	for _, msg := range msgs {
		result, err := s.handle(ctx, msg)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *ConsumerService) handle(ctx context.Context, msg ports.Message) (PollResult, error) {
	logger := s.logger.With("message", msg.ID)
	result := PollResult{MessageID: msg.ID}

	if s.config.Policy == AckBeforeDispatch {
		if err := s.ack(ctx, msg, logger); err != nil {
			return result, err
		}
	}

	resp, jobErr := s.dispatcher.Dispatch(ctx, msg.Body)
	result.Dispatch = resp

	switch {
	case jobErr != nil:
		result.State = PollFailed
		result.Err = jobErr
		var stageErr *StageError
		if errors.As(jobErr, &stageErr) {
			logger.Error("job failed", "stage", stageErr.Stage, "err", stageErr.Err)
		} else {
			logger.Error("job failed", "err", jobErr)
		}
	case resp != nil && resp.Skipped:
		result.State = PollSkipped
	default:
		result.State = PollCompleted
	}

	if s.config.Policy == AckAfterSuccess && result.State != PollFailed {
		if err := s.ack(ctx, msg, logger); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (s *ConsumerService) ack(ctx context.Context, msg ports.Message, logger *log.Logger) error {
	if err := s.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		logger.Error("failed to acknowledge message", "err", err)
		return fmt.Errorf("failed to delete message %s: %w", msg.ID, err)
	}
	logger.Debug("message acknowledged")
	return nil
}
