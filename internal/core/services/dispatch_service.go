package services

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/kamal-hamza/ccw/internal/core/domain"
)

// Executor runs a decoded job
type Executor interface {
	Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResponse, error)
}

// DispatchService turns raw message bodies into job executions
type DispatchService struct {
	executor Executor
	logger   *log.Logger
}

// NewDispatchService creates a new dispatch service
func NewDispatchService(executor Executor, logger *log.Logger) *DispatchService {
	return &DispatchService{
		executor: executor,
		logger:   orDiscard(logger),
	}
}

// DispatchResponse represents the outcome of dispatching one message
type DispatchResponse struct {
	Job     *domain.Job
	Skipped bool   // the body was not a usable job descriptor
	Reason  string // why it was skipped
	Result  *ExecuteResponse
}

// Dispatch decodes body and executes the job it describes.
// Malformed bodies are skipped without error; the returned error is the job's failure.
func (s *DispatchService) Dispatch(ctx context.Context, body []byte) (*DispatchResponse, error) {
	job, err := domain.ParseJob(body)
	if err != nil {
		s.logger.Warn("skipping malformed message", "err", err, "bytes", len(body))
		return &DispatchResponse{
			Skipped: true,
			Reason:  err.Error(),
		}, nil
	}

	s.logger.Info("dispatching job", "image", job.Image, "cmd", job.Cmd, "src", job.Src, "dst", job.Dst)

	result, err := s.executor.Execute(ctx, ExecuteRequest{Job: *job})
	return &DispatchResponse{
		Job:    job,
		Result: result,
	}, err
}
