package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/internal/core/ports"
	"github.com/kamal-hamza/ccw/pkg/buildlog"
)

// ExitCodeRuntimeFailure is the exit code the container runtime reports
// when the container itself could not be started
const ExitCodeRuntimeFailure = 125

// Stage names a step of a job execution
type Stage string

const (
	StageWorkspace    Stage = "workspace"
	StageNotifyStart  Stage = "notify-start"
	StageFetch        Stage = "fetch"
	StageBuild        Stage = "build"
	StageRun          Stage = "run"
	StageHarvest      Stage = "harvest"
	StageTeardown     Stage = "teardown"
	StageNotifyFinish Stage = "notify-finish"
)

// StageResult records the outcome of one stage
type StageResult struct {
	Stage    Stage
	Duration time.Duration
	Err      error
}

// StageError is returned when a stage fails
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ArtifactCatalog is the part of the catalog the engine needs
type ArtifactCatalog interface {
	GetFile(ctx context.Context, id string) (*domain.File, error)
	Upload(ctx context.Context, req UploadRequest) (*domain.File, error)
}

// NotificationLog is the part of the notification service the engine needs
type NotificationLog interface {
	Notify(ctx context.Context, userID, message string, attrs map[string]string) (*domain.Notification, error)
}

// ExecutionConfig holds the engine settings
type ExecutionConfig struct {
	WorkspaceRoot string // parent directory of job workspaces
	MountPath     string // in-container path of the workspace
	DefaultUser   string // notification recipient when the job names none
}

// ExecutionService runs one job end-to-end inside a disposable container
type ExecutionService struct {
	catalog  ArtifactCatalog
	notifier NotificationLog
	fetcher  ports.Fetcher
	runtime  ports.ContainerRuntime
	resolver ports.BuildContextResolver
	config   ExecutionConfig
	logger   *log.Logger
	chmod    func(name string, mode os.FileMode) error
}

// NewExecutionService creates a new execution service
func NewExecutionService(
	catalog ArtifactCatalog,
	notifier NotificationLog,
	fetcher ports.Fetcher,
	runtime ports.ContainerRuntime,
	resolver ports.BuildContextResolver,
	cfg ExecutionConfig,
	logger *log.Logger,
) *ExecutionService {
	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = os.TempDir()
	}
	if cfg.MountPath == "" {
		cfg.MountPath = "/download"
	}
	if cfg.DefaultUser == "" {
		cfg.DefaultUser = "worker"
	}

	return &ExecutionService{
		catalog:  catalog,
		notifier: notifier,
		fetcher:  fetcher,
		runtime:  runtime,
		resolver: resolver,
		config:   cfg,
		logger:   orDiscard(logger),
		chmod:    os.Chmod,
	}
}

// ExecuteRequest represents a request to execute a job
type ExecuteRequest struct {
	Job domain.Job
}

// ExecuteResponse represents the outcome of a job execution
type ExecuteResponse struct {
	Job       domain.Job
	Workspace string
	Stages    []StageResult
	Uploaded  []*domain.File
	ExitCode  int
	Success   bool
	Error     error
}

// Failed returns the stage that failed, if any
func (r *ExecuteResponse) Failed() (Stage, bool) {
	for _, st := range r.Stages {
		if st.Err != nil {
			return st.Stage, true
		}
	}
	return "", false
}

// Execute runs the job's stages in order. The workspace is removed whenever it was created,
// and the finish notification is recorded only when every other stage succeeded.
func (s *ExecutionService) Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResponse, error) {
	job := req.Job
	resp := &ExecuteResponse{Job: job}
	logger := s.logger.With("image", job.Image, "src", job.Src, "dst", job.Dst)
	started := time.Now()

	// 1. Workspace
	err := s.stage(resp, logger, StageWorkspace, func() error {
		ws, err := s.allocateWorkspace()
		resp.Workspace = ws
		return err
	})
	if err != nil {
		return s.fail(resp, logger, err)
	}

	// 2-6. Notify, fetch, build, run, harvest
	err = s.runPipeline(ctx, &job, resp, logger)

	// 7. Teardown
	teardownErr := s.stage(resp, logger, StageTeardown, func() error {
		return os.RemoveAll(resp.Workspace)
	})
	if err == nil {
		err = teardownErr
	}
	if err != nil {
		return s.fail(resp, logger, err)
	}

	// 8. Finish notification
	err = s.stage(resp, logger, StageNotifyFinish, func() error {
		msg := fmt.Sprintf("Job finished: ran %q in image %s, %d file(s) uploaded", job.Cmd, job.Image, len(resp.Uploaded))
		attrs := s.jobAttributes(job, domain.EventJobFinished)
		attrs[domain.AttrUploaded] = strconv.Itoa(len(resp.Uploaded))
		attrs[domain.AttrExitCode] = strconv.Itoa(resp.ExitCode)
		_, err := s.notifier.Notify(ctx, s.recipient(job), msg, attrs)
		return err
	})
	if err != nil {
		return s.fail(resp, logger, err)
	}

	resp.Success = true
	logger.Info("job finished",
		"uploaded", len(resp.Uploaded),
		"exit_code", resp.ExitCode,
		"elapsed", time.Since(started).Round(time.Millisecond))
	return resp, nil
}

func (s *ExecutionService) runPipeline(ctx context.Context, job *domain.Job, resp *ExecuteResponse, logger *log.Logger) error {
	if err := s.stage(resp, logger, StageNotifyStart, func() error {
		msg := fmt.Sprintf("Job started: running %q in image %s", job.Cmd, job.Image)
		_, err := s.notifier.Notify(ctx, s.recipient(*job), msg, s.jobAttributes(*job, domain.EventJobStarted))
		return err
	}); err != nil {
		return err
	}

	if err := s.stage(resp, logger, StageFetch, func() error {
		return s.fetchInput(ctx, job, resp.Workspace, logger)
	}); err != nil {
		return err
	}

	if err := s.stage(resp, logger, StageBuild, func() error {
		return s.buildImage(ctx, job, logger)
	}); err != nil {
		return err
	}

	if err := s.stage(resp, logger, StageRun, func() error {
		code, err := s.runContainer(ctx, job, resp.Workspace, logger)
		resp.ExitCode = code
		return err
	}); err != nil {
		return err
	}

	return s.stage(resp, logger, StageHarvest, func() error {
		uploaded, err := s.harvest(ctx, job, resp.Workspace, logger)
		resp.Uploaded = uploaded
		return err
	})
}

// stage runs fn, records its result and wraps failures in a StageError
func (s *ExecutionService) stage(resp *ExecuteResponse, logger *log.Logger, name Stage, fn func() error) error {
	started := time.Now()
	err := fn()
	elapsed := time.Since(started)

	resp.Stages = append(resp.Stages, StageResult{Stage: name, Duration: elapsed, Err: err})
	if err != nil {
		logger.Error("stage failed", "stage", name, "err", err)
		return &StageError{Stage: name, Err: err}
	}

	logger.Debug("stage done", "stage", name, "elapsed", elapsed.Round(time.Millisecond))
	return nil
}

func (s *ExecutionService) fail(resp *ExecuteResponse, logger *log.Logger, err error) (*ExecuteResponse, error) {
	resp.Success = false
	resp.Error = err
	logger.Error("job failed", "err", err)
	return resp, err
}

// allocateWorkspace creates a uniquely named empty directory for the job
func (s *ExecutionService) allocateWorkspace() (string, error) {
	if err := os.MkdirAll(s.config.WorkspaceRoot, 0755); err != nil {
		return "", fmt.Errorf("failed to create workspace root: %w", err)
	}

	ws := filepath.Join(s.config.WorkspaceRoot, "ccw-"+domain.NewID())
	if err := os.Mkdir(ws, 0777); err != nil {
		return "", fmt.Errorf("failed to create workspace: %w", err)
	}
	// containers may run as a different user than the worker
	if err := s.chmod(ws, 0777); err != nil {
		os.RemoveAll(ws)
		return "", fmt.Errorf("failed to open workspace permissions: %w", err)
	}
	return ws, nil
}

func (s *ExecutionService) fetchInput(ctx context.Context, job *domain.Job, ws string, logger *log.Logger) error {
	input, err := s.catalog.GetFile(ctx, job.Src)
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return fmt.Errorf("input file %s: %w", job.Src, err)
		}
		return fmt.Errorf("failed to load input file %s: %w", job.Src, err)
	}

	dest := filepath.Join(ws, input.ID)
	n, err := s.fetcher.Fetch(ctx, input.DownloadURL, dest)
	if err != nil {
		return fmt.Errorf("failed to download input file %s: %w", input.ID, err)
	}

	logger.Info("input fetched", "file", input.Title, "bytes", n)
	return nil
}

func (s *ExecutionService) buildImage(ctx context.Context, job *domain.Job, logger *log.Logger) error {
	contextDir, err := s.resolver.Resolve(job.Image)
	if err != nil {
		return fmt.Errorf("failed to resolve build context: %w", err)
	}

	result, err := s.runtime.Build(ctx, ports.BuildRequest{
		Image:      job.Image,
		ContextDir: contextDir,
	})
	if err != nil {
		return fmt.Errorf("image build failed: %w", err)
	}

	parsed := buildlog.Parse(result.Output)
	if result.ExitCode != 0 {
		for _, issue := range parsed.Errors {
			logger.Error("build error", "step", issue.Step, "message", issue.Message)
		}
		return fmt.Errorf("image build exited with code %d: %s", result.ExitCode, parsed.Summary())
	}

	logger.Info("image built", "context", contextDir, "summary", parsed.Summary())
	return nil
}

func (s *ExecutionService) runContainer(ctx context.Context, job *domain.Job, ws string, logger *log.Logger) (int, error) {
	result, err := s.runtime.Run(ctx, ports.RunRequest{
		Image:     job.Image,
		Command:   job.Cmd,
		Workspace: ws,
		MountPath: s.config.MountPath,
		Remove:    true,
	})
	if err != nil {
		return -1, fmt.Errorf("container run failed: %w", err)
	}

	if result.ExitCode == ExitCodeRuntimeFailure {
		return result.ExitCode, fmt.Errorf("container could not be started: %s", lastLine(result.Output))
	}
	if result.ExitCode != 0 {
		logger.Warn("container exited with non-zero code", "exit_code", result.ExitCode, "output", lastLine(result.Output))
	} else {
		logger.Info("container exited", "exit_code", 0)
	}
	return result.ExitCode, nil
}

func (s *ExecutionService) recipient(job domain.Job) string {
	if job.User != "" {
		return job.User
	}
	return s.config.DefaultUser
}

func (s *ExecutionService) jobAttributes(job domain.Job, event string) map[string]string {
	return map[string]string{
		domain.AttrEvent: event,
		domain.AttrImage: job.Image,
		domain.AttrCmd:   job.Cmd,
		domain.AttrSrc:   job.Src,
		domain.AttrDst:   job.Dst,
	}
}
