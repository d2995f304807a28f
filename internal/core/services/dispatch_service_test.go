package services

import (
	"context"
	"errors"
	"testing"

	"github.com/kamal-hamza/ccw/internal/core/domain"
)

// recordingExecutor captures the jobs it is asked to run
type recordingExecutor struct {
	jobs []domain.Job
	err  error
}

func (e *recordingExecutor) Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResponse, error) {
	e.jobs = append(e.jobs, req.Job)
	resp := &ExecuteResponse{Job: req.Job, Success: e.err == nil, Error: e.err}
	return resp, e.err
}

func TestDispatchService_Dispatch_ValidJob(t *testing.T) {
	exec := &recordingExecutor{}
	svc := NewDispatchService(exec, nil)

	body := []byte(`{"type":"job","image":"thumbnailer","cmd":"convert a b","src":"f1","dst":"d1"}`)
	resp, err := svc.Dispatch(context.Background(), body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Skipped {
		t.Fatalf("expected job to be dispatched, skipped: %s", resp.Reason)
	}
	if len(exec.jobs) != 1 {
		t.Fatalf("expected 1 execution, got %d", len(exec.jobs))
	}

	job := exec.jobs[0]
	if job.Image != "thumbnailer" || job.Cmd != "convert a b" || job.Src != "f1" || job.Dst != "d1" {
		t.Errorf("unexpected job %+v", job)
	}
	if resp.Result == nil || !resp.Result.Success {
		t.Error("expected the execution result to be returned")
	}
}

func TestDispatchService_Dispatch_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `hello`},
		{"wrong type", `{"type":"task","image":"x","cmd":"c","src":"s","dst":"d"}`},
		{"missing cmd", `{"type":"job","image":"x","src":"s","dst":"d"}`},
		{"missing image", `{"type":"job","cmd":"c","src":"s","dst":"d"}`},
		{"traversal image", `{"type":"job","image":"../etc","cmd":"c","src":"s","dst":"d"}`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &recordingExecutor{}
			svc := NewDispatchService(exec, nil)

			resp, err := svc.Dispatch(context.Background(), []byte(tt.body))
			if err != nil {
				t.Fatalf("malformed bodies must not be errors, got %v", err)
			}
			if !resp.Skipped {
				t.Error("expected message to be skipped")
			}
			if resp.Reason == "" {
				t.Error("expected a skip reason")
			}
			if len(exec.jobs) != 0 {
				t.Errorf("expected no execution, got %d", len(exec.jobs))
			}
		})
	}
}

func TestDispatchService_Dispatch_JobFailure(t *testing.T) {
	failure := &StageError{Stage: StageBuild, Err: errors.New("exit code 1")}
	exec := &recordingExecutor{err: failure}
	svc := NewDispatchService(exec, nil)

	body, _ := domain.NewJob("img", "true", "f1", "d1").Encode()
	resp, err := svc.Dispatch(context.Background(), body)

	if !errors.Is(err, failure) {
		t.Fatalf("expected the job failure to be returned, got %v", err)
	}
	if resp == nil || resp.Job == nil || resp.Skipped {
		t.Errorf("expected a dispatched response, got %+v", resp)
	}
}
