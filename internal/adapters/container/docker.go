package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kamal-hamza/ccw/internal/core/ports"
)

// DockerRuntime implements the ContainerRuntime port by driving the docker CLI
type DockerRuntime struct {
	binary string
	shell  string
	logger *log.Logger
}

// NewDockerRuntime creates a runtime using binary (default "docker") and running
// commands through shell (default "/bin/sh")
func NewDockerRuntime(binary, shell string, logger *log.Logger) *DockerRuntime {
	if binary == "" {
		binary = "docker"
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &DockerRuntime{
		binary: binary,
		shell:  shell,
		logger: logger,
	}
}

// Ensure it implements the interface
var _ ports.ContainerRuntime = (*DockerRuntime)(nil)

// BuildArgs returns the docker arguments for an image build
func BuildArgs(req ports.BuildRequest) []string {
	return []string{"build", "-t", req.Image, req.ContextDir}
}

// RunArgs returns the docker arguments for a container run.
// The workspace is bind-mounted at the mount path, which is also the working directory.
func RunArgs(req ports.RunRequest, shell string) []string {
	args := []string{"run"}
	if req.Remove {
		args = append(args, "--rm")
	}
	args = append(args,
		"-v", req.Workspace+":"+req.MountPath,
		"-w", req.MountPath,
		req.Image,
		shell, "-c", req.Command,
	)
	return args
}

// Build runs docker build and reports its exit code
func (d *DockerRuntime) Build(ctx context.Context, req ports.BuildRequest) (*ports.BuildResult, error) {
	code, output, err := d.exec(ctx, BuildArgs(req))
	if err != nil {
		return nil, err
	}
	return &ports.BuildResult{ExitCode: code, Output: output}, nil
}

// Run runs the container to completion and reports its exit code
func (d *DockerRuntime) Run(ctx context.Context, req ports.RunRequest) (*ports.RunResult, error) {
	code, output, err := d.exec(ctx, RunArgs(req, d.shell))
	if err != nil {
		return nil, err
	}
	return &ports.RunResult{ExitCode: code, Output: output}, nil
}

// exec runs the docker CLI. A non-zero exit is a result, not an error;
// errors mean the CLI could not be run at all.
func (d *DockerRuntime) exec(ctx context.Context, args []string) (int, string, error) {
	started := time.Now()
	cmd := exec.CommandContext(ctx, d.binary, args...)
	output, err := cmd.CombinedOutput()

	d.logger.Debug("docker command finished",
		"args", strings.Join(args, " "),
		"elapsed", time.Since(started).Round(time.Millisecond))

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return exitErr.ExitCode(), string(output), nil
		}
		return -1, string(output), fmt.Errorf("failed to run %s %s: %w", d.binary, args[0], err)
	}
	return 0, string(output), nil
}

// Version returns the docker server version, which requires a reachable daemon
func (d *DockerRuntime) Version(ctx context.Context) (string, error) {
	code, output, err := d.exec(ctx, []string{"version", "--format", "{{.Server.Version}}"})
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", fmt.Errorf("docker daemon not reachable: %s", strings.TrimSpace(output))
	}
	return strings.TrimSpace(output), nil
}

// IsAvailable checks if the docker binary is in PATH
func IsAvailable(binary string) bool {
	if binary == "" {
		binary = "docker"
	}
	_, err := exec.LookPath(binary)
	return err == nil
}
