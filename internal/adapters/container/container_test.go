package container

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/kamal-hamza/ccw/internal/core/domain"
	"github.com/kamal-hamza/ccw/internal/core/ports"
)

func TestBuildArgs(t *testing.T) {
	got := BuildArgs(ports.BuildRequest{Image: "thumbnailer", ContextDir: "/ctx/thumbnailer"})
	want := []string{"build", "-t", "thumbnailer", "/ctx/thumbnailer"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildArgs = %v, want %v", got, want)
	}
}

func TestRunArgs(t *testing.T) {
	got := RunArgs(ports.RunRequest{
		Image:     "thumbnailer",
		Command:   "convert in out.png && ls",
		Workspace: "/tmp/ccw-1",
		MountPath: "/download",
		Remove:    true,
	}, "/bin/sh")

	want := []string{
		"run", "--rm",
		"-v", "/tmp/ccw-1:/download",
		"-w", "/download",
		"thumbnailer",
		"/bin/sh", "-c", "convert in out.png && ls",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RunArgs = %v, want %v", got, want)
	}
}

// fakeDocker writes a script that echoes its arguments and exits with code
func fakeDocker(t *testing.T, code string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script runtime not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "docker")
	script := "#!/bin/sh\necho \"$@\"\nexit " + code + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake docker: %v", err)
	}
	return path
}

func TestDockerRuntime_Run_ExitCodes(t *testing.T) {
	for _, code := range []string{"0", "2", "125"} {
		t.Run(code, func(t *testing.T) {
			rt := NewDockerRuntime(fakeDocker(t, code), "", nil)

			result, err := rt.Run(context.Background(), ports.RunRequest{
				Image: "img", Command: "true", Workspace: "/ws", MountPath: "/download", Remove: true,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want := map[string]int{"0": 0, "2": 2, "125": 125}[code]; result.ExitCode != want {
				t.Errorf("expected exit code %d, got %d", want, result.ExitCode)
			}
			if !strings.Contains(result.Output, "run --rm -v /ws:/download") {
				t.Errorf("unexpected output %q", result.Output)
			}
		})
	}
}

func TestDockerRuntime_Build(t *testing.T) {
	rt := NewDockerRuntime(fakeDocker(t, "0"), "", nil)

	result, err := rt.Build(context.Background(), ports.BuildRequest{Image: "img", ContextDir: "/ctx"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExitCode != 0 || strings.TrimSpace(result.Output) != "build -t img /ctx" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestDockerRuntime_MissingBinary(t *testing.T) {
	rt := NewDockerRuntime(filepath.Join(t.TempDir(), "no-such-docker"), "", nil)

	if _, err := rt.Run(context.Background(), ports.RunRequest{Image: "img"}); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestDirectoryResolver_Resolve(t *testing.T) {
	root := t.TempDir()
	ctxDir := filepath.Join(root, "tools", "convert")
	if err := os.MkdirAll(ctxDir, 0755); err != nil {
		t.Fatalf("failed to create context: %v", err)
	}
	if err := os.WriteFile(filepath.Join(ctxDir, "Dockerfile"), []byte("FROM alpine\n"), 0644); err != nil {
		t.Fatalf("failed to write Dockerfile: %v", err)
	}

	r := NewDirectoryResolver(root)

	got, err := r.Resolve("tools/convert:1.2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ctxDir {
		t.Errorf("expected %s, got %s", ctxDir, got)
	}

	if _, err := r.Resolve("missing"); err == nil {
		t.Error("expected error for image without context")
	}
	if _, err := r.Resolve("../etc"); !errors.Is(err, domain.ErrInvalidImage) {
		t.Errorf("expected ErrInvalidImage, got %v", err)
	}

	names, err := r.List()
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(names) != 1 || names[0] != "tools/convert" {
		t.Errorf("unexpected contexts %v", names)
	}
}
