package buildlog

import (
	"strings"
	"testing"
)

func TestParse_LegacySuccess(t *testing.T) {
	output := `
Sending build context to Docker daemon  3.072kB
Step 1/3 : FROM alpine:3.19
 ---> 05455a08881e
Step 2/3 : RUN apk add --no-cache pandoc
 ---> Using cache
 ---> 8c1f3a2b9d0e
Step 3/3 : WORKDIR /download
 ---> Running in 4d5e6f7a8b9c
Successfully built 9f8e7d6c5b4a
Successfully tagged pandoc:latest
`
	result := Parse(output)

	if !result.Built {
		t.Error("Expected Built to be true")
	}
	if result.Steps != 3 {
		t.Errorf("Expected 3 steps, got %d", result.Steps)
	}
	if result.ImageID != "9f8e7d6c5b4a" {
		t.Errorf("Expected image id '9f8e7d6c5b4a', got '%s'", result.ImageID)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected 0 errors, got %d", len(result.Errors))
	}
}

func TestParse_LegacyFailure(t *testing.T) {
	output := `
Step 1/2 : FROM alpine:3.19
 ---> 05455a08881e
Step 2/2 : RUN make
 ---> Running in 4d5e6f7a8b9c
/bin/sh: make: not found
The command '/bin/sh -c make' returned a non-zero code: 127
`
	result := Parse(output)

	if result.Built {
		t.Error("Expected Built to be false")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(result.Errors))
	}
	if result.Errors[0].Step != "2/2" {
		t.Errorf("Expected step '2/2', got '%s'", result.Errors[0].Step)
	}
	if !strings.Contains(result.Summary(), "non-zero code: 127") {
		t.Errorf("Expected summary to mention the exit code, got '%s'", result.Summary())
	}
}

func TestParse_BuildKitSuccess(t *testing.T) {
	output := `
#1 [internal] load build definition from Dockerfile
#1 DONE 0.0s
#5 [1/2] FROM docker.io/library/alpine:3.19
#5 DONE 0.1s
#6 [2/2] RUN apk add --no-cache pandoc
#6 0.512 fetch https://dl-cdn.alpinelinux.org/alpine/v3.19/main/x86_64/APKINDEX.tar.gz
#6 DONE 2.3s
#6 [2/2] RUN apk add --no-cache pandoc
#7 exporting to image
#7 writing image sha256:3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a done
#7 naming to docker.io/library/pandoc:latest done
`
	result := Parse(output)

	if !result.Built {
		t.Error("Expected Built to be true")
	}
	if result.Steps != 2 {
		t.Errorf("Expected 2 steps, got %d", result.Steps)
	}
	if !strings.HasPrefix(result.ImageID, "sha256:3b4c") {
		t.Errorf("Expected sha256 image id, got '%s'", result.ImageID)
	}
	if !strings.HasPrefix(result.Summary(), "built sha256:3b4c") {
		t.Errorf("Unexpected summary '%s'", result.Summary())
	}
}

func TestParse_BuildKitFailure(t *testing.T) {
	output := `
#6 [2/2] RUN make
#6 0.201 /bin/sh: make: not found
#6 ERROR: process "/bin/sh -c make" did not complete successfully: exit code: 127
------
 > [2/2] RUN make:
0.201 /bin/sh: make: not found
------
ERROR: failed to solve: process "/bin/sh -c make" did not complete successfully: exit code: 127
`
	result := Parse(output)

	if result.Built {
		t.Error("Expected Built to be false")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("Expected 2 errors, got %d", len(result.Errors))
	}
	if result.Errors[0].Step != "#6" {
		t.Errorf("Expected step '#6', got '%s'", result.Errors[0].Step)
	}
	if !strings.HasPrefix(result.Summary(), "build failed: failed to solve") {
		t.Errorf("Unexpected summary '%s'", result.Summary())
	}
}

func TestParse_Warnings(t *testing.T) {
	output := `
DEPRECATED: The legacy builder is deprecated and will be removed in a future release.
Step 1/1 : FROM alpine:3.19
Successfully built 05455a08881e
`
	result := Parse(output)

	if len(result.Warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d", len(result.Warnings))
	}
	if !strings.Contains(result.Summary(), "1 warning(s)") {
		t.Errorf("Expected summary to count warnings, got '%s'", result.Summary())
	}
}

func TestParse_Empty(t *testing.T) {
	result := Parse("")

	if result.Built || result.Steps != 0 || len(result.Errors) != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
	if result.Summary() != "0 step(s), no image reported" {
		t.Errorf("Unexpected summary '%s'", result.Summary())
	}
}

func TestFormatIssue(t *testing.T) {
	got := FormatIssue(Issue{Level: LevelError, Step: "#6", Message: "exit code: 127"})
	want := "ERROR: exit code: 127 (step #6)"
	if got != want {
		t.Errorf("Expected '%s', got '%s'", want, got)
	}

	got = FormatIssue(Issue{Level: LevelWarning, Message: "legacy builder"})
	if got != "WARNING: legacy builder" {
		t.Errorf("Unexpected warning format '%s'", got)
	}
}
