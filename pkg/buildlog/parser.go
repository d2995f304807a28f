package buildlog

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
)

// Level represents the severity of a build issue
type Level int

const (
	LevelError Level = iota
	LevelWarning
)

// Issue represents a parsed image build error or warning
type Issue struct {
	Level   Level
	Step    string // "2/5" for the legacy builder, "#7" for BuildKit
	Message string
}

// ParseResult holds the parsed image build output
type ParseResult struct {
	Errors   []Issue
	Warnings []Issue
	Steps    int    // steps started
	ImageID  string // set when the build reported its image
	Built    bool
}

var (
	// Step 2/5 : RUN make
	legacyStepPattern = regexp.MustCompile(`^Step (\d+/\d+) : (.+)$`)

	// The command '/bin/sh -c make' returned a non-zero code: 2
	legacyErrorPattern = regexp.MustCompile(`^The command .+ returned a non-zero code: \d+$`)

	// Successfully built 1a2b3c4d5e6f
	legacyBuiltPattern = regexp.MustCompile(`^Successfully built ([0-9a-f]+)$`)

	// #7 [2/5] RUN make, or #7 [builder 2/5] RUN make in multi-stage builds
	buildkitStepPattern = regexp.MustCompile(`^(#\d+) \[(?:[^\]\s]+ )?\d+/\d+\] (.+)$`)

	// #7 ERROR: process "/bin/sh -c make" did not complete successfully: exit code: 2
	buildkitErrorPattern = regexp.MustCompile(`^(#\d+) ERROR: (.+)$`)

	// #9 writing image sha256:1a2b... done
	buildkitImagePattern = regexp.MustCompile(`^#\d+ writing image (sha256:[0-9a-f]+)`)

	// ERROR: failed to solve: ...
	solveErrorPattern = regexp.MustCompile(`^ERROR: (.+)$`)

	// WARNING: ... / DEPRECATED: ...
	warningPattern = regexp.MustCompile(`^(?:\[?WARNING\]?|DEPRECATED):\s*(.+)$`)
)

// Parse extracts steps, errors and the resulting image from docker build output.
// Both the legacy builder and BuildKit's plain progress format are understood.
func Parse(output string) *ParseResult {
	result := &ParseResult{
		Errors:   []Issue{},
		Warnings: []Issue{},
	}

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var currentStep string
	seen := map[string]bool{}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if matches := legacyStepPattern.FindStringSubmatch(line); matches != nil {
			currentStep = matches[1]
			result.Steps++
			continue
		}

		if legacyErrorPattern.MatchString(line) {
			result.Errors = append(result.Errors, Issue{
				Level:   LevelError,
				Step:    currentStep,
				Message: line,
			})
			continue
		}

		if matches := legacyBuiltPattern.FindStringSubmatch(line); matches != nil {
			result.ImageID = matches[1]
			result.Built = true
			continue
		}

		if matches := buildkitStepPattern.FindStringSubmatch(line); matches != nil {
			// BuildKit repeats the header when a step resumes
			if !seen[matches[1]] {
				seen[matches[1]] = true
				result.Steps++
			}
			continue
		}

		if matches := buildkitErrorPattern.FindStringSubmatch(line); matches != nil {
			result.Errors = append(result.Errors, Issue{
				Level:   LevelError,
				Step:    matches[1],
				Message: matches[2],
			})
			continue
		}

		if matches := buildkitImagePattern.FindStringSubmatch(line); matches != nil {
			result.ImageID = matches[1]
			result.Built = true
			continue
		}

		if matches := solveErrorPattern.FindStringSubmatch(line); matches != nil {
			result.Errors = append(result.Errors, Issue{
				Level:   LevelError,
				Message: matches[1],
			})
			continue
		}

		if matches := warningPattern.FindStringSubmatch(line); matches != nil {
			result.Warnings = append(result.Warnings, Issue{
				Level:   LevelWarning,
				Step:    currentStep,
				Message: matches[1],
			})
		}
	}

	// an error anywhere means the image was not produced
	if len(result.Errors) > 0 {
		result.Built = false
	}

	return result
}

// FormatIssue returns a human-readable string for an issue
func FormatIssue(issue Issue) string {
	var sb strings.Builder

	switch issue.Level {
	case LevelError:
		sb.WriteString("ERROR: ")
	case LevelWarning:
		sb.WriteString("WARNING: ")
	}

	sb.WriteString(issue.Message)

	if issue.Step != "" {
		sb.WriteString(fmt.Sprintf(" (step %s)", issue.Step))
	}

	return sb.String()
}

// Summary returns a brief one-line description of the build
func (pr *ParseResult) Summary() string {
	if len(pr.Errors) > 0 {
		return fmt.Sprintf("build failed: %s", pr.Errors[len(pr.Errors)-1].Message)
	}

	if pr.Built {
		id := pr.ImageID
		if len(id) > 19 {
			id = id[:19]
		}
		if len(pr.Warnings) > 0 {
			return fmt.Sprintf("built %s in %d step(s) with %d warning(s)", id, pr.Steps, len(pr.Warnings))
		}
		return fmt.Sprintf("built %s in %d step(s)", id, pr.Steps)
	}

	return fmt.Sprintf("%d step(s), no image reported", pr.Steps)
}

// IsSuccess returns true if the build produced an image
func (pr *ParseResult) IsSuccess() bool {
	return pr.Built
}
