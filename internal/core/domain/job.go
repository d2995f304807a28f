package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// JobType is the only accepted value of a descriptor's type field
const JobType = "job"

var (
	// ErrMalformedJob marks message bodies that are not usable job descriptors
	ErrMalformedJob = errors.New("malformed job descriptor")

	// ErrInvalidImage is returned for image identifiers that cannot name a build context
	ErrInvalidImage = errors.New("invalid image name")
)

// Job describes one container execution requested through the queue
type Job struct {
	Type  string `json:"type"`
	Image string `json:"image"` // build context and tag of the image
	Cmd   string `json:"cmd"`   // shell command line run inside the container
	Src   string `json:"src"`   // entry id of the input file
	Dst   string `json:"dst"`   // entry id of the folder receiving outputs
	User  string `json:"user,omitempty"`
}

// name component: lowercase alphanumerics joined by single separators
var imagePattern = regexp.MustCompile(`^[a-z0-9]+(?:[._-][a-z0-9]+)*(?:/[a-z0-9]+(?:[._-][a-z0-9]+)*)*(?::[A-Za-z0-9_][A-Za-z0-9_.-]{0,127})?$`)

// NewJob creates a descriptor with the type field set
func NewJob(image, cmd, src, dst string) *Job {
	return &Job{
		Type:  JobType,
		Image: image,
		Cmd:   cmd,
		Src:   src,
		Dst:   dst,
	}
}

// ParseJob decodes and validates a raw message body.
// Every returned error wraps ErrMalformedJob.
func ParseJob(body []byte) (*Job, error) {
	if !utf8.Valid(body) {
		return nil, fmt.Errorf("%w: body is not valid UTF-8", ErrMalformedJob)
	}

	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return &job, nil
}

// Validate checks the shape of the descriptor
func (j *Job) Validate() error {
	if j.Type != JobType {
		return fmt.Errorf("%w: unexpected type %q", ErrMalformedJob, j.Type)
	}

	required := []struct {
		name  string
		value string
	}{
		{"image", j.Image},
		{"cmd", j.Cmd},
		{"src", j.Src},
		{"dst", j.Dst},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: missing %s", ErrMalformedJob, field.name)
		}
	}

	if err := ValidateImage(j.Image); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}

	return nil
}

// Encode serializes the descriptor into its wire form
func (j *Job) Encode() ([]byte, error) {
	return json.Marshal(j)
}

// ValidateImage checks an image identifier such as "thumbnailer" or "tools/convert:1.2"
func ValidateImage(image string) error {
	if strings.Contains(image, "..") || !imagePattern.MatchString(image) {
		return fmt.Errorf("%w: %q", ErrInvalidImage, image)
	}
	return nil
}

// ImageName strips the tag from an image identifier
// "tools/convert:1.2" -> "tools/convert"
func ImageName(image string) string {
	if i := strings.LastIndex(image, ":"); i > strings.LastIndex(image, "/") {
		return image[:i]
	}
	return image
}
