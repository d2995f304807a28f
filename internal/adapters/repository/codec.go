package repository

import (
	"fmt"
	"strconv"
	"time"
)

// RootSentinel is the stored parent id of top-level entries
const RootSentinel = "null"

// TimeLayout is the stored timestamp format: ISO-8601 UTC with milliseconds
const TimeLayout = "2006-01-02T15:04:05.000Z"

// EncodeParent converts a domain parent reference into its stored form
func EncodeParent(parent *string) string {
	if parent == nil || *parent == "" {
		return RootSentinel
	}
	return *parent
}

// DecodeParent converts a stored parent id back into a domain parent reference
func DecodeParent(stored string) *string {
	if stored == "" || stored == RootSentinel {
		return nil
	}
	id := stored
	return &id
}

// EncodeSize renders a file size as a base-10 string
func EncodeSize(size int64) string {
	return strconv.FormatInt(size, 10)
}

// DecodeSize parses a stored file size
func DecodeSize(stored string) (int64, error) {
	if stored == "" {
		return 0, nil
	}
	size, err := strconv.ParseInt(stored, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid stored filesize %q: %w", stored, err)
	}
	if size < 0 {
		return 0, fmt.Errorf("invalid stored filesize %q: negative", stored)
	}
	return size, nil
}

// EncodeTime renders a timestamp in the stored format
func EncodeTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// DecodeTime parses a stored timestamp. RFC 3339 values without milliseconds are accepted.
func DecodeTime(stored string) (time.Time, error) {
	if stored == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(TimeLayout, stored)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, stored)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", stored, err)
		}
	}
	return t.UTC(), nil
}
