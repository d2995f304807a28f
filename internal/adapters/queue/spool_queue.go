package queue

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/kamal-hamza/ccw/internal/core/ports"
)

const (
	pendingExt = ".json"
	claimedExt = ".claimed"
)

// SpoolQueue is a directory-backed queue for running the worker without a broker.
// Each message is one file; receiving claims it by renaming, deleting removes it.
type SpoolQueue struct {
	dir    string
	logger *log.Logger
}

// NewSpoolQueue opens the spool directory. Messages claimed by a previous
// process that never acknowledged them are made visible again.
func NewSpoolQueue(dir string, logger *log.Logger) (*SpoolQueue, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	q := &SpoolQueue{dir: dir, logger: logger}
	if err := q.restoreClaimed(); err != nil {
		return nil, err
	}
	return q, nil
}

// Ensure it implements the interface
var _ ports.Queue = (*SpoolQueue)(nil)

// Dir returns the spool directory
func (q *SpoolQueue) Dir() string {
	return q.dir
}

// Receive claims up to max pending messages, waiting for new files when the spool is empty
func (q *SpoolQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]ports.Message, error) {
	if max < 1 {
		max = 1
	}

	// watch before scanning so a file written in between is not missed
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(q.dir); err != nil {
		return nil, fmt.Errorf("failed to watch spool directory: %w", err)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		msgs, err := q.claim(max)
		if err != nil || len(msgs) > 0 {
			return msgs, err
		}

		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil, nil
			}
			if !strings.HasSuffix(event.Name, pendingExt) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil, nil
			}
			q.logger.Warn("spool watcher error", "err", err)

		case <-timer.C:
			return nil, nil

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// claim renames pending files in arrival order until max are held
func (q *SpoolQueue) claim(max int) ([]ports.Message, error) {
	names, err := q.list(pendingExt)
	if err != nil {
		return nil, err
	}

	var msgs []ports.Message
	for _, name := range names {
		if len(msgs) == max {
			break
		}

		id := strings.TrimSuffix(name, pendingExt)
		claimed := filepath.Join(q.dir, id+claimedExt)
		// another consumer may win the rename
		if err := os.Rename(filepath.Join(q.dir, name), claimed); err != nil {
			continue
		}

		body, err := os.ReadFile(claimed)
		if err != nil {
			return msgs, fmt.Errorf("failed to read message %s: %w", id, err)
		}
		msgs = append(msgs, ports.Message{
			ID:            id,
			ReceiptHandle: id + claimedExt,
			Body:          body,
		})
	}
	return msgs, nil
}

// Delete removes a claimed message
func (q *SpoolQueue) Delete(ctx context.Context, receiptHandle string) error {
	if filepath.Base(receiptHandle) != receiptHandle || !strings.HasSuffix(receiptHandle, claimedExt) {
		return fmt.Errorf("invalid receipt handle %q", receiptHandle)
	}
	if err := os.Remove(filepath.Join(q.dir, receiptHandle)); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// Send writes body as a new pending message
func (q *SpoolQueue) Send(ctx context.Context, body []byte) (string, error) {
	// names sort in arrival order
	id := fmt.Sprintf("%020d-%s", time.Now().UnixNano(), uuid.NewString())

	tmp, err := os.CreateTemp(q.dir, ".send-*")
	if err != nil {
		return "", fmt.Errorf("failed to create message file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write message: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(q.dir, id+pendingExt)); err != nil {
		return "", fmt.Errorf("failed to publish message: %w", err)
	}
	return id, nil
}

// Pending returns the number of unclaimed messages
func (q *SpoolQueue) Pending() (int, error) {
	names, err := q.list(pendingExt)
	return len(names), err
}

func (q *SpoolQueue) restoreClaimed() error {
	names, err := q.list(claimedExt)
	if err != nil {
		return err
	}
	for _, name := range names {
		id := strings.TrimSuffix(name, claimedExt)
		if err := os.Rename(filepath.Join(q.dir, name), filepath.Join(q.dir, id+pendingExt)); err != nil {
			return fmt.Errorf("failed to restore message %s: %w", id, err)
		}
		q.logger.Info("restored unacknowledged message", "message", id)
	}
	return nil
}

func (q *SpoolQueue) list(ext string) ([]string, error) {
	entries, err := os.ReadDir(q.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read spool directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() && !strings.HasPrefix(name, ".") && strings.HasSuffix(name, ext) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
