package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	scanBufferSize = 1024 * 1024
	pollInterval   = 250 * time.Millisecond
)

// Options controls a single Tail call. A negative Offset means "the last
// Limit lines of the file"; a non-negative Offset reads forward from that
// byte position. When Wait is positive and no new lines are available,
// Tail blocks up to Wait for lines to appear.
type Options struct {
	Offset int64
	Limit  int
	Wait   time.Duration
}

// Result carries the lines read and the byte offset to resume from.
type Result struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// Tail reads log lines from path. A missing file is not an error; it
// yields an empty result with offset zero so callers can poll until the
// writer creates the file.
func Tail(ctx context.Context, path string, opts Options) (Result, error) {
	if opts.Offset < 0 {
		lines, offset, err := lastLines(path, opts.Limit)
		if err != nil {
			return Result{}, err
		}
		return Result{Lines: lines, Offset: offset}, nil
	}

	deadline := time.Now().Add(opts.Wait)
	for {
		lines, offset, err := readFrom(path, opts.Offset)
		if err != nil {
			return Result{}, err
		}
		if len(lines) > 0 || opts.Wait <= 0 || time.Now().After(deadline) {
			return Result{Lines: lines, Offset: offset}, nil
		}

		opts.Offset = offset
		select {
		case <-ctx.Done():
			return Result{Offset: offset}, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// lastLines returns up to limit trailing lines and the end-of-file offset.
func lastLines(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		limit = 50
	}

	ring := make([]string, limit)
	count := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufferSize)
	for scanner.Scan() {
		ring[count%limit] = scanner.Text()
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	kept := count
	if kept > limit {
		kept = limit
	}
	lines := make([]string, kept)
	for i := 0; i < kept; i++ {
		lines[i] = ring[(count-kept+i)%limit]
	}
	return lines, end, nil
}

// readFrom returns whole lines after the byte offset and the offset the
// scan stopped at. An offset beyond the current file size snaps to the end,
// which covers truncation by log rotation.
func readFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if offset > info.Size() {
		offset = info.Size()
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufferSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}
	return lines, end, nil
}
