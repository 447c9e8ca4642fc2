package daemon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrNoLogs is returned when the daemon log file does not exist.
var ErrNoLogs = errors.New("no daemon log file found")

// NewLogWriter returns an append-only, size-rotated writer for the daemon log.
func NewLogWriter(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		LocalTime:  true,
	}
}

// ShowLogs copies the log at path to w. When tail is positive only the last
// tail lines are written.
func ShowLogs(w io.Writer, path string, tail int) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w at %s", ErrNoLogs, path)
	}
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	if tail <= 0 {
		_, err := io.Copy(w, f)
		return err
	}

	ring := make([]string, 0, tail)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ring) == tail {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}

	for _, line := range ring {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
