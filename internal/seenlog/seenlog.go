// Package seenlog keeps the append-only record of processed message
// fingerprints.
package seenlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Log is an append-only, durable set of fingerprints. One
// newline-delimited record per fingerprint; records are never rewritten
// once complete.
type Log struct {
	file *os.File
	seen map[string]struct{}
}

// Open reads the log at path into memory, creating the file when
// missing. A partial trailing record left by a crash is discarded; the
// complete records before it are untouched.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	seen, validEnd, err := scan(path)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(path); err == nil && info.Size() > validEnd {
		// A crash mid-append left a torn record at the tail. It was
		// never a complete entry, so dropping it preserves the
		// append-only contract for everything written before it.
		if err := os.Truncate(path, validEnd); err != nil {
			return nil, fmt.Errorf("failed to discard torn record: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Log{file: file, seen: seen}, nil
}

func scan(path string) (map[string]struct{}, int64, error) {
	seen := map[string]struct{}{}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return seen, 0, nil
		}
		return nil, 0, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for the read pass.
			_ = cerr
		}
	}()

	reader := bufio.NewReader(file)
	var offset int64
	for {
		line, err := reader.ReadString('\n')
		if err == nil {
			offset += int64(len(line))
			if fp := strings.TrimSpace(line); fp != "" {
				seen[fp] = struct{}{}
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			// Anything after the last newline is a torn record.
			return seen, offset, nil
		}
		return nil, 0, err
	}
}

// Contains reports whether the fingerprint was already recorded.
func (l *Log) Contains(fingerprint string) bool {
	_, ok := l.seen[fingerprint]
	return ok
}

// Record appends the fingerprint and syncs it to disk before
// returning. Recording an already-present fingerprint is a no-op.
func (l *Log) Record(fingerprint string) error {
	if fingerprint == "" {
		return fmt.Errorf("fingerprint is empty")
	}
	if l.Contains(fingerprint) {
		return nil
	}
	if _, err := l.file.WriteString(fingerprint + "\n"); err != nil {
		return fmt.Errorf("failed to append fingerprint: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync seen log: %w", err)
	}
	l.seen[fingerprint] = struct{}{}
	return nil
}

// Len returns the number of recorded fingerprints.
func (l *Log) Len() int {
	return len(l.seen)
}

// Close closes the underlying file.
func (l *Log) Close() error {
	return l.file.Close()
}
