package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteError wraps any failure to persist a line.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("append %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// appender owns the open-append-close discipline shared by every output file.
// Each call opens the file with O_APPEND, issues a single write and closes it,
// so a reader tailing the file only ever sees whole lines.
type appender struct {
	path  string
	fsync bool
}

// append writes the bytes produced by build. build receives the current file
// size so callers can decide whether a header is still owed.
func (a appender) append(build func(size int64) ([]byte, error)) error {
	if err := ensureDir(a.path); err != nil {
		return &WriteError{Path: a.path, Err: err}
	}

	file, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &WriteError{Path: a.path, Err: err}
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return &WriteError{Path: a.path, Err: err}
	}

	payload, err := build(info.Size())
	if err != nil {
		file.Close()
		return &WriteError{Path: a.path, Err: err}
	}

	if len(payload) > 0 {
		if _, err := file.Write(payload); err != nil {
			file.Close()
			return &WriteError{Path: a.path, Err: err}
		}
		if a.fsync {
			if err := file.Sync(); err != nil {
				file.Close()
				return &WriteError{Path: a.path, Err: err}
			}
		}
	}

	if err := file.Close(); err != nil {
		return &WriteError{Path: a.path, Err: err}
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
