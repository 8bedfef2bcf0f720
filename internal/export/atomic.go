package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cleanser/internal/failures"
)

// writeAtomic streams fill into a temporary file next to path and renames it
// over path once the content is durable. On any failure the temporary file is
// removed and path is left untouched.
func writeAtomic(path string, fill func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &failures.SinkIOError{Path: dir, Op: "mkdir", Err: err}
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &failures.SinkIOError{Path: path, Op: "create", Err: err}
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	buf := bufio.NewWriter(tmp)
	if err := fill(buf); err != nil {
		return &failures.SinkIOError{Path: path, Op: "write", Err: err}
	}
	if err := buf.Flush(); err != nil {
		return &failures.SinkIOError{Path: path, Op: "write", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &failures.SinkIOError{Path: path, Op: "sync", Err: err}
	}
	if err := tmp.Chmod(0o644); err != nil {
		return &failures.SinkIOError{Path: path, Op: "chmod", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &failures.SinkIOError{Path: path, Op: "close", Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &failures.SinkIOError{Path: path, Op: "rename", Err: err}
	}
	return nil
}

// copyFile duplicates src at dst through writeAtomic.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &failures.SinkIOError{Path: src, Op: "open", Err: err}
	}
	defer in.Close()
	return writeAtomic(dst, func(w io.Writer) error {
		if _, err := io.Copy(w, in); err != nil {
			return fmt.Errorf("copy %s: %w", src, err)
		}
		return nil
	})
}
