package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cleanser/internal/failures"
)

// Validate confirms the clean and reject artifacts exist as regular files.
func Validate(a Artifacts) error {
	var errs []error
	for _, path := range []string{a.JSONPath, a.CSVPath} {
		if strings.TrimSpace(path) == "" {
			errs = append(errs, errors.New("artifact path is empty"))
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			errs = append(errs, &failures.SinkIOError{Path: path, Op: "validate", Err: err})
			continue
		}
		if !info.Mode().IsRegular() {
			errs = append(errs, &failures.SinkIOError{Path: path, Op: "validate", Err: fmt.Errorf("not a regular file")})
		}
	}
	return errors.Join(errs...)
}

// Archive copies every artifact into <archiveDir>/<ts>/ and returns that
// directory.
func Archive(a Artifacts, archiveDir string) (string, error) {
	if strings.TrimSpace(archiveDir) == "" {
		return "", errors.New("archive directory is not configured")
	}
	dest := filepath.Join(archiveDir, a.Timestamp)
	for _, src := range a.Paths() {
		if err := copyFile(src, filepath.Join(dest, filepath.Base(src))); err != nil {
			return "", err
		}
	}
	return dest, nil
}

// BackupSource copies the source file to <dir>/scrap_<ts>.csv.
func BackupSource(source, dir, ts string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("backup directory is not configured")
	}
	dest := filepath.Join(dir, BackupName(ts))
	if err := copyFile(source, dest); err != nil {
		return "", err
	}
	return dest, nil
}
