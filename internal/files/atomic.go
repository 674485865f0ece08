// Package files writes output files without leaving partial content behind
// and refuses to follow symlinks when doing so.
package files

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kisanseva/pagetrans/internal/logger"
)

// maxExclusiveAttempts bounds the numbered suffixes tried by AtomicWriteExclusive.
const maxExclusiveAttempts = 10

// AtomicWrite writes data to a temp file in the destination directory and
// renames it into place.
func AtomicWrite(path string, data []byte, perms os.FileMode) error {
	if err := RejectSymlinkPath(path); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".pagetrans-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	done := false
	defer func() {
		if !done {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(perms); err != nil {
		return fmt.Errorf("failed to set temp file permissions: %w", err)
	}
	if err := writeAndClose(tmp, data); err != nil {
		return err
	}
	if err := renameAtomic(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to destination: %w", err)
	}
	syncDirBestEffort(dir)

	done = true
	return nil
}

// AtomicWriteFunc renders into memory with render and writes the result with
// AtomicWrite. Nothing is written when render fails.
func AtomicWriteFunc(path string, perms os.FileMode, render func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	return AtomicWrite(path, buf.Bytes(), perms)
}

// AtomicWriteExclusive is like AtomicWrite but never replaces an existing
// file: on collision it retries with _1.._9 suffixes. It returns the path
// actually written.
func AtomicWriteExclusive(path string, data []byte, perms os.FileMode) (string, error) {
	if err := RejectSymlinkPath(path); err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)

	var lastErr error
	for i := 0; i < maxExclusiveAttempts; i++ {
		candidate := path
		if i > 0 {
			candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
		}
		if _, err := os.Lstat(candidate); err == nil {
			lastErr = fmt.Errorf("%s: %w", candidate, os.ErrExist)
			continue
		}
		tmpPath := candidate + ".tmp"
		tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perms)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				lastErr = err
				continue
			}
			return "", err
		}
		if err := writeAndClose(tmp, data); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return "", err
		}
		if err := renameAtomic(tmpPath, candidate); err != nil {
			os.Remove(tmpPath)
			return "", err
		}
		syncDirBestEffort(dir)
		return candidate, nil
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", fmt.Errorf("failed to create %s", path)
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	return nil
}

func syncDirBestEffort(dir string) {
	if runtime.GOOS == "windows" {
		return
	}
	f, err := os.Open(dir)
	if err != nil {
		logger.Debug("Directory open for fsync failed", "path", dir, "error", err)
		return
	}
	defer f.Close()
	if err := f.Sync(); err != nil {
		logger.Warn("Directory fsync failed (safe to ignore on some platforms)", "path", dir, "error", err)
	}
}
