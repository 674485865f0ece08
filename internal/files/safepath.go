package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// SafePath returns path if nothing exists there. Otherwise it returns the
// first free [base]_1..9[ext] sibling, then a UUIDv7-suffixed one, and
// reports that the path changed.
func SafePath(path string) (string, bool, error) {
	if path == "" {
		return "", false, fmt.Errorf("path is empty")
	}
	free, err := notExists(path)
	if err != nil || free {
		return path, false, err
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; i <= 9; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		free, err := notExists(candidate)
		if err != nil {
			return "", false, err
		}
		if free {
			return candidate, true, nil
		}
	}

	suffix := uuid.NewString()[:8]
	if u, err := uuid.NewV7(); err == nil {
		suffix = u.String()
	}
	return fmt.Sprintf("%s_%s%s", base, suffix, ext), true, nil
}

func notExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, os.ErrNotExist):
		return true, nil
	default:
		return false, err
	}
}
