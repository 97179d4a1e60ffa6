package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/roach88/transitions/internal/store"
)

// ErrSamePath is returned when a backup would overwrite its own source.
var ErrSamePath = errors.New("backup destination is the store file")

// Backup copies the store file to dst and returns the number of bytes
// copied. The WAL is checkpointed first so the single file holds every
// committed change. dst is written through a temp file and renamed into
// place.
func Backup(ctx context.Context, s *store.Store, dst string) (int64, error) {
	src := s.Path()
	if same, err := samePath(src, dst); err != nil {
		return 0, err
	} else if same {
		return 0, fmt.Errorf("%w: %s", ErrSamePath, dst)
	}

	if err := s.Checkpoint(ctx); err != nil {
		return 0, fmt.Errorf("backup: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("backup: open store: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".transitions-backup-*")
	if err != nil {
		return 0, fmt.Errorf("backup: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, in)
	if err != nil {
		return 0, fmt.Errorf("backup: copy: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("backup: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("backup: close: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return 0, fmt.Errorf("backup: rename: %w", err)
	}
	tmp = nil
	return n, nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, fmt.Errorf("backup: %w", err)
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, fmt.Errorf("backup: %w", err)
	}
	return absA == absB, nil
}
