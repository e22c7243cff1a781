package sumfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zakopane-go/zakopane/internal/core/domain"
)

// WriteTo serializes the snapshot: header first, then records sorted by path.
func (s *Snapshot) WriteTo(w io.Writer) (int64, error) {
	header, err := FormatHeader(s.meta)
	if err != nil {
		return 0, err
	}
	codec, err := NewCodec(s.algorithm)
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	var total int64
	write := func(line string) error {
		n, err := bw.WriteString(line + "\n")
		total += int64(n)
		return err
	}

	for _, line := range header {
		if err := write(line); err != nil {
			return total, err
		}
	}
	for _, path := range s.Paths() {
		if err := write(codec.FormatLine(path, s.records[path])); err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}

// WriteFile writes the snapshot to path. The content goes to a temporary
// file in the same directory which is synced and renamed into place, so
// readers never observe a partial sum file.
func (s *Snapshot) WriteFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return domain.ErrStorage.WithDetails(path).WithCause(err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := s.WriteTo(tmp); err != nil {
		tmp.Close()
		return domain.ErrStorage.WithDetails(path).WithCause(fmt.Errorf("write: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return domain.ErrStorage.WithDetails(path).WithCause(fmt.Errorf("sync: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return domain.ErrStorage.WithDetails(path).WithCause(fmt.Errorf("close: %w", err))
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return domain.ErrStorage.WithDetails(path).WithCause(err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return domain.ErrStorage.WithDetails(path).WithCause(fmt.Errorf("rename: %w", err))
	}
	return nil
}
