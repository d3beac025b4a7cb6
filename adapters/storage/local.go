// Package storage provides FileStore implementations.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kervell/imgio/core"
	apperrors "github.com/kervell/imgio/errors"
	"github.com/kervell/imgio/utils"
)

// Local reads and writes image files on the local filesystem. Writes are
// whole-buffer and non-atomic: a crash mid-write leaves a truncated file.
type Local struct {
	permissions os.FileMode
}

// NewLocal creates a Local file store. perm 0 defaults to 0644.
func NewLocal(perm os.FileMode) *Local {
	if perm == 0 {
		perm = 0o644
	}
	return &Local{permissions: perm}
}

// ValidateAndRead checks that path exists and, when extensions is non-empty,
// that its extension is in the set (case-insensitive), then reads the file.
// The existence check runs before any byte is read.
func (l *Local) ValidateAndRead(path string, extensions []string) ([]byte, error) {
	if err := l.stat(path, "local.validate"); err != nil {
		return nil, err
	}
	if len(extensions) > 0 && !utils.HasExtension(path, extensions) {
		return nil, apperrors.New(apperrors.CategoryStorage, "local.validate",
			fmt.Errorf("%w: %s not in %v", apperrors.ErrInvalidFileExtension,
				filepath.Ext(path), extensions))
	}
	return l.read(path)
}

// Read checks existence only and reads the whole file into memory.
func (l *Local) Read(path string) ([]byte, error) {
	if err := l.stat(path, "local.read"); err != nil {
		return nil, err
	}
	return l.read(path)
}

// Write replaces the file at path with data in a single write.
func (l *Local) Write(path string, data []byte) error {
	if err := os.WriteFile(path, data, l.permissions); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "local.write", err)
	}
	return nil
}

// Exists reports whether path resolves to an existing file.
func (l *Local) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, apperrors.Wrap(apperrors.CategoryStorage, "local.exists", err)
}

func (l *Local) stat(path, op string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperrors.New(apperrors.CategoryStorage, op,
				fmt.Errorf("%w: %s", apperrors.ErrFileDoesNotExist, path))
		}
		return apperrors.Wrap(apperrors.CategoryStorage, op, err)
	}
	return nil
}

func (l *Local) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "local.read", err)
	}
	return data, nil
}

var _ core.FileStore = (*Local)(nil)
