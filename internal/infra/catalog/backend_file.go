package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"aigate/internal/domain"
)

const (
	defaultDirMode  os.FileMode = 0o755
	defaultFileMode os.FileMode = 0o600
)

type fileBackend struct {
	path  string
	codec documentCodec
}

// NewFileStore returns a registry store persisted as a single document.
// The codec is chosen from the file extension.
func NewFileStore(path string, logger *zap.Logger) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errEmptyPath
	}
	codec, err := codecForPath(path)
	if err != nil {
		return nil, err
	}
	return newStore(&fileBackend{path: path, codec: codec}, logger), nil
}

func (b *fileBackend) read() ([]domain.Registration, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.Registration{}, nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.Registration{}, nil
	}
	var doc registryDocument
	if err := b.codec.unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode registry %s: %w", b.codec.name(), err)
	}
	if doc.Servers == nil {
		return []domain.Registration{}, nil
	}
	return doc.Servers, nil
}

func (b *fileBackend) write(regs []domain.Registration) error {
	if regs == nil {
		regs = []domain.Registration{}
	}
	data, err := b.codec.marshal(registryDocument{Servers: regs})
	if err != nil {
		return fmt.Errorf("encode registry %s: %w", b.codec.name(), err)
	}
	return writeFileAtomic(b.path, data, defaultFileMode)
}

func (b *fileBackend) close() error { return nil }

func (b *fileBackend) describe() string { return b.codec.name() + ":" + b.path }

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over path, so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, defaultDirMode); err != nil {
		return fmt.Errorf("ensure registry dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp registry file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp registry file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp registry file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp registry file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace registry file: %w", err)
	}
	return nil
}
