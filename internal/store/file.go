package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"remindflow/internal/domain"
)

// FileBackend stores all owners in one JSON document. Every save writes a
// temp file next to the target and renames it over the old one.
type FileBackend struct {
	fs   afero.Fs
	path string

	mu   sync.Mutex
	data map[string][]domain.Record
}

func NewFileBackend(fs afero.Fs, path string) *FileBackend {
	return &FileBackend{fs: fs, path: path}
}

func (b *FileBackend) Load(ctx context.Context) (map[string][]domain.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.load(); err != nil {
		return nil, err
	}
	out := make(map[string][]domain.Record, len(b.data))
	for owner, recs := range b.data {
		out[owner] = append([]domain.Record(nil), recs...)
	}
	return out, nil
}

func (b *FileBackend) load() error {
	raw, err := afero.ReadFile(b.fs, b.path)
	if errors.Is(err, os.ErrNotExist) {
		b.data = map[string][]domain.Record{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", b.path, err)
	}
	data := map[string][]domain.Record{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("decode %s: %w", b.path, err)
		}
	}
	b.data = data
	return nil
}

func (b *FileBackend) Save(ctx context.Context, owner string, recs []domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		if err := b.load(); err != nil {
			return err
		}
	}

	next := make(map[string][]domain.Record, len(b.data)+1)
	for k, v := range b.data {
		next[k] = v
	}
	if len(recs) == 0 {
		delete(next, owner)
	} else {
		next[owner] = append([]domain.Record(nil), recs...)
	}

	raw, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return err
	}
	if err := b.writeAtomic(raw); err != nil {
		return err
	}
	b.data = next
	return nil
}

func (b *FileBackend) writeAtomic(raw []byte) (err error) {
	dir := filepath.Dir(b.path)
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := afero.TempFile(b.fs, dir, filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = b.fs.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = b.fs.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("replace %s: %w", b.path, err)
	}
	return nil
}
