package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

const dataFilePerm = 0o644

// FileStore keeps the Document as one JSON file. Flush writes a temp file and
// renames it over the target, so a concurrent Load sees either the old or the
// new document.
type FileStore struct {
	path string
	seed SeedFunc
}

func NewFileStore(path string, seed SeedFunc) *FileStore {
	return &FileStore{path: path, seed: seed}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (Document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Document{}, fmt.Errorf("read catalog %s: %w", s.path, err)
	}

	doc, ok, err := decodeDocument(raw)
	if err != nil {
		return Document{}, fmt.Errorf("decode catalog %s: %w", s.path, err)
	}
	if ok {
		return doc, nil
	}

	return seedDocument(ctx, s, s.seed)
}

func (s *FileStore) Flush(_ context.Context, doc Document) error {
	raw, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := renameio.WriteFile(s.path, raw, dataFilePerm); err != nil {
		return fmt.Errorf("write catalog %s: %w", s.path, err)
	}
	return nil
}

// Ping checks that the directory holding the file is reachable.
func (s *FileStore) Ping(_ context.Context) error {
	dir := filepath.Dir(s.path)
	fi, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
