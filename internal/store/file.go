package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	errx "github.com/shopbot-core/server/internal/core/error"
	"github.com/shopbot-core/server/internal/model"
	logx "github.com/shopbot-core/server/pkg/logger"
)

// FileStore keeps the document in a single JSON file. Saves go through a
// temp file and rename so a crash mid-write cannot truncate the data. The
// mutex is held across the whole read-modify-write of Update, serialising
// every writer of the document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load(ctx context.Context) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *FileStore) Save(ctx context.Context, doc *model.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(doc)
}

func (f *FileStore) Update(ctx context.Context, fn func(doc *model.Document) (bool, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	save, err := fn(doc)
	if err != nil {
		return err
	}
	if !save {
		return nil
	}
	return f.save(doc)
}

func (f *FileStore) load() (*model.Document, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewDocument(), nil
		}
		logx.Error().Err(err).Str("path", f.path).Msg("failed to read data file")
		return nil, errx.WrapStore(fmt.Errorf("read %s: %w", f.path, err))
	}

	doc := &model.Document{}
	if err := json.Unmarshal(b, doc); err != nil {
		logx.Error().Err(err).Str("path", f.path).Msg("data file is not valid JSON")
		return nil, errx.WrapStore(fmt.Errorf("decode %s: %w", f.path, err))
	}
	return doc, nil
}

func (f *FileStore) save(doc *model.Document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errx.WrapStore(fmt.Errorf("encode document: %w", err))
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".shop-*.json")
	if err != nil {
		logx.Error().Err(err).Str("dir", dir).Msg("failed to create temp data file")
		return errx.WrapStore(fmt.Errorf("create temp file: %w", err))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errx.WrapStore(fmt.Errorf("write %s: %w", tmpName, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errx.WrapStore(fmt.Errorf("close %s: %w", tmpName, err))
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		logx.Error().Err(err).Str("path", f.path).Msg("failed to replace data file")
		return errx.WrapStore(fmt.Errorf("replace %s: %w", f.path, err))
	}
	return nil
}

var _ Store = (*FileStore)(nil)
