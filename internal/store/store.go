package store

import (
	"context"

	"github.com/shopbot-core/server/internal/model"
)

// Store persists the shared document as a whole: every read loads the full
// document and every write replaces it. Implementations must return a fresh,
// initialised document when nothing is stored yet.
//
// All writers go through Update, which holds the store's write lock across
// the whole read-modify-write; a plain Load-then-Save pair has no such
// protection and can erase a concurrent writer's changes.
type Store interface {
	Load(ctx context.Context) (*model.Document, error)
	Save(ctx context.Context, doc *model.Document) error

	// Update runs fn against the freshly loaded document and persists the
	// result when fn reports save=true. A non-nil error from fn aborts the
	// write and is returned unchanged.
	Update(ctx context.Context, fn func(doc *model.Document) (save bool, err error)) error
}
