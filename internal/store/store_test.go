package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopbot-core/server/internal/model"
)

func tempFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "data.json"))
}

func TestFileStoreMissingFileYieldsFreshDocument(t *testing.T) {
	fs := tempFileStore(t)

	doc, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.VirtualShop == nil {
		t.Fatal("expected initialised shop state")
	}
	if !doc.VirtualShop.Settings.Enabled {
		t.Error("fresh shop should be enabled")
	}
	if len(doc.VirtualShop.Products) != 0 {
		t.Errorf("fresh shop should be empty, got %d products", len(doc.VirtualShop.Products))
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := tempFileStore(t)

	doc := model.NewDocument()
	doc.Economy["u1"] = 1234
	doc.VirtualShop.Products["p1"] = &model.Product{ID: "p1", Name: "VIP", Price: 100, Enabled: true}

	if err := fs.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := fs.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Economy["u1"] != 1234 {
		t.Errorf("expected balance 1234, got %d", loaded.Economy["u1"])
	}
	product, ok := loaded.VirtualShop.Products["p1"]
	if !ok {
		t.Fatal("product p1 missing after round trip")
	}
	if product.Name != "VIP" || product.Price != 100 {
		t.Errorf("product corrupted: %+v", product)
	}
	if loaded.VirtualShop.Migrated {
		t.Error("clean save/load should not report a migration")
	}
}

func TestFileStoreRejectsCorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatal("expected error for corrupt data file")
	}
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs := NewFileStore(filepath.Join(dir, "data.json"))

	if err := fs.Save(ctx, model.NewDocument()); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "data.json" {
		t.Errorf("expected only data.json in %s, got %v", dir, entries)
	}
}

func TestFileStoreUpdatePersistsMutation(t *testing.T) {
	ctx := context.Background()
	fs := tempFileStore(t)

	err := fs.Update(ctx, func(doc *model.Document) (bool, error) {
		doc.Economy["u1"] = 5
		return true, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	doc, err := fs.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Economy["u1"] != 5 {
		t.Errorf("mutation not persisted, balance %d", doc.Economy["u1"])
	}
}

func TestFileStoreUpdateAbortsOnError(t *testing.T) {
	ctx := context.Background()
	fs := tempFileStore(t)

	if err := fs.Update(ctx, func(doc *model.Document) (bool, error) {
		doc.Economy["u1"] = 5
		return true, nil
	}); err != nil {
		t.Fatal(err)
	}

	sentinel := errors.New("validation failed")
	err := fs.Update(ctx, func(doc *model.Document) (bool, error) {
		doc.Economy["u1"] = 99
		return true, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected the callback error back, got %v", err)
	}

	doc, err := fs.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Economy["u1"] != 5 {
		t.Errorf("aborted update must not persist, balance %d", doc.Economy["u1"])
	}
}

func TestFileStoreUpdateSkipsSaveWhenUnchanged(t *testing.T) {
	ctx := context.Background()
	fs := tempFileStore(t)

	if err := fs.Update(ctx, func(doc *model.Document) (bool, error) {
		doc.Economy["u1"] = 5
		return true, nil
	}); err != nil {
		t.Fatal(err)
	}

	if err := fs.Update(ctx, func(doc *model.Document) (bool, error) {
		doc.Economy["u1"] = 99
		return false, nil
	}); err != nil {
		t.Fatal(err)
	}

	doc, err := fs.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Economy["u1"] != 5 {
		t.Errorf("save=false must not persist, balance %d", doc.Economy["u1"])
	}
}

func TestFileStoreLoadRepairsLegacyShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	legacy := `{"virtual_shop": {"products": [{"id": "a", "name": "Old", "price": 5}], "purchases": [], "settings": {"enabled": true}}}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := NewFileStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !doc.VirtualShop.Migrated {
		t.Fatal("legacy shape should be reported as migrated")
	}
	if doc.VirtualShop.Products["0"].Name != "Old" {
		t.Errorf("legacy product not upgraded: %+v", doc.VirtualShop.Products)
	}
}
