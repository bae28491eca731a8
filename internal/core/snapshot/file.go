package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeusync/escape/internal/core/storage"
)

// SaveFile exports w to path. The document is written to a temporary file in
// the same directory and renamed over path, so readers never see a partial
// snapshot.
func (c *Codec) SaveFile(path string, w *storage.World) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = c.Export(w, tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("snapshot: sync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	return nil
}

// LoadFile imports the snapshot at path into w.
func (c *Codec) LoadFile(path string, w *storage.World) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("snapshot: open: %w", err)
	}
	defer f.Close()
	return c.Import(f, w)
}
