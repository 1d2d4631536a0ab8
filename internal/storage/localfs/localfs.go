package localfs

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/smallyu/go-maci-signer/internal/storage"
)

// Store is a local filesystem-backed BlobStore with one file per key.
//
// Writes go to a temporary file in the same directory which is synced and then
// renamed over the target, so readers see either the old or the new value.
type Store struct {
	root string
}

// New constructs a store rooted at root. The directory will be created if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, errors.Wrap(err, "localfs")
	}
	return &Store{root: root}, nil
}

// Root returns the directory backing the store.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) Get(key string) ([]byte, error) {
	if err := storage.CheckKey(key); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(storage.ErrNotFound, "key %q", key)
		}
		return nil, errors.Wrapf(err, "localfs: read %q", key)
	}
	return b, nil
}

func (s *Store) Set(key string, value []byte) error {
	if err := storage.CheckKey(key); err != nil {
		return err
	}
	path := s.pathFor(key)

	f, err := os.CreateTemp(s.root, "."+key+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "localfs: write %q", key)
	}
	tmp := f.Name()

	if _, err := f.Write(value); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "localfs: write %q", key)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "localfs: sync %q", key)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "localfs: close %q", key)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "localfs: commit %q", key)
	}
	return nil
}

func (s *Store) pathFor(key string) string {
	return filepath.Join(s.root, key)
}
