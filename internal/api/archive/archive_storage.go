package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/FACorreiaa/sidara-archive/internal/types"
)

var _ FileStore = (*AferoStore)(nil)

// FileStore keeps archive contents under generated flat names.
type FileStore interface {
	// Save writes r to a new file called name and returns the bytes written.
	// It never overwrites an existing file.
	Save(name string, r io.Reader) (int64, error)
	// Open returns types.ErrNotFound when the file does not exist.
	Open(name string) (afero.File, error)
	// Remove succeeds when the file is already gone.
	Remove(name string) error
}

type AferoStore struct {
	fs afero.Fs
}

func NewAferoStore(fs afero.Fs) *AferoStore {
	return &AferoStore{fs: fs}
}

// NewDiskStore roots a store at dir on the local disk, creating it if needed.
func NewDiskStore(dir string) (*AferoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating upload dir: %w", err)
	}
	return NewAferoStore(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

func (s *AferoStore) Save(name string, r io.Reader) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	f, err := s.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("error creating file: %w", err)
	}
	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.fs.Remove(name)
		return n, fmt.Errorf("error writing file: %w", err)
	}
	return n, nil
}

func (s *AferoStore) Open(name string) (afero.File, error) {
	if err := checkName(name); err != nil {
		return nil, types.ErrNotFound
	}
	f, err := s.fs.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	return f, nil
}

func (s *AferoStore) Remove(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := s.fs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error removing file: %w", err)
	}
	return nil
}

// HTTPFileSystem exposes the store read-only for static serving.
func (s *AferoStore) HTTPFileSystem() http.FileSystem {
	return afero.NewHttpFs(afero.NewReadOnlyFs(s.fs))
}

// checkName rejects anything that is not a bare file name.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("invalid stored file name %q", name)
	}
	return nil
}
