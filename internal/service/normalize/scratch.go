package normalize

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Scratch is a request-scoped temporary directory. Close removes it and everything inside.
type Scratch struct {
	dir string
}

// NewScratch creates a uniquely named directory under root.
func NewScratch(root string) (*Scratch, error) {
	dir, err := os.MkdirTemp(root, "therapy-"+uuid.NewString()+"-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Scratch{dir: dir}, nil
}

// Dir returns the scratch directory path.
func (s *Scratch) Dir() string {
	return s.dir
}

// Path joins name onto the scratch directory.
func (s *Scratch) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Close removes the scratch directory.
func (s *Scratch) Close() error {
	if s == nil || s.dir == "" {
		return nil
	}
	return os.RemoveAll(s.dir)
}
