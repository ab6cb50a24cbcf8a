// Package uploads persists attachment content to blob storage and hands
// back reference strings that the static file layer can serve.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes attachment content and returns a stable reference string
// for it. Implementations must never overwrite existing content.
type Store interface {
	Save(originalFilename string, content io.Reader) (string, error)
}

// DirStore stores attachments as files under Root and returns references
// of the form Prefix/<uuid>_<filename>.
type DirStore struct {
	Root   string
	Prefix string
}

// NewDirStore creates the root directory if needed and returns a DirStore
// serving references under the given public prefix.
func NewDirStore(root, prefix string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &DirStore{Root: root, Prefix: strings.TrimSuffix(prefix, "/")}, nil
}

// Save writes the content to a new file named <uuid>_<filename> under the
// store root. The random token makes names collision-free, so concurrent
// saves never contend; O_EXCL turns a token collision into an error
// instead of an overwrite.
func (s *DirStore) Save(originalFilename string, content io.Reader) (string, error) {
	name := uuid.NewString() + "_" + sanitize(originalFilename)

	f, err := os.OpenFile(filepath.Join(s.Root, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing upload file: %w", err)
	}

	return s.Prefix + "/" + name, nil
}

// sanitize reduces a client-supplied filename to a safe base name.
func sanitize(filename string) string {
	// path.Base handles forward slashes from any client platform;
	// filepath.Base handles the server's own separator.
	base := filepath.Base(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "upload"
	}
	return base
}
