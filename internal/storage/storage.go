package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/imagepull/internal/images"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultRoot is where images land when no output directory is given
const DefaultRoot = "~/Downloads/hubspot-images"

// LocalStore saves assets on disk as <root>/<column>/<filename>
type LocalStore struct {
	root string
}

// New creates a store rooted at root, expanding a leading ~
func New(root string) *LocalStore {
	if root == "" {
		root = DefaultRoot
	}

	if strings.HasPrefix(root, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			root = filepath.Join(homeDir, root[1:])
		}
	}

	return &LocalStore{root: root}
}

func (s *LocalStore) Root() string {
	return s.root
}

// maxDuplicates bounds the "name (n).ext" search in one column directory
const maxDuplicates = 10000

// Save writes the asset through a temporary file so a partial write never
// leaves a truncated image behind. An existing file is never replaced: a
// duplicate name is saved as "name (1).ext", "name (2).ext" and so on.
func (s *LocalStore) Save(ctx context.Context, asset images.Asset) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", goerr.Wrap(err, "save cancelled", goerr.V("filename", asset.Filename))
	}

	dir := filepath.Join(s.root, ColumnDir(asset.Column))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", goerr.Wrap(err, "failed to create column directory", goerr.V("dir", dir))
	}

	destPath, err := reserve(dir, SafeFilename(asset.Filename))
	if err != nil {
		return "", err
	}
	tempPath := destPath + ".tmp"

	if err := os.WriteFile(tempPath, asset.Data, 0644); err != nil {
		os.Remove(tempPath)
		os.Remove(destPath)
		return "", goerr.Wrap(err, "failed to write image file", goerr.V("path", tempPath))
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		os.Remove(destPath)
		return "", goerr.Wrap(err, "failed to move image file", goerr.V("path", destPath))
	}

	return destPath, nil
}

// reserve claims the first free name for filename in dir by creating it
// exclusively. The empty placeholder is replaced by the final rename.
func reserve(dir, filename string) (string, error) {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	for n := 0; n < maxDuplicates; n++ {
		name := filename
		if n > 0 {
			name = fmt.Sprintf("%s (%d)%s", base, n, ext)
		}
		path := filepath.Join(dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			f.Close()
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", goerr.Wrap(err, "failed to create image file", goerr.V("path", path))
		}
	}

	return "", goerr.New("too many files with the same name", goerr.V("dir", dir), goerr.V("filename", filename))
}

// ColumnDir turns a column name into a single directory name
func ColumnDir(column string) string {
	name := strings.TrimSpace(column)
	name = strings.NewReplacer("/", "_", "\\", "_", string(os.PathSeparator), "_").Replace(name)
	if name == "" || name == "." || name == ".." {
		return "unknown-column"
	}
	return name
}

// SafeFilename strips any directory components from a service-provided name
func SafeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return "image"
	}
	return name
}
