package infra

import (
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/baysideportal/media-gateway/config"
)

// LocalFSClient reads the legacy filesystem trees (uploads/<dir> and the
// bare <dir> layout) under a single content root.
type LocalFSClient struct {
	Root string
}

func InitLocalFSClient(cfg *config.EnvConfig) *LocalFSClient {
	root := cfg.Media.ContentRoot
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		log.Printf("Warning: media content root %q is not readable: %v", root, err)
	}
	return &LocalFSClient{Root: root}
}

// Exists reports whether path is a regular file. A missing path is a clean
// false, not an error.
func (l *LocalFSClient) Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}

// Open opens a file for streaming and returns its size.
func (l *LocalFSClient) Open(path string) (io.ReadCloser, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, 0, fmt.Errorf("%s is not a regular file", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, info.Size(), nil
}

// ListFiles walks dir and returns the paths of every regular file. A missing
// directory yields an empty list; the legacy trees are not required to exist
// in every deployment.
func (l *LocalFSClient) ListFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return files, nil
}
