package workflow

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FindWorkflowFiles resolves a path into the list of workflow files it
// denotes. A file path is returned as-is; a directory is searched
// recursively for files with a .yml or .yaml extension. The returned order
// is the deterministic walk order.
func FindWorkflowFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("workflow path %q: %w", path, err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".yml", ".yaml":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no workflow files (.yml/.yaml) found under %q", path)
	}
	return files, nil
}
