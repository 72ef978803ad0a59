package infra

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// EnsureDir expands ~ in the joined path and creates the directory.
func EnsureDir(path ...string) (string, error) {
	dir, err := homedir.Expand(filepath.Join(path...))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	return dir, nil
}

// ResolveDataPath places relative file names under dir and keeps absolute ones.
func ResolveDataPath(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}
