package session

import (
	"os"
	"path/filepath"
)

// ValueSource is a token given directly, from a flag or the environment
type ValueSource string

func (v ValueSource) Lookup() (string, bool) {
	return string(v), v != ""
}

// FileSource reads the token from a file
type FileSource struct {
	Path string
}

func (f FileSource) Lookup() (string, bool) {
	if f.Path == "" {
		return "", false
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", false
	}
	return string(data), len(data) > 0
}

// FileSink stores the token in a file only the current user can read
type FileSink struct {
	Path string
}

func (f FileSink) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0700); err != nil {
		return err
	}
	return os.WriteFile(f.Path, []byte(token), 0600)
}

func (f FileSink) Clear() error {
	err := os.Remove(f.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
