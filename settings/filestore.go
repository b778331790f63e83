package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned by FileStore for files with an extension
// other than .json, .yaml or .yml.
var ErrUnknownFormat = errors.New("unknown settings file format")

// FileStore keeps settings in a file. The format is derived from the file
// extension: ".json" for JSON (the format hosts usually use for plugin
// data), ".yaml" or ".yml" for YAML.
type FileStore struct {
	path string
}

var _ Store = &FileStore{}
var _ Watcher = &FileStore{}

// NewFileStore creates a store for the settings file at path. The file need
// not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the path of the settings file.
func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) format() (string, error) {
	switch ext := strings.ToLower(filepath.Ext(fs.path)); ext {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// Load is part of interface Store. A missing file is not an error.
func (fs *FileStore) Load() (Settings, bool, error) {
	format, err := fs.format()
	if err != nil {
		return Settings{}, false, err
	}
	data, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return Settings{}, false, nil
	} else if err != nil {
		return Settings{}, false, fmt.Errorf("failed to read settings file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return Settings{}, false, nil
	}
	var s Settings
	switch format {
	case "json":
		err = json.Unmarshal(data, &s)
	case "yaml":
		err = yaml.Unmarshal(data, &s)
	}
	if err != nil {
		return Settings{}, false, fmt.Errorf("failed to parse settings file %s: %w", fs.path, err)
	}
	return s, true, nil
}

// Save is part of interface Store. The file is replaced atomically.
func (fs *FileStore) Save(s Settings) error {
	format, err := fs.format()
	if err != nil {
		return err
	}
	s = s.Clone() // never marshal a nil mapping
	var data []byte
	switch format {
	case "json":
		data, err = json.MarshalIndent(s, "", "  ")
	case "yaml":
		data, err = yaml.Marshal(s)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(fs.path), "."+filepath.Base(fs.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(data); err == nil {
		err = tmp.Close()
	} else {
		tmp.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	tracer().Debugf("settings saved to %s", fs.path)
	return nil
}

// Watch is part of interface Watcher. It watches the directory of the
// settings file, as editors and sync tools tend to replace files instead of
// writing to them. Changes which leave an unreadable file are traced and
// skipped.
func (fs *FileStore) Watch(ctx context.Context, onChange func(Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot watch settings file: %w", err)
	}
	defer watcher.Close()
	dir, name := filepath.Split(fs.path)
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("cannot watch settings file: %w", err)
	}
	tracer().Infof("watching settings file %s", fs.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			s, found, err := fs.Load()
			if err != nil {
				tracer().Errorf("reloading settings: %v", err)
				continue
			}
			if !found {
				continue
			}
			onChange(s)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			tracer().Errorf("watching settings file: %v", err)
		}
	}
}
