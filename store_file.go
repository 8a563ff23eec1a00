package orgcore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FileDocumentStore persists the settings document as a YAML or TOML file,
// chosen by extension. Writes go through a temp file in the same directory
// followed by a rename, so readers never observe a partially written
// document.
//
// The settings document is typically mutated by an admin surface in another
// process; Watch lets this process observe those edits.
type FileDocumentStore struct {
	path   string
	format string
	logger Logger

	watchMu  sync.Mutex
	watching bool
}

// NewFileDocumentStore creates a file-backed document store at path. The
// extension must be .yaml, .yml or .toml. The file does not need to exist
// yet; loading an absent file yields an empty document.
func NewFileDocumentStore(path string, logger Logger) (*FileDocumentStore, error) {
	format := strings.ToLower(filepath.Ext(path))
	switch format {
	case ".yaml", ".yml", ".toml":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSettingsFormat, format)
	}

	return &FileDocumentStore{
		path:   path,
		format: format,
		logger: logger,
	}, nil
}

// Path returns the file path the store persists to.
func (f *FileDocumentStore) Path() string {
	return f.path
}

// Load reads and decodes the settings file. A missing file is an empty
// document, not an error.
func (f *FileDocumentStore) Load() (SettingsDocument, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return SettingsDocument{}, nil
		}
		return SettingsDocument{}, fmt.Errorf("reading settings file %q: %w", f.path, err)
	}

	var doc SettingsDocument
	switch f.format {
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	default:
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return SettingsDocument{}, fmt.Errorf("decoding settings file %q: %w", f.path, err)
	}
	return doc, nil
}

// Store encodes the document and atomically replaces the settings file.
func (f *FileDocumentStore) Store(doc SettingsDocument) error {
	var (
		data []byte
		err  error
	)
	switch f.format {
	case ".toml":
		data, err = toml.Marshal(doc)
	default:
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("encoding settings document: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".settings-*"+f.format)
	if err != nil {
		return fmt.Errorf("creating temp settings file in %q: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp settings file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing settings file %q: %w", f.path, err)
	}
	return nil
}

// Watch observes external edits to the settings file and invokes onChange
// with the freshly loaded document after each change. It watches the parent
// directory so rename-based atomic writes are seen. Watching stops when ctx
// is cancelled.
//
// Watch may be called at most once per store; a second call returns
// ErrWatcherAlreadyStarted.
func (f *FileDocumentStore) Watch(ctx context.Context, onChange func(SettingsDocument)) error {
	f.watchMu.Lock()
	defer f.watchMu.Unlock()
	if f.watching {
		return ErrWatcherAlreadyStarted
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating settings watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching settings directory: %w", err)
	}
	f.watching = true

	target := filepath.Clean(f.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				doc, err := f.Load()
				if err != nil {
					f.logger.Warn("Failed to reload settings after change", "path", f.path, "error", err)
					continue
				}
				f.logger.Debug("Settings file changed, reloaded", "path", f.path)
				onChange(doc)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Warn("Settings watcher error", "path", f.path, "error", err)
			}
		}
	}()

	return nil
}
