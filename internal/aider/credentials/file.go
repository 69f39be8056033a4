package credentials

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/aiderctl/internal/logging"
)

// Tokens is the on-disk form of the credentials file.
type Tokens struct {
	AccessToken  string `yaml:"access_token"`
	RefreshToken string `yaml:"refresh_token,omitempty"`
}

// FileProvider is a Provider backed by a YAML file. A missing file means
// signed out; it is created on the first Set call.
type FileProvider struct {
	path   string
	logger *logging.Logger

	mu       sync.RWMutex
	tokens   Tokens
	onReload func(Tokens)

	debounce time.Duration
}

// NewFileProvider creates a FileProvider for path and loads it if present.
func NewFileProvider(path string, logger *logging.Logger) (*FileProvider, error) {
	p := &FileProvider{
		path:     path,
		logger:   logger,
		debounce: 100 * time.Millisecond,
	}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

// Path returns the credentials file path.
func (p *FileProvider) Path() string {
	return p.path
}

// OnReload registers a callback invoked with the new tokens after the file
// changes on disk and Watch reloads it.
func (p *FileProvider) OnReload(fn func(Tokens)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onReload = fn
}

// AccessToken implements Provider.
func (p *FileProvider) AccessToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tokens.AccessToken
}

// RefreshToken returns the stored refresh token.
func (p *FileProvider) RefreshToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tokens.RefreshToken
}

// CheckAndUpdate implements Provider by re-reading the file.
func (p *FileProvider) CheckAndUpdate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.load()
}

// SetAccessToken implements Provider and persists the change.
func (p *FileProvider) SetAccessToken(token string) {
	p.update(func(t *Tokens) { t.AccessToken = token })
}

// SetRefreshToken implements Provider and persists the change.
func (p *FileProvider) SetRefreshToken(token string) {
	p.update(func(t *Tokens) { t.RefreshToken = token })
}

func (p *FileProvider) update(fn func(*Tokens)) {
	p.mu.Lock()
	fn(&p.tokens)
	tokens := p.tokens
	p.mu.Unlock()

	if err := p.save(tokens); err != nil && p.logger != nil {
		p.logger.Warn("failed to persist credentials", "path", p.path, "error", err.Error())
	}
}

func (p *FileProvider) load() error {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		p.set(Tokens{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}

	var tokens Tokens
	if err := yaml.Unmarshal(data, &tokens); err != nil {
		return fmt.Errorf("failed to parse credentials %s: %w", p.path, err)
	}
	p.set(tokens)
	return nil
}

func (p *FileProvider) set(tokens Tokens) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = tokens
}

// save writes through a temp file in the same directory and renames it
// into place so readers never see a partial file.
func (p *FileProvider) save(tokens Tokens) error {
	data, err := yaml.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set credentials permissions: %w", err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace credentials: %w", err)
	}
	return nil
}

// Watch reloads the file whenever it is written, created, or replaced,
// until ctx is cancelled. The parent directory is watched because editors
// and save itself replace the file by rename. Bursts of events are
// collapsed into one reload.
func (p *FileProvider) Watch(ctx context.Context) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(p.path)
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending = time.After(p.debounce)

		case <-pending:
			pending = nil
			p.reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if p.logger != nil {
				p.logger.Warn("credentials watcher error", "error", err.Error())
			}
		}
	}
}

func (p *FileProvider) reload() {
	if err := p.load(); err != nil {
		if p.logger != nil {
			p.logger.Warn("failed to reload credentials", "path", p.path, "error", err.Error())
		}
		return
	}

	p.mu.RLock()
	fn, tokens := p.onReload, p.tokens
	p.mu.RUnlock()

	if p.logger != nil {
		p.logger.Debug("credentials reloaded", "path", p.path, "signed_in", tokens.AccessToken != "")
	}
	if fn != nil {
		fn(tokens)
	}
}
