package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/membergate/pkg/identity"
	"github.com/platinummonkey/membergate/pkg/observability"
)

// providersFile is the YAML shape of the providers file.
type providersFile struct {
	Providers []identity.Config `yaml:"providers"`
}

// LoadProviders reads provider configurations from a YAML file.
func LoadProviders(path string) ([]identity.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading providers file: %w", err)
	}
	var file providersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing providers file %s: %w", path, err)
	}
	if len(file.Providers) == 0 {
		return nil, fmt.Errorf("providers file %s defines no providers", path)
	}
	return file.Providers, nil
}

// WatchProviders watches the providers file and calls reload with the new
// configurations whenever it changes. Broken edits are logged and skipped;
// the previous configuration stays in effect. The watcher stops when done is
// closed.
func WatchProviders(path string, reload func([]identity.Config) error, logger *observability.Logger, done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating providers watcher: %w", err)
	}
	// Watch the directory rather than the file: editors that rename over
	// the file would otherwise drop the watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching providers file: %w", err)
	}

	go func() {
		defer watcher.Close()
		defer observability.RecoverPanic(logger, "providers watcher")
		target := filepath.Clean(path)
		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				configs, err := LoadProviders(path)
				if err != nil {
					logger.WithError(err).Warn("ignoring broken providers file edit")
					continue
				}
				if err := reload(configs); err != nil {
					logger.WithError(err).Warn("providers reload rejected")
					continue
				}
				logger.WithField("providers", len(configs)).Info("providers reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithError(err).Warn("providers watcher error")
			}
		}
	}()
	return nil
}
