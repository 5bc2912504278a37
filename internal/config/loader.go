package config

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// defaultEnvPrefix is the environment variable prefix used when none is
// supplied to New.
const defaultEnvPrefix = "CREATURE_CORE"

// Loader wraps koanf to load Config from a YAML file with environment
// variable overrides, and supports an atomic reload.
type Loader struct {
	mu        sync.RWMutex
	k         *koanf.Koanf
	filePath  string
	envPrefix string
}

// New builds a Loader for the YAML file at path (may be empty, meaning
// environment variables and defaults only) with the given environment
// variable prefix (defaults to CREATURE_CORE).
func New(path, envPrefix string) (*Loader, error) {
	if envPrefix == "" {
		envPrefix = defaultEnvPrefix
	}
	l := &Loader{
		k:         koanf.New("."),
		filePath:  path,
		envPrefix: envPrefix,
	}
	if err := l.reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Load unmarshals the current configuration into a Config, seeded with
// Default() so that keys absent from both the file and the environment
// keep their built-in defaults, then validates the result.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	l.mu.RLock()
	k := l.k
	l.mu.RUnlock()

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Reload re-reads the YAML file and environment variables and atomically
// swaps the underlying koanf instance.
func (l *Loader) Reload() error {
	return l.reload()
}

func (l *Loader) reload() error {
	newK := koanf.New(".")

	if l.filePath != "" {
		if err := newK.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("config: load yaml file %q: %w", l.filePath, err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: l.envPrefix + "_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.TrimPrefix(k, l.envPrefix+"_")
			k = strings.ToLower(k)
			for _, prefix := range []string{"audio_", "scheduler_"} {
				if strings.HasPrefix(k, prefix) {
					top := strings.TrimSuffix(prefix, "_")
					rest := strings.TrimPrefix(k, prefix)
					return top + "." + rest, v
				}
			}
			return k, v
		},
	})
	if err := newK.Load(envProvider, nil); err != nil {
		return fmt.Errorf("config: load environment: %w", err)
	}

	l.mu.Lock()
	l.k = newK
	l.mu.Unlock()
	return nil
}

// Watch reloads the configuration whenever the backing YAML file changes,
// invoking callback with a description of the event and any error
// encountered. It blocks until ctx is cancelled.
//
// Known limitation: koanf's file.Provider spawns an fsnotify watcher
// goroutine that has no Stop() method, so it outlives ctx cancellation;
// acceptable for a long-running process, not for repeated Watch calls.
func (l *Loader) Watch(ctx context.Context, callback func(event string, err error)) error {
	if l.filePath == "" {
		return fmt.Errorf("config: cannot watch, no file path configured")
	}
	fp := file.Provider(l.filePath)
	if err := fp.Watch(func(_ interface{}, err error) {
		if err != nil {
			callback("watch error", err)
			return
		}
		if err := l.reload(); err != nil {
			callback("reload error", err)
			return
		}
		callback("config reloaded", nil)
	}); err != nil {
		return fmt.Errorf("config: start watch: %w", err)
	}
	<-ctx.Done()
	return nil
}
