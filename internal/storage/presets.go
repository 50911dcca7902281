package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/san-kum/partsim/internal/config"
)

var ErrPresetNotFound = errors.New("storage: preset not found")

var presetName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// PresetStore keeps named configurations as <dir>/<name>.yaml.
type PresetStore struct {
	dir string
}

func NewPresetStore(baseDir string) *PresetStore {
	return &PresetStore{dir: filepath.Join(baseDir, "presets")}
}

func (p *PresetStore) path(name string) (string, error) {
	if !presetName.MatchString(name) {
		return "", fmt.Errorf("storage: invalid preset name %q", name)
	}
	return filepath.Join(p.dir, name+".yaml"), nil
}

// Save validates cfg and writes it under name, replacing any existing preset.
func (p *PresetStore) Save(name string, cfg *config.Config) error {
	path, err := p.path(name)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return err
	}
	c := cfg.Clone()
	c.Name = name
	return config.Save(path, c)
}

// Load returns the stored preset, falling back to the built-in presets.
func (p *PresetStore) Load(name string) (*config.Config, error) {
	path, err := p.path(name)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err == nil {
		if cfg.Name == "" {
			cfg.Name = name
		}
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("preset %s: %w", name, err)
	}
	if builtin := config.GetPreset(name); builtin != nil {
		return builtin, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
}

func (p *PresetStore) Delete(name string) error {
	path, err := p.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrPresetNotFound, name)
		}
		return err
	}
	return nil
}

// List returns the names of stored presets, sorted.
func (p *PresetStore) List() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}
