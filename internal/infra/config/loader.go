// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/runoshun/quire/internal/domain"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	dataDir       string // Path to the quire data directory (holds the local config)
	globalConfDir string // Path to global config directory (e.g., ~/.config/quire)
}

// NewLoader creates a new Loader.
func NewLoader(dataDir string) *Loader {
	return &Loader{
		dataDir:       dataDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(dataDir, globalConfDir string) *Loader {
	return &Loader{
		dataDir:       dataDir,
		globalConfDir: globalConfDir,
	}
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalConfigDir(configHome)
}

// DefaultDataDir returns $XDG_DATA_HOME/quire, falling back to ~/.local/share/quire.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), domain.DataDirName)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return domain.DataDir(dataHome)
}

// Load returns the merged configuration.
// Precedence: default <- global <- local (later takes precedence).
func (l *Loader) Load() (*domain.Config, error) {
	global, err := l.LoadGlobal()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	local, err := l.LoadLocal()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	base := domain.NewDefaultConfig()
	if global != nil {
		base = mergeConfigs(base, global)
	}
	if local != nil {
		base = mergeConfigs(base, local)
	}
	return base, nil
}

// LoadGlobal returns only the global configuration.
func (l *Loader) LoadGlobal() (*domain.Config, error) {
	if l.globalConfDir == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(filepath.Join(l.globalConfDir, domain.ConfigFileName))
}

// LoadLocal returns only the configuration in the data directory.
func (l *Loader) LoadLocal() (*domain.Config, error) {
	return l.loadFile(filepath.Join(l.dataDir, domain.ConfigFileName))
}

// loadFile loads a configuration from a file.
func (l *Loader) loadFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return convertRawToDomainConfig(raw), nil
}

// convertRawToDomainConfig converts the raw map to domain config and collects warnings.
// Only values present in the file are set; zero values mean "not set".
func convertRawToDomainConfig(raw map[string]any) *domain.Config {
	res := &domain.Config{}
	var warnings []string

	for section, value := range raw {
		m, ok := value.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", section))
			continue
		}
		p := sectionParser{section: section}
		switch section {
		case "repo":
			for k, v := range m {
				switch k {
				case "origin":
					res.Repo.Origin = p.str(k, v)
				case "default_branch":
					res.Repo.DefaultBranch = p.str(k, v)
				default:
					p.unknown(k)
				}
			}
		case "clones":
			for k, v := range m {
				switch k {
				case "dir":
					res.Clones.Dir = expandHome(p.str(k, v))
				case "max":
					res.Clones.Max = p.positiveInt(k, v)
				default:
					p.unknown(k)
				}
			}
		case "sync":
			for k, v := range m {
				switch k {
				case "push_retries":
					res.Sync.PushRetries = p.positiveInt(k, v)
				default:
					p.unknown(k)
				}
			}
		case "task":
			for k, v := range m {
				switch k {
				case "name_window":
					res.Task.NameWindow = p.duration(k, v)
				default:
					p.unknown(k)
				}
			}
		case "log":
			for k, v := range m {
				switch k {
				case "level":
					res.Log.Level = p.str(k, v)
				default:
					p.unknown(k)
				}
			}
		case "actor":
			for k, v := range m {
				switch k {
				case "name":
					res.Actor.Name = p.str(k, v)
				case "email":
					res.Actor.Email = p.str(k, v)
				default:
					p.unknown(k)
				}
			}
		default:
			p.warnings = append(p.warnings, fmt.Sprintf("unknown section: %s", section))
		}
		warnings = append(warnings, p.warnings...)
	}

	sort.Strings(warnings)
	res.Warnings = warnings
	return res
}

// sectionParser reads typed values of one section and records warnings.
type sectionParser struct {
	section  string
	warnings []string
}

func (p *sectionParser) unknown(key string) {
	p.warnings = append(p.warnings, fmt.Sprintf("unknown key in [%s]: %s", p.section, key))
}

func (p *sectionParser) invalid(key string, v any, want string) {
	p.warnings = append(p.warnings, fmt.Sprintf("invalid value for [%s].%s: %v (expected %s)", p.section, key, v, want))
}

func (p *sectionParser) str(key string, v any) string {
	s, ok := v.(string)
	if !ok {
		p.invalid(key, v, "string")
	}
	return s
}

func (p *sectionParser) positiveInt(key string, v any) int {
	n, ok := v.(int64)
	if !ok || n < 0 {
		p.invalid(key, v, "non-negative integer")
		return 0
	}
	return int(n)
}

func (p *sectionParser) duration(key string, v any) time.Duration {
	s, ok := v.(string)
	if !ok {
		p.invalid(key, v, "duration such as \"1m\"")
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		p.invalid(key, v, "duration such as \"1m\"")
		return 0
	}
	return d
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// mergeConfigs merges two configs, with override taking precedence.
func mergeConfigs(base, override *domain.Config) *domain.Config {
	result := *base
	result.Warnings = append(append([]string{}, base.Warnings...), override.Warnings...)

	if override.Repo.Origin != "" {
		result.Repo.Origin = override.Repo.Origin
	}
	if override.Repo.DefaultBranch != "" {
		result.Repo.DefaultBranch = override.Repo.DefaultBranch
	}
	if override.Clones.Dir != "" {
		result.Clones.Dir = override.Clones.Dir
	}
	if override.Clones.Max != 0 {
		result.Clones.Max = override.Clones.Max
	}
	if override.Sync.PushRetries != 0 {
		result.Sync.PushRetries = override.Sync.PushRetries
	}
	if override.Task.NameWindow != 0 {
		result.Task.NameWindow = override.Task.NameWindow
	}
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}
	if override.Actor.Name != "" {
		result.Actor.Name = override.Actor.Name
	}
	if override.Actor.Email != "" {
		result.Actor.Email = override.Actor.Email
	}
	return &result
}
