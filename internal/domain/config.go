package domain

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
	"time"
)

//go:embed config_template.toml
var configTemplateContent string

// Default configuration values.
const (
	DefaultBranch      = "master"
	DefaultMaxClones   = 32
	DefaultPushRetries = 3
	DefaultNameWindow  = time.Minute
	DefaultLogLevel    = "info"
)

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings []string `toml:"-"`
	Actor    Actor    `toml:"actor"`
	Repo     RepoConfig
	Clones   ClonesConfig
	Log      LogConfig
	Sync     SyncConfig
	Task     TaskConfig
}

// RepoConfig holds origin settings from the [repo] section.
type RepoConfig struct {
	Origin        string // URL or path of the shared origin
	DefaultBranch string // Long-lived content branch
}

// ClonesConfig holds clone registry settings from the [clones] section.
type ClonesConfig struct {
	Dir string // Root directory of per-actor, per-task clones
	Max int    // Clones kept before least recently used ones are removed
}

// SyncConfig holds synchronization settings from the [sync] section.
type SyncConfig struct {
	PushRetries int // Extra attempts after a rejected push or unreachable origin
}

// TaskConfig holds task settings from the [task] section.
type TaskConfig struct {
	NameWindow time.Duration // Start requests within one window map to the same branch
}

// LogConfig holds logging settings from the [log] section.
type LogConfig struct {
	Level string // Log level: debug, info, warn, error
}

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Repo: RepoConfig{
			DefaultBranch: DefaultBranch,
		},
		Clones: ClonesConfig{
			Max: DefaultMaxClones,
		},
		Sync: SyncConfig{
			PushRetries: DefaultPushRetries,
		},
		Task: TaskConfig{
			NameWindow: DefaultNameWindow,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// RenderConfigTemplate renders the commented config file written by "quire config init".
func RenderConfigTemplate(cfg *Config) string {
	tmpl, err := template.New("config").Delims("<<", ">>").Parse(configTemplateContent)
	if err != nil {
		// Should never happen with embedded template
		panic(fmt.Sprintf("failed to parse config template: %v", err))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		// Should never happen with valid data
		panic(fmt.Sprintf("failed to execute config template: %v", err))
	}
	return buf.String()
}
