package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/quire/internal/domain"
)

// InitConfigInput contains the parameters for writing config.toml.
type InitConfigInput struct {
	Config *domain.Config // Settings to persist, usually the ones quire is running with
	Global bool           // Write $XDG_CONFIG_HOME/quire/config.toml instead of <data dir>/config.toml
}

// InitConfigOutput contains the result of writing config.toml.
type InitConfigOutput struct {
	Path string
}

// InitConfig writes a config.toml holding the origin, clone, sync, naming
// window, log and actor settings.
type InitConfig struct {
	configManager domain.ConfigManager
}

// NewInitConfig creates a new InitConfig use case.
func NewInitConfig(configManager domain.ConfigManager) *InitConfig {
	return &InitConfig{configManager: configManager}
}

// Execute writes the file. An existing file is never overwritten
// (domain.ErrConfigExists).
func (uc *InitConfig) Execute(_ context.Context, in InitConfigInput) (*InitConfigOutput, error) {
	if in.Config == nil {
		return nil, domain.ErrConfigNil
	}

	info := uc.configManager.GetLocalConfigInfo()
	write := uc.configManager.InitLocalConfig
	if in.Global {
		info = uc.configManager.GetGlobalConfigInfo()
		write = uc.configManager.InitGlobalConfig
	}
	if info.Path == "" {
		return nil, fmt.Errorf("no location for the %s config file", scopeName(in.Global))
	}
	if err := write(in.Config); err != nil {
		return nil, fmt.Errorf("write %s: %w", info.Path, err)
	}
	return &InitConfigOutput{Path: info.Path}, nil
}

func scopeName(global bool) string {
	if global {
		return "global"
	}
	return "local"
}
