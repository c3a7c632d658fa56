package usecase_test

import (
	"context"
	"testing"

	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/testutil"
	"github.com/runoshun/quire/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowConfig_Execute(t *testing.T) {
	t.Run("returns both config infos and effective config", func(t *testing.T) {
		manager := testutil.NewMockConfigManager()
		manager.LocalConfigInfo = domain.ConfigInfo{
			Path:    "/test/.local/share/quire/config.toml",
			Content: "[repo]\norigin = \"/srv/content.git\"",
			Exists:  true,
		}
		manager.GlobalConfigInfo = domain.ConfigInfo{
			Path:    "/home/test/.config/quire/config.toml",
			Content: "[log]\nlevel = \"debug\"",
			Exists:  true,
		}

		loader := testutil.NewMockConfigLoader()
		loader.Config = domain.NewDefaultConfig()
		loader.Config.Repo.Origin = "/srv/content.git"

		uc := usecase.NewShowConfig(manager, loader)
		out, err := uc.Execute(context.Background(), usecase.ShowConfigInput{})

		require.NoError(t, err)
		assert.Equal(t, "/test/.local/share/quire/config.toml", out.LocalConfig.Path)
		assert.Equal(t, "[repo]\norigin = \"/srv/content.git\"", out.LocalConfig.Content)
		assert.True(t, out.LocalConfig.Exists)
		assert.Equal(t, "/home/test/.config/quire/config.toml", out.GlobalConfig.Path)
		assert.Equal(t, "[log]\nlevel = \"debug\"", out.GlobalConfig.Content)
		assert.True(t, out.GlobalConfig.Exists)
		require.NotNil(t, out.EffectiveConfig)
		assert.Equal(t, "/srv/content.git", out.EffectiveConfig.Repo.Origin)
	})

	t.Run("handles non-existent files", func(t *testing.T) {
		manager := testutil.NewMockConfigManager()
		manager.LocalConfigInfo = domain.ConfigInfo{
			Path:   "/test/.local/share/quire/config.toml",
			Exists: false,
		}
		manager.GlobalConfigInfo = domain.ConfigInfo{
			Path:   "/home/test/.config/quire/config.toml",
			Exists: false,
		}

		loader := testutil.NewMockConfigLoader()
		loader.Config = domain.NewDefaultConfig()

		uc := usecase.NewShowConfig(manager, loader)
		out, err := uc.Execute(context.Background(), usecase.ShowConfigInput{})

		require.NoError(t, err)
		assert.False(t, out.LocalConfig.Exists)
		assert.False(t, out.GlobalConfig.Exists)
		assert.Empty(t, out.LocalConfig.Content)
		assert.Empty(t, out.GlobalConfig.Content)
		assert.NotNil(t, out.EffectiveConfig)
	})

	t.Run("ignores global config when flag is set", func(t *testing.T) {
		manager := testutil.NewMockConfigManager()
		manager.LocalConfigInfo = domain.ConfigInfo{
			Path:   "/test/.local/share/quire/config.toml",
			Exists: true,
		}
		manager.GlobalConfigInfo = domain.ConfigInfo{
			Path:   "/home/test/.config/quire/config.toml",
			Exists: true,
		}

		loader := testutil.NewMockConfigLoader()
		loader.Config = domain.NewDefaultConfig()

		uc := usecase.NewShowConfig(manager, loader)
		out, err := uc.Execute(context.Background(), usecase.ShowConfigInput{
			IgnoreGlobal: true,
		})

		require.NoError(t, err)
		// GlobalConfig should be empty when ignored
		assert.Empty(t, out.GlobalConfig.Path)
		assert.False(t, out.GlobalConfig.Exists)
		// LocalConfig should still be present
		assert.Equal(t, "/test/.local/share/quire/config.toml", out.LocalConfig.Path)
	})

	t.Run("ignores local config when flag is set", func(t *testing.T) {
		manager := testutil.NewMockConfigManager()
		manager.LocalConfigInfo = domain.ConfigInfo{
			Path:   "/test/.local/share/quire/config.toml",
			Exists: true,
		}
		manager.GlobalConfigInfo = domain.ConfigInfo{
			Path:   "/home/test/.config/quire/config.toml",
			Exists: true,
		}

		loader := testutil.NewMockConfigLoader()
		loader.Config = domain.NewDefaultConfig()

		uc := usecase.NewShowConfig(manager, loader)
		out, err := uc.Execute(context.Background(), usecase.ShowConfigInput{
			IgnoreLocal: true,
		})

		require.NoError(t, err)
		// LocalConfig should be empty when ignored
		assert.Empty(t, out.LocalConfig.Path)
		assert.False(t, out.LocalConfig.Exists)
		// GlobalConfig should still be present
		assert.Equal(t, "/home/test/.config/quire/config.toml", out.GlobalConfig.Path)
	})

	t.Run("returns error when config cannot be loaded", func(t *testing.T) {
		loader := testutil.NewMockConfigLoader()
		loader.LoadErr = assert.AnError

		uc := usecase.NewShowConfig(testutil.NewMockConfigManager(), loader)
		_, err := uc.Execute(context.Background(), usecase.ShowConfigInput{})

		assert.ErrorIs(t, err, assert.AnError)
	})
}
