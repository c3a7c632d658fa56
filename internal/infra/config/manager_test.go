package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/quire/internal/domain"
)

func TestManager_GetLocalConfigInfo(t *testing.T) {
	t.Run("returns info when file exists", func(t *testing.T) {
		dataDir := t.TempDir()
		configContent := "[log]\nlevel = \"debug\""
		writeConfig(t, dataDir, configContent)

		info := NewManagerWithGlobalDir(dataDir, "").GetLocalConfigInfo()

		assert.Equal(t, filepath.Join(dataDir, domain.ConfigFileName), info.Path)
		assert.Equal(t, configContent, info.Content)
		assert.True(t, info.Exists)
	})

	t.Run("returns info when file does not exist", func(t *testing.T) {
		dataDir := t.TempDir()

		info := NewManagerWithGlobalDir(dataDir, "").GetLocalConfigInfo()

		assert.Equal(t, filepath.Join(dataDir, domain.ConfigFileName), info.Path)
		assert.Empty(t, info.Content)
		assert.False(t, info.Exists)
	})
}

func TestManager_GetGlobalConfigInfo(t *testing.T) {
	globalDir := t.TempDir()
	writeConfig(t, globalDir, "[actor]\nemail = \"a@example.com\"")

	info := NewManagerWithGlobalDir("", globalDir).GetGlobalConfigInfo()
	assert.True(t, info.Exists)
	assert.Contains(t, info.Content, "a@example.com")

	assert.False(t, NewManagerWithGlobalDir("", "").GetGlobalConfigInfo().Exists)
}

func TestManager_InitLocalConfig(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", "quire")
	manager := NewManagerWithGlobalDir(dataDir, "")

	cfg := domain.NewDefaultConfig()
	cfg.Repo.Origin = "/srv/content.git"
	require.NoError(t, manager.InitLocalConfig(cfg))

	content, err := os.ReadFile(filepath.Join(dataDir, domain.ConfigFileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), `origin = "/srv/content.git"`)

	// The rendered template loads back without warnings.
	loaded, err := NewLoaderWithGlobalDir(dataDir, "").Load()
	require.NoError(t, err)
	assert.Empty(t, loaded.Warnings)
	assert.Equal(t, "/srv/content.git", loaded.Repo.Origin)

	assert.ErrorIs(t, manager.InitLocalConfig(cfg), domain.ErrConfigExists)
}

func TestManager_InitGlobalConfig(t *testing.T) {
	globalDir := filepath.Join(t.TempDir(), "quire")
	manager := NewManagerWithGlobalDir("", globalDir)

	require.NoError(t, manager.InitGlobalConfig(domain.NewDefaultConfig()))
	assert.FileExists(t, filepath.Join(globalDir, domain.ConfigFileName))

	assert.Error(t, NewManagerWithGlobalDir("", "").InitGlobalConfig(domain.NewDefaultConfig()))
}
