package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Repository:   "owner/repo",
		Backend:      BackendGh,
		OutputDir:    "issues",
		ImagesSubdir: "images",
		ImageRetries: 3,
		ImageNaming:  NamingPosition,
		Limit:        1000,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{name: "ok", modify: func(c *Config) {}},
		{name: "no-slash", modify: func(c *Config) { c.Repository = "repo" }, wantErr: true},
		{name: "too-many", modify: func(c *Config) { c.Repository = "a/b/c" }, wantErr: true},
		{name: "empty-owner", modify: func(c *Config) { c.Repository = "/repo" }, wantErr: true},
		{name: "api-no-token", modify: func(c *Config) { c.Backend = BackendAPI }, wantErr: true},
		{name: "api-token", modify: func(c *Config) { c.Backend = BackendAPI; c.Token = "t" }},
		{name: "bad-backend", modify: func(c *Config) { c.Backend = "svn" }, wantErr: true},
		{name: "bad-naming", modify: func(c *Config) { c.ImageNaming = "random" }, wantErr: true},
		{name: "zero-retries", modify: func(c *Config) { c.ImageRetries = 0 }, wantErr: true},
		{name: "zero-limit", modify: func(c *Config) { c.Limit = 0 }, wantErr: true},
		{name: "sync-at", modify: func(c *Config) { c.SyncAt = "03:00" }},
		{name: "bad-sync-at", modify: func(c *Config) { c.SyncAt = "3am" }, wantErr: true},
		{name: "negative-issue", modify: func(c *Config) { c.Issue = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.modify(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAccessors(t *testing.T) {
	c := validConfig()
	assert.Equal(t, "owner", c.Owner())
	assert.Equal(t, "repo", c.Name())
	assert.Equal(t, filepath.Join("issues", "images"), c.ImagesDir())
	assert.Equal(t, "images", c.ImagesRelDir())
	assert.Equal(t, "open", c.State())
	c.SyncClosed = true
	assert.Equal(t, "all", c.State())
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("GITHUB_REPO", " owner/repo ")
	t.Setenv("IMAGE_RETRIES", "5")

	c, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "owner/repo", c.Repository)
	assert.Equal(t, 5, c.ImageRetries)
	assert.Equal(t, BackendGh, c.Backend)
	assert.Equal(t, "issues", c.OutputDir)
	assert.True(t, c.SyncClosed)
	assert.Equal(t, 2*time.Second, c.ImageBackoff)
	assert.Equal(t, []string{"github.com", "githubusercontent.com"}, c.ImageHosts)
	assert.NoError(t, c.Validate())
}

func TestLoadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sync.yaml")
	require.NoError(t, os.WriteFile(file, []byte("repository: a/b\noutput_dir: docs/issues\nimage_naming: url\nimage_backoff: 10ms\n"), 0644))

	c, err := Load(viper.New(), file)
	require.NoError(t, err)
	assert.Equal(t, "a/b", c.Repository)
	assert.Equal(t, "docs/issues", c.OutputDir)
	assert.Equal(t, NamingURL, c.ImageNaming)
	assert.Equal(t, 10*time.Millisecond, c.ImageBackoff)

	_, err = Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ".env", []byte("ISSUE_SYNC_TEST_A=from-file\nISSUE_SYNC_TEST_B=from-file\n"), 0644))
	t.Setenv("ISSUE_SYNC_TEST_B", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("ISSUE_SYNC_TEST_A") })

	require.NoError(t, LoadDotEnv(fs, ".env"))
	assert.Equal(t, "from-file", os.Getenv("ISSUE_SYNC_TEST_A"))
	assert.Equal(t, "from-env", os.Getenv("ISSUE_SYNC_TEST_B"))

	assert.NoError(t, LoadDotEnv(fs, "missing.env"))
}
