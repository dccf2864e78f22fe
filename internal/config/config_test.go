package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GALLERY_ID", "testgall")
	t.Setenv("AZURE_STORAGE_ACCOUNT", "testaccount")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "testgall", cfg.GalleryID)
	assert.Equal(t, "gallery-activity", cfg.StorageContainer)
	assert.Equal(t, 24*time.Hour, cfg.PinnedCutoff)
	assert.Equal(t, 10, cfg.OldPostStreak)
	assert.Equal(t, 500, cfg.MaxListPages)
	assert.Equal(t, 4, cfg.FetchWorkers)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 10, cfg.FailureThreshold)
}

func TestLoad_MissingGalleryID(t *testing.T) {
	t.Setenv("GALLERY_ID", "")
	t.Setenv("AZURE_STORAGE_ACCOUNT", "testaccount")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GALLERY_ID")
}

func TestLoad_MissingStorageAccount(t *testing.T) {
	t.Setenv("GALLERY_ID", "testgall")
	t.Setenv("AZURE_STORAGE_ACCOUNT", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AZURE_STORAGE_ACCOUNT")
}

func TestLoad_IncompleteSMTP(t *testing.T) {
	t.Setenv("GALLERY_ID", "testgall")
	t.Setenv("AZURE_STORAGE_ACCOUNT", "testaccount")
	t.Setenv("NOTIFICATION_EMAIL", "ops@example.com")
	t.Setenv("SMTP_HOST", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GALLERY_ID", "testgall")
	t.Setenv("AZURE_STORAGE_ACCOUNT", "testaccount")
	t.Setenv("OLD_POST_STREAK", "15")
	t.Setenv("PACING_DELAY", "1s")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.OldPostStreak)
	assert.Equal(t, time.Second, cfg.PacingDelay)
	assert.True(t, cfg.Debug)
}
