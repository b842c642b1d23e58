package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("testdata/does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, int64(10<<20), cfg.UploadMaxBytes)
	assert.Equal(t, BlobBackendDisk, cfg.BlobBackend)
	assert.Equal(t, "/uploads", cfg.UploadURLPrefix)
	assert.Equal(t, "localhost:3000", cfg.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SWEEP_INTERVAL", "5m")
	t.Setenv("UPLOAD_MAX_BYTES", "1024")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("CLEANUP_WORKERS", "not-a-number")

	cfg, err := Load("testdata/does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, int64(1024), cfg.UploadMaxBytes)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 2, cfg.CleanupWorkers, "invalid ints fall back to the default")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			SessionTTL:      time.Hour,
			SweepInterval:   time.Minute,
			UploadMaxBytes:  1,
			BlobBackend:     BlobBackendDisk,
			UploadDir:       "./uploads",
			UploadURLPrefix: "/uploads",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "disk ok", mutate: func(c *Config) {}},
		{
			name:    "zero ttl",
			mutate:  func(c *Config) { c.SessionTTL = 0 },
			wantErr: "SESSION_TTL",
		},
		{
			name:    "relative url prefix",
			mutate:  func(c *Config) { c.UploadURLPrefix = "uploads" },
			wantErr: "UPLOAD_URL_PREFIX",
		},
		{
			name:    "s3 without bucket",
			mutate:  func(c *Config) { c.BlobBackend = BlobBackendS3; c.S3PublicURL = "https://cdn.example.com" },
			wantErr: "S3_BUCKET",
		},
		{
			name: "s3 ok",
			mutate: func(c *Config) {
				c.BlobBackend = BlobBackendS3
				c.S3Bucket = "docs"
				c.S3PublicURL = "https://cdn.example.com"
			},
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.BlobBackend = "ftp" },
			wantErr: "BLOB_BACKEND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
