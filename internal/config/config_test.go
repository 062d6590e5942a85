package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8090, cfg.Server.Port)
				assert.Equal(t, "/srv/media", cfg.Downloads.Dir)
				assert.Equal(t, "/usr/local/bin/yt-dlp", cfg.Ytdlp.Path)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "ytgrab", cfg.App.Name)
			}
		})
	}
}

func TestLoadFillsDefaultsForOmittedFields(t *testing.T) {
	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)

	// Not present in the file, taken from Default().
	assert.Equal(t, "dev", cfg.App.Version)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "default config is valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:      "port too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "port too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "missing downloads dir",
			mutate:    func(c *Config) { c.Downloads.Dir = "" },
			wantErr:   true,
			errString: "downloads dir is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvHost, "0.0.0.0")
	t.Setenv(EnvPort, "9999")
	t.Setenv(EnvYtdlpPath, "/opt/yt-dlp")
	t.Setenv(EnvDownloadsDir, "/data")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "/opt/yt-dlp", cfg.Ytdlp.Path)
	assert.Equal(t, "/data", cfg.Downloads.Dir)
}

func TestApplyEnvIgnoresInvalidPort(t *testing.T) {
	t.Setenv(EnvPort, "not-a-port")

	cfg := Default()
	port := cfg.Server.Port
	cfg.ApplyEnv()

	assert.Equal(t, port, cfg.Server.Port)
}
