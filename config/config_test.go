package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/tubecast/config"
	"github.com/xeptore/tubecast/constants"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(constants.CookiesEnvVar, "")

	path := writeConfig(t, "{}\n")

	conf, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8000", conf.Server.Addr)
	assert.Equal(t, 2, conf.Server.MaxJobs)
	assert.Equal(t, "info", conf.Log.Level)
	assert.Equal(t, "auto", conf.Log.Format)
	assert.Equal(t, "/tmp/cookies.txt", conf.Credentials.Path)
	assert.Empty(t, conf.Credentials.Blob)
	assert.Equal(t, "yt-dlp", conf.Downloader.Binary)
	assert.Equal(t, config.TaggingNative, conf.Downloader.Tagging)
	assert.Equal(t, config.PolicyLadder, conf.Downloader.Policy)
	assert.Equal(t, "cookies", conf.Downloader.RetryMarker)
	assert.Equal(t, 15*time.Minute, conf.Downloader.AttemptTimeout.Duration)
	assert.Equal(t, "ffmpeg", conf.Transcoder.Binary)
	assert.Equal(t, os.TempDir(), conf.Workdir.Base)
}

func TestLoadFile(t *testing.T) {
	t.Setenv(constants.CookiesEnvVar, "# Netscape HTTP Cookie File\n")

	base := t.TempDir()
	path := writeConfig(t, `
server:
  addr: 127.0.0.1:9000
  max_jobs: 4
  rate_limit: 0.5
log:
  level: debug
  format: json
downloader:
  tagging: ffmpeg
  policy: fallback
  attempt_timeout: 90s
  strategies:
    - name: tv
      client: tv
      cookies: true
workdir:
  base: `+base+"\n")

	conf, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", conf.Server.Addr)
	assert.Equal(t, 4, conf.Server.MaxJobs)
	assert.InDelta(t, 0.5, conf.Server.RateLimit, 0.0001)
	assert.Equal(t, 1, conf.Server.RateBurst)
	assert.Equal(t, "debug", conf.Log.Level)
	assert.Equal(t, config.TaggingFFmpeg, conf.Downloader.Tagging)
	assert.Equal(t, config.PolicyFallback, conf.Downloader.Policy)
	assert.Equal(t, 90*time.Second, conf.Downloader.AttemptTimeout.Duration)
	assert.Equal(t, []config.StrategyEntry{{Name: "tv", Client: "tv", Cookies: true}}, conf.Downloader.Strategies)
	assert.Equal(t, base, conf.Workdir.Base)
	assert.Equal(t, "# Netscape HTTP Cookie File\n", conf.Credentials.Blob)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad log level", content: "log:\n  level: loud\n"},
		{name: "bad log format", content: "log:\n  format: xml\n"},
		{name: "bad tagging", content: "downloader:\n  tagging: lame\n"},
		{name: "bad policy", content: "downloader:\n  policy: forever\n"},
		{name: "unnamed strategy", content: "downloader:\n  strategies:\n    - client: web\n"},
		{name: "duplicate strategy", content: "downloader:\n  strategies:\n    - name: a\n    - name: a\n"},
		{name: "negative jobs", content: "server:\n  max_jobs: -1\n"},
		{name: "bad duration", content: "downloader:\n  attempt_timeout: soon\n"},
		{name: "missing workdir", content: "workdir:\n  base: /definitely/not/here\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tc.content))
			require.Error(t, err)
		})
	}
}
