package cache_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/tubecast/cache"
)

func TestVersionsFetchCachesValue(t *testing.T) {
	t.Parallel()

	c := cache.New()
	calls := 0
	fetch := func() (string, error) {
		calls++
		return "2025.10.22", nil
	}

	for range 3 {
		v, err := c.Versions.Fetch("yt-dlp", time.Minute, fetch)
		require.NoError(t, err)
		assert.Equal(t, "2025.10.22", v)
	}
	assert.Equal(t, 1, calls)

	c.Versions.Delete("yt-dlp")
	_, err := c.Versions.Fetch("yt-dlp", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestVersionsFetchDoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	c := cache.New()
	errProbe := errors.New("executable not found")

	_, err := c.Versions.Fetch("ffmpeg", time.Minute, func() (string, error) { return "", errProbe })
	require.ErrorIs(t, err, errProbe)

	v, err := c.Versions.Fetch("ffmpeg", time.Minute, func() (string, error) { return "ffmpeg version 7.1", nil })
	require.NoError(t, err)
	assert.Equal(t, "ffmpeg version 7.1", v)
}

func TestVersionsFetchExpires(t *testing.T) {
	t.Parallel()

	c := cache.New()
	calls := 0
	fetch := func() (string, error) {
		calls++
		return "v", nil
	}

	_, err := c.Versions.Fetch("yt-dlp", time.Nanosecond, fetch)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = c.Versions.Fetch("yt-dlp", time.Nanosecond, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
