package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/tubecast/config"
	"github.com/xeptore/tubecast/strategy"
)

func TestLadderFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		conf     config.Downloader
		expected []string
	}{
		{
			name:     "default ladder",
			conf:     config.Downloader{Policy: config.PolicyLadder}, //nolint:exhaustruct
			expected: []string{"web+cookies", "android+cookies", "web", "android"},
		},
		{
			name:     "default fallback",
			conf:     config.Downloader{Policy: config.PolicyFallback}, //nolint:exhaustruct
			expected: []string{"web+cookies", "web"},
		},
		{
			name: "configured strategies keep their order",
			conf: config.Downloader{ //nolint:exhaustruct
				Policy: config.PolicyLadder,
				Strategies: []config.StrategyEntry{
					{Name: "tv", Client: "tv_embedded", Cookies: false},
					{Name: "ios+cookies", Client: "ios", Cookies: true},
				},
			},
			expected: []string{"tv", "ios+cookies"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, ladderFromConfig(tc.conf).Names())
		})
	}
}

func TestPolicyFromConfig(t *testing.T) {
	t.Parallel()

	p := policyFromConfig(config.Downloader{Policy: config.PolicyFallback, RetryMarker: "Sign in"}) //nolint:exhaustruct
	require.Equal(t, strategy.ModeFallback, p.Mode)

	withCookies := strategy.Strategy{Name: "web+cookies", Client: "web", UseCredentials: true}
	assert.True(t, p.Continue(withCookies, "ERROR: sign in to confirm you're not a bot"))
	assert.False(t, p.Continue(withCookies, "ERROR: cookies are no longer valid"))

	assert.Equal(t, strategy.ModeLadder, policyFromConfig(config.Downloader{Policy: config.PolicyLadder}).Mode) //nolint:exhaustruct
}

func TestRenderStrategies(t *testing.T) {
	t.Parallel()

	out := renderStrategies(strategy.DefaultLadder(), false)
	lines := strings.Split(out, "\n")

	var skipped, planned int
	for _, l := range lines {
		switch {
		case strings.Contains(l, "skipped: no cookies loaded"):
			skipped++
			assert.Contains(t, l, "+cookies")
		case strings.Contains(l, "planned"):
			planned++
		}
	}
	assert.Equal(t, 2, skipped)
	assert.Equal(t, 2, planned)

	out = renderStrategies(strategy.DefaultLadder(), true)
	assert.NotContains(t, out, "skipped")
}
