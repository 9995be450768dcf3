package episode_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/tubecast/episode"
)

func TestFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "My Episode", want: "My Episode.mp3"},
		{name: "illegal characters", in: `a\b/c:d*e?f"g<h>i|j`, want: "abcdefghij.mp3"},
		{name: "all illegal", in: `\/:*?"<>|`, want: "episode.mp3"},
		{name: "empty", in: "", want: "episode.mp3"},
		{name: "whitespace", in: "   ", want: "episode.mp3"},
		{name: "surrounding whitespace", in: "  talk  ", want: "talk.mp3"},
		{name: "existing extension", in: "talk.mp3", want: "talk.mp3"},
		{name: "existing upper extension", in: "talk.MP3", want: "talk.mp3"},
		{name: "bare extension", in: ".mp3", want: ".mp3.mp3"},
		{name: "unicode kept", in: "Подкаст №1", want: "Подкаст №1.mp3"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, episode.Filename(tc.in))
		})
	}
}

func TestSanitizeNameTruncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 200)
	got := episode.SanitizeName(long)
	assert.Equal(t, strings.Repeat("x", 120), got)
	assert.Equal(t, strings.Repeat("x", 120)+".mp3", episode.Filename(long))

	runes := strings.Repeat("é", 130)
	got = episode.SanitizeName(runes)
	assert.Equal(t, 120, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}

func TestSanitizeNameIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"episode",
		`weird: "name" <here>?`,
		strings.Repeat("ab", 100),
		strings.Repeat("a", 119) + " b c",
		"  |  ",
		"talk.mp3",
	}

	for _, in := range inputs {
		once := episode.SanitizeName(in)
		assert.Equal(t, once, episode.SanitizeName(once), "input %q", in)

		file := episode.Filename(in)
		assert.Equal(t, file, episode.Filename(file), "input %q", in)
	}
}

func TestNewRequest(t *testing.T) {
	t.Parallel()

	_, err := episode.NewRequest("  ", "t", "d", "")
	require.ErrorIs(t, err, episode.ErrMissingURL)

	req, err := episode.NewRequest(" https://youtu.be/abc ", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/abc", req.URL)
	assert.Equal(t, episode.DefaultTitle, req.Title)
	assert.Empty(t, req.Description)
	assert.Equal(t, "episode.mp3", req.OutputFilename())

	req, err = episode.NewRequest("https://youtu.be/abc", "Show: Part 1", "notes", "")
	require.NoError(t, err)
	assert.Equal(t, "Show Part 1.mp3", req.OutputFilename())

	req, err = episode.NewRequest("https://youtu.be/abc", "Show", "notes", "custom/name")
	require.NoError(t, err)
	assert.Equal(t, "customname.mp3", req.OutputFilename())
}
