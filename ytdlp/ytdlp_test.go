package ytdlp_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/tubecast/procexec"
	"github.com/xeptore/tubecast/procexec/procexectest"
	"github.com/xeptore/tubecast/strategy"
	"github.com/xeptore/tubecast/ytdlp"
)

func TestArgsNativeWithCookies(t *testing.T) {
	t.Parallel()

	args := ytdlp.Args(ytdlp.Options{
		URL:            "https://www.youtube.com/watch?v=abc",
		OutputTemplate: "/tmp/job/out.%(ext)s",
		Strategy:       strategy.Strategy{Name: "web+cookies", Client: "web", UseCredentials: true},
		CookiesPath:    "/tmp/cookies.txt",
		Title:          "Episode 1",
		Description:    "it's here",
		ExtractMP3:     true,
		ExtraArgs:      []string{"--force-ipv4"},
	})

	want := []string{
		"--cookies", "/tmp/cookies.txt",
		"--extractor-args", "youtube:player_client=web",
		"--no-playlist", "--no-progress", "--no-mtime",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"--postprocessor-args", `ffmpeg:-metadata 'title=Episode 1' -metadata 'comment=it'"'"'s here'`,
		"--force-ipv4",
		"-o", "/tmp/job/out.%(ext)s",
		"--", "https://www.youtube.com/watch?v=abc",
	}
	assert.Equal(t, want, args)
}

func TestArgsWithoutCredentialsNeverMentionCookies(t *testing.T) {
	t.Parallel()

	for _, s := range strategy.DefaultLadder().Applicable(false) {
		args := ytdlp.Args(ytdlp.Options{
			URL:            "https://youtu.be/abc",
			OutputTemplate: "out.%(ext)s",
			Strategy:       s,
			CookiesPath:    "/tmp/cookies.txt",
			ExtractMP3:     true,
		})
		assert.NotContains(t, args, ytdlp.CookiesFlag, s.Name)
	}
}

func TestArgsCredentialStrategyWithoutPath(t *testing.T) {
	t.Parallel()

	args := ytdlp.Args(ytdlp.Options{
		URL:            "https://youtu.be/abc",
		OutputTemplate: "out.%(ext)s",
		Strategy:       strategy.Strategy{Name: "web+cookies", Client: "web", UseCredentials: true},
	})
	assert.NotContains(t, args, ytdlp.CookiesFlag)
}

func TestArgsRawAudio(t *testing.T) {
	t.Parallel()

	args := ytdlp.Args(ytdlp.Options{
		URL:            "-not-an-option",
		OutputTemplate: "/tmp/job/raw.%(ext)s",
		Strategy:       strategy.Strategy{Name: "default", Client: "", UseCredentials: false},
	})

	assert.NotContains(t, args, "-x")
	assert.NotContains(t, args, ytdlp.ExtractorArgsFlag)
	v, ok := procexectest.Flag(args, "-f")
	require.True(t, ok)
	assert.Equal(t, "bestaudio/best", v)

	sep := slices.Index(args, "--")
	require.Equal(t, len(args)-2, sep)
	assert.Equal(t, "-not-an-option", args[len(args)-1])
}

func TestVersion(t *testing.T) {
	t.Parallel()

	fake := procexectest.New(func(_ context.Context, c procexec.Cmd) (procexec.Result, error) {
		return procexectest.Ok("2025.01.15\n"), nil
	})

	v, err := ytdlp.Version(context.Background(), fake, "yt-dlp")
	require.NoError(t, err)
	assert.Equal(t, "2025.01.15", v)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "yt-dlp", calls[0].Name)
	assert.Equal(t, []string{"--version"}, calls[0].Args)
}

func TestVersionFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		res  procexec.Result
		err  error
	}{
		{name: "not installed", err: procexec.ErrNotInstalled},
		{name: "non-zero exit", res: procexectest.Fail(2, "boom")},
		{name: "empty output", res: procexectest.Ok("  \n")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fake := procexectest.New(func(context.Context, procexec.Cmd) (procexec.Result, error) {
				return tc.res, tc.err
			})

			_, err := ytdlp.Version(context.Background(), fake, "yt-dlp")
			require.Error(t, err)
			if nil != tc.err {
				assert.True(t, errors.Is(err, tc.err))
			}
		})
	}
}
