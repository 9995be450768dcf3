// Package ytdlp knows the command line contract of the yt-dlp downloader.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/xeptore/tubecast/procexec"
	"github.com/xeptore/tubecast/strategy"
)

const (
	CookiesFlag       = "--cookies"
	ExtractorArgsFlag = "--extractor-args"
)

type Options struct {
	URL string
	// OutputTemplate is passed as -o, e.g. /tmp/job/out.%(ext)s.
	OutputTemplate string
	Strategy       strategy.Strategy
	// CookiesPath is only used when Strategy asks for credentials.
	CookiesPath string
	Title       string
	Description string
	// ExtractMP3 makes yt-dlp convert to mp3 and write the tags itself.
	// Otherwise the best audio stream is stored as is.
	ExtractMP3 bool
	ExtraArgs  []string
}

func Args(o Options) []string {
	args := make([]string, 0, 24+len(o.ExtraArgs))

	if o.Strategy.UseCredentials && o.CookiesPath != "" {
		args = append(args, CookiesFlag, o.CookiesPath)
	}

	if o.Strategy.Client != "" {
		args = append(args, ExtractorArgsFlag, "youtube:player_client="+o.Strategy.Client)
	}

	args = append(args, "--no-playlist", "--no-progress", "--no-mtime")

	if o.ExtractMP3 {
		args = append(
			args,
			"-x",
			"--audio-format", "mp3",
			"--audio-quality", "0",
			"--postprocessor-args", PostprocessorArgs(o.Title, o.Description),
		)
	} else {
		args = append(args, "-f", "bestaudio/best")
	}

	args = append(args, o.ExtraArgs...)
	args = append(args, "-o", o.OutputTemplate, "--", o.URL)

	return args
}

// PostprocessorArgs builds the ffmpeg arguments yt-dlp appends while
// extracting audio. yt-dlp splits them shell style, hence the quoting.
func PostprocessorArgs(title, description string) string {
	return "ffmpeg:-metadata " + shellescape.Quote("title="+title) +
		" -metadata " + shellescape.Quote("comment="+description)
}

var ErrEmptyVersion = errors.New("empty version output")

func Version(ctx context.Context, runner procexec.Runner, binary string) (string, error) {
	res, err := runner.Run(ctx, procexec.Cmd{Name: binary, Args: []string{"--version"}}) //nolint:exhaustruct
	if nil != err {
		return "", fmt.Errorf("failed to run %s --version: %w", binary, err)
	}

	if !res.Success() {
		return "", fmt.Errorf("%s --version exited with status %d: %s", binary, res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	v := strings.TrimSpace(res.Stdout)
	if v == "" {
		return "", ErrEmptyVersion
	}

	return v, nil
}
