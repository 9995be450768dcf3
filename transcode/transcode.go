// Package transcode re-encodes downloaded audio into tagged MP3 with ffmpeg.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xeptore/tubecast/procexec"
)

type Tags struct {
	Title   string
	Comment string
}

// Error is returned when ffmpeg ran but did not produce the output.
type Error struct {
	ExitCode int
	TimedOut bool
	Stderr   string
}

func (e *Error) Error() string {
	if e.TimedOut {
		return "ffmpeg timed out: " + lastLine(e.Stderr)
	}

	return "ffmpeg exited with status " + strconv.Itoa(e.ExitCode) + ": " + lastLine(e.Stderr)
}

type Transcoder struct {
	runner  procexec.Runner
	binary  string
	quality string
	timeout time.Duration
}

func New(runner procexec.Runner, binary, quality string, timeout time.Duration) *Transcoder {
	return &Transcoder{
		runner:  runner,
		binary:  binary,
		quality: quality,
		timeout: timeout,
	}
}

func (t *Transcoder) Binary() string {
	return t.binary
}

func (t *Transcoder) Args(src, dst string, tags Tags) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", src,
		"-vn",
		"-map_metadata", "-1",
		"-codec:a", "libmp3lame",
		"-q:a", t.quality,
		"-id3v2_version", "3",
		"-metadata", "title=" + tags.Title,
		"-metadata", "comment=" + tags.Comment,
		"-f", "mp3",
		dst,
	}
}

// ToMP3 encodes src into dst, embedding tags. Failures of ffmpeg itself are
// reported as *Error, anything else (missing binary, cancellation) is wrapped.
func (t *Transcoder) ToMP3(ctx context.Context, src, dst string, tags Tags) error {
	res, err := t.runner.Run(ctx, procexec.Cmd{
		Name:    t.binary,
		Args:    t.Args(src, dst, tags),
		Dir:     "",
		Timeout: t.timeout,
	})
	if nil != err {
		return fmt.Errorf("failed to run ffmpeg: %w", err)
	}

	if !res.Success() {
		return &Error{ExitCode: res.ExitCode, TimedOut: res.TimedOut, Stderr: res.Stderr}
	}

	return nil
}

var ErrEmptyVersion = errors.New("empty version output")

// Version returns the first line of `ffmpeg -version`.
func Version(ctx context.Context, runner procexec.Runner, binary string) (string, error) {
	res, err := runner.Run(ctx, procexec.Cmd{Name: binary, Args: []string{"-version"}}) //nolint:exhaustruct
	if nil != err {
		return "", fmt.Errorf("failed to run %s -version: %w", binary, err)
	}

	if !res.Success() {
		return "", fmt.Errorf("%s -version exited with status %d: %s", binary, res.ExitCode, lastLine(res.Stderr))
	}

	first, _, _ := strings.Cut(strings.TrimSpace(res.Stdout), "\n")
	if first == "" {
		return "", ErrEmptyVersion
	}

	return strings.TrimSpace(first), nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}

	return s
}
