package acquire

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/xeptore/tubecast/procexec"
	"github.com/xeptore/tubecast/strategy"
)

var ErrNoApplicableStrategy = errors.New("no strategy applies without credential material")

type Attempt struct {
	Strategy strategy.Strategy
	Result   procexec.Result
}

func (a Attempt) status() string {
	if a.Result.TimedOut {
		return "timed out"
	}

	return "exit status " + strconv.Itoa(a.Result.ExitCode)
}

// AcquisitionError means every attempted strategy exited non-zero.
type AcquisitionError struct {
	Attempts    []Attempt
	CookiesUsed bool
}

func (e *AcquisitionError) Error() string {
	if len(e.Attempts) == 0 {
		return "download failed without any attempt"
	}

	last := e.Attempts[len(e.Attempts)-1]

	return fmt.Sprintf(
		"all %d download attempts failed, last %s: %s: %s",
		len(e.Attempts),
		last.Strategy.Name,
		last.status(),
		lastLine(last.Result.Stderr),
	)
}

// Report lists every attempt in order with its complete error output.
func (e *AcquisitionError) Report() string {
	var b strings.Builder
	b.WriteString("yt-dlp error:\n")
	for i, a := range e.Attempts {
		fmt.Fprintf(&b, "--- attempt %d/%d [%s]: %s ---\n", i+1, len(e.Attempts), a.Strategy.Name, a.status())
		b.WriteString(strings.TrimRight(a.Result.Stderr, "\n"))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "(cookies_used=%t)", e.CookiesUsed)

	return b.String()
}

func (e *AcquisitionError) Strategies() []string {
	return lo.Map(e.Attempts, func(a Attempt, _ int) string { return a.Strategy.Name })
}

// ArtifactError means the downloader reported success but no single valid
// MP3 could be found in the working directory.
type ArtifactError struct {
	Stem    string
	Matches []string
	Reason  string
}

func (e *ArtifactError) Error() string {
	switch {
	case e.Reason != "":
		return e.Reason
	case len(e.Matches) == 0:
		return "no " + e.Stem + " file produced"
	default:
		names := lo.Map(e.Matches, func(p string, _ int) string { return filepath.Base(p) })
		return fmt.Sprintf("expected exactly one %s file, found %d: %s", e.Stem, len(e.Matches), strings.Join(names, ", "))
	}
}

// TranscodeError means ffmpeg could not turn the downloaded audio into MP3.
type TranscodeError struct {
	Err error
}

func (e *TranscodeError) Error() string {
	return "transcoding failed: " + e.Err.Error()
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// EnvironmentError means a required external tool is unavailable.
type EnvironmentError struct {
	Tool string
	Err  error
}

func (e *EnvironmentError) Error() string {
	if e.Tool == "" {
		return e.Err.Error()
	}

	return e.Tool + " is not available: " + e.Err.Error()
}

func (e *EnvironmentError) Unwrap() error {
	return e.Err
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}

	return s
}
