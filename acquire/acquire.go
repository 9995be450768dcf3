// Package acquire turns a conversion request into exactly one tagged MP3 file
// by walking an ordered ladder of download strategies.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/xeptore/tubecast/credential"
	"github.com/xeptore/tubecast/episode"
	"github.com/xeptore/tubecast/procexec"
	"github.com/xeptore/tubecast/strategy"
	"github.com/xeptore/tubecast/transcode"
	"github.com/xeptore/tubecast/workdir"
	"github.com/xeptore/tubecast/ytdlp"
)

const (
	outputStem = "out"
	rawStem    = "raw"
	mp3Suffix  = "." + episode.Ext
	mimeMP3    = "audio/mpeg"
)

type Tagging string

const (
	// TaggingNative lets yt-dlp extract MP3 and write the tags.
	TaggingNative Tagging = "native"
	// TaggingFFmpeg downloads the best audio stream and re-encodes it with the
	// transcoder.
	TaggingFFmpeg Tagging = "ffmpeg"
)

type Artifact struct {
	Path     string
	Size     int64
	Strategy strategy.Strategy
}

type Options struct {
	Binary  string
	Ladder  strategy.Ladder
	Policy  strategy.Policy
	Tagging Tagging
	// AttemptTimeout bounds a single yt-dlp run. Zero means no bound besides
	// the request context.
	AttemptTimeout time.Duration
	ExtraArgs      []string
}

type Orchestrator struct {
	runner     procexec.Runner
	creds      credential.Material
	transcoder *transcode.Transcoder
	opts       Options
}

// New returns an orchestrator. transcoder is only used, and must only be
// non-nil, with TaggingFFmpeg.
func New(
	runner procexec.Runner,
	creds credential.Material,
	transcoder *transcode.Transcoder,
	opts Options,
) (*Orchestrator, error) {
	switch opts.Tagging {
	case TaggingNative:
	case TaggingFFmpeg:
		if nil == transcoder {
			return nil, errors.New("ffmpeg tagging requires a transcoder")
		}
	default:
		return nil, fmt.Errorf("unsupported tagging mode %q", opts.Tagging)
	}

	if len(opts.Ladder) == 0 {
		return nil, errors.New("strategy ladder is empty")
	}

	if opts.Binary == "" {
		return nil, errors.New("downloader binary is empty")
	}

	return &Orchestrator{
		runner:     runner,
		creds:      creds,
		transcoder: transcoder,
		opts:       opts,
	}, nil
}

func (o *Orchestrator) Credentials() credential.Material {
	return o.creds
}

func (o *Orchestrator) Ladder() strategy.Ladder {
	return o.opts.Ladder
}

// Plan is the part of the ladder that will actually be attempted.
func (o *Orchestrator) Plan() strategy.Ladder {
	return o.opts.Ladder.Applicable(o.creds.Loaded())
}

func (o *Orchestrator) Policy() strategy.Policy {
	return o.opts.Policy
}

func (o *Orchestrator) Tagging() Tagging {
	return o.opts.Tagging
}

func (o *Orchestrator) Binary() string {
	return o.opts.Binary
}

// CheckEnvironment reports every external tool that cannot be found.
func (o *Orchestrator) CheckEnvironment() error {
	var errs []error
	if err := procexec.Available(o.opts.Binary); nil != err {
		errs = append(errs, &EnvironmentError{Tool: o.opts.Binary, Err: err})
	}

	if o.opts.Tagging == TaggingFFmpeg {
		if err := procexec.Available(o.transcoder.Binary()); nil != err {
			errs = append(errs, &EnvironmentError{Tool: o.transcoder.Binary(), Err: err})
		}
	}

	return errors.Join(errs...)
}

// Acquire downloads req into dir. The returned artifact lives inside dir and
// is valid until the caller removes it.
func (o *Orchestrator) Acquire(ctx context.Context, logger zerolog.Logger, dir workdir.Dir, req episode.Request) (*Artifact, error) {
	plan := o.Plan()
	if len(plan) == 0 {
		return nil, &EnvironmentError{Tool: "", Err: ErrNoApplicableStrategy}
	}

	attempts := make([]Attempt, 0, len(plan))
	for i, s := range plan {
		logger := logger.With().Str("strategy", s.Name).Int("attempt", i+1).Logger()

		if err := clearLeftovers(dir); nil != err {
			return nil, err
		}

		logger.Debug().Msg("Starting download attempt")
		res, err := o.runner.Run(ctx, procexec.Cmd{
			Name:    o.opts.Binary,
			Args:    o.args(dir, req, s),
			Dir:     dir.Path(),
			Timeout: o.opts.AttemptTimeout,
		})
		if nil != err {
			if errors.Is(err, procexec.ErrNotInstalled) {
				return nil, &EnvironmentError{Tool: o.opts.Binary, Err: err}
			}
			return nil, fmt.Errorf("failed to run download attempt %s: %w", s.Name, err)
		}

		if res.Success() {
			logger.Info().Msg("Download attempt succeeded")
			return o.finish(ctx, logger, dir, req, s)
		}

		attempts = append(attempts, Attempt{Strategy: s, Result: res})
		logger.
			Warn().
			Int("exit_code", res.ExitCode).
			Bool("timed_out", res.TimedOut).
			Str("stderr_tail", lastLine(res.Stderr)).
			Msg("Download attempt failed")

		if i+1 < len(plan) && !o.opts.Policy.Continue(s, res.Stderr) {
			logger.Info().Str("policy", o.opts.Policy.Mode.String()).Msg("Retry policy stopped the ladder")
			break
		}
	}

	return nil, &AcquisitionError{
		Attempts:    attempts,
		CookiesUsed: lo.ContainsBy(attempts, func(a Attempt) bool { return a.Strategy.UseCredentials }),
	}
}

func (o *Orchestrator) args(dir workdir.Dir, req episode.Request, s strategy.Strategy) []string {
	native := o.opts.Tagging == TaggingNative

	return ytdlp.Args(ytdlp.Options{
		URL:            req.URL,
		OutputTemplate: dir.Template(lo.Ternary(native, outputStem, rawStem)),
		Strategy:       s,
		CookiesPath:    o.creds.Path(),
		Title:          req.Title,
		Description:    req.Description,
		ExtractMP3:     native,
		ExtraArgs:      o.opts.ExtraArgs,
	})
}

func (o *Orchestrator) finish(
	ctx context.Context,
	logger zerolog.Logger,
	dir workdir.Dir,
	req episode.Request,
	s strategy.Strategy,
) (*Artifact, error) {
	if o.opts.Tagging == TaggingFFmpeg {
		if err := o.transcode(ctx, logger, dir, req); nil != err {
			return nil, err
		}
	}

	return resolve(dir, s)
}

func (o *Orchestrator) transcode(ctx context.Context, logger zerolog.Logger, dir workdir.Dir, req episode.Request) error {
	raws, err := dir.Match(rawStem, "")
	if nil != err {
		return err
	}

	if len(raws) != 1 {
		return &ArtifactError{Stem: rawStem + ".*", Matches: raws, Reason: ""}
	}

	logger.Debug().Str("source", filepath.Base(raws[0])).Msg("Transcoding downloaded audio")
	tags := transcode.Tags{Title: req.Title, Comment: req.Description}
	if err := o.transcoder.ToMP3(ctx, raws[0], dir.Join(outputStem+mp3Suffix), tags); nil != err {
		if errors.Is(err, procexec.ErrNotInstalled) {
			return &EnvironmentError{Tool: o.transcoder.Binary(), Err: err}
		}

		var tErr *transcode.Error
		if errors.As(err, &tErr) {
			return &TranscodeError{Err: err}
		}

		return err
	}

	return nil
}

func resolve(dir workdir.Dir, s strategy.Strategy) (*Artifact, error) {
	matches, err := dir.Match(outputStem, mp3Suffix)
	if nil != err {
		return nil, err
	}

	if len(matches) != 1 {
		return nil, &ArtifactError{Stem: outputStem + ".*" + mp3Suffix, Matches: matches, Reason: ""}
	}

	path := matches[0]
	mt, err := mimetype.DetectFile(path)
	if nil != err {
		return nil, fmt.Errorf("failed to detect artifact content type: %v", err)
	}

	if !mt.Is(mimeMP3) {
		return nil, &ArtifactError{
			Stem:    outputStem + ".*" + mp3Suffix,
			Matches: matches,
			Reason:  "artifact " + filepath.Base(path) + " is " + mt.String() + ", not MPEG audio",
		}
	}

	info, err := os.Stat(path)
	if nil != err {
		return nil, fmt.Errorf("failed to stat artifact: %v", err)
	}

	return &Artifact{Path: path, Size: info.Size(), Strategy: s}, nil
}

func clearLeftovers(dir workdir.Dir) error {
	return errors.Join(dir.Clear(outputStem), dir.Clear(rawStem))
}
