package server

import (
	"context"
	"time"

	"github.com/xeptore/tubecast/acquire"
	"github.com/xeptore/tubecast/cache"
	"github.com/xeptore/tubecast/procexec"
	"github.com/xeptore/tubecast/transcode"
	"github.com/xeptore/tubecast/ytdlp"
)

const probeTimeout = 10 * time.Second

// Prober reports the versions of the external tools, cached for
// cache.DefaultVersionTTL.
type Prober struct {
	runner procexec.Runner
	cache  *cache.Cache
	ytdlp  string
	ffmpeg string
}

func NewProber(runner procexec.Runner, c *cache.Cache, ytdlpBinary, ffmpegBinary string) *Prober {
	return &Prober{
		runner: runner,
		cache:  c,
		ytdlp:  ytdlpBinary,
		ffmpeg: ffmpegBinary,
	}
}

func (p *Prober) YtdlpVersion(ctx context.Context) string {
	return p.fetch(ctx, p.ytdlp, ytdlp.Version)
}

func (p *Prober) FFmpegVersion(ctx context.Context) string {
	return p.fetch(ctx, p.ffmpeg, transcode.Version)
}

func (p *Prober) fetch(
	ctx context.Context,
	binary string,
	probe func(context.Context, procexec.Runner, string) (string, error),
) string {
	v, err := p.cache.Versions.Fetch(binary, cache.DefaultVersionTTL, func() (string, error) {
		ctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()

		return probe(ctx, p.runner, binary)
	})
	if nil != err {
		return "unavailable: " + err.Error()
	}

	return v
}

type DebugReport struct {
	CookiesLoaded bool     `json:"cookies_loaded"`
	CookiesBytes  int      `json:"cookies_bytes"`
	CookiesPath   string   `json:"cookies_path"`
	YtdlpVersion  string   `json:"ytdlp_version"`
	FFmpegVersion string   `json:"ffmpeg_version"`
	Tagging       string   `json:"tagging"`
	Policy        string   `json:"policy"`
	Strategies    []string `json:"strategies"`
}

func NewDebugReport(ctx context.Context, orch *acquire.Orchestrator, prober *Prober) DebugReport {
	creds := orch.Credentials()

	return DebugReport{
		CookiesLoaded: creds.Loaded(),
		CookiesBytes:  creds.Size(),
		CookiesPath:   creds.Path(),
		YtdlpVersion:  prober.YtdlpVersion(ctx),
		FFmpegVersion: prober.FFmpegVersion(ctx),
		Tagging:       string(orch.Tagging()),
		Policy:        orch.Policy().Mode.String(),
		Strategies:    orch.Plan().Names(),
	}
}

func (s *Server) DebugReport(ctx context.Context) DebugReport {
	return NewDebugReport(ctx, s.orch, s.prober)
}
