package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/xeptore/tubecast/acquire"
	"github.com/xeptore/tubecast/cache"
	"github.com/xeptore/tubecast/config"
	"github.com/xeptore/tubecast/credential"
	"github.com/xeptore/tubecast/procexec"
	"github.com/xeptore/tubecast/server"
	"github.com/xeptore/tubecast/strategy"
	"github.com/xeptore/tubecast/transcode"
)

const fallbackClient = "web"

func newOrchestrator(conf *config.Config) (*acquire.Orchestrator, error) {
	creds, err := credential.Load(conf.Credentials.Blob, conf.Credentials.Path)
	if nil != err {
		return nil, fmt.Errorf("load credentials: %v", err)
	}

	runner := procexec.NewExec()

	var tr *transcode.Transcoder
	if conf.Downloader.Tagging == config.TaggingFFmpeg {
		tr = transcode.New(runner, conf.Transcoder.Binary, conf.Transcoder.Quality, conf.Transcoder.Timeout.Duration)
	}

	return acquire.New(runner, creds, tr, acquire.Options{
		Binary:         conf.Downloader.Binary,
		Ladder:         ladderFromConfig(conf.Downloader),
		Policy:         policyFromConfig(conf.Downloader),
		Tagging:        acquire.Tagging(conf.Downloader.Tagging),
		AttemptTimeout: conf.Downloader.AttemptTimeout.Duration,
		ExtraArgs:      conf.Downloader.ExtraArgs,
	})
}

func newProber(conf *config.Config) *server.Prober {
	return server.NewProber(procexec.NewExec(), cache.New(), conf.Downloader.Binary, conf.Transcoder.Binary)
}

// ladderFromConfig uses the configured strategies in order, or the built-in
// ladder matching the policy when none are configured.
func ladderFromConfig(conf config.Downloader) strategy.Ladder {
	if len(conf.Strategies) == 0 {
		if conf.Policy == config.PolicyFallback {
			return strategy.Fallback(fallbackClient)
		}
		return strategy.DefaultLadder()
	}

	return lo.Map(conf.Strategies, func(e config.StrategyEntry, _ int) strategy.Strategy {
		return strategy.Strategy{Name: e.Name, Client: e.Client, UseCredentials: e.Cookies}
	})
}

func policyFromConfig(conf config.Downloader) strategy.Policy {
	if conf.Policy == config.PolicyFallback {
		return strategy.FallbackPolicy(strategy.ContainsFold(conf.RetryMarker))
	}

	return strategy.LadderPolicy()
}

func logOrchestrator(logger zerolog.Logger, orch *acquire.Orchestrator) {
	creds := orch.Credentials()
	logger.
		Info().
		Bool("cookies_loaded", creds.Loaded()).
		Int("cookies_bytes", creds.Size()).
		Strs("ladder", orch.Ladder().Names()).
		Strs("plan", orch.Plan().Names()).
		Str("policy", orch.Policy().Mode.String()).
		Str("tagging", string(orch.Tagging())).
		Msg("Orchestrator configured")
}
