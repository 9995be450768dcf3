package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/xeptore/tubecast/acquire"
	"github.com/xeptore/tubecast/config"
	"github.com/xeptore/tubecast/constants"
	"github.com/xeptore/tubecast/episode"
	"github.com/xeptore/tubecast/log"
	"github.com/xeptore/tubecast/server"
	"github.com/xeptore/tubecast/workdir"
)

func main() {
	logger := log.NewDefault()

	//nolint:exhaustruct
	app := &cli.Command{
		Name:    "tubecast",
		Version: constants.Version,
		Metadata: map[string]any{
			"compiled_at": constants.CompileTime,
		},
		Suggest:                    true,
		Usage:                      "Video to podcast MP3 converter",
		EnableShellCompletion:      true,
		ShellCompletionCommandName: "shell-completion",
		AllowExtFlags:              false,
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:     "config",
				Usage:    "Config file path",
				Required: false,
			},
		},
		Commands: []*cli.Command{
			//nolint:exhaustruct
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: serve,
			},
			//nolint:exhaustruct
			{
				Name:  "convert",
				Usage: "Convert a single video to a tagged MP3 file",
				Flags: []cli.Flag{
					//nolint:exhaustruct
					&cli.StringFlag{
						Name:     "url",
						Usage:    "Video URL",
						Required: true,
					},
					//nolint:exhaustruct
					&cli.StringFlag{
						Name:  "title",
						Usage: "Title tag, also used as the file name",
						Value: episode.DefaultTitle,
					},
					//nolint:exhaustruct
					&cli.StringFlag{
						Name:  "description",
						Usage: "Comment tag",
					},
					//nolint:exhaustruct
					&cli.StringFlag{
						Name:  "filename",
						Usage: "Output file name, overrides the title",
					},
					//nolint:exhaustruct
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output directory",
						Value: ".",
					},
				},
				Action: convert,
			},
			//nolint:exhaustruct
			{
				Name:   "strategies",
				Usage:  "Print the configured strategy ladder",
				Action: strategies,
			},
			//nolint:exhaustruct
			{
				Name:   "debug",
				Usage:  "Print the runtime diagnostics report",
				Action: debug,
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); nil != err {
		if errors.Is(err, context.Canceled) {
			logger.Trace().Msg("Application was canceled")
			os.Exit(1)
		}

		var exitCode exitCodeError
		if errors.As(err, &exitCode) {
			os.Exit(int(exitCode))
		}

		logger.Error().Err(err).Msg("Application exited with error")
		os.Exit(10)
	}
}

type exitCodeError int

func (e exitCodeError) Error() string {
	return "error with exit code: " + strconv.Itoa(int(e))
}

func setup(cmd *cli.Command) (zerolog.Logger, *config.Config, error) {
	logger := log.NewDefault()

	if err := godotenv.Load(); nil != err {
		if !errors.Is(err, os.ErrNotExist) {
			return logger, nil, fmt.Errorf("load .env file: %v", err)
		}
		logger.Debug().Msg(".env file was not found")
	} else {
		logger.Debug().Msg(".env file was loaded")
	}

	conf, err := config.Load(cmd.String("config"))
	if nil != err {
		return logger, nil, fmt.Errorf("load config: %v", err)
	}

	logger = log.FromConfig(conf.Log)

	logger.Debug().Dict("config", conf.ToDict()).Msg("Config loaded")

	return logger, conf, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, conf, err := setup(cmd)
	if nil != err {
		return err
	}

	orch, err := newOrchestrator(conf)
	if nil != err {
		return fmt.Errorf("create orchestrator: %v", err)
	}
	logOrchestrator(logger, orch)

	if err := orch.CheckEnvironment(); nil != err {
		logger.Warn().Err(err).Msg("External tools are missing, conversions will fail until they are installed")
	}

	srv := server.New(logger, conf.Server, conf.Workdir.Base, orch, newProber(conf))
	if err := srv.Start(ctx); nil != err {
		return fmt.Errorf("run server: %v", err)
	}

	return nil
}

func convert(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, conf, err := setup(cmd)
	if nil != err {
		return err
	}

	req, err := episode.NewRequest(cmd.String("url"), cmd.String("title"), cmd.String("description"), cmd.String("filename"))
	if nil != err {
		return fmt.Errorf("invalid request: %v", err)
	}

	orch, err := newOrchestrator(conf)
	if nil != err {
		return fmt.Errorf("create orchestrator: %v", err)
	}
	logOrchestrator(logger, orch)

	dir, err := workdir.New(conf.Workdir.Base, uuid.New())
	if nil != err {
		return err
	}
	defer func() {
		if err := dir.Remove(); nil != err {
			logger.Error().Err(err).Msg("Failed to remove working directory")
		}
	}()

	artifact, err := orch.Acquire(ctx, logger.With().Str("url", req.URL).Logger(), dir, req)
	if nil != err {
		var (
			acqErr *acquire.AcquisitionError
			envErr *acquire.EnvironmentError
		)
		switch {
		case errors.As(err, &acqErr):
			fmt.Fprintln(os.Stderr, acqErr.Report())
			return exitCodeError(2)
		case errors.As(err, &envErr):
			logger.Error().Err(err).Msg("Required tool is not available")
			return exitCodeError(3)
		default:
			return fmt.Errorf("convert: %w", err)
		}
	}

	dst := filepath.Join(cmd.String("out"), req.OutputFilename())
	if err := copyFile(artifact.Path, dst); nil != err {
		return err
	}

	logger.
		Info().
		Str("path", dst).
		Int64("size", artifact.Size).
		Str("strategy", artifact.Strategy.Name).
		Msg("Conversion finished")

	return nil
}

func strategies(_ context.Context, cmd *cli.Command) error {
	_, conf, err := setup(cmd)
	if nil != err {
		return err
	}

	orch, err := newOrchestrator(conf)
	if nil != err {
		return fmt.Errorf("create orchestrator: %v", err)
	}

	fmt.Fprintln(os.Stdout, renderStrategies(orch.Ladder(), orch.Credentials().Loaded()))
	fmt.Fprintf(os.Stdout, "policy: %s, tagging: %s\n", orch.Policy().Mode, orch.Tagging())

	return nil
}

func debug(ctx context.Context, cmd *cli.Command) error {
	_, conf, err := setup(cmd)
	if nil != err {
		return err
	}

	orch, err := newOrchestrator(conf)
	if nil != err {
		return fmt.Errorf("create orchestrator: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(server.NewDebugReport(ctx, orch, newProber(conf))); nil != err {
		return fmt.Errorf("encode debug report: %v", err)
	}

	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if nil != err {
		return fmt.Errorf("failed to open artifact: %v", err)
	}
	defer func() {
		if closeErr := in.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close artifact: %v", closeErr))
		}
	}()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if nil != err {
		return fmt.Errorf("failed to create output file: %v", err)
	}
	defer func() {
		if closeErr := out.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close output file: %v", closeErr))
		}
	}()

	if _, err := io.Copy(out, in); nil != err {
		return fmt.Errorf("failed to write output file: %v", err)
	}

	return nil
}
