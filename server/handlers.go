package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/xeptore/tubecast/acquire"
	"github.com/xeptore/tubecast/episode"
	"github.com/xeptore/tubecast/httputil"
	"github.com/xeptore/tubecast/workdir"
)

const contentTypeMP3 = "audio/mpeg"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}); nil != err {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to write health response")
	}
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	report := s.DebugReport(r.Context())
	if err := httputil.WriteJSON(w, http.StatusOK, report); nil != err {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to write debug response")
	}
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	logger := *hlog.FromRequest(r)

	q := r.URL.Query()
	req, err := episode.NewRequest(q.Get("url"), q.Get("title"), q.Get("description"), q.Get("filename"))
	if nil != err {
		writeError(w, logger, err)
		return
	}
	logger = logger.With().Str("url", req.URL).Logger()

	ctx := r.Context()
	if timeout := s.conf.RequestTimeout.Duration; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	jobCtx, done, err := s.worker.AcquireJob(ctx)
	if nil != err {
		writeError(w, logger, err)
		return
	}
	defer done()

	dir, err := workdir.New(s.workdirBase, uuid.New())
	if nil != err {
		writeError(w, logger, err)
		return
	}
	defer func() {
		if err := dir.Remove(); nil != err {
			logger.Error().Err(err).Str("dir", dir.Path()).Msg("Failed to remove working directory")
		}
	}()

	artifact, err := s.orch.Acquire(jobCtx, logger, dir, req)
	if nil != err {
		writeError(w, logger, err)
		return
	}

	serveArtifact(w, r, logger, artifact, req.OutputFilename())
}

func serveArtifact(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, artifact *acquire.Artifact, name string) {
	f, err := os.Open(artifact.Path)
	if nil != err {
		writeError(w, logger, err)
		return
	}
	defer func() {
		if err := f.Close(); nil != err {
			logger.Error().Err(err).Msg("Failed to close artifact")
		}
	}()

	logger.
		Info().
		Str("strategy", artifact.Strategy.Name).
		Int64("size", artifact.Size).
		Str("filename", name).
		Msg("Serving converted audio")

	w.Header().Set("Content-Type", contentTypeMP3)
	w.Header().Set("Content-Disposition", httputil.AttachmentDisposition(name))
	http.ServeContent(w, r, name, time.Time{}, f)
}

func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status, body := errorResponse(err)
	switch {
	case status == 0:
		logger.Info().Err(err).Msg("Client went away before conversion finished")
		return
	case status >= http.StatusInternalServerError:
		logger.Error().Err(err).Int("status", status).Msg("Conversion failed")
	default:
		logger.Warn().Err(err).Int("status", status).Msg("Conversion rejected")
	}

	if err := httputil.WriteText(w, status, body); nil != err {
		logger.Error().Err(err).Msg("Failed to write error response")
	}
}

// errorResponse maps an error to its HTTP status and body. A zero status means
// nothing should be written.
func errorResponse(err error) (int, string) {
	var (
		acqErr *acquire.AcquisitionError
		artErr *acquire.ArtifactError
		trErr  *acquire.TranscodeError
		envErr *acquire.EnvironmentError
	)

	switch {
	case errors.Is(err, episode.ErrMissingURL):
		return http.StatusBadRequest, "missing required query parameter: url"
	case errors.As(err, &acqErr):
		return http.StatusBadRequest, acqErr.Report()
	case errors.As(err, &artErr):
		return http.StatusInternalServerError, "No MP3 produced: " + artErr.Error()
	case errors.As(err, &trErr):
		return http.StatusInternalServerError, trErr.Error()
	case errors.As(err, &envErr):
		return http.StatusServiceUnavailable, envErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "conversion timed out"
	case errors.Is(err, context.Canceled):
		return 0, ""
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
