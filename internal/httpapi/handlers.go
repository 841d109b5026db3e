package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimeprobe/internal/check"
	"github.com/hamed0406/uptimeprobe/internal/domain"
	apimw "github.com/hamed0406/uptimeprobe/internal/httpapi/middleware"
)

const (
	headerWebsiteID  = apimw.SiteHeader
	headerMaxRetries = "x-max-retries"

	sinkTimeout = 5 * time.Second
)

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	req := check.Request{
		WebsiteID:  r.Header.Get(headerWebsiteID),
		MaxRetries: parseMaxRetries(r.Header.Get(headerMaxRetries)),
	}

	res, err := s.Checker.Check(r.Context(), req)
	if err != nil {
		s.writeError(w, req.WebsiteID, err)
		return
	}

	// the result is persisted even if the caller has already gone
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), sinkTimeout)
	defer cancel()
	if s.Sink != nil {
		if err := s.Sink.Write(ctx, res); err != nil {
			s.Logger.Warn("result_sink_error", zap.String("site_id", string(res.SiteID)), zap.Error(err))
			if s.Errors != nil {
				s.Errors.SinkError()
			}
		}
	}

	writeJSON(w, http.StatusOK, domain.Envelope{
		Success: true,
		Message: check.MsgComplete,
		Data:    &res,
	})
}

func (s *Server) writeError(w http.ResponseWriter, siteID string, err error) {
	kind := check.KindOf(err)
	env := domain.Envelope{Success: false, Message: check.MsgInternalError, Error: "internal error"}
	code := http.StatusInternalServerError

	switch kind {
	case check.KindInput:
		code, env.Message, env.Error = http.StatusBadRequest, check.MsgMissingSiteID, headerWebsiteID+" header is required"
	case check.KindNotFound:
		code, env.Message, env.Error = http.StatusNotFound, check.MsgSiteNotFound, "no website with id "+strconv.Quote(siteID)
	case check.KindCanceled:
		code, env.Message, env.Error = http.StatusServiceUnavailable, check.MsgCheckAborted, "check canceled before completion"
	case check.KindInternal:
		s.Logger.Error("uptime_check_failed", zap.String("site_id", siteID), zap.Error(err))
	}
	writeJSON(w, code, env)
}

// parseMaxRetries returns nil for an absent or malformed header so the
// configured default applies.
func parseMaxRetries(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
