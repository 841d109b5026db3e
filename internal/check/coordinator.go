// Package check runs one uptime check end to end: resolve the site, probe it
// with retries, inspect TLS, classify, update the failure streak and assemble
// the result.
package check

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimeprobe/internal/domain"
	"github.com/hamed0406/uptimeprobe/internal/probe"
	"github.com/hamed0406/uptimeprobe/internal/repo"
)

// Request is one inbound check. MaxRetries nil means the default.
type Request struct {
	WebsiteID  string
	MaxRetries *int
}

// Runner is satisfied by *probe.Retrier.
type Runner interface {
	Run(ctx context.Context, target string, maxRetries int) probe.Outcome
}

// StreakUpdater is satisfied by *streak.Tracker.
type StreakUpdater interface {
	Update(ctx context.Context, id domain.SiteID, status domain.Status) int
}

// Observer is satisfied by *metrics.Metrics.
type Observer interface {
	ObserveCheck(outcome string, d time.Duration, attempts int)
}

type Options struct {
	Sites      repo.WebsiteStore
	Runner     Runner
	TLS        *probe.TLSInspector
	Streaks    StreakUpdater
	Metrics    Observer
	Log        *zap.Logger
	RetryLimit int           // upper clamp for Request.MaxRetries
	Retries    *int          // used when Request.MaxRetries is nil; nil means probe.DefaultMaxRetries
	Timeout    time.Duration // whole check, retries included; 0 disables
	Now        func() time.Time
}

type Coordinator struct {
	sites   repo.WebsiteStore
	runner  Runner
	tls     *probe.TLSInspector
	streaks StreakUpdater
	metrics Observer
	log     *zap.Logger
	limit   int
	retries *int
	timeout time.Duration
	now     func() time.Time
}

func NewCoordinator(o Options) *Coordinator {
	c := &Coordinator{
		sites:   o.Sites,
		runner:  o.Runner,
		tls:     o.TLS,
		streaks: o.Streaks,
		metrics: o.Metrics,
		log:     o.Log,
		limit:   o.RetryLimit,
		retries: o.Retries,
		timeout: o.Timeout,
		now:     o.Now,
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.tls == nil {
		c.tls = probe.NewTLSInspector(nil)
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Check never returns both a result and an error. A target that is down is a
// successful check with StatusDown; errors are always *Error.
func (c *Coordinator) Check(ctx context.Context, req Request) (res domain.CheckResult, err error) {
	start := c.now()
	attempts := 0
	defer func() {
		if p := recover(); p != nil {
			c.log.Error("check_panic",
				zap.String("site_id", req.WebsiteID),
				zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()))
			res, err = domain.CheckResult{}, internal(fmt.Errorf("panic: %v", p))
		}
		c.observe(res, err, c.now().Sub(start), attempts)
	}()

	id := strings.TrimSpace(req.WebsiteID)
	if id == "" {
		return domain.CheckResult{}, inputError(errors.New("missing website id"))
	}

	site, err := c.sites.Lookup(ctx, domain.SiteID(id))
	if err != nil {
		if ctx.Err() != nil {
			return domain.CheckResult{}, canceled(context.Cause(ctx))
		}
		if !errors.Is(err, repo.ErrSiteNotFound) {
			c.log.Warn("website_lookup_failed", zap.String("site_id", id), zap.Error(err))
		}
		return domain.CheckResult{}, notFound(err)
	}
	site.ID = domain.SiteID(id)

	target, err := probe.TargetURL(site.Domain)
	if err != nil {
		return domain.CheckResult{}, internal(fmt.Errorf("site %s: %w", id, err))
	}

	requested := req.MaxRetries
	if requested == nil {
		requested = c.retries
	}
	maxRetries := probe.NormalizeMaxRetries(requested, c.limit)

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	out := c.runner.Run(runCtx, target, maxRetries)
	attempts = out.Attempts

	// the caller went away: nothing was measured, leave the streak alone
	if ctx.Err() != nil && !out.Final.Responded() {
		return domain.CheckResult{}, canceled(context.Cause(ctx))
	}

	status := probe.Classify(out.Final, site.Maintenance)
	if !status.Valid() {
		return domain.CheckResult{}, internal(fmt.Errorf("classifier produced %v", status))
	}

	res = domain.CheckResult{
		SiteID:    site.ID,
		Status:    status,
		HTTPCode:  out.Final.HTTPCode,
		TTFBMs:    out.Final.TTFBMs,
		TotalMs:   out.Final.TotalMs,
		Retries:   out.Retries(),
		URL:       target,
		Error:     errorText(out.Final),
		Timestamp: c.now().UTC(),
	}
	if probe.IsHTTPS(target) {
		info := c.tls.Inspect(out.Final.TLS)
		res.SSLValid = &info.Valid
		res.SSLExpiry = info.ExpiresAt
	}

	// the streak write must not be cut short by the check deadline
	res.FailureStreak = c.streaks.Update(context.WithoutCancel(ctx), site.ID, status)

	label, _ := status.Label()
	c.log.Info("uptime_check_complete",
		zap.String("site_id", id),
		zap.String("url", target),
		zap.String("status", label),
		zap.Int("http_code", res.HTTPCode),
		zap.Float64("ttfb_ms", res.TTFBMs),
		zap.Int("retries", res.Retries),
		zap.Int("streak", res.FailureStreak),
	)
	return res, nil
}

func (c *Coordinator) observe(res domain.CheckResult, err error, d time.Duration, attempts int) {
	if c.metrics == nil {
		return
	}
	outcome := res.Status.String()
	if err != nil {
		outcome = KindOf(err).String()
	}
	c.metrics.ObserveCheck(outcome, d, attempts)
}

func errorText(a probe.Attempt) string {
	switch {
	case a.Detail != "":
		return a.Detail
	case a.TransportError != "":
		return a.TransportError
	}
	return ""
}
