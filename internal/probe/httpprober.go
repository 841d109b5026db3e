package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "uptimeprobe/1.0"
	// bounded so a huge body cannot hold the attempt open past what the
	// timing needs
	maxBodyBytes = 1 << 20
)

type HTTPProber struct {
	Client    *http.Client
	UserAgent string
}

type HTTPProberOptions struct {
	// StrictTLS enforces certificate verification during the handshake. When
	// false, certificate health is reported by TLSInspector instead.
	StrictTLS bool
	// RootCAs overrides the system pool when StrictTLS is set.
	RootCAs   *x509.CertPool
	UserAgent string
}

func NewHTTPProber(opts HTTPProberOptions) *HTTPProber {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DisableKeepAlives = true // every attempt measures a fresh connection
	tr.TLSClientConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		RootCAs:            opts.RootCAs,
		InsecureSkipVerify: !opts.StrictTLS, // verified by TLSInspector
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &HTTPProber{
		Client:    &http.Client{Transport: tr},
		UserAgent: ua,
	}
}

// Probe issues a single GET against target. It never fails: transport
// problems are encoded in the returned Attempt.
func (p *HTTPProber) Probe(ctx context.Context, target string, timeout time.Duration) Attempt {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	att := Attempt{StartedAt: start.UTC()}

	rec := &traceRecorder{}
	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, rec.trace()), http.MethodGet, target, nil)
	if err != nil {
		att.TransportError = ErrInvalidURL
		att.Detail = err.Error()
		return att
	}
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		att.TotalMs = ms(time.Since(start))
		att.Timing, _ = rec.snapshot(start)
		att.TransportError, att.Detail = classifyTransportError(err)
		return att
	}
	defer resp.Body.Close()

	// a body that stalls after the headers still counts as a response
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	att.HTTPCode = resp.StatusCode
	att.TotalMs = ms(time.Since(start))
	var firstByte time.Time
	att.Timing, firstByte = rec.snapshot(start)
	if !firstByte.IsZero() {
		att.TTFBMs = ms(firstByte.Sub(start))
	}
	if resp.TLS != nil {
		st := *resp.TLS
		att.TLS = &st
	}
	if resp.StatusCode < 200 || resp.StatusCode > 399 {
		att.Detail = resp.Status
	}
	return att
}

var _ Prober = (*HTTPProber)(nil)

// traceRecorder collects httptrace callbacks. Dial callbacks can fire from the
// transport's goroutines after Do has returned, hence the lock.
type traceRecorder struct {
	mu                                  sync.Mutex
	dnsStart, connStart, tlsStart       time.Time
	dnsDone, connDone, tlsDone, firstRB time.Time
}

func (r *traceRecorder) mark(t *time.Time) func() {
	return func() {
		r.mu.Lock()
		*t = time.Now()
		r.mu.Unlock()
	}
}

func (r *traceRecorder) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) { r.mark(&r.dnsStart)() },
		DNSDone:  func(httptrace.DNSDoneInfo) { r.mark(&r.dnsDone)() },
		ConnectStart: func(_, _ string) {
			r.mu.Lock()
			if r.connStart.IsZero() {
				r.connStart = time.Now()
			}
			r.mu.Unlock()
		},
		ConnectDone: func(_, _ string, err error) {
			if err == nil {
				r.mark(&r.connDone)()
			}
		},
		TLSHandshakeStart: r.mark(&r.tlsStart),
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err == nil {
				r.mark(&r.tlsDone)()
			}
		},
		GotFirstResponseByte: r.mark(&r.firstRB),
	}
}

func (r *traceRecorder) snapshot(start time.Time) (Timing, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var t Timing
	if span(r.dnsStart, r.dnsDone) {
		t.DNSMs = ms(r.dnsDone.Sub(r.dnsStart))
	}
	if span(r.connStart, r.connDone) {
		t.ConnectMs = ms(r.connDone.Sub(r.connStart))
	}
	if span(r.tlsStart, r.tlsDone) {
		t.TLSMs = ms(r.tlsDone.Sub(r.tlsStart))
	}
	first := r.firstRB
	if !first.IsZero() && first.Before(start) {
		first = time.Time{}
	}
	return t, first
}

func span(a, b time.Time) bool {
	return !a.IsZero() && !b.IsZero() && !b.Before(a)
}
