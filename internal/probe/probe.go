package probe

import (
	"context"
	"crypto/tls"
	"time"
)

// Attempt is the raw outcome of a single probe.
//
// Fields:
//   - HTTPCode: status of the response; 0 when no response was received.
//   - TransportError: categorical reason (see the Err* constants) when the
//     exchange did not complete; empty when a response arrived.
//   - Detail: the underlying error text, kept for the result's error column.
//   - TLS: connection state of the final hop, nil for plain http or failed
//     handshakes.
type Attempt struct {
	Number         int                  `json:"attempt"`
	StartedAt      time.Time            `json:"started_at"`
	HTTPCode       int                  `json:"http_code,omitempty"`
	TTFBMs         float64              `json:"ttfb_ms,omitempty"`
	TotalMs        float64              `json:"total_ms"`
	TransportError string               `json:"transport_error,omitempty"`
	Detail         string               `json:"detail,omitempty"`
	Timing         Timing               `json:"timing"`
	TLS            *tls.ConnectionState `json:"-"`
}

// Responded reports whether the attempt reached the server and got any HTTP
// status back.
func (a Attempt) Responded() bool {
	return a.HTTPCode > 0 && a.TransportError == ""
}

// Timing is the wall-clock breakdown of the phases that ran before the first
// response byte. Phases that did not happen (reused connection, plain http)
// stay zero.
type Timing struct {
	DNSMs     float64 `json:"dns_ms,omitempty"`
	ConnectMs float64 `json:"connect_ms,omitempty"`
	TLSMs     float64 `json:"tls_ms,omitempty"`
}

// Prober performs one timed request against target.
type Prober interface {
	Probe(ctx context.Context, target string, timeout time.Duration) Attempt
}

// TLSInfo describes the certificate presented by an https target.
type TLSInfo struct {
	Valid     bool       `json:"valid"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Outcome is what the retry loop hands back: the terminal attempt and how
// many attempts were made to reach it.
type Outcome struct {
	Final    Attempt
	Attempts int
}

func (o Outcome) Retries() int {
	if o.Attempts < 1 {
		return 0
	}
	return o.Attempts - 1
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
