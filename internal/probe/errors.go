package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// Transport error categories.
const (
	ErrDNS               = "dns"
	ErrConnectionRefused = "connection_refused"
	ErrConnectionReset   = "connection_reset"
	ErrTLSHandshake      = "tls_handshake"
	ErrTimeout           = "timeout"
	ErrCanceled          = "canceled"
	ErrInvalidURL        = "invalid_url"
	ErrNetwork           = "network"
)

// classifyTransportError maps a failed exchange to a category and a detail
// string. DNS failures are split the same way a resolver lookup would be
// (NXDOMAIN vs. SERVFAIL/timeout).
func classifyTransportError(err error) (category, detail string) {
	detail = err.Error()

	var de *net.DNSError
	if errors.As(err, &de) {
		switch {
		case de.IsNotFound:
			return ErrDNS, "NXDOMAIN: " + detail
		case de.IsTimeout || de.IsTemporary:
			return ErrDNS, "SERVFAIL_or_TIMEOUT: " + detail
		default:
			return ErrDNS, detail
		}
	}

	switch {
	case errors.Is(err, context.Canceled):
		return ErrCanceled, detail
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout, detail
	case errors.Is(err, syscall.ECONNREFUSED):
		return ErrConnectionRefused, detail
	case errors.Is(err, syscall.ECONNRESET):
		return ErrConnectionReset, detail
	}

	if isTLSError(err) {
		return ErrTLSHandshake, detail
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrTimeout, detail
	}

	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil && strings.Contains(ue.Err.Error(), "unsupported protocol scheme") {
		return ErrInvalidURL, detail
	}
	return ErrNetwork, detail
}

func isTLSError(err error) bool {
	var (
		verr  *tls.CertificateVerificationError
		rherr tls.RecordHeaderError
		alert tls.AlertError
		uaerr x509.UnknownAuthorityError
		hnerr x509.HostnameError
		cierr x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &rherr), errors.As(err, &alert),
		errors.As(err, &uaerr), errors.As(err, &hnerr), errors.As(err, &cierr):
		return true
	}
	// remote alerts surface as a plain string from crypto/tls
	return strings.Contains(err.Error(), "tls: ")
}
