package probe

import (
	"crypto/tls"
	"crypto/x509"
	"time"
)

// TLSInspector evaluates the certificate of an established TLS connection.
// Roots nil means the system trust store.
type TLSInspector struct {
	Roots *x509.CertPool
	now   func() time.Time
}

func NewTLSInspector(roots *x509.CertPool) *TLSInspector {
	return &TLSInspector{Roots: roots, now: time.Now}
}

// Inspect is only meaningful for connections that completed a handshake; a
// nil state or an empty peer chain yields an invalid result without expiry.
func (i *TLSInspector) Inspect(state *tls.ConnectionState) TLSInfo {
	if state == nil || len(state.PeerCertificates) == 0 {
		return TLSInfo{}
	}
	leaf := state.PeerCertificates[0]
	exp := leaf.NotAfter.UTC()
	info := TLSInfo{ExpiresAt: &exp}

	now := time.Now()
	if i.now != nil {
		now = i.now()
	}
	if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
		return info
	}

	inter := x509.NewCertPool()
	for _, c := range state.PeerCertificates[1:] {
		inter.AddCert(c)
	}
	_, err := leaf.Verify(x509.VerifyOptions{
		Roots:         i.Roots,
		Intermediates: inter,
		DNSName:       state.ServerName,
		CurrentTime:   now,
	})
	info.Valid = err == nil
	return info
}
