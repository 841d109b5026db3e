package domain

import (
	"fmt"
	"time"
)

type SiteID string

// Site is resolved by the website lookup collaborator and stays fixed for the
// duration of a check.
type Site struct {
	ID          SiteID `json:"id"`
	Domain      string `json:"domain"`
	Maintenance bool   `json:"maintenance"`
}

// Status is the classified outcome of a check. The numeric values are stored
// as-is by the result sink.
type Status int

const (
	StatusDown        Status = 0
	StatusUp          Status = 1
	StatusPending     Status = 2 // set by callers for queued checks, never by the prober
	StatusMaintenance Status = 3
)

// Label returns the upper-case label used in logs. Values outside the enum are
// an error rather than "UNKNOWN".
func (s Status) Label() (string, error) {
	switch s {
	case StatusDown:
		return "DOWN", nil
	case StatusUp:
		return "UP", nil
	case StatusPending:
		return "PENDING", nil
	case StatusMaintenance:
		return "MAINTENANCE", nil
	}
	return "", fmt.Errorf("unrecognized status code %d", int(s))
}

func (s Status) Valid() bool {
	_, err := s.Label()
	return err == nil
}

func (s Status) String() string {
	if l, err := s.Label(); err == nil {
		return l
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// CheckResult is the only entity that outlives a check. Field names match the
// uptime_monitor columns.
type CheckResult struct {
	SiteID        SiteID     `json:"site_id"`
	Status        Status     `json:"status"`
	HTTPCode      int        `json:"http_code"`
	TTFBMs        float64    `json:"ttfb_ms"`
	TotalMs       float64    `json:"total_ms"`
	Retries       int        `json:"retries"`
	FailureStreak int        `json:"failure_streak"`
	SSLValid      *bool      `json:"ssl_valid"`  // nil for plain http
	SSLExpiry     *time.Time `json:"ssl_expiry"` // nil when no certificate was seen
	URL           string     `json:"url"`
	Error         string     `json:"error,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// Envelope is the response body returned to the caller.
type Envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    *CheckResult `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
}
