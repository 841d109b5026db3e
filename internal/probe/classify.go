package probe

import "github.com/hamed0406/uptimeprobe/internal/domain"

// Classify maps the terminal attempt to a status. Maintenance wins over any
// probe outcome; PENDING is never produced here.
func Classify(final Attempt, maintenance bool) domain.Status {
	switch {
	case maintenance:
		return domain.StatusMaintenance
	case final.Responded() && final.HTTPCode >= 200 && final.HTTPCode <= 399:
		return domain.StatusUp
	default:
		// an erroring server and an unreachable one are both DOWN
		return domain.StatusDown
	}
}
