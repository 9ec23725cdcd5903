package domain

import "time"

// SLAStatus colors how long an opportunity has been sitting in its stage.
type SLAStatus string

const (
	SLANominal  SLAStatus = "nominal"
	SLAWarning  SLAStatus = "warning"
	SLACritical SLAStatus = "critical"
)

const (
	slaNominalMaxDays = 3
	slaWarningMaxDays = 7
)

// SLAForDuration classifies a stage duration by whole elapsed days:
// up to 3 nominal, 4 to 7 warning, beyond 7 critical.
func SLAForDuration(d time.Duration) SLAStatus {
	days := int(d / (24 * time.Hour))
	switch {
	case days <= slaNominalMaxDays:
		return SLANominal
	case days <= slaWarningMaxDays:
		return SLAWarning
	default:
		return SLACritical
	}
}

// StageDuration is how long the opportunity has been in its current stage.
// A clock that reads earlier than the entry timestamp yields zero.
func (o *Opportunity) StageDuration(now time.Time) time.Duration {
	d := now.Sub(o.StageEnteredAt)
	if d < 0 {
		return 0
	}
	return d
}

// SLA classifies the current stage duration.
func (o *Opportunity) SLA(now time.Time) SLAStatus {
	return SLAForDuration(o.StageDuration(now))
}
