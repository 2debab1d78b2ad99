package domain

import "time"

// SLATarget holds the response and resolution windows for one priority tier.
type SLATarget struct {
	Response   time.Duration
	Resolution time.Duration
}

// SLAPolicy is a named, tenant-owned SLA configuration. It is immutable once
// loaded; tickets reference a policy, they never embed one.
type SLAPolicy struct {
	ID                      string
	Name                    string
	Targets                 map[TicketPriority]SLATarget
	WarningThresholdPercent float64
}
