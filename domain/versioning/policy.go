package versioning

import (
	domainconfig "recruiter-backend/domain/config"
)

// Policy holds the tunable behaviors of the versioning engine
type Policy struct {
	// CascadePublishedOnly skips cascade propagation into owners that have
	// never been activated anywhere. Draft content keeps pointing at the
	// version it pinned; only published compositions are re-versioned.
	//
	// Off by default: every owner pinning the edited version cascades.
	CascadePublishedOnly bool

	// Limits bounds document sizes and cascade fan-out. Nil falls back to
	// the default limits.
	Limits *domainconfig.DomainConfig
}

// DefaultPolicy cascades unconditionally under default limits
func DefaultPolicy() Policy {
	return Policy{
		CascadePublishedOnly: false,
		Limits:               domainconfig.DefaultDomainConfig(),
	}
}
