// Package config holds configurable business limits for content documents
// and cascade propagation.
package config

// DomainConfig bounds document sizes and cascade fan-out. Limits exist to
// keep a single bad write from monopolizing the table; a value of 0 disables
// the corresponding check.
type DomainConfig struct {
	// Content constraints
	MaxContentBytes          int
	MaxNameLength            int
	MaxReferencesPerDocument int

	// Cascade constraints
	MaxCascadeOwners int

	// Query constraints
	MaxHistoryPageSize int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxContentBytes:          256 * 1024,
		MaxNameLength:            200,
		MaxReferencesPerDocument: 200,
		MaxCascadeOwners:         1000,
		MaxHistoryPageSize:       200,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()

	cfg.MaxContentBytes = 128 * 1024
	cfg.MaxReferencesPerDocument = 100
	cfg.MaxCascadeOwners = 500

	return cfg
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()

	cfg.MaxContentBytes = 1024 * 1024
	cfg.MaxCascadeOwners = 0

	return cfg
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}
