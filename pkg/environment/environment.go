package environment

// Environment represents the application deployment posture.
type Environment string

const (
	// Development for local development.
	Development Environment = "development"
	// Staging for pre-production deployments.
	Staging Environment = "staging"
	// Production for production deployments.
	Production Environment = "production"
)

// Parse normalizes common environment spellings. Unknown values map to
// Development so a typo never silently enables production behavior.
func Parse(s string) Environment {
	switch s {
	case string(Production), "prod":
		return Production
	case string(Staging), "stage":
		return Staging
	default:
		return Development
	}
}

// IsProduction reports whether the environment is production.
func (e Environment) IsProduction() bool { return e == Production }

// IsDevelopment reports whether the environment is development.
func (e Environment) IsDevelopment() bool { return e == Development }

// IsStaging reports whether the environment is staging.
func (e Environment) IsStaging() bool { return e == Staging }
