package authsession

import "time"

// Config holds session authenticator configuration.
type Config struct {
	// Secret signs session tokens. Minimum length is enforced by the
	// credential codec at construction.
	Secret string `env:"SESSION_SECRET,required"`

	// FingerprintSalt salts the request fingerprint digest.
	// Falls back to Secret when empty.
	FingerprintSalt string `env:"SESSION_FINGERPRINT_SALT"`

	// CookieName is the base session cookie name. The hardened __Host-
	// prefix is applied automatically under production TLS.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"session"`

	// MaxAge is the session lifetime. Tokens past half of it are rotated
	// on refresh.
	MaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"720h"`

	// Environment is the deployment posture (development, staging, production).
	Environment string `env:"APP_ENV" envDefault:"development"`

	// TLS is true when the deployment is served over HTTPS.
	TLS bool `env:"APP_TLS" envDefault:"false"`
}

// DefaultConfig returns the default configuration without a secret;
// the caller must set one before constructing a Manager.
func DefaultConfig() Config {
	return Config{
		CookieName:  "session",
		MaxAge:      30 * 24 * time.Hour,
		Environment: "development",
	}
}
