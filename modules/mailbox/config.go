package mailbox

import "time"

// Config holds the mailbox module settings. OAuth endpoints are
// provider-specific; for Google they are the standard accounts/oauth2 URLs.
type Config struct {
	OAuthClientID     string   `env:"MAILBOX_OAUTH_CLIENT_ID,required"`
	OAuthClientSecret string   `env:"MAILBOX_OAUTH_CLIENT_SECRET,required"`
	OAuthAuthURL      string   `env:"MAILBOX_OAUTH_AUTH_URL,required"`
	OAuthTokenURL     string   `env:"MAILBOX_OAUTH_TOKEN_URL,required"`
	OAuthUserInfoURL  string   `env:"MAILBOX_OAUTH_USERINFO_URL,required"`
	OAuthRedirectURL  string   `env:"MAILBOX_OAUTH_REDIRECT_URL,required"`
	OAuthScopes       []string `env:"MAILBOX_OAUTH_SCOPES" envSeparator:"," envDefault:"email,profile"`

	// StateSecret signs the OAuth state cookie, which carries the subject
	// across the provider round-trip. Minimum 32 characters.
	StateSecret string `env:"MAILBOX_STATE_SECRET,required"`

	// ConnectedRedirectURL is where the browser lands after a successful link.
	ConnectedRedirectURL string `env:"MAILBOX_CONNECTED_REDIRECT_URL" envDefault:"/"`

	// StreamHeartbeat is the cadence of keep-alive comments on the status
	// stream. Keeps intermediaries from reaping idle connections.
	StreamHeartbeat time.Duration `env:"MAILBOX_STREAM_HEARTBEAT" envDefault:"25s"`
}
