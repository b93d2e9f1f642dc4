package mailbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/assistkit/pkg/authsession"
	"github.com/dmitrymomot/assistkit/pkg/connstatus"
	"github.com/dmitrymomot/assistkit/pkg/cookie"
	"github.com/dmitrymomot/assistkit/pkg/logger"
	"github.com/dmitrymomot/assistkit/pkg/sessiontoken"
)

// IdentityFetcher resolves the linked account's identity from a fresh OAuth
// token. The default implementation calls the provider's userinfo endpoint;
// tests substitute a stub.
type IdentityFetcher func(ctx context.Context, src oauth2.TokenSource) (connstatus.Identity, error)

// Option configures optional Service collaborators.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithIdentityFetcher overrides how the linked account identity is resolved.
func WithIdentityFetcher(fn IdentityFetcher) Option {
	return func(s *Service) {
		if fn != nil {
			s.identity = fn
		}
	}
}

// WithOAuthEndpoint overrides the endpoint assembled from Config, useful
// with providers exposed via golang.org/x/oauth2 endpoint presets.
func WithOAuthEndpoint(ep oauth2.Endpoint) Option {
	return func(s *Service) { s.oauth.Endpoint = ep }
}

// Service is the HTTP surface of the mailbox account: status snapshot and
// stream endpoints, the OAuth link/unlink flow and session logout.
type Service struct {
	cfg      Config
	store    connstatus.Store
	sessions *authsession.Manager
	cookies  *cookie.Manager
	oauth    *oauth2.Config
	state    *sessiontoken.Codec
	identity IdentityFetcher
	log      *slog.Logger
}

// NewService wires the mailbox module. The cookie manager carries the state
// cookie of the OAuth flow and normally shares the sessions manager's policy.
func NewService(cfg Config, store connstatus.Store, sessions *authsession.Manager, cookies *cookie.Manager, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if sessions == nil {
		return nil, ErrNilSessions
	}
	if cookies == nil {
		return nil, ErrNilCookies
	}
	if cfg.StreamHeartbeat <= 0 {
		cfg.StreamHeartbeat = 25 * time.Second
	}

	stateCodec, err := sessiontoken.New(cfg.StateSecret)
	if err != nil {
		return nil, fmt.Errorf("mailbox: state secret: %w", err)
	}

	s := &Service{
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		cookies:  cookies,
		oauth: &oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
			Scopes:       cfg.OAuthScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.OAuthAuthURL,
				TokenURL: cfg.OAuthTokenURL,
			},
		},
		state: stateCodec,
		log:   slog.Default(),
	}
	s.identity = s.fetchUserInfo

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// fetchUserInfo is the default IdentityFetcher: a GET on the provider's
// userinfo endpoint with the token-authenticated client.
func (s *Service) fetchUserInfo(ctx context.Context, src oauth2.TokenSource) (connstatus.Identity, error) {
	client := oauth2.NewClient(ctx, src)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.OAuthUserInfoURL, nil)
	if err != nil {
		return connstatus.Identity{}, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return connstatus.Identity{}, fmt.Errorf("mailbox: userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return connstatus.Identity{}, fmt.Errorf("mailbox: userinfo returned %d", resp.StatusCode)
	}

	var info struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return connstatus.Identity{}, fmt.Errorf("mailbox: decode userinfo: %w", err)
	}
	if info.Email == "" {
		return connstatus.Identity{}, errors.New("mailbox: userinfo carries no email")
	}

	return connstatus.Identity{
		Email:       info.Email,
		DisplayName: info.Name,
		AvatarURL:   info.Picture,
	}, nil
}

func (s *Service) respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.LogAttrs(context.Background(), slog.LevelError, "encoding response failed", logger.Error(err))
	}
}

func (s *Service) respondError(w http.ResponseWriter, code int, msg string) {
	s.respondJSON(w, code, map[string]string{"error": msg})
}
