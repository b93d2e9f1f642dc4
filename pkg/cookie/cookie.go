package cookie

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// Manager reads and writes cookies with posture-derived default attributes.
// It carries no secrets: values that need tamper resistance are signed by the
// caller before they reach the transport layer.
type Manager struct {
	policy   Policy
	defaults Options
}

// New creates a cookie manager for the given deployment posture.
// Additional options adjust the derived defaults (explicit overrides win).
func New(policy Policy, opts ...Option) *Manager {
	return &Manager{
		policy:   policy,
		defaults: applyOptions(policy.Defaults(), opts),
	}
}

// Policy returns the posture the manager was built with.
func (m *Manager) Policy() Policy { return m.policy }

// Name maps a base cookie name through the posture's naming rule.
func (m *Manager) Name(base string) string { return m.policy.Name(base) }

// Set writes the cookie, defaulting unset attributes from the posture.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) {
	options := applyOptions(m.defaults, opts)

	// The __Host- prefix is browser-enforced: it requires Secure, Path=/
	// and no Domain. Clamp rather than emit a cookie browsers will reject.
	if strings.HasPrefix(name, hostPrefix) {
		options.Secure = true
		options.Path = "/"
		options.Domain = ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	})
}

// Get returns the raw cookie value. Absence is reported as ErrCookieNotFound.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return cookie.Value, nil
}

// Delete expires the cookie immediately, mirroring the attributes used on Set
// so the browser matches and removes the right cookie.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	options := m.defaults
	if strings.HasPrefix(name, hostPrefix) {
		options.Secure = true
		options.Path = "/"
		options.Domain = ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	})
}
