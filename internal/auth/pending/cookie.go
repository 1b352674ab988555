package pending

import (
	"net/http"
)

// CookieName binds a pending authorization to the browser that started it.
// Browsers drop __Host- cookies that are not Secure, so plain-http
// deployments fall back to InsecureCookieName.
const (
	CookieName         = "__Host-oauth_state"
	InsecureCookieName = "oauth_state"
)

// CookieOptions defines how the state cookie is issued.
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
}

// Name is the cookie name these options issue and read.
func (o CookieOptions) Name() string {
	if o.Secure {
		return CookieName
	}
	return InsecureCookieName
}

func (o CookieOptions) normalize() CookieOptions {
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

// SetCookie issues the state cookie for the lifetime of the authorization.
func SetCookie(
	w http.ResponseWriter,
	state string,
	opts CookieOptions,
) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name(),
		Value:    state,
		Path:     "/", // required for __Host-
		MaxAge:   int(TTL.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// ClearCookie removes the state cookie from the client.
func ClearCookie(
	w http.ResponseWriter,
	opts CookieOptions,
) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// StateFromRequest returns the state cookie value, or "" when absent.
func StateFromRequest(r *http.Request, opts CookieOptions) string {
	c, err := r.Cookie(opts.Name())
	if err != nil {
		return ""
	}
	return c.Value
}
