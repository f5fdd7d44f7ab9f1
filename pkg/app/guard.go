package app

import (
	"net/http"
	"net/url"

	"github.com/sgaunet/s2console/pkg/config"
	"github.com/sgaunet/s2console/pkg/views"
)

// requestGuard checks the session of the request mounting a listing. When it
// answers the request itself (redirect or refusal) handled is set and the
// caller must not render the listing.
type requestGuard struct {
	w        http.ResponseWriter
	r        *http.Request
	user     *config.User
	loginURL string
	handled  bool
}

// CheckLogin redirects anonymous users to the login page and non-admin users
// away from admin listings.
func (g *requestGuard) CheckLogin(level string) {
	switch {
	case g.user == nil || g.user.Name == "":
		g.handled = true
		http.Redirect(g.w, g.r, loginRedirect(g.loginURL, g.r), http.StatusSeeOther)
	case level == LevelAdmin && !g.user.Admin:
		g.handled = true
		target := backTarget(g.r)
		if target == g.r.URL.Path {
			views.HandlerError(g.w, g.r, http.StatusForbidden, g.user.Name, "Access denied")
			return
		}
		http.Redirect(g.w, g.r, target, http.StatusSeeOther)
	}
}

// backTarget is the local page the request came from, or "/".
func backTarget(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || ref.Path == r.URL.Path {
		return "/"
	}
	if ref.Host != "" && ref.Host != r.Host {
		return "/"
	}
	return ref.Path
}

// loginRedirect is loginURL carrying the current page as next.
func loginRedirect(loginURL string, r *http.Request) string {
	u, err := url.Parse(loginURL)
	if err != nil {
		return loginURL
	}
	q := u.Query()
	q.Set("next", r.URL.RequestURI())
	u.RawQuery = q.Encode()
	return u.String()
}

// safeNext keeps only local paths as post-login destinations.
func safeNext(next string) string {
	if next == "" || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return "/"
	}
	return next
}
