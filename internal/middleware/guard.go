package middleware

import (
	"net/http"
	"net/url"

	"github.com/AdamBeresnev/aibuilders/internal/httputil"
	users "github.com/AdamBeresnev/aibuilders/internal/user"
)

type Decision int

const (
	DecisionAllow Decision = iota
	DecisionLogin
	DecisionDashboard
)

// Resolve decides what a guarded route does for user. A user whose profile
// carries no role is sent to login exactly like an anonymous visitor.
func Resolve(user *users.User, required users.Role) Decision {
	if user == nil || user.Role == nil {
		return DecisionLogin
	}
	if *user.Role != required {
		return DecisionDashboard
	}
	return DecisionAllow
}

// LoginPath keeps the attempted location so sign-in can return to it.
func LoginPath(r *http.Request) string {
	return "/login?redirect=" + url.QueryEscape(r.URL.RequestURI())
}

func redirectTarget(r *http.Request, user *users.User, d Decision) string {
	if d == DecisionDashboard {
		return user.Role.DashboardPath()
	}
	return LoginPath(r)
}

// RequireRole guards browser routes with redirects.
func RequireRole(role users.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetAuthenticatedUser(r.Context())
			d := Resolve(user, role)
			if d == DecisionAllow {
				next.ServeHTTP(w, r)
				return
			}

			target := redirectTarget(r, user, d)
			if r.Header.Get("HX-Request") != "" {
				w.Header().Set("HX-Redirect", target)
				w.WriteHeader(http.StatusOK)
				return
			}
			http.Redirect(w, r, target, http.StatusFound)
		})
	}
}

// RequireAPIRole guards JSON routes. The redirect a browser would have
// followed is reported in the body.
func RequireAPIRole(role users.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetAuthenticatedUser(r.Context())
			d := Resolve(user, role)
			if d == DecisionAllow {
				next.ServeHTTP(w, r)
				return
			}

			status, msg := http.StatusUnauthorized, "authentication required"
			if d == DecisionDashboard {
				status, msg = http.StatusForbidden, "requires "+string(role)+" role"
			}
			httputil.JSONError(w, status, httputil.ErrorBody{
				Error:    msg,
				Redirect: redirectTarget(r, user, d),
			})
		})
	}
}
