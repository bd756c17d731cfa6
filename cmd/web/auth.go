package main

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AdamBeresnev/aibuilders/internal/authstate"
	"github.com/AdamBeresnev/aibuilders/internal/httputil"
	"github.com/AdamBeresnev/aibuilders/internal/middleware"
	"github.com/AdamBeresnev/aibuilders/internal/service"
	users "github.com/AdamBeresnev/aibuilders/internal/user"
	"github.com/AdamBeresnev/aibuilders/internal/utils"
	"github.com/AdamBeresnev/aibuilders/views"
	"github.com/go-chi/chi/v5"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
)

// Session keys carrying the sign-up choice across the OAuth round trip.
const (
	oauthTypeKey     = "oauth_type"
	oauthRedirectKey = "oauth_redirect"
)

// landingPath is where a freshly signed-in user goes: the preserved path if
// it is local, otherwise their dashboard.
func landingPath(user *users.User, redirect string) string {
	fallback := "/"
	if user.Role != nil {
		fallback = user.Role.DashboardPath()
	}
	return utils.SafeRedirect(redirect, fallback)
}

func (app *application) startSession(r *http.Request, user *users.User, kind authstate.EventKind, method string) error {
	if err := app.sessions.RenewToken(r.Context()); err != nil {
		return err
	}
	app.sessions.Put(r.Context(), middleware.SessionUserIDKey, user.ID.String())
	app.hub.Publish(authstate.Event{Kind: kind, UserID: user.ID, Role: user.Role, Method: method, At: time.Now().UTC()})
	return nil
}

func (app *application) loginPage(w http.ResponseWriter, r *http.Request) {
	redirect := r.URL.Query().Get("redirect")
	if user := middleware.GetAuthenticatedUser(r.Context()); user != nil && user.Role != nil {
		http.Redirect(w, r, landingPath(user, redirect), http.StatusFound)
		return
	}
	views.Render(w, r, http.StatusOK, views.LoginPage(redirect, "", ""))
}

func (app *application) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}
	email := r.PostForm.Get("email")
	redirect := r.PostForm.Get("redirect")

	user, err := app.users.SignIn(r.Context(), email, r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			views.Render(w, r, http.StatusUnauthorized, views.LoginPage(redirect, email, "Invalid email or password"))
			return
		}
		httputil.InternalServerError(w, "Failed to sign in", err)
		return
	}

	if err := app.startSession(r, user, authstate.SignedIn, "password"); err != nil {
		httputil.InternalServerError(w, "Failed to start session", err)
		return
	}
	http.Redirect(w, r, landingPath(user, redirect), http.StatusFound)
}

func (app *application) signupPage(w http.ResponseWriter, r *http.Request) {
	role, err := users.ParseRole(r.URL.Query().Get("type"))
	if err != nil {
		role = users.RoleCandidate
	}
	views.Render(w, r, http.StatusOK, views.SignupPage(views.SignupForm{Type: role}))
}

func (app *application) signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}
	input := service.SignUpInput{
		Name:           r.PostForm.Get("name"),
		Email:          r.PostForm.Get("email"),
		Password:       r.PostForm.Get("password"),
		Role:           r.PostForm.Get("type"),
		CompanyName:    r.PostForm.Get("company_name"),
		GithubUsername: r.PostForm.Get("github_username"),
	}
	form := views.SignupForm{
		Type:           users.Role(input.Role),
		Name:           input.Name,
		Email:          input.Email,
		CompanyName:    input.CompanyName,
		GithubUsername: input.GithubUsername,
	}

	user, err := app.users.SignUp(r.Context(), input)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			form.Errors = verr.Fields
			views.Render(w, r, http.StatusBadRequest, views.SignupPage(form))
		case errors.Is(err, service.ErrEmailTaken):
			form.Errors = map[string]string{"email": "is already registered"}
			views.Render(w, r, http.StatusConflict, views.SignupPage(form))
		default:
			httputil.InternalServerError(w, "Failed to sign up", err)
		}
		return
	}

	if err := app.startSession(r, user, authstate.SignedUp, "password"); err != nil {
		httputil.InternalServerError(w, "Failed to start session", err)
		return
	}
	http.Redirect(w, r, user.Role.DashboardPath(), http.StatusFound)
}

func (app *application) logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if err := app.sessions.Destroy(r.Context()); err != nil {
		slog.Error("failed to destroy session", "error", err)
	}
	if user != nil {
		app.hub.Publish(authstate.Event{Kind: authstate.SignedOut, UserID: user.ID, Role: user.Role, At: time.Now().UTC()})
	}

	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (app *application) beginOAuth(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if _, err := goth.GetProvider(provider); err != nil {
		httputil.NotFound(w, "Unknown sign-in provider", err)
		return
	}

	if role, err := users.ParseRole(r.URL.Query().Get("type")); err == nil {
		app.sessions.Put(r.Context(), oauthTypeKey, string(role))
	}
	if redirect := r.URL.Query().Get("redirect"); redirect != "" {
		app.sessions.Put(r.Context(), oauthRedirectKey, redirect)
	}

	gothic.BeginAuthHandler(w, gothic.GetContextWithProvider(r, provider))
}

func (app *application) completeOAuth(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	r = gothic.GetContextWithProvider(r, provider)

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		httputil.BadRequest(w, "Authentication failure", err)
		return
	}

	var role *users.Role
	if picked, err := users.ParseRole(app.sessions.PopString(r.Context(), oauthTypeKey)); err == nil {
		role = &picked
	}
	redirect := app.sessions.PopString(r.Context(), oauthRedirectKey)

	user, err := app.users.FindOrCreateUserByProvider(r.Context(), gothUser, role)
	if err != nil {
		httputil.InternalServerError(w, "Failed to find or create user", err)
		return
	}

	if err := app.startSession(r, user, authstate.SignedIn, provider); err != nil {
		httputil.InternalServerError(w, "Failed to start session", err)
		return
	}
	http.Redirect(w, r, landingPath(user, redirect), http.StatusFound)
}
