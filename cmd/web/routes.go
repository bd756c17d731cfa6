package main

import (
	"net/http"

	"github.com/AdamBeresnev/aibuilders/internal/middleware"
	users "github.com/AdamBeresnev/aibuilders/internal/user"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func newRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(app.metrics.Instrument)
	r.Use(app.sessions.LoadAndSave)
	r.Use(middleware.LoadAuthenticatedUser(app.sessions, app.userStore))

	r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", app.healthz)

	r.NotFound(app.notFound)

	r.Get("/", app.home)
	r.Get("/login", app.loginPage)
	r.Post("/login", app.login)
	r.Get("/signup", app.signupPage)
	r.Post("/signup", app.signup)
	r.Post("/logout", app.logout)
	r.Get("/auth/{provider}", app.beginOAuth)
	r.Get("/auth/{provider}/callback", app.completeOAuth)
	r.Get("/challenges", app.challengesPage)
	r.Get("/challenges/{id}", app.challengePage)
	r.Get("/leaderboard", app.leaderboardPage)
	r.Get("/builders/{username}", app.builderPage)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(users.RoleCandidate))
		r.Get("/candidate-dashboard", app.candidateDashboard)
		r.Get("/submit", app.submitPage)
		r.Get("/submit/{id}", app.submitPage)
		r.Post("/submissions", app.submitForm)
		r.Get("/submission-success", app.submissionSuccess)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(users.RoleSponsor))
		r.Get("/sponsor-dashboard", app.sponsorDashboard)
		r.Get("/challenges/new", app.newChallengePage)
		r.Post("/challenges", app.createChallengeForm)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/me", app.apiMe)
		r.Get("/challenges", app.apiListChallenges)
		r.Get("/challenges/{id}", app.apiGetChallenge)
		r.Get("/challenges/{id}/leaderboard", app.apiChallengeLeaderboard)
		r.Get("/leaderboard", app.apiGlobalLeaderboard)
		r.Get("/builders/{username}", app.apiBuilderProfile)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAPIRole(users.RoleCandidate))
			r.Post("/submissions", app.apiSubmit)
			r.Get("/me/submissions", app.apiMySubmissions)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAPIRole(users.RoleSponsor))
			r.Post("/challenges", app.apiCreateChallenge)
			r.Put("/challenges/{id}", app.apiUpdateChallenge)
			r.Get("/sponsor/challenges", app.apiSponsorChallenges)
			r.Post("/submissions/{id}/approve", app.apiApproveSubmission)

			r.Route("/judge/{id}", func(r chi.Router) {
				r.Get("/", app.apiJudgePanel)
				r.Post("/rubric", judgeAction(app.judgeRubric))
				r.Post("/override", judgeAction(app.judgeOverride))
				r.Post("/badges", judgeAction(app.judgeBadge))
				r.Post("/review", judgeAction(app.judgeReview))
			})
		})
	})

	return r
}
