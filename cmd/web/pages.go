package main

import (
	"errors"
	"net/http"

	"github.com/AdamBeresnev/aibuilders/internal/challenge"
	"github.com/AdamBeresnev/aibuilders/internal/httputil"
	"github.com/AdamBeresnev/aibuilders/internal/middleware"
	"github.com/AdamBeresnev/aibuilders/internal/service"
	"github.com/AdamBeresnev/aibuilders/views"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (app *application) healthz(w http.ResponseWriter, r *http.Request) {
	if err := app.db.PingContext(r.Context()); err != nil {
		httputil.JSONInternalError(w, "database ping failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	views.Render(w, r, http.StatusNotFound, views.NotFoundPage())
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	challenges, err := app.challenges.ListChallenges(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to list challenges", err)
		return
	}
	subs, err := app.challenges.GlobalLeaderboard(r.Context(), app.leaderboardLimit)
	if err != nil {
		httputil.InternalServerError(w, "Failed to load leaderboard", err)
		return
	}
	views.Render(w, r, http.StatusOK, views.Home(challenges, views.PrepareLeaderboard(subs)))
}

func (app *application) candidateDashboard(w http.ResponseWriter, r *http.Request) {
	subs, err := app.submissions.MySubmissions(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to list submissions", err)
		return
	}
	views.Render(w, r, http.StatusOK, views.CandidateDashboard(subs))
}

func (app *application) sponsorDashboard(w http.ResponseWriter, r *http.Request) {
	challenges, err := app.challenges.ListSponsorChallenges(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to list challenges", err)
		return
	}
	views.Render(w, r, http.StatusOK, views.SponsorDashboard(challenges))
}

func (app *application) recordSubmission(created bool) {
	outcome := "updated"
	if created {
		outcome = "created"
	}
	app.metrics.Submissions.WithLabelValues(outcome).Inc()
}

func (app *application) challengesPage(w http.ResponseWriter, r *http.Request) {
	challenges, err := app.challenges.ListChallenges(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to list challenges", err)
		return
	}
	views.Render(w, r, http.StatusOK, views.ChallengesPage(challenges))
}

// loadChallenge fetches the {id} challenge, answering with the not found
// page when it is missing. ok is false once a response has been written.
func (app *application) loadChallenge(w http.ResponseWriter, r *http.Request) (*challenge.Challenge, bool) {
	id, err := idParam(r, "id")
	if err == nil {
		var c *challenge.Challenge
		if c, err = app.challenges.GetChallenge(r.Context(), id); err == nil {
			return c, true
		}
	}
	if errors.Is(err, service.ErrNotFound) {
		app.notFound(w, r)
	} else {
		httputil.InternalServerError(w, "Failed to load challenge", err)
	}
	return nil, false
}

func (app *application) challengePage(w http.ResponseWriter, r *http.Request) {
	c, ok := app.loadChallenge(w, r)
	if !ok {
		return
	}
	subs, err := app.challenges.ChallengeLeaderboard(r.Context(), c.ID)
	if err != nil {
		httputil.InternalServerError(w, "Failed to load leaderboard", err)
		return
	}
	views.Render(w, r, http.StatusOK, views.ChallengePage(c, views.PrepareLeaderboard(subs)))
}

func (app *application) leaderboardPage(w http.ResponseWriter, r *http.Request) {
	subs, err := app.challenges.GlobalLeaderboard(r.Context(), app.leaderboardLimit)
	if err != nil {
		httputil.InternalServerError(w, "Failed to load leaderboard", err)
		return
	}
	views.Render(w, r, http.StatusOK, views.LeaderboardPage(views.PrepareLeaderboard(subs)))
}

func (app *application) builderPage(w http.ResponseWriter, r *http.Request) {
	profile, err := app.users.GetBuilderProfile(r.Context(), chi.URLParam(r, "username"))
	switch {
	case errors.Is(err, service.ErrNotFound):
		app.notFound(w, r)
		return
	case err != nil:
		httputil.InternalServerError(w, "Failed to load builder", err)
		return
	}
	views.Render(w, r, http.StatusOK, views.BuilderPage(profile.User, profile.Submissions))
}

// submitPage serves /submit/{id} for one challenge and /submit with a
// challenge picker.
func (app *application) submitPage(w http.ResponseWriter, r *http.Request) {
	var form views.SubmitForm
	if chi.URLParam(r, "id") != "" {
		c, ok := app.loadChallenge(w, r)
		if !ok {
			return
		}
		form.Challenge = c
	} else {
		challenges, err := app.challenges.ListChallenges(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to list challenges", err)
			return
		}
		form.Challenges = challenges
	}
	views.Render(w, r, http.StatusOK, views.SubmitPage(form))
}

// submitForm is the browser form counterpart of POST /api/submissions.
// Rejected input re-renders the form with the entered values kept.
func (app *application) submitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}
	input := service.SubmissionInput{
		ChallengeID:     r.PostForm.Get("challenge_id"),
		RepositoryURL:   r.PostForm.Get("repository_url"),
		Description:     r.PostForm.Get("description"),
		DemoURL:         r.PostForm.Get("demo_url"),
		AdditionalNotes: r.PostForm.Get("additional_notes"),
	}
	res, err := app.submissions.Submit(r.Context(), input)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			app.rejectSubmission(w, r, input, verr.Fields)
		case errors.Is(err, service.ErrNotFound):
			app.rejectSubmission(w, r, input, map[string]string{"challenge_id": "is not a known challenge"})
		default:
			httputil.InternalServerError(w, "Failed to submit solution", err)
		}
		return
	}

	app.recordSubmission(res.Created)
	http.Redirect(w, r, "/submission-success?id="+res.Submission.ID.String(), http.StatusSeeOther)
}

func (app *application) rejectSubmission(w http.ResponseWriter, r *http.Request, input service.SubmissionInput, fields map[string]string) {
	form := views.SubmitForm{
		ChallengeID:     input.ChallengeID,
		RepositoryURL:   input.RepositoryURL,
		Description:     input.Description,
		DemoURL:         input.DemoURL,
		AdditionalNotes: input.AdditionalNotes,
		Errors:          fields,
	}
	if id, err := uuid.Parse(input.ChallengeID); err == nil {
		if c, err := app.challenges.GetChallenge(r.Context(), id); err == nil {
			form.Challenge = c
		}
	}
	if form.Challenge == nil {
		challenges, err := app.challenges.ListChallenges(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to list challenges", err)
			return
		}
		form.Challenges = challenges
	}
	views.Render(w, r, http.StatusBadRequest, views.SubmitPage(form))
}

func (app *application) newChallengePage(w http.ResponseWriter, r *http.Request) {
	views.Render(w, r, http.StatusOK, views.NewChallengePage(views.ChallengeForm{Difficulty: "medium"}))
}

// createChallengeForm is the browser form counterpart of POST /api/challenges.
func (app *application) createChallengeForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}
	input := service.ChallengeInput{
		Title:            r.PostForm.Get("title"),
		Description:      r.PostForm.Get("description"),
		Requirements:     r.PostForm.Get("requirements"),
		PrizeAmount:      r.PostForm.Get("prize_amount"),
		PrizeDescription: r.PostForm.Get("prize_description"),
		Category:         r.PostForm.Get("category"),
		Difficulty:       r.PostForm.Get("difficulty"),
		StartDate:        r.PostForm.Get("start_date"),
		Deadline:         r.PostForm.Get("deadline"),
	}
	c, err := app.challenges.CreateChallenge(r.Context(), input)
	if err != nil {
		var verr *service.ValidationError
		if !errors.As(err, &verr) {
			httputil.InternalServerError(w, "Failed to create challenge", err)
			return
		}
		views.Render(w, r, http.StatusBadRequest, views.NewChallengePage(views.ChallengeForm{
			Title:            input.Title,
			Description:      input.Description,
			Requirements:     input.Requirements,
			PrizeAmount:      input.PrizeAmount,
			PrizeDescription: input.PrizeDescription,
			Category:         input.Category,
			Difficulty:       input.Difficulty,
			StartDate:        input.StartDate,
			Deadline:         input.Deadline,
			Errors:           verr.Fields,
		}))
		return
	}
	http.Redirect(w, r, "/challenges/"+c.ID.String(), http.StatusSeeOther)
}

// submissionSuccess shows the stored submission when the id belongs to the
// caller and a generic confirmation otherwise.
func (app *application) submissionSuccess(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	shown := views.SubmissionSuccess(nil)
	if id, err := uuid.Parse(r.URL.Query().Get("id")); err == nil {
		sub, err := app.submissions.GetSubmission(r.Context(), id)
		switch {
		case err == nil && sub.UserID == userID:
			shown = views.SubmissionSuccess(sub)
		case err != nil && !errors.Is(err, service.ErrNotFound):
			httputil.InternalServerError(w, "Failed to load submission", err)
			return
		}
	}
	views.Render(w, r, http.StatusOK, shown)
}
