package main

import (
	"net/http"
	"strconv"

	"github.com/AdamBeresnev/aibuilders/internal/challenge"
	"github.com/AdamBeresnev/aibuilders/internal/httputil"
	"github.com/AdamBeresnev/aibuilders/internal/judge"
	"github.com/AdamBeresnev/aibuilders/internal/middleware"
	"github.com/AdamBeresnev/aibuilders/internal/service"
	"github.com/AdamBeresnev/aibuilders/internal/video"
	"github.com/AdamBeresnev/aibuilders/views"
	"github.com/go-chi/chi/v5"
)

type submissionResponse struct {
	*challenge.Submission
	DemoEmbed video.EmbedInfo `json:"demo_embed"`
}

func newSubmissionResponse(s *challenge.Submission) submissionResponse {
	return submissionResponse{Submission: s, DemoEmbed: video.GetEmbedInfo(s.DemoURL)}
}

func submissionResponses(subs []challenge.Submission) []submissionResponse {
	out := make([]submissionResponse, len(subs))
	for i := range subs {
		out[i] = newSubmissionResponse(&subs[i])
	}
	return out
}

func (app *application) apiMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		respondError(w, r, service.ErrUnauthenticated)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (app *application) apiListChallenges(w http.ResponseWriter, r *http.Request) {
	challenges, err := app.challenges.ListChallenges(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, challenges)
}

func (app *application) apiGetChallenge(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	c, err := app.challenges.GetChallenge(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (app *application) apiChallengeLeaderboard(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	subs, err := app.challenges.ChallengeLeaderboard(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, views.PrepareLeaderboard(subs))
}

// apiGlobalLeaderboard accepts ?limit= up to the configured maximum.
func (app *application) apiGlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := app.leaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.JSONError(w, http.StatusBadRequest, httputil.ErrorBody{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, app.leaderboardLimit)
	}
	subs, err := app.challenges.GlobalLeaderboard(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, views.PrepareLeaderboard(subs))
}

func (app *application) apiBuilderProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := app.users.GetBuilderProfile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"user":        profile.User,
		"submissions": submissionResponses(profile.Submissions),
	})
}

func (app *application) apiSubmit(w http.ResponseWriter, r *http.Request) {
	var input service.SubmissionInput
	if err := decodeJSON(w, r, &input); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := app.submissions.Submit(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}

	app.recordSubmission(res.Created)
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, newSubmissionResponse(res.Submission))
}

func (app *application) apiMySubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := app.submissions.MySubmissions(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, submissionResponses(subs))
}

func (app *application) apiCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var input service.ChallengeInput
	if err := decodeJSON(w, r, &input); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := app.challenges.CreateChallenge(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (app *application) apiUpdateChallenge(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var input service.ChallengeInput
	if err := decodeJSON(w, r, &input); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := app.challenges.UpdateChallenge(r.Context(), id, input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (app *application) apiSponsorChallenges(w http.ResponseWriter, r *http.Request) {
	challenges, err := app.challenges.ListSponsorChallenges(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, challenges)
}

func (app *application) apiApproveSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	sub, err := app.challenges.ApproveSubmission(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newSubmissionResponse(sub))
}

// judgeAction decodes the body into T and applies it to the caller's panel.
func judgeAction[T any](apply func(r *http.Request, body T) (*judge.Panel, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body T
		if err := decodeJSON(w, r, &body); err != nil {
			respondError(w, r, err)
			return
		}
		panel, err := apply(r, body)
		if err != nil {
			respondError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, panel)
	}
}

func (app *application) apiJudgePanel(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	panel, err := app.judge.Open(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, panel)
}

type rubricRequest struct {
	Category judge.Category `json:"category"`
	Value    float64        `json:"value"`
}

func (app *application) judgeRubric(r *http.Request, body rubricRequest) (*judge.Panel, error) {
	id, err := idParam(r, "id")
	if err != nil {
		return nil, err
	}
	return app.judge.SetRubric(r.Context(), id, body.Category, body.Value)
}

type overrideRequest struct {
	Score float64 `json:"score"`
}

func (app *application) judgeOverride(r *http.Request, body overrideRequest) (*judge.Panel, error) {
	id, err := idParam(r, "id")
	if err != nil {
		return nil, err
	}
	return app.judge.Override(r.Context(), id, body.Score)
}

type badgeRequest struct {
	Badge string `json:"badge"`
}

func (app *application) judgeBadge(r *http.Request, body badgeRequest) (*judge.Panel, error) {
	id, err := idParam(r, "id")
	if err != nil {
		return nil, err
	}
	return app.judge.ToggleBadge(r.Context(), id, body.Badge)
}

type reviewRequest struct {
	Comments string `json:"comments"`
}

func (app *application) judgeReview(r *http.Request, body reviewRequest) (*judge.Panel, error) {
	id, err := idParam(r, "id")
	if err != nil {
		return nil, err
	}
	return app.judge.SubmitReview(r.Context(), id, body.Comments)
}
