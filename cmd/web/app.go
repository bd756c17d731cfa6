package main

import (
	"log/slog"

	"github.com/AdamBeresnev/aibuilders/internal/authstate"
	"github.com/AdamBeresnev/aibuilders/internal/config"
	"github.com/AdamBeresnev/aibuilders/internal/middleware"
	"github.com/AdamBeresnev/aibuilders/internal/service"
	"github.com/AdamBeresnev/aibuilders/internal/store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
)

type application struct {
	db       *sqlx.DB
	sessions *scs.SessionManager
	hub      *authstate.Hub
	registry *prometheus.Registry
	metrics  *middleware.Metrics

	userStore   *store.UserStore
	users       *service.UserService
	challenges  *service.ChallengeService
	submissions *service.SubmissionService
	judge       *service.JudgeService

	leaderboardLimit int
}

func newApplication(database *sqlx.DB, sessions *scs.SessionManager, hub *authstate.Hub, registry *prometheus.Registry, cfg *config.Config) *application {
	userStore := store.NewUserStore(database)
	challengeStore := store.NewChallengeStore(database)
	submissionStore := store.NewSubmissionStore(database)

	app := &application{
		db:               database,
		sessions:         sessions,
		hub:              hub,
		registry:         registry,
		metrics:          middleware.NewMetrics(registry),
		userStore:        userStore,
		users:            service.NewUserService(userStore, submissionStore),
		challenges:       service.NewChallengeService(challengeStore, submissionStore),
		submissions:      service.NewSubmissionService(challengeStore, submissionStore),
		judge:            service.NewJudgeService(challengeStore, submissionStore, sessions),
		leaderboardLimit: cfg.GlobalLeaderboardLimit,
	}
	app.subscribeAuthEvents()
	return app
}

// subscribeAuthEvents attaches the process-wide auth listeners.
func (app *application) subscribeAuthEvents() {
	app.hub.Subscribe(func(e authstate.Event) {
		slog.Info("auth state changed", "event", e.Kind, "user_id", e.UserID, "method", e.Method)
	})
	app.hub.Subscribe(func(e authstate.Event) {
		app.metrics.AuthEvents.WithLabelValues(string(e.Kind)).Inc()
	})
}
