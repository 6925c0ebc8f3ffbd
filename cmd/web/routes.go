package main

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/markbates/goth/gothic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/strayfire/scrimhub/internal/db"
	"github.com/strayfire/scrimhub/internal/events"
	"github.com/strayfire/scrimhub/internal/httputil"
	"github.com/strayfire/scrimhub/internal/middleware"
	"github.com/strayfire/scrimhub/internal/service"
	"github.com/strayfire/scrimhub/internal/store"
	"github.com/strayfire/scrimhub/internal/tournament"
)

func newRouter(sessionManager *scs.SessionManager, emitter events.Emitter) http.Handler {
	dbConn := db.GetDB()

	userStore := store.NewUserStore(dbConn)
	tournamentStore := store.NewTournamentStore(dbConn)
	teamStore := store.NewTeamStore(dbConn)
	matchStore := store.NewMatchStore(dbConn)
	auditStore := store.NewAuditStore(dbConn)

	authz := service.NewAuthorizer(userStore, teamStore)
	userService := service.NewUserService(dbConn, userStore)
	registryService := service.NewRegistryService(dbConn, tournamentStore, teamStore, auditStore, emitter)
	bracketService := service.NewBracketService(dbConn, tournamentStore, teamStore, matchStore, auditStore)
	matchService := service.NewMatchService(dbConn, matchStore, teamStore, auditStore, authz, emitter)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(sessionManager.LoadAndSave)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessionManager, userStore))
		r.Use(middleware.RateLimit(10, 30))

		r.Post("/auth/token", func(w http.ResponseWriter, r *http.Request) {
			user := middleware.GetAuthenticatedUser(r.Context())
			if user == nil {
				httputil.Unauthenticated(w)
				return
			}
			token, err := middleware.IssueToken(user)
			if err != nil {
				httputil.InternalServerError(w, "Failed to issue token", err)
				return
			}
			httputil.JSON(w, http.StatusOK, map[string]string{"token": token})
		})

		r.Get("/tournaments", func(w http.ResponseWriter, r *http.Request) {
			tournaments, err := tournamentStore.ListTournaments(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to list tournaments", err)
				return
			}
			httputil.JSON(w, http.StatusOK, tournaments)
		})

		r.Post("/tournaments", func(w http.ResponseWriter, r *http.Request) {
			var input service.TournamentInput
			if err := httputil.Decode(r, &input); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			t, err := registryService.CreateTournament(r.Context(), input)
			if err != nil {
				httputil.Error(w, err)
				return
			}
			httputil.JSON(w, http.StatusCreated, t)
		})

		r.Get("/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			t, err := tournamentStore.GetTournament(r.Context(), id)
			if err != nil {
				httputil.Error(w, err)
				return
			}
			teams, err := registryService.ListTeams(r.Context(), id)
			if err != nil {
				httputil.Error(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, map[string]any{"tournament": t, "teams": teams})
		})

		r.Patch("/tournaments/{id}/gates", func(w http.ResponseWriter, r *http.Request) {
			var input struct {
				RegistrationOpen *bool `json:"registrationOpen"`
				CheckInOpen      *bool `json:"checkInOpen"`
			}
			if err := httputil.Decode(r, &input); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			t, err := registryService.SetGates(r.Context(), chi.URLParam(r, "id"), input.RegistrationOpen, input.CheckInOpen)
			if err != nil {
				httputil.Error(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, t)
		})

		r.Post("/tournaments/{id}/teams", func(w http.ResponseWriter, r *http.Request) {
			var input service.TeamInput
			if err := httputil.Decode(r, &input); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			team, err := registryService.RegisterTeam(r.Context(), chi.URLParam(r, "id"), input)
			if err != nil {
				httputil.Error(w, err)
				return
			}
			httputil.JSON(w, http.StatusCreated, team)
		})

		r.Get("/tournaments/{id}/teams", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			var (
				teams []tournament.Team
				err   error
			)
			if r.URL.Query().Get("eligible") != "" {
				teams, err = registryService.ListEligibleTeams(r.Context(), id)
			} else {
				teams, err = registryService.ListTeams(r.Context(), id)
			}
			if err != nil {
				httputil.Error(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, teams)
		})

		r.Post("/tournaments/{id}/check-in", func(w http.ResponseWriter, r *http.Request) {
			var input struct {
				Code string `json:"code"`
			}
			if err := httputil.Decode(r, &input); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			team, err := registryService.CheckIn(r.Context(), chi.URLParam(r, "id"), input.Code)
			if err != nil {
				httputil.Error(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, map[string]any{"teamId": team.ID, "name": team.Name})
		})

		r.Post("/tournaments/{id}/bracket", func(w http.ResponseWriter, r *http.Request) {
			matches, err := bracketService.GenerateBracket(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				httputil.Error(w, err)
				return
			}
			httputil.JSON(w, http.StatusCreated, map[string]int{"matchesCreated": len(matches)})
		})

		r.Get("/tournaments/{id}/matches", func(w http.ResponseWriter, r *http.Request) {
			views, err := matchService.ListMatches(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				httputil.Error(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, views)
		})

		r.Get("/matches/{id}", func(w http.ResponseWriter, r *http.Request) {
			view, err := matchService.GetMatchView(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				httputil.Error(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, view)
		})

		r.Post("/matches/{id}/report", func(w http.ResponseWriter, r *http.Request) {
			var input struct {
				Score1 int `json:"score1"`
				Score2 int `json:"score2"`
			}
			if err := httputil.Decode(r, &input); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			view, err := matchService.Report(r.Context(), chi.URLParam(r, "id"), input.Score1, input.Score2)
			if err != nil {
				httputil.Error(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, view)
		})

		r.Post("/matches/{id}/confirm", func(w http.ResponseWriter, r *http.Request) {
			view, err := matchService.Confirm(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				httputil.Error(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, view)
		})

		r.Post("/matches/{id}/dispute", func(w http.ResponseWriter, r *http.Request) {
			var input struct {
				Reason string `json:"reason"`
			}
			if err := httputil.Decode(r, &input); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			view, err := matchService.Dispute(r.Context(), chi.URLParam(r, "id"), input.Reason)
			if err != nil {
				httputil.Error(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, map[string]any{
				"message": "match disputed, an official will review it",
				"match":   view,
			})
		})

		r.Post("/matches/{id}/status", func(w http.ResponseWriter, r *http.Request) {
			var input struct {
				Status tournament.MatchStatus `json:"status"`
			}
			if err := httputil.Decode(r, &input); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			view, err := matchService.Schedule(r.Context(), chi.URLParam(r, "id"), input.Status)
			if err != nil {
				httputil.Error(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, view)
		})

		r.Post("/teams/{id}/approval", func(w http.ResponseWriter, r *http.Request) {
			var input struct {
				Approve bool `json:"approve"`
			}
			if err := httputil.Decode(r, &input); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			team, err := registryService.SetTeamApproval(r.Context(), chi.URLParam(r, "id"), input.Approve)
			if err != nil {
				httputil.Error(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, team)
		})
	})

	r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothic.BeginAuthHandler(w, r)
	})

	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothUser, err := gothic.CompleteUserAuth(w, r)
		if err != nil {
			httputil.BadRequest(w, "Authentication failure", err)
			return
		}

		user, err := userService.FindOrCreateUserByProvider(r.Context(), gothUser)
		if err != nil {
			httputil.InternalServerError(w, "Failed to find or create user", err)
			return
		}

		sessionManager.Put(r.Context(), "userID", user.ID.String())

		http.Redirect(w, r, "/", http.StatusFound)
	})

	r.Post("/auth/guest", func(w http.ResponseWriter, r *http.Request) {
		user, err := userService.EnsureGuestUser(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to login as guest", err)
			return
		}

		sessionManager.Put(r.Context(), "userID", user.ID.String())
		httputil.JSON(w, http.StatusOK, map[string]string{"userId": user.ID.String()})
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		sessionManager.Destroy(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}
