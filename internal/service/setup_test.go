package service

import (
	"context"
	"sync"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/strayfire/scrimhub/internal/events"
	"github.com/strayfire/scrimhub/internal/middleware"
	"github.com/strayfire/scrimhub/internal/store"
	"github.com/strayfire/scrimhub/internal/tournament"
	users "github.com/strayfire/scrimhub/internal/user"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	// A second pool connection would see its own empty memory DB
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

// recordingEmitter captures events synchronously for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (e *recordingEmitter) Emit(ev events.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *recordingEmitter) byType(t events.Type) []events.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []events.Event
	for _, ev := range e.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type testEnv struct {
	db       *sqlx.DB
	users    *store.UserStore
	teams    *store.TeamStore
	matches  *store.MatchStore
	audit    *store.AuditStore
	emitter  *recordingEmitter
	registry *RegistryService
	brackets *BracketService
	matchSvc *MatchService

	admin *users.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := setupTestDB(t)
	t.Cleanup(func() { database.Close() })

	userStore := store.NewUserStore(database)
	tournamentStore := store.NewTournamentStore(database)
	teamStore := store.NewTeamStore(database)
	matchStore := store.NewMatchStore(database)
	auditStore := store.NewAuditStore(database)
	emitter := &recordingEmitter{}
	authz := NewAuthorizer(userStore, teamStore)

	admin, err := userStore.GetUser(context.Background(), uuid.MustParse(middleware.SuperUserID))
	require.NoError(t, err)

	return &testEnv{
		db:       database,
		users:    userStore,
		teams:    teamStore,
		matches:  matchStore,
		audit:    auditStore,
		emitter:  emitter,
		registry: NewRegistryService(database, tournamentStore, teamStore, auditStore, emitter),
		brackets: NewBracketService(database, tournamentStore, teamStore, matchStore, auditStore),
		matchSvc: NewMatchService(database, matchStore, teamStore, auditStore, authz, emitter),
		admin:    admin,
	}
}

func asUser(u *users.User) context.Context {
	ctx := context.WithValue(context.Background(), middleware.UserIDKey, u.ID)
	return context.WithValue(ctx, users.UserKey, u)
}

func (env *testEnv) createUser(t *testing.T, username string, role users.Role) *users.User {
	t.Helper()
	u := &users.User{
		ID:       uuid.New(),
		Email:    username + "@example.com",
		Username: username,
		Role:     role,
	}
	require.NoError(t, env.users.CreateUser(context.Background(), u))
	return u
}

func (env *testEnv) createDiscordUser(t *testing.T, username, discordID string) *users.User {
	t.Helper()
	provider := "discord"
	u := &users.User{
		ID:         uuid.New(),
		Email:      username + "@example.com",
		Username:   username,
		Role:       users.RoleUser,
		Provider:   &provider,
		ProviderID: &discordID,
	}
	require.NoError(t, env.users.CreateUser(context.Background(), u))
	return u
}

func (env *testEnv) createTournament(t *testing.T, name string, bracketSize int) *tournament.Tournament {
	t.Helper()
	created, err := env.registry.CreateTournament(asUser(env.admin), TournamentInput{
		Name:        name,
		MaxTeams:    bracketSize,
		BracketSize: bracketSize,
	})
	require.NoError(t, err)

	open := true
	created, err = env.registry.SetGates(asUser(env.admin), created.ID.String(), &open, &open)
	require.NoError(t, err)
	return created
}

// registerTeam creates a team captained by captain with the given roster.
func (env *testEnv) registerTeam(t *testing.T, tournamentID uuid.UUID, captain *users.User, name string, roster ...*users.User) *tournament.Team {
	t.Helper()
	memberIDs := make([]uuid.UUID, 0, len(roster))
	for _, m := range roster {
		memberIDs = append(memberIDs, m.ID)
	}
	team, err := env.registry.RegisterTeam(asUser(captain), tournamentID.String(), TeamInput{
		Name:          name,
		MemberUserIDs: memberIDs,
	})
	require.NoError(t, err)
	return team
}

// fieldTeam registers, approves, and checks in a team in one go.
func (env *testEnv) fieldTeam(t *testing.T, tournamentID uuid.UUID, captain *users.User, name string, roster ...*users.User) *tournament.Team {
	t.Helper()
	team := env.registerTeam(t, tournamentID, captain, name, roster...)

	_, err := env.registry.SetTeamApproval(asUser(env.admin), team.ID.String(), true)
	require.NoError(t, err)

	checkedIn, err := env.registry.CheckIn(asUser(captain), tournamentID.String(), team.CheckInCode)
	require.NoError(t, err)
	return checkedIn
}

// readyMatch advances a scheduled match so scores can be reported against it.
func (env *testEnv) readyMatch(t *testing.T, matchID uuid.UUID) {
	t.Helper()
	_, err := env.matchSvc.Schedule(asUser(env.admin), matchID.String(), tournament.MatchReady)
	require.NoError(t, err)
}
