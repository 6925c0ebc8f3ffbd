package store

import (
	"context"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"
	"github.com/stretchr/testify/require"
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

	t.Cleanup(func() { database.Close() })
	return database
}

func insertUser(t *testing.T, db *sqlx.DB, username string, provider, providerID *string) *users.User {
	t.Helper()
	u := &users.User{
		ID:         uuid.New(),
		Email:      username + "@example.com",
		Username:   username,
		Role:       users.RoleUser,
		Provider:   provider,
		ProviderID: providerID,
	}
	require.NoError(t, NewUserStore(db).CreateUser(context.Background(), u))
	return u
}

func insertTournament(t *testing.T, db *sqlx.DB) *tournament.Tournament {
	t.Helper()
	trn := &tournament.Tournament{
		ID:          uuid.New(),
		Name:        "Fixture Cup",
		MaxTeams:    8,
		BracketSize: 8,
		Status:      tournament.StatusUpcoming,
	}
	require.NoError(t, NewTournamentStore(db).CreateTournament(context.Background(), trn))
	return trn
}

func insertTeam(t *testing.T, db *sqlx.DB, trnID, captainID uuid.UUID, discordID *string) *tournament.Team {
	t.Helper()
	ctx := context.Background()
	team := &tournament.Team{
		ID:               uuid.New(),
		TournamentID:     trnID,
		Name:             "Team " + xid.New().String()[:4],
		CaptainUserID:    captainID,
		CaptainDiscordID: discordID,
		CheckInCode:      xid.New().String(),
		Status:           tournament.TeamApproved,
	}

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, NewTeamStore(db).CreateTeam(ctx, tx, team))
	require.NoError(t, tx.Commit())
	return team
}

func insertMatch(t *testing.T, db *sqlx.DB, trnID uuid.UUID, team1, team2 *uuid.UUID, status tournament.MatchStatus) *tournament.Match {
	t.Helper()
	ctx := context.Background()
	m := tournament.Match{
		ID:           uuid.New(),
		TournamentID: trnID,
		RoundNumber:  1,
		Team1ID:      team1,
		Team2ID:      team2,
		Status:       tournament.MatchScheduled,
	}

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, NewMatchStore(db).CreateMatches(ctx, tx, []tournament.Match{m}))
	if status != tournament.MatchScheduled {
		_, err = tx.ExecContext(ctx, "UPDATE matches SET status = ? WHERE id = ?", status, m.ID)
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())

	m.Status = status
	return &m
}
