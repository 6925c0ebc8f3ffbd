package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strayfire/scrimhub/internal/events"
	"github.com/strayfire/scrimhub/internal/tournament"
	users "github.com/strayfire/scrimhub/internal/user"
)

// matchFixture wires a tournament with two fielded teams and one pending
// team, generates the bracket, and returns the playable match.
type matchFixture struct {
	env      *testEnv
	trn      *tournament.Tournament
	teamA    *tournament.Team
	teamB    *tournament.Team
	captainA *users.User
	captainB *users.User
	rosterA  *users.User
	rosterB  *users.User
	match    *tournament.Match
}

func newMatchFixture(t *testing.T) *matchFixture {
	t.Helper()
	env := newTestEnv(t)

	f := &matchFixture{
		env:      env,
		captainA: env.createUser(t, "captainA", users.RoleUser),
		captainB: env.createUser(t, "captainB", users.RoleUser),
		rosterA:  env.createUser(t, "rosterA", users.RoleUser),
		rosterB:  env.createUser(t, "rosterB", users.RoleUser),
	}

	f.trn = env.createTournament(t, "Scenario Cup", 4)
	f.teamA = env.fieldTeam(t, f.trn.ID, f.captainA, "Team A", f.rosterA)
	f.teamB = env.fieldTeam(t, f.trn.ID, f.captainB, "Team B", f.rosterB)

	pendingCaptain := env.createUser(t, "pendingCap", users.RoleUser)
	env.registerTeam(t, f.trn.ID, pendingCaptain, "Team C")

	_, err := env.brackets.GenerateBracket(asUser(env.admin), f.trn.ID.String())
	require.NoError(t, err)

	matches, err := env.matches.GetMatches(context.Background(), f.trn.ID.String())
	require.NoError(t, err)
	require.Len(t, matches, 2)

	for i := range matches {
		if matches[i].Team1ID != nil && matches[i].Team2ID != nil {
			f.match = &matches[i]
		}
	}
	require.NotNil(t, f.match, "A and B should be paired, C is pending")

	return f
}

// sideOf maps a team to the score slot it occupies in the fixture match.
func (f *matchFixture) scoresFor(winner *tournament.Team, winning, losing int) (int, int) {
	if *f.match.Team1ID == winner.ID {
		return winning, losing
	}
	return losing, winning
}

func TestMatchLifecycleScenario(t *testing.T) {
	f := newMatchFixture(t)
	env := f.env

	f.env.readyMatch(t, f.match.ID)

	// Report is rejected for outsiders
	outsider := env.createUser(t, "outsider", users.RoleUser)
	score1, score2 := f.scoresFor(f.teamA, 13, 7)
	_, err := env.matchSvc.Report(asUser(outsider), f.match.ID.String(), score1, score2)
	assert.ErrorIs(t, err, tournament.ErrForbidden)

	// Team A's captain reports 13-7
	view, err := env.matchSvc.Report(asUser(f.captainA), f.match.ID.String(), score1, score2)
	require.NoError(t, err)
	assert.Equal(t, tournament.MatchReported, view.Match.Status)
	require.NotNil(t, view.Match.ReportedBy)
	assert.Equal(t, f.captainA.ID, *view.Match.ReportedBy)
	assert.Nil(t, view.Match.WinnerID, "a one-sided report carries no winner")

	// The reporter cannot confirm their own claim
	_, err = env.matchSvc.Confirm(asUser(f.captainA), f.match.ID.String())
	assert.ErrorIs(t, err, tournament.ErrForbidden)

	// Neither can a teammate of the reporter
	_, err = env.matchSvc.Confirm(asUser(f.rosterA), f.match.ID.String())
	assert.ErrorIs(t, err, tournament.ErrForbidden)

	// The opposing side confirms and the claim becomes authoritative
	view, err = env.matchSvc.Confirm(asUser(f.captainB), f.match.ID.String())
	require.NoError(t, err)
	assert.Equal(t, tournament.MatchResolved, view.Match.Status)
	require.NotNil(t, view.Match.WinnerID)
	assert.Equal(t, f.teamA.ID, *view.Match.WinnerID)
	require.NotNil(t, view.Match.ResolvedBy)
	assert.Equal(t, f.captainB.ID, *view.Match.ResolvedBy)

	// Every member of the winning team gets exactly one progress signal
	wins := env.emitter.byType(events.MatchWin)
	winners := make([]uuid.UUID, 0, len(wins))
	for _, ev := range wins {
		winners = append(winners, ev.UserID)
	}
	assert.ElementsMatch(t, []uuid.UUID{f.captainA.ID, f.rosterA.ID}, winners)

	// The audit trail recorded both transitions
	entries, err := env.audit.GetEntries(context.Background(), "match", f.match.ID)
	require.NoError(t, err)
	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, tournament.AuditMatchReport)
	assert.Contains(t, actions, tournament.AuditMatchConfirm)
}

func TestReportValidation(t *testing.T) {
	f := newMatchFixture(t)
	env := f.env

	// Scheduled matches cannot take reports yet
	_, err := env.matchSvc.Report(asUser(f.captainA), f.match.ID.String(), 10, 5)
	assert.ErrorIs(t, err, tournament.ErrInvalidState)

	f.env.readyMatch(t, f.match.ID)

	_, err = env.matchSvc.Report(asUser(f.captainA), f.match.ID.String(), -1, 5)
	assert.ErrorIs(t, err, tournament.ErrInvalidScore)

	_, err = env.matchSvc.Report(asUser(f.captainA), uuid.NewString(), 10, 5)
	assert.ErrorIs(t, err, tournament.ErrNotFound)

	// Officials may report on behalf of a stuck lobby
	_, err = env.matchSvc.Report(asUser(env.admin), f.match.ID.String(), 10, 5)
	require.NoError(t, err)

	// A match with an open slot has no score to take
	matches, err := env.matches.GetMatches(context.Background(), f.trn.ID.String())
	require.NoError(t, err)
	for i := range matches {
		if matches[i].IsBye() {
			env.readyMatch(t, matches[i].ID)
			_, err = env.matchSvc.Report(asUser(env.admin), matches[i].ID.String(), 1, 0)
			assert.ErrorIs(t, err, tournament.ErrInvalidState)
		}
	}
}

func TestConfirmRequiresReport(t *testing.T) {
	f := newMatchFixture(t)
	env := f.env

	f.env.readyMatch(t, f.match.ID)

	_, err := env.matchSvc.Confirm(asUser(f.captainB), f.match.ID.String())
	assert.ErrorIs(t, err, tournament.ErrInvalidState)
}

func TestConfirmTieLeavesNoWinner(t *testing.T) {
	f := newMatchFixture(t)
	env := f.env

	f.env.readyMatch(t, f.match.ID)

	_, err := env.matchSvc.Report(asUser(f.captainA), f.match.ID.String(), 8, 8)
	require.NoError(t, err)

	view, err := env.matchSvc.Confirm(asUser(f.captainB), f.match.ID.String())
	require.NoError(t, err)
	assert.Equal(t, tournament.MatchResolved, view.Match.Status)
	assert.Nil(t, view.Match.WinnerID)

	assert.Empty(t, env.emitter.byType(events.MatchWin), "a tie awards nothing")
}

func TestTerminalImmutability(t *testing.T) {
	f := newMatchFixture(t)
	env := f.env

	f.env.readyMatch(t, f.match.ID)
	score1, score2 := f.scoresFor(f.teamA, 13, 7)

	_, err := env.matchSvc.Report(asUser(f.captainA), f.match.ID.String(), score1, score2)
	require.NoError(t, err)
	_, err = env.matchSvc.Confirm(asUser(f.captainB), f.match.ID.String())
	require.NoError(t, err)

	_, err = env.matchSvc.Report(asUser(f.captainB), f.match.ID.String(), 0, 100)
	assert.ErrorIs(t, err, tournament.ErrInvalidState)

	_, err = env.matchSvc.Confirm(asUser(f.captainB), f.match.ID.String())
	assert.ErrorIs(t, err, tournament.ErrInvalidState)

	// A post-resolution dispute freezes the match but never touches the result
	_, err = env.matchSvc.Dispute(asUser(f.captainB), f.match.ID.String(), "rematch demanded")
	require.NoError(t, err)

	match, err := env.matches.GetMatch(context.Background(), f.match.ID.String())
	require.NoError(t, err)
	assert.Equal(t, score1, *match.Score1)
	assert.Equal(t, score2, *match.Score2)
	require.NotNil(t, match.WinnerID)
	assert.Equal(t, f.teamA.ID, *match.WinnerID)
}

func TestDispute(t *testing.T) {
	f := newMatchFixture(t)
	env := f.env

	f.env.readyMatch(t, f.match.ID)

	_, err := env.matchSvc.Dispute(asUser(f.captainB), f.match.ID.String(), "  ")
	assert.ErrorIs(t, err, tournament.ErrInvalidInput)

	outsider := env.createUser(t, "outsider", users.RoleUser)
	_, err = env.matchSvc.Dispute(asUser(outsider), f.match.ID.String(), "I just disagree")
	assert.ErrorIs(t, err, tournament.ErrForbidden)

	score1, score2 := f.scoresFor(f.teamA, 13, 7)
	_, err = env.matchSvc.Report(asUser(f.captainA), f.match.ID.String(), score1, score2)
	require.NoError(t, err)

	view, err := env.matchSvc.Dispute(asUser(f.captainB), f.match.ID.String(), "scores were swapped")
	require.NoError(t, err)
	assert.Equal(t, tournament.MatchDisputed, view.Match.Status)
	assert.Nil(t, view.Match.WinnerID)
	assert.Empty(t, env.emitter.byType(events.MatchWin))

	// Non-officials cannot resolve a disputed match
	_, err = env.matchSvc.Confirm(asUser(f.captainB), f.match.ID.String())
	assert.ErrorIs(t, err, tournament.ErrInvalidState)

	// An official forces a resolution through the confirm path
	view, err = env.matchSvc.Confirm(asUser(env.admin), f.match.ID.String())
	require.NoError(t, err)
	assert.Equal(t, tournament.MatchResolved, view.Match.Status)
	require.NotNil(t, view.Match.WinnerID)
	assert.Equal(t, f.teamA.ID, *view.Match.WinnerID)
}

func TestOfficialMayConfirmOwnReport(t *testing.T) {
	f := newMatchFixture(t)
	env := f.env

	f.env.readyMatch(t, f.match.ID)
	score1, score2 := f.scoresFor(f.teamB, 16, 14)

	_, err := env.matchSvc.Report(asUser(env.admin), f.match.ID.String(), score1, score2)
	require.NoError(t, err)

	view, err := env.matchSvc.Confirm(asUser(env.admin), f.match.ID.String())
	require.NoError(t, err)
	assert.Equal(t, tournament.MatchResolved, view.Match.Status)
	require.NotNil(t, view.Match.WinnerID)
	assert.Equal(t, f.teamB.ID, *view.Match.WinnerID)
}

func TestListMatchesCanModify(t *testing.T) {
	f := newMatchFixture(t)
	env := f.env

	views, err := env.matchSvc.ListMatches(asUser(f.captainA), f.trn.ID.String())
	require.NoError(t, err)
	require.Len(t, views, 2)

	for _, v := range views {
		if v.Match.ID == f.match.ID {
			assert.True(t, v.CanModify)
			require.NotNil(t, v.Team1)
			require.NotNil(t, v.Team2)
		}
	}

	outsider := env.createUser(t, "viewer", users.RoleUser)
	views, err = env.matchSvc.ListMatches(asUser(outsider), f.trn.ID.String())
	require.NoError(t, err)
	for _, v := range views {
		assert.False(t, v.CanModify)
	}
}

func TestScheduleChain(t *testing.T) {
	f := newMatchFixture(t)
	env := f.env

	// Only officials may move matches along the scheduling chain
	_, err := env.matchSvc.Schedule(asUser(f.captainA), f.match.ID.String(), tournament.MatchReady)
	assert.ErrorIs(t, err, tournament.ErrForbidden)

	// live before ready is out of order
	_, err = env.matchSvc.Schedule(asUser(env.admin), f.match.ID.String(), tournament.MatchLive)
	assert.ErrorIs(t, err, tournament.ErrInvalidState)

	view, err := env.matchSvc.Schedule(asUser(env.admin), f.match.ID.String(), tournament.MatchReady)
	require.NoError(t, err)
	assert.Equal(t, tournament.MatchReady, view.Match.Status)

	view, err = env.matchSvc.Schedule(asUser(env.admin), f.match.ID.String(), tournament.MatchLive)
	require.NoError(t, err)
	assert.Equal(t, tournament.MatchLive, view.Match.Status)

	// Reports are accepted from live as well
	_, err = env.matchSvc.Report(asUser(f.captainB), f.match.ID.String(), 2, 3)
	require.NoError(t, err)
}
