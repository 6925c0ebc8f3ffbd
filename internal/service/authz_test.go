package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strayfire/scrimhub/internal/tournament"
	users "github.com/strayfire/scrimhub/internal/user"
)

func TestResolveRole(t *testing.T) {
	env := newTestEnv(t)

	captain1 := env.createUser(t, "captain1", users.RoleUser)
	roster1 := env.createUser(t, "roster1", users.RoleUser)
	captain2 := env.createUser(t, "captain2", users.RoleUser)
	mod := env.createUser(t, "mod", users.RoleModerator)
	stranger := env.createUser(t, "stranger", users.RoleUser)

	// Holds the Discord identity team 2 was registered under, without being
	// the captain record or appearing on the roster.
	discordTwin := env.createDiscordUser(t, "twin", "discord-222")

	trn := env.createTournament(t, "Resolver Cup", 4)
	team1 := env.fieldTeam(t, trn.ID, captain1, "Alpha", roster1)

	team2, err := env.registry.RegisterTeam(asUser(captain2), trn.ID.String(), TeamInput{
		Name:             "Bravo",
		CaptainDiscordID: "discord-222",
	})
	require.NoError(t, err)
	_, err = env.registry.SetTeamApproval(asUser(env.admin), team2.ID.String(), true)
	require.NoError(t, err)
	team2, err = env.registry.CheckIn(asUser(captain2), trn.ID.String(), team2.CheckInCode)
	require.NoError(t, err)

	_, err = env.brackets.GenerateBracket(asUser(env.admin), trn.ID.String())
	require.NoError(t, err)

	matches, err := env.matches.GetMatches(context.Background(), trn.ID.String())
	require.NoError(t, err)

	var match *tournament.Match
	for i := range matches {
		if matches[i].Team1ID != nil && matches[i].Team2ID != nil {
			match = &matches[i]
		}
	}
	require.NotNil(t, match, "expected the two fielded teams to be paired")

	side := func(teamID tournament.Team, role MatchRole) bool {
		if *match.Team1ID == teamID.ID {
			return role.Team1
		}
		return role.Team2
	}

	authz := NewAuthorizer(env.users, env.teams)

	testCases := []struct {
		name         string
		user         *users.User
		wantTeam     *tournament.Team
		wantOfficial bool
	}{
		{name: "captain of team 1", user: captain1, wantTeam: team1},
		{name: "roster member of team 1", user: roster1, wantTeam: team1},
		{name: "captain of team 2", user: captain2, wantTeam: team2},
		{name: "discord identity match", user: discordTwin, wantTeam: team2},
		{name: "moderator is official", user: mod, wantOfficial: true},
		{name: "stranger has no role", user: stranger},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			role, err := authz.ResolveRole(context.Background(), tc.user, match)
			require.NoError(t, err)

			assert.Equal(t, tc.wantOfficial, role.Official)
			if tc.wantTeam != nil {
				assert.True(t, side(*tc.wantTeam, role), "expected membership on %s's side", tc.wantTeam.Name)
				assert.True(t, role.Participant())
			} else if !tc.wantOfficial {
				assert.False(t, role.Team1)
				assert.False(t, role.Team2)
				assert.False(t, role.Participant())
			}
		})
	}
}

func TestResolveRoleOfficialAndMember(t *testing.T) {
	env := newTestEnv(t)

	playingMod := env.createUser(t, "playingmod", users.RoleModerator)
	captain2 := env.createUser(t, "cap2", users.RoleUser)

	trn := env.createTournament(t, "Dual Role Cup", 4)
	team1 := env.fieldTeam(t, trn.ID, playingMod, "Mods")
	env.fieldTeam(t, trn.ID, captain2, "Civilians")

	_, err := env.brackets.GenerateBracket(asUser(env.admin), trn.ID.String())
	require.NoError(t, err)

	matches, err := env.matches.GetMatches(context.Background(), trn.ID.String())
	require.NoError(t, err)

	var match *tournament.Match
	for i := range matches {
		if matches[i].Team1ID != nil && matches[i].Team2ID != nil {
			match = &matches[i]
		}
	}
	require.NotNil(t, match)

	authz := NewAuthorizer(env.users, env.teams)
	role, err := authz.ResolveRole(context.Background(), playingMod, match)
	require.NoError(t, err)

	assert.True(t, role.Official)
	onOwnSide := (*match.Team1ID == team1.ID && role.Team1) || (*match.Team2ID == team1.ID && role.Team2)
	assert.True(t, onOwnSide, "official status must not mask team membership")
}
