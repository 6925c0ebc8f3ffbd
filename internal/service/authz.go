package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/strayfire/scrimhub/internal/store"
	"github.com/strayfire/scrimhub/internal/tournament"
	users "github.com/strayfire/scrimhub/internal/user"
)

// MatchRole describes how a user relates to a match. Side membership and
// official status are independent: an official who also plays on team 1 gets
// both flags.
type MatchRole struct {
	Team1    bool
	Team2    bool
	Official bool
}

// Participant reports whether the user may act on the match at all.
func (r MatchRole) Participant() bool {
	return r.Team1 || r.Team2 || r.Official
}

// Authorizer answers "may this user act as team 1, team 2, or an official on
// this match". It is a pure query and performs no writes.
type Authorizer struct {
	users *store.UserStore
	teams *store.TeamStore
}

func NewAuthorizer(users *store.UserStore, teams *store.TeamStore) *Authorizer {
	return &Authorizer{users: users, teams: teams}
}

func (a *Authorizer) ResolveRole(ctx context.Context, user *users.User, match *tournament.Match) (MatchRole, error) {
	role := MatchRole{Official: user.IsOfficial()}

	var err error
	role.Team1, err = a.onSide(ctx, user, match.Team1ID)
	if err != nil {
		return role, err
	}
	role.Team2, err = a.onSide(ctx, user, match.Team2ID)
	return role, err
}

// ResolveRoleByID is ResolveRole for a user not present in the request
// context, such as the author of a past report.
func (a *Authorizer) ResolveRoleByID(ctx context.Context, userID uuid.UUID, match *tournament.Match) (MatchRole, error) {
	user, err := a.users.GetUser(ctx, userID)
	if err != nil {
		return MatchRole{}, fmt.Errorf("failed to resolve reporter: %w", err)
	}
	return a.ResolveRole(ctx, user, match)
}

func (a *Authorizer) onSide(ctx context.Context, user *users.User, teamID *uuid.UUID) (bool, error) {
	if teamID == nil {
		return false, nil
	}
	team, err := a.teams.GetTeam(ctx, teamID.String())
	if err != nil {
		return false, fmt.Errorf("failed to get team %s: %w", teamID, err)
	}
	return a.teams.IsMember(ctx, team, user)
}
