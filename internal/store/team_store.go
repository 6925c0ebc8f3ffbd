package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/strayfire/scrimhub/internal/tournament"
	users "github.com/strayfire/scrimhub/internal/user"
	"github.com/strayfire/scrimhub/internal/utils"
)

type TeamStore struct {
	db *sqlx.DB
}

func NewTeamStore(db *sqlx.DB) *TeamStore {
	return &TeamStore{db: db}
}

func (s *TeamStore) CreateTeam(ctx context.Context, tx *sqlx.Tx, team *tournament.Team) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO teams (id, tournament_id, name, captain_user_id, captain_discord_id, check_in_code, status, is_checked_in)
        VALUES (:id, :tournament_id, :name, :captain_user_id, :captain_discord_id, :check_in_code, :status, :is_checked_in)`, team)
	return err
}

func (s *TeamStore) CreateTeamMembers(ctx context.Context, tx *sqlx.Tx, members []tournament.TeamMember) error {
	if len(members) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO team_members (id, team_id, user_id)
        VALUES (:id, :team_id, :user_id)`, members)
	return err
}

func (s *TeamStore) GetTeam(ctx context.Context, id string) (*tournament.Team, error) {
	var team tournament.Team
	err := s.db.GetContext(ctx, &team, "SELECT * FROM teams WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("team %s: %w", id, tournament.ErrNotFound)
		}
		return nil, err
	}
	return &team, nil
}

// GetTeamByCheckInCode looks a team up by its code across all tournaments;
// the caller decides whether a cross-tournament hit is a mismatch.
func (s *TeamStore) GetTeamByCheckInCode(ctx context.Context, code string) (*tournament.Team, error) {
	var team tournament.Team
	err := s.db.GetContext(ctx, &team, "SELECT * FROM teams WHERE check_in_code = ?", code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("check-in code: %w", tournament.ErrNotFound)
		}
		return nil, err
	}
	return &team, nil
}

func (s *TeamStore) GetTeamsByTournament(ctx context.Context, tournamentID string) ([]tournament.Team, error) {
	var teams []tournament.Team
	err := s.db.SelectContext(ctx, &teams, "SELECT * FROM teams WHERE tournament_id = ? ORDER BY created_at ASC", tournamentID)
	return teams, err
}

// GetEligibleTeams returns the teams that may enter the bracket: approved and
// checked in.
func (s *TeamStore) GetEligibleTeams(ctx context.Context, tournamentID string) ([]tournament.Team, error) {
	var teams []tournament.Team
	err := s.db.SelectContext(ctx, &teams,
		"SELECT * FROM teams WHERE tournament_id = ? AND status = ? AND is_checked_in = 1 ORDER BY created_at ASC",
		tournamentID, tournament.TeamApproved)
	return teams, err
}

// GetEligibleTeamsTx reads the eligible pool inside a transaction so bracket
// generation sees a stable snapshot.
func (s *TeamStore) GetEligibleTeamsTx(ctx context.Context, tx *sqlx.Tx, tournamentID string) ([]tournament.Team, error) {
	var teams []tournament.Team
	err := tx.SelectContext(ctx, &teams,
		"SELECT * FROM teams WHERE tournament_id = ? AND status = ? AND is_checked_in = 1 ORDER BY created_at ASC",
		tournamentID, tournament.TeamApproved)
	return teams, err
}

func (s *TeamStore) CountTeamsTx(ctx context.Context, tx *sqlx.Tx, tournamentID string) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM teams WHERE tournament_id = ?", tournamentID)
	return count, err
}

func (s *TeamStore) SetCheckedIn(ctx context.Context, tx *sqlx.Tx, teamID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, "UPDATE teams SET is_checked_in = 1 WHERE id = ?", teamID)
	return err
}

func (s *TeamStore) SetTeamStatus(ctx context.Context, tx *sqlx.Tx, teamID uuid.UUID, status tournament.TeamStatus) error {
	_, err := tx.ExecContext(ctx, "UPDATE teams SET status = ? WHERE id = ?", status, teamID)
	return err
}

// IsMember is the single membership capability query: it treats the captain
// field, the roster table, and the captain's stored Discord identity as one
// membership source so callers never see the storage split.
func (s *TeamStore) IsMember(ctx context.Context, team *tournament.Team, user *users.User) (bool, error) {
	if team.CaptainUserID == user.ID {
		return true, nil
	}

	if team.CaptainDiscordID != nil &&
		utils.EqualPtr(user.Provider, "discord") &&
		utils.EqualPtr(user.ProviderID, *team.CaptainDiscordID) {
		return true, nil
	}

	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM team_members WHERE team_id = ? AND user_id = ?", team.ID, user.ID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MemberUserIDs returns the captain plus every roster member, deduplicated.
func (s *TeamStore) MemberUserIDs(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error) {
	team, err := s.GetTeam(ctx, teamID.String())
	if err != nil {
		return nil, err
	}

	var memberIDs []uuid.UUID
	err = s.db.SelectContext(ctx, &memberIDs,
		"SELECT user_id FROM team_members WHERE team_id = ?", teamID)
	if err != nil {
		return nil, err
	}

	ids := []uuid.UUID{team.CaptainUserID}
	for _, id := range memberIDs {
		if id != team.CaptainUserID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
