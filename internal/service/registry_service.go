package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"
	"github.com/strayfire/scrimhub/internal/events"
	"github.com/strayfire/scrimhub/internal/middleware"
	"github.com/strayfire/scrimhub/internal/store"
	"github.com/strayfire/scrimhub/internal/tournament"
	users "github.com/strayfire/scrimhub/internal/user"
	"github.com/strayfire/scrimhub/internal/utils"
)

// RegistryService owns team registration, approval, and check-in for a
// tournament, plus the admin-controlled gates those flows depend on.
type RegistryService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	teams       *store.TeamStore
	audit       *store.AuditStore
	emitter     events.Emitter
}

func NewRegistryService(db *sqlx.DB, tournaments *store.TournamentStore, teams *store.TeamStore, audit *store.AuditStore, emitter events.Emitter) *RegistryService {
	return &RegistryService{db: db, tournaments: tournaments, teams: teams, audit: audit, emitter: emitter}
}

type TournamentInput struct {
	Name        string `json:"name"`
	MaxTeams    int    `json:"maxTeams"`
	BracketSize int    `json:"bracketSize"`
}

func (s *RegistryService) CreateTournament(ctx context.Context, input TournamentInput) (*tournament.Tournament, error) {
	user := middleware.GetAuthenticatedUser(ctx)
	if user == nil {
		return nil, tournament.ErrUnauthenticated
	}
	if !user.IsOfficial() {
		return nil, fmt.Errorf("only officials can create tournaments: %w", tournament.ErrForbidden)
	}

	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("tournament name is required: %w", tournament.ErrInvalidInput)
	}
	if input.MaxTeams <= 0 {
		input.MaxTeams = 16
	}
	if input.BracketSize <= 0 {
		input.BracketSize = input.MaxTeams
	}
	// A single-elimination bracket needs a power-of-two slot count; an odd
	// size would truncate a pairing slot away.
	input.BracketSize = calcBracketSize(input.BracketSize)

	t := &tournament.Tournament{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		MaxTeams:    input.MaxTeams,
		BracketSize: input.BracketSize,
		Status:      tournament.StatusUpcoming,
	}
	if err := s.tournaments.CreateTournament(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return t, nil
}

type TeamInput struct {
	Name             string      `json:"name"`
	MemberUserIDs    []uuid.UUID `json:"memberUserIds"`
	CaptainDiscordID string      `json:"captainDiscordId"`
}

// RegisterTeam creates a pending team captained by the caller, with a fresh
// check-in code. The code is the credential the roster later presents at
// check-in, so it is generated here and never reused.
func (s *RegistryService) RegisterTeam(ctx context.Context, tournamentID string, input TeamInput) (*tournament.Team, error) {
	user := middleware.GetAuthenticatedUser(ctx)
	if user == nil {
		return nil, tournament.ErrUnauthenticated
	}

	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("team name is required: %w", tournament.ErrInvalidInput)
	}

	t, err := s.tournaments.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if !t.RegistrationOpen {
		return nil, tournament.ErrRegistrationClosed
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	count, err := s.teams.CountTeamsTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count teams: %w", err)
	}
	if count >= t.MaxTeams {
		return nil, tournament.ErrTournamentFull
	}

	captainDiscordID := utils.StringOrNil(input.CaptainDiscordID)
	if captainDiscordID == nil && utils.OrZero(user.Provider) == "discord" {
		captainDiscordID = user.ProviderID
	}

	team := &tournament.Team{
		ID:               uuid.New(),
		TournamentID:     t.ID,
		Name:             strings.TrimSpace(input.Name),
		CaptainUserID:    user.ID,
		CaptainDiscordID: captainDiscordID,
		CheckInCode:      xid.New().String(),
		Status:           tournament.TeamPending,
	}
	if err := s.teams.CreateTeam(ctx, tx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	var members []tournament.TeamMember
	seen := map[uuid.UUID]bool{user.ID: true}
	for _, memberID := range input.MemberUserIDs {
		if seen[memberID] {
			continue
		}
		seen[memberID] = true
		members = append(members, tournament.TeamMember{
			ID:     uuid.New(),
			TeamID: team.ID,
			UserID: memberID,
		})
	}
	if err := s.teams.CreateTeamMembers(ctx, tx, members); err != nil {
		return nil, fmt.Errorf("failed to create team members: %w", err)
	}

	if err := s.audit.Append(ctx, tx, user.ID, tournament.AuditTeamRegister, "team", team.ID, map[string]any{
		"tournament_id": t.ID,
		"name":          team.Name,
	}); err != nil {
		return nil, fmt.Errorf("failed to write audit entry: %w", err)
	}

	return team, tx.Commit()
}

// CheckIn flips a team to checked-in when its code is presented for the
// right tournament, the team is approved, and the check-in gate is open.
func (s *RegistryService) CheckIn(ctx context.Context, tournamentID, code string) (*tournament.Team, error) {
	user := middleware.GetAuthenticatedUser(ctx)
	if user == nil {
		return nil, tournament.ErrUnauthenticated
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("check-in code is required: %w", tournament.ErrInvalidInput)
	}

	team, err := s.teams.GetTeamByCheckInCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if team.TournamentID.String() != tournamentID {
		return nil, tournament.ErrTournamentMismatch
	}

	// The gate outranks team state: a closed gate answers the same no matter
	// who asks or whether their team was ever approved.
	t, err := s.tournaments.GetTournament(ctx, team.TournamentID.String())
	if err != nil {
		return nil, err
	}
	if !t.CheckInOpen {
		return nil, tournament.ErrCheckInClosed
	}
	if team.Status != tournament.TeamApproved {
		return nil, tournament.ErrNotApproved
	}
	// Re-presenting the code is a no-op, not a second reward signal
	if team.Eligible() {
		return team, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.teams.SetCheckedIn(ctx, tx, team.ID); err != nil {
		return nil, fmt.Errorf("failed to check team in: %w", err)
	}
	if err := s.audit.Append(ctx, tx, user.ID, tournament.AuditTeamCheckIn, "team", team.ID, nil); err != nil {
		return nil, fmt.Errorf("failed to write audit entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	team.IsCheckedIn = true
	s.emitter.Emit(events.Event{Type: events.CheckIn, UserID: team.CaptainUserID, TournamentID: team.TournamentID})
	return team, nil
}

func (s *RegistryService) ListEligibleTeams(ctx context.Context, tournamentID string) ([]tournament.Team, error) {
	if _, err := s.tournaments.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.teams.GetEligibleTeams(ctx, tournamentID)
}

func (s *RegistryService) ListTeams(ctx context.Context, tournamentID string) ([]tournament.Team, error) {
	if _, err := s.tournaments.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.teams.GetTeamsByTournament(ctx, tournamentID)
}

// SetTeamApproval approves or rejects a pending team. Official only.
func (s *RegistryService) SetTeamApproval(ctx context.Context, teamID string, approve bool) (*tournament.Team, error) {
	user, err := requireOfficial(ctx)
	if err != nil {
		return nil, err
	}

	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	status := tournament.TeamRejected
	action := tournament.AuditTeamReject
	if approve {
		status = tournament.TeamApproved
		action = tournament.AuditTeamApprove
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.teams.SetTeamStatus(ctx, tx, team.ID, status); err != nil {
		return nil, fmt.Errorf("failed to update team status: %w", err)
	}
	if err := s.audit.Append(ctx, tx, user.ID, action, "team", team.ID, nil); err != nil {
		return nil, fmt.Errorf("failed to write audit entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	team.Status = status
	return team, nil
}

// SetGates opens or closes the registration and check-in gates. Official
// only; nil leaves a gate unchanged.
func (s *RegistryService) SetGates(ctx context.Context, tournamentID string, registrationOpen, checkInOpen *bool) (*tournament.Tournament, error) {
	user, err := requireOfficial(ctx)
	if err != nil {
		return nil, err
	}

	t, err := s.tournaments.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.tournaments.SetGates(ctx, tx, tournamentID, registrationOpen, checkInOpen); err != nil {
		return nil, fmt.Errorf("failed to update gates: %w", err)
	}
	if err := s.audit.Append(ctx, tx, user.ID, tournament.AuditGatesUpdate, "tournament", t.ID, map[string]any{
		"registration_open": registrationOpen,
		"check_in_open":     checkInOpen,
	}); err != nil {
		return nil, fmt.Errorf("failed to write audit entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.tournaments.GetTournament(ctx, tournamentID)
}

func requireOfficial(ctx context.Context) (*users.User, error) {
	user := middleware.GetAuthenticatedUser(ctx)
	if user == nil {
		return nil, tournament.ErrUnauthenticated
	}
	if !user.IsOfficial() {
		return nil, fmt.Errorf("official role required: %w", tournament.ErrForbidden)
	}
	return user, nil
}
