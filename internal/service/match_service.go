package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/strayfire/scrimhub/internal/events"
	"github.com/strayfire/scrimhub/internal/metrics"
	"github.com/strayfire/scrimhub/internal/middleware"
	"github.com/strayfire/scrimhub/internal/store"
	"github.com/strayfire/scrimhub/internal/tournament"
	users "github.com/strayfire/scrimhub/internal/user"
)

// MatchService drives a match from a one-sided score claim to an
// authoritative outcome. One side reports, the opposing side (or an
// official) confirms, and only then does the claim become fact.
type MatchService struct {
	db      *sqlx.DB
	matches *store.MatchStore
	teams   *store.TeamStore
	audit   *store.AuditStore
	authz   *Authorizer
	emitter events.Emitter
}

func NewMatchService(db *sqlx.DB, matches *store.MatchStore, teams *store.TeamStore, audit *store.AuditStore, authz *Authorizer, emitter events.Emitter) *MatchService {
	return &MatchService{db: db, matches: matches, teams: teams, audit: audit, authz: authz, emitter: emitter}
}

type TeamSummary struct {
	ID     uuid.UUID   `json:"id"`
	Name   string      `json:"name"`
	Roster []uuid.UUID `json:"roster"`
}

type MatchView struct {
	Match     *tournament.Match `json:"match"`
	Team1     *TeamSummary      `json:"team1,omitempty"`
	Team2     *TeamSummary      `json:"team2,omitempty"`
	CanModify bool              `json:"canModify"`
}

func (s *MatchService) ListMatches(ctx context.Context, tournamentID string) ([]MatchView, error) {
	user := middleware.GetAuthenticatedUser(ctx)
	if user == nil {
		return nil, tournament.ErrUnauthenticated
	}

	matches, err := s.matches.GetMatches(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	views := make([]MatchView, 0, len(matches))
	for i := range matches {
		view, err := s.buildView(ctx, user, &matches[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (s *MatchService) GetMatchView(ctx context.Context, matchID string) (*MatchView, error) {
	user := middleware.GetAuthenticatedUser(ctx)
	if user == nil {
		return nil, tournament.ErrUnauthenticated
	}
	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, user, match)
}

// Report files a one-sided score claim. The claim carries no authority until
// the opposing side confirms it.
func (s *MatchService) Report(ctx context.Context, matchID string, score1, score2 int) (*MatchView, error) {
	user := middleware.GetAuthenticatedUser(ctx)
	if user == nil {
		return nil, tournament.ErrUnauthenticated
	}
	if score1 < 0 || score2 < 0 {
		return nil, tournament.ErrInvalidScore
	}

	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	role, err := s.authz.ResolveRole(ctx, user, match)
	if err != nil {
		return nil, err
	}
	if !role.Participant() {
		return nil, fmt.Errorf("only participants or officials can report a score: %w", tournament.ErrForbidden)
	}
	if !match.Reportable() {
		return nil, fmt.Errorf("match is %s: %w", match.Status, tournament.ErrInvalidState)
	}
	if match.IsBye() {
		return nil, fmt.Errorf("match is missing an opponent: %w", tournament.ErrInvalidState)
	}

	now := time.Now().UTC()
	match.Score1 = &score1
	match.Score2 = &score2
	match.ReportedBy = &user.ID
	match.ReportedAt = &now
	match.Status = tournament.MatchReported

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ok, err := s.matches.MarkReported(ctx, tx, match)
	if err != nil {
		return nil, fmt.Errorf("failed to record report: %w", err)
	}
	if !ok {
		// Lost the race against a concurrent transition
		return nil, fmt.Errorf("match changed concurrently: %w", tournament.ErrInvalidState)
	}

	if err := s.audit.Append(ctx, tx, user.ID, tournament.AuditMatchReport, "match", match.ID, map[string]any{
		"score1": score1,
		"score2": score2,
	}); err != nil {
		return nil, fmt.Errorf("failed to write audit entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.MatchTransitions.WithLabelValues(tournament.AuditMatchReport).Inc()
	return s.buildView(ctx, user, match)
}

// Confirm promotes a reported score to the authoritative outcome. The
// confirming actor must sit on the opposing side from the reporter, or be an
// official; one side asserts, the other attests. Officials may also confirm
// a disputed match to force a resolution.
func (s *MatchService) Confirm(ctx context.Context, matchID string) (*MatchView, error) {
	user := middleware.GetAuthenticatedUser(ctx)
	if user == nil {
		return nil, tournament.ErrUnauthenticated
	}

	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	role, err := s.authz.ResolveRole(ctx, user, match)
	if err != nil {
		return nil, err
	}

	confirmableFrom := []tournament.MatchStatus{tournament.MatchReported}
	if role.Official {
		confirmableFrom = append(confirmableFrom, tournament.MatchDisputed)
	}
	if !statusIn(match.Status, confirmableFrom) {
		return nil, fmt.Errorf("match is %s, not awaiting confirmation: %w", match.Status, tournament.ErrInvalidState)
	}
	if match.ReportedBy == nil {
		return nil, fmt.Errorf("match has no report on record: %w", tournament.ErrInvalidState)
	}

	if !role.Official {
		if !role.Team1 && !role.Team2 {
			return nil, fmt.Errorf("only match participants can confirm: %w", tournament.ErrForbidden)
		}
		if *match.ReportedBy == user.ID {
			return nil, fmt.Errorf("only the opposing team can confirm the score: %w", tournament.ErrForbidden)
		}
		reporterRole, err := s.authz.ResolveRoleByID(ctx, *match.ReportedBy, match)
		if err != nil {
			return nil, err
		}
		if (role.Team1 && reporterRole.Team1) || (role.Team2 && reporterRole.Team2) {
			return nil, fmt.Errorf("only the opposing team can confirm the score: %w", tournament.ErrForbidden)
		}
	}

	now := time.Now().UTC()
	match.WinnerID = match.Winner()
	match.ResolvedBy = &user.ID
	match.ResolvedAt = &now
	match.Status = tournament.MatchResolved

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ok, err := s.matches.MarkResolved(ctx, tx, match, confirmableFrom)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve match: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("match changed concurrently: %w", tournament.ErrInvalidState)
	}

	if err := s.audit.Append(ctx, tx, user.ID, tournament.AuditMatchConfirm, "match", match.ID, map[string]any{
		"winner_id": match.WinnerID,
		"score1":    match.Score1,
		"score2":    match.Score2,
	}); err != nil {
		return nil, fmt.Errorf("failed to write audit entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.MatchTransitions.WithLabelValues(tournament.AuditMatchConfirm).Inc()
	s.emitMatchWin(ctx, match)
	return s.buildView(ctx, user, match)
}

// Dispute halts automatic resolution pending manual review. Any participant
// or official can raise one; the match is frozen until an official forces a
// resolution through the confirm path.
func (s *MatchService) Dispute(ctx context.Context, matchID, reason string) (*MatchView, error) {
	user := middleware.GetAuthenticatedUser(ctx)
	if user == nil {
		return nil, tournament.ErrUnauthenticated
	}
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("dispute reason is required: %w", tournament.ErrInvalidInput)
	}

	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	role, err := s.authz.ResolveRole(ctx, user, match)
	if err != nil {
		return nil, err
	}
	if !role.Participant() {
		return nil, fmt.Errorf("only participants or officials can dispute: %w", tournament.ErrForbidden)
	}

	observed := match.Status

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ok, err := s.matches.MarkDisputed(ctx, tx, match, observed)
	if err != nil {
		return nil, fmt.Errorf("failed to dispute match: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("match changed concurrently: %w", tournament.ErrInvalidState)
	}

	if err := s.audit.Append(ctx, tx, user.ID, tournament.AuditMatchDispute, "match", match.ID, map[string]any{
		"reason": strings.TrimSpace(reason),
	}); err != nil {
		return nil, fmt.Errorf("failed to write audit entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	match.Status = tournament.MatchDisputed
	metrics.MatchTransitions.WithLabelValues(tournament.AuditMatchDispute).Inc()
	return s.buildView(ctx, user, match)
}

// Schedule advances a match along the pre-report chain
// (scheduled -> ready -> live). Official only.
func (s *MatchService) Schedule(ctx context.Context, matchID string, to tournament.MatchStatus) (*MatchView, error) {
	user, err := requireOfficial(ctx)
	if err != nil {
		return nil, err
	}

	var from tournament.MatchStatus
	switch to {
	case tournament.MatchReady:
		from = tournament.MatchScheduled
	case tournament.MatchLive:
		from = tournament.MatchReady
	default:
		return nil, fmt.Errorf("cannot schedule a match into %s: %w", to, tournament.ErrInvalidInput)
	}

	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ok, err := s.matches.AdvanceStatus(ctx, tx, matchID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to advance match: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("match is %s, not %s: %w", match.Status, from, tournament.ErrInvalidState)
	}
	if err := s.audit.Append(ctx, tx, user.ID, tournament.AuditMatchSchedule, "match", match.ID, map[string]any{
		"status": to,
	}); err != nil {
		return nil, fmt.Errorf("failed to write audit entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	match.Status = to
	return s.buildView(ctx, user, match)
}

// emitMatchWin sends a progress signal to every member of the winning team.
// Runs only after the resolution is durably committed; a resolved tie has no
// winner and emits nothing.
func (s *MatchService) emitMatchWin(ctx context.Context, match *tournament.Match) {
	if match.WinnerID == nil {
		return
	}
	memberIDs, err := s.teams.MemberUserIDs(ctx, *match.WinnerID)
	if err != nil {
		// The outcome is already committed; the mission system just misses
		// a progress tick.
		return
	}
	for _, userID := range memberIDs {
		s.emitter.Emit(events.Event{Type: events.MatchWin, UserID: userID, TournamentID: match.TournamentID})
	}
}

func (s *MatchService) buildView(ctx context.Context, user *users.User, match *tournament.Match) (*MatchView, error) {
	role, err := s.authz.ResolveRole(ctx, user, match)
	if err != nil {
		return nil, err
	}

	view := &MatchView{Match: match, CanModify: role.Participant()}

	view.Team1, err = s.teamSummary(ctx, match.Team1ID)
	if err != nil {
		return nil, err
	}
	view.Team2, err = s.teamSummary(ctx, match.Team2ID)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *MatchService) teamSummary(ctx context.Context, teamID *uuid.UUID) (*TeamSummary, error) {
	if teamID == nil {
		return nil, nil
	}
	team, err := s.teams.GetTeam(ctx, teamID.String())
	if err != nil {
		return nil, err
	}
	roster, err := s.teams.MemberUserIDs(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	return &TeamSummary{ID: team.ID, Name: team.Name, Roster: roster}, nil
}

func statusIn(status tournament.MatchStatus, set []tournament.MatchStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
