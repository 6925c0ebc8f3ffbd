package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/strayfire/scrimhub/internal/tournament"
)

type MatchStore struct {
	db *sqlx.DB
}

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

func (s *MatchStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []tournament.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO matches (id, tournament_id, round_number, team_1_id, team_2_id, status)
		VALUES (:id, :tournament_id, :round_number, :team_1_id, :team_2_id, :status)`, matches)
	return err
}

func (s *MatchStore) GetMatch(ctx context.Context, id string) (*tournament.Match, error) {
	var match tournament.Match
	err := s.db.GetContext(ctx, &match, "SELECT * FROM matches WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("match %s: %w", id, tournament.ErrNotFound)
		}
		return nil, err
	}
	return &match, nil
}

func (s *MatchStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id string) (*tournament.Match, error) {
	var match tournament.Match
	err := tx.GetContext(ctx, &match, "SELECT * FROM matches WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("match %s: %w", id, tournament.ErrNotFound)
		}
		return nil, err
	}
	return &match, nil
}

func (s *MatchStore) GetMatches(ctx context.Context, tournamentID string) ([]tournament.Match, error) {
	var matches []tournament.Match
	err := s.db.SelectContext(ctx, &matches, "SELECT * FROM matches WHERE tournament_id = ? ORDER BY round_number ASC, created_at ASC", tournamentID)
	return matches, err
}

func (s *MatchStore) CountRoundMatchesTx(ctx context.Context, tx *sqlx.Tx, tournamentID string, round int) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM matches WHERE tournament_id = ? AND round_number = ?", tournamentID, round)
	return count, err
}

// The Mark* updates below are compare-and-swap writes: the status
// precondition travels in the WHERE clause, so a transition evaluated
// against stale state affects zero rows instead of clobbering a concurrent
// one. Callers treat a false return as a lost race.

func (s *MatchStore) MarkReported(ctx context.Context, tx *sqlx.Tx, m *tournament.Match) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE matches
		SET score_1 = ?, score_2 = ?, status = ?, reported_by = ?, reported_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		m.Score1, m.Score2, tournament.MatchReported, m.ReportedBy, m.ReportedAt,
		m.ID, tournament.MatchReady, tournament.MatchLive)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	return rows == 1, err
}

func (s *MatchStore) MarkResolved(ctx context.Context, tx *sqlx.Tx, m *tournament.Match, from []tournament.MatchStatus) (bool, error) {
	query, args, err := sqlx.In(`UPDATE matches
		SET winner_id = ?, status = ?, resolved_by = ?, resolved_at = ?
		WHERE id = ? AND status IN (?)`,
		m.WinnerID, tournament.MatchResolved, m.ResolvedBy, m.ResolvedAt, m.ID, from)
	if err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	return rows == 1, err
}

func (s *MatchStore) MarkDisputed(ctx context.Context, tx *sqlx.Tx, m *tournament.Match, observed tournament.MatchStatus) (bool, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE matches SET status = ? WHERE id = ? AND status = ?",
		tournament.MatchDisputed, m.ID, observed)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	return rows == 1, err
}

// AdvanceStatus moves a match along the pre-report scheduling chain.
func (s *MatchStore) AdvanceStatus(ctx context.Context, tx *sqlx.Tx, matchID string, from, to tournament.MatchStatus) (bool, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE matches SET status = ? WHERE id = ? AND status = ?", to, matchID, from)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	return rows == 1, err
}
