package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/strayfire/scrimhub/internal/tournament"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, t *tournament.Tournament) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO tournaments (id, name, starts_at, ends_at, max_teams, bracket_size, registration_open, check_in_open, status)
        VALUES (:id, :name, :starts_at, :ends_at, :max_teams, :bracket_size, :registration_open, :check_in_open, :status)`, t)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id string) (*tournament.Tournament, error) {
	var t tournament.Tournament
	err := s.db.GetContext(ctx, &t, "SELECT * FROM tournaments WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tournament %s: %w", id, tournament.ErrNotFound)
		}
		return nil, err
	}
	return &t, nil
}

func (s *TournamentStore) ListTournaments(ctx context.Context) ([]tournament.Tournament, error) {
	var tournaments []tournament.Tournament
	err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments ORDER BY created_at DESC")
	return tournaments, err
}

// SetGates updates only the gates the caller provided; a nil pointer leaves
// that gate untouched.
func (s *TournamentStore) SetGates(ctx context.Context, tx *sqlx.Tx, id string, registrationOpen, checkInOpen *bool) error {
	if registrationOpen != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE tournaments SET registration_open = ? WHERE id = ?", *registrationOpen, id); err != nil {
			return err
		}
	}
	if checkInOpen != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE tournaments SET check_in_open = ? WHERE id = ?", *checkInOpen, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *TournamentStore) UpdateTournamentStatus(ctx context.Context, tx *sqlx.Tx, id string, status tournament.Status) error {
	_, err := tx.ExecContext(ctx, "UPDATE tournaments SET status = ? WHERE id = ?", status, id)
	return err
}
