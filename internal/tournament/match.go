package tournament

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchReady     MatchStatus = "ready"
	MatchLive      MatchStatus = "live"
	MatchReported  MatchStatus = "reported"
	MatchDisputed  MatchStatus = "disputed"
	MatchResolved  MatchStatus = "resolved"
)

type Match struct {
	ID           uuid.UUID `db:"id"`
	TournamentID uuid.UUID `db:"tournament_id"`
	RoundNumber  int       `db:"round_number"`

	// nil slot = bye (round 1) or TBD (later rounds)
	Team1ID *uuid.UUID `db:"team_1_id"`
	Team2ID *uuid.UUID `db:"team_2_id"`

	Score1   *int        `db:"score_1"`
	Score2   *int        `db:"score_2"`
	WinnerID *uuid.UUID  `db:"winner_id"`
	Status   MatchStatus `db:"status"`

	ReportedBy *uuid.UUID `db:"reported_by"`
	ReportedAt *time.Time `db:"reported_at"`
	ResolvedBy *uuid.UUID `db:"resolved_by"`
	ResolvedAt *time.Time `db:"resolved_at"`

	CreatedAt time.Time `db:"created_at"`
}

// Reportable reports whether a score claim can be filed against the match.
func (m *Match) Reportable() bool {
	return m.Status == MatchReady || m.Status == MatchLive
}

func (m *Match) IsBye() bool {
	return m.Team1ID == nil || m.Team2ID == nil
}

// Winner computes which slot the recorded scores favor. It returns nil when
// either score is missing or the scores are tied: a resolved tie carries no
// winner.
func (m *Match) Winner() *uuid.UUID {
	if m.Score1 == nil || m.Score2 == nil {
		return nil
	}
	switch {
	case *m.Score1 > *m.Score2:
		return m.Team1ID
	case *m.Score2 > *m.Score1:
		return m.Team2ID
	}
	return nil
}
