package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/strayfire/scrimhub/internal/metrics"
	"github.com/strayfire/scrimhub/internal/store"
	"github.com/strayfire/scrimhub/internal/tournament"
)

type BracketService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	teams       *store.TeamStore
	matches     *store.MatchStore
	audit       *store.AuditStore
}

func NewBracketService(db *sqlx.DB, tournaments *store.TournamentStore, teams *store.TeamStore, matches *store.MatchStore, audit *store.AuditStore) *BracketService {
	return &BracketService{db: db, tournaments: tournaments, teams: teams, matches: matches, audit: audit}
}

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func calcBracketSize(count int) int {
	if count <= 0 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}

// pairEligibleTeams shuffles the eligible pool uniformly and pairs
// consecutive teams into bracketSize/2 round-1 slots. Slots past the pool
// get nil opponents (byes).
func pairEligibleTeams(tournamentID uuid.UUID, eligible []tournament.Team, bracketSize int) []tournament.Match {
	shuffled := make([]tournament.Team, len(eligible))
	copy(shuffled, eligible)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	matches := make([]tournament.Match, 0, bracketSize/2)
	for i := 0; i < bracketSize/2; i++ {
		m := tournament.Match{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			RoundNumber:  1,
			Status:       tournament.MatchScheduled,
		}
		if 2*i < len(shuffled) {
			id := shuffled[2*i].ID
			m.Team1ID = &id
		}
		if 2*i+1 < len(shuffled) {
			id := shuffled[2*i+1].ID
			m.Team2ID = &id
		}
		matches = append(matches, m)
	}
	return matches
}

// GenerateBracket creates the round-1 matches for a tournament from its
// eligible teams. It is one-shot: a second invocation is rejected, never
// re-shuffled, since teams rely on the pairings they checked in for.
func (s *BracketService) GenerateBracket(ctx context.Context, tournamentID string) ([]tournament.Match, error) {
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

	existing, err := s.matches.CountRoundMatchesTx(ctx, tx, tournamentID, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing matches: %w", err)
	}
	if existing > 0 {
		return nil, tournament.ErrBracketAlreadyGenerated
	}

	eligible, err := s.teams.GetEligibleTeamsTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible teams: %w", err)
	}
	if len(eligible) < 2 {
		return nil, tournament.ErrInsufficientTeams
	}

	// Re-derive the slot count whenever the stored size cannot seat every
	// eligible team in a slot pair: too small, or odd with a truncating half.
	bracketSize := t.BracketSize
	if bracketSize < len(eligible) || bracketSize%2 != 0 {
		bracketSize = calcBracketSize(len(eligible))
	}

	matches := pairEligibleTeams(t.ID, eligible, bracketSize)

	if err := s.matches.CreateMatches(ctx, tx, matches); err != nil {
		return nil, fmt.Errorf("failed to create matches: %w", err)
	}
	if err := s.tournaments.UpdateTournamentStatus(ctx, tx, tournamentID, tournament.StatusLive); err != nil {
		return nil, fmt.Errorf("failed to update tournament status: %w", err)
	}
	if err := s.audit.Append(ctx, tx, user.ID, tournament.AuditBracketGenerate, "tournament", t.ID, map[string]any{
		"matches_created": len(matches),
		"eligible_teams":  len(eligible),
	}); err != nil {
		return nil, fmt.Errorf("failed to write audit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.BracketsGenerated.Inc()
	return matches, nil
}
