package tournament

import (
	"time"

	"github.com/google/uuid"
)

type TeamStatus string

const (
	TeamPending  TeamStatus = "pending"
	TeamApproved TeamStatus = "approved"
	TeamRejected TeamStatus = "rejected"
)

type Team struct {
	ID           uuid.UUID `db:"id"`
	TournamentID uuid.UUID `db:"tournament_id"`
	Name         string    `db:"name"`

	CaptainUserID uuid.UUID `db:"captain_user_id"`

	// Denormalized external identity of the captain, kept for rosters that
	// were imported from Discord before their captain ever logged in here.
	CaptainDiscordID *string `db:"captain_discord_id"`

	// Assigned at registration, unique per tournament, never reused
	CheckInCode string `db:"check_in_code"`

	Status      TeamStatus `db:"status"`
	IsCheckedIn bool       `db:"is_checked_in"`
	CreatedAt   time.Time  `db:"created_at"`
}

// Eligible reports whether the team can enter a bracket.
func (t *Team) Eligible() bool {
	return t.Status == TeamApproved && t.IsCheckedIn
}

type TeamMember struct {
	ID        uuid.UUID `db:"id"`
	TeamID    uuid.UUID `db:"team_id"`
	UserID    uuid.UUID `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}
