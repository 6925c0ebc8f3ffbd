package tournament

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusLive      Status = "live"
	StatusCompleted Status = "completed"
)

type Tournament struct {
	ID          uuid.UUID  `db:"id"`
	Name        string     `db:"name"`
	StartsAt    *time.Time `db:"starts_at"`
	EndsAt      *time.Time `db:"ends_at"`
	MaxTeams    int        `db:"max_teams"`
	BracketSize int        `db:"bracket_size"`

	// Two independent admin-controlled gates
	RegistrationOpen bool `db:"registration_open"`
	CheckInOpen      bool `db:"check_in_open"`

	Status    Status    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}
