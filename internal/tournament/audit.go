package tournament

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the engine.
const (
	AuditTeamRegister    = "team_register"
	AuditTeamApprove     = "team_approve"
	AuditTeamReject      = "team_reject"
	AuditTeamCheckIn     = "team_check_in"
	AuditGatesUpdate     = "tournament_gates_update"
	AuditBracketGenerate = "bracket_generate"
	AuditMatchSchedule   = "match_schedule"
	AuditMatchReport     = "match_report"
	AuditMatchConfirm    = "match_confirm"
	AuditMatchDispute    = "match_dispute"
)

// AuditLogEntry is an append-only record of a state-changing action. Entries
// are written in the same transaction as the mutation they describe and are
// never updated or deleted.
type AuditLogEntry struct {
	ID          uuid.UUID `db:"id"`
	ActorUserID uuid.UUID `db:"actor_user_id"`
	Action      string    `db:"action"`
	EntityType  string    `db:"entity_type"`
	EntityID    uuid.UUID `db:"entity_id"`
	Payload     string    `db:"payload"`
	CreatedAt   time.Time `db:"created_at"`
}
