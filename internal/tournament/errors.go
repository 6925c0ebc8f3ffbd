package tournament

import "errors"

// All engine failures are recoverable by the caller: the entity under
// mutation is left untouched and the operation may be retried once the
// violated precondition is corrected.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("operation not valid for current status")
	ErrInvalidScore    = errors.New("scores must be non-negative integers")
	ErrInvalidInput    = errors.New("invalid input")

	ErrInsufficientTeams       = errors.New("at least two eligible teams are required")
	ErrBracketAlreadyGenerated = errors.New("bracket has already been generated")

	ErrTournamentMismatch = errors.New("check-in code belongs to a different tournament")
	ErrNotApproved        = errors.New("team is not approved")
	ErrCheckInClosed      = errors.New("check-in is closed")
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrTournamentFull     = errors.New("tournament is full")
)
