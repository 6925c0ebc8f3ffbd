package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/strayfire/scrimhub/internal/tournament"
)

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	writeError(w, http.StatusBadRequest, msg)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	writeError(w, http.StatusNotFound, msg)
}

func Unauthenticated(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "authentication required")
}

// Error maps an engine error to its HTTP status. Callers hand it whatever a
// service returned; anything outside the domain taxonomy becomes a 500.
func Error(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tournament.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, tournament.ErrForbidden):
		slog.Warn("forbidden", "error", err)
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, tournament.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tournament.ErrInvalidState),
		errors.Is(err, tournament.ErrBracketAlreadyGenerated):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, tournament.ErrInvalidScore),
		errors.Is(err, tournament.ErrInvalidInput),
		errors.Is(err, tournament.ErrInsufficientTeams),
		errors.Is(err, tournament.ErrTournamentMismatch),
		errors.Is(err, tournament.ErrNotApproved),
		errors.Is(err, tournament.ErrCheckInClosed),
		errors.Is(err, tournament.ErrRegistrationClosed),
		errors.Is(err, tournament.ErrTournamentFull):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		InternalServerError(w, "request failed", err)
	}
}
