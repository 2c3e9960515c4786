package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when a row lookup matches nothing
var ErrNotFound = errors.New("record not found")

// wrapErr maps pgx.ErrNoRows onto ErrNotFound and wraps everything else
func wrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return eris.Wrap(err, msg)
}
