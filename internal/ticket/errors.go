package ticket

import "errors"

var (
	// ErrNoLines marks a fetched ticket without a line-item array. The
	// order service answers like that for unknown voucher numbers.
	ErrNoLines = errors.New("ticket has no line items")

	ErrIndexOutOfRange = errors.New("line index out of range")
	ErrNotReady        = errors.New("no editable ticket loaded")
	ErrBusy            = errors.New("a fetch or save is in flight")
	ErrSuperseded      = errors.New("fetch superseded by a newer request")
)
