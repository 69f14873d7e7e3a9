package cli

import (
	"errors"
	"fmt"
	"time"

	"cloudpos/internal/erp"
	"cloudpos/internal/ticket"
)

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, time.Local)
}

// resolveRange picks the date range for listings: positional args win, then
// the -from/-to flags, then today.
func resolveRange(args []string, opts *Options) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error

	switch {
	case len(args) >= 1:
		from, err = parseDate(args[0])
		if err != nil {
			return from, to, fmt.Errorf("invalid start date %q: %w", args[0], err)
		}
		to = from
		if len(args) >= 2 {
			to, err = parseDate(args[1])
			if err != nil {
				return from, to, fmt.Errorf("invalid end date %q: %w", args[1], err)
			}
		}
	case opts.From != "" || opts.To != "":
		if opts.From != "" {
			from, err = parseDate(opts.From)
			if err != nil {
				return from, to, fmt.Errorf("invalid -from date: %w", err)
			}
		}
		to = from
		if opts.To != "" {
			to, err = parseDate(opts.To)
			if err != nil {
				return from, to, fmt.Errorf("invalid -to date: %w", err)
			}
		}
		if from.IsZero() {
			from = to
		}
	default:
		now := time.Now()
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		to = from
	}

	if to.Before(from) {
		return from, to, errors.New("end date must not be before start date")
	}
	return from, to, nil
}

func friendlyError(err error) string {
	switch {
	case errors.Is(err, erp.ErrMissingToken):
		return "Not logged in: run 'login' or pass -token."
	case errors.Is(err, erp.ErrUnauthorized):
		return "Not authorized: token invalid or expired, log in again."
	case errors.Is(err, erp.ErrNotFound):
		return "Sale not found."
	case errors.Is(err, erp.ErrSaveRejected):
		return "Server rejected the save; your edits are kept, fix and retry. (" + err.Error() + ")"
	case errors.Is(err, ticket.ErrNotReady):
		return "No ticket open: use 'open <vocNo>' first."
	case errors.Is(err, ticket.ErrBusy):
		return "A fetch or save is still running, try again."
	case errors.Is(err, ticket.ErrIndexOutOfRange):
		return "No such line."
	default:
		if err == nil {
			return ""
		}
		return err.Error()
	}
}
