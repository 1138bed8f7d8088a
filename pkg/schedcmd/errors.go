package schedcmd

import "errors"

var (
	// ErrNotCommand indicates the input is not a schedule command at all.
	ErrNotCommand = errors.New("not a schedule command")

	// ErrBadFormat indicates a recognized command with the wrong shape.
	ErrBadFormat = errors.New("bad command format")

	// ErrBadIndex indicates a slot number outside 1..N.
	ErrBadIndex = errors.New("bad slot number")

	// ErrBadNumbers indicates CAP or LIMIT is not a number.
	ErrBadNumbers = errors.New("bad capacity or limit")

	// ErrBadPairs indicates the bulk form's date/time arguments do not
	// come in pairs.
	ErrBadPairs = errors.New("date/time arguments must come in pairs")
)
