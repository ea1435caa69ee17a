package raid

import "errors"

var (
	// ErrArgument is returned when a caller passes an out-of-range or
	// otherwise nonsensical argument (negative offset, zero stripe width).
	ErrArgument = errors.New("raid: invalid argument")

	// ErrNotOpen is returned when an operation requires an open layout.
	ErrNotOpen = errors.New("raid: layout is not open")

	// ErrAlreadyOpen is returned by Open on a layout that is already open.
	ErrAlreadyOpen = errors.New("raid: layout is already open")

	// ErrTooManyErasures is returned when more stripes are unreadable or
	// have corrupt headers than the parity codec can recover from.
	ErrTooManyErasures = errors.New("raid: too many stripe errors to recover")

	// ErrHeaderCorrupt is returned by ReadHeaderFrom when the checksum
	// recorded in a stripe header does not match its contents.
	ErrHeaderCorrupt = errors.New("raid: stripe header is corrupt")

	// ErrNotEntryServer is returned when an operation that only the entry
	// server may perform is attempted on a non-entry-server layout.
	ErrNotEntryServer = errors.New("raid: operation requires the entry server")
)
