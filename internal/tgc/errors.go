package tgc

import "errors"

var (
	// ErrQueueEmpty is returned by Lru.PopLeast when no file is queued.
	ErrQueueEmpty = errors.New("tgc: lru queue is empty")

	// ErrMaxQueueSizeIsZero is returned by NewLru when asked for a queue
	// that can never hold anything.
	ErrMaxQueueSizeIsZero = errors.New("tgc: max queue size must be greater than zero")

	// ErrMaxLenExceeded is returned by WriteJSON implementations when the
	// serialized JSON would exceed the caller-supplied length budget.
	ErrMaxLenExceeded = errors.New("tgc: maximum JSON length exceeded")

	// ErrInvalidNbBins is returned by NewFreedBytesHistogram.
	ErrInvalidNbBins = errors.New("tgc: invalid number of histogram bins")

	// ErrInvalidBinWidth is returned by NewFreedBytesHistogram and
	// SetBinWidthSecs.
	ErrInvalidBinWidth = errors.New("tgc: invalid histogram bin width")

	// ErrInvalidBinIndex is returned by FreedBytesInBin.
	ErrInvalidBinIndex = errors.New("tgc: invalid histogram bin index")

	// ErrTooFarBackInTime is returned by NbBytesFreedInLastNbSecs when
	// asked about a window larger than the histogram's capacity.
	ErrTooFarBackInTime = errors.New("tgc: requested window exceeds histogram capacity")

	// ErrSpaceNotFound is returned by Mgm implementations when asked about
	// an EOS space that does not exist.
	ErrSpaceNotFound = errors.New("tgc: space not found")

	// ErrUnknownSpace is returned by SpaceToTapeGcMap.GetGc for a space
	// with no registered TapeGc.
	ErrUnknownSpace = errors.New("tgc: unknown space")

	// ErrGcAlreadyExists is returned by SpaceToTapeGcMap.CreateGc when a
	// TapeGc already exists for the space.
	ErrGcAlreadyExists = errors.New("tgc: gc already exists for space")

	// ErrGcAlreadyStarted is returned by MultiSpaceGc.SetTapeEnabled when
	// called more than once.
	ErrGcAlreadyStarted = errors.New("tgc: multi-space gc already started")

	// ErrNotLocalhost is returned by the status-request handler for
	// requests not originating from localhost.
	ErrNotLocalhost = errors.New("tgc: status requests are only accepted from localhost")

	// ErrTapeGcDisabled is returned by the status-request handler when
	// tape-aware gc has not been enabled for any space.
	ErrTapeGcDisabled = errors.New("tgc: tape-aware gc is not enabled")

	// ErrReplyTooLarge is returned by the status-request handler when the
	// serialized status exceeds the reply buffer.
	ErrReplyTooLarge = errors.New("tgc: status reply exceeds maximum reply length")
)
