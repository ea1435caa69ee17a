package raid

import "fmt"

// HeaderSet is the outcome of validating every stripe's header at Open:
// the logical-to-physical and physical-to-logical stripe maps rebuilt from
// whichever headers were readable, plus which physical indices were
// corrupt.
type HeaderSet struct {
	LogicalToPhysical map[int]int
	PhysicalToLogical map[int]int
	Corrupt           []int

	// AllInvalid is true when every header was corrupt or missing, meaning
	// this is a brand-new (or freshly zeroed) stripe set rather than a
	// layout suffering an erasure: the caller should initialize an empty
	// file instead of running the usual k<=P recovery path.
	AllInvalid bool
}

// ValidateHeaders gang-validates the headers read from every open stripe
// (nil entries mean the stripe itself could not be opened or read at all)
// and rebuilds the logical<->physical stripe map from the stripe ids
// recorded in the valid headers.
//
// Up to maxParity corrupt or missing headers are tolerated: each of those
// physical slots is mapped, in ascending order, to one of the logical ids
// 0..len(headers)-1 that no valid header claims. If every header is
// corrupt or missing, the set is reported as AllInvalid with an identity
// map and no error. Otherwise more than maxParity corrupt headers is an
// unrecoverable layout and returns ErrTooManyErasures.
func ValidateHeaders(headers []*Header, maxParity int) (*HeaderSet, error) {
	n := len(headers)

	set := &HeaderSet{
		LogicalToPhysical: make(map[int]int, n),
		PhysicalToLogical: make(map[int]int, n),
	}

	claimedLogical := make(map[int]bool, n)

	for phys, h := range headers {
		if h == nil || !h.Valid {
			set.Corrupt = append(set.Corrupt, phys)
			continue
		}
		logical := int(h.StripeID)
		if logical < 0 || logical >= n {
			set.Corrupt = append(set.Corrupt, phys)
			continue
		}
		if claimedLogical[logical] {
			// Two stripes claiming the same logical id is as unusable as a
			// missing header: the assignment is ambiguous.
			set.Corrupt = append(set.Corrupt, phys)
			continue
		}

		set.LogicalToPhysical[logical] = phys
		set.PhysicalToLogical[phys] = logical
		claimedLogical[logical] = true
	}

	if len(set.Corrupt) == n {
		// Every header is corrupt or unreadable: rather than an erasure
		// beyond tolerance, this is a fresh or zeroed stripe set. Start a
		// new empty file with an identity logical<->physical map and every
		// header valid at zero blocks.
		set.AllInvalid = true
		set.Corrupt = nil
		for phys := 0; phys < n; phys++ {
			set.LogicalToPhysical[phys] = phys
			set.PhysicalToLogical[phys] = phys
		}
		return set, nil
	}

	if len(set.Corrupt) > maxParity {
		return set, fmt.Errorf("%w: %d of %d stripe headers are unreadable, tolerance is %d",
			ErrTooManyErasures, len(set.Corrupt), n, maxParity)
	}

	if len(set.Corrupt) == 0 {
		return set, nil
	}

	// Recover the missing assignment: corrupt physical slots get whichever
	// logical ids were not claimed by a valid header, in ascending order on
	// both sides so the mapping is deterministic.
	var unclaimedLogical []int
	for logical := 0; logical < n; logical++ {
		if !claimedLogical[logical] {
			unclaimedLogical = append(unclaimedLogical, logical)
		}
	}

	if len(unclaimedLogical) != len(set.Corrupt) {
		return set, fmt.Errorf("%w: %d corrupt headers but %d unclaimed logical ids",
			ErrTooManyErasures, len(set.Corrupt), len(unclaimedLogical))
	}

	for i, phys := range set.Corrupt {
		logical := unclaimedLogical[i]
		set.LogicalToPhysical[logical] = phys
		set.PhysicalToLogical[phys] = logical
	}

	return set, nil
}
