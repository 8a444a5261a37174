package poll

import "time"

// AcceptingVotes reports whether p can take ballots at the given instant.
// A poll whose deadline has passed stops accepting votes immediately, even
// if the stored status field has not been flipped to closed yet.
func AcceptingVotes(p *Poll, now time.Time) bool {
	if p.Status != StatusOpen {
		return false
	}
	if p.ClosesAt != nil && !now.Before(*p.ClosesAt) {
		return false
	}
	return true
}

// EffectiveStatus is the status callers observe under the check-on-access
// rule: deadline passed means closed regardless of the stored field.
func EffectiveStatus(p *Poll, now time.Time) Status {
	if AcceptingVotes(p, now) {
		return StatusOpen
	}
	return StatusClosed
}

// Close marks p closed. Only the creator may close, and the transition is
// one-way: a poll that is already closed (explicitly or by deadline) stays
// closed.
func Close(p *Poll, requesterID string, now time.Time) error {
	if requesterID != p.CreatorID {
		return ErrForbidden
	}
	if EffectiveStatus(p, now) == StatusClosed {
		return ErrAlreadyClosed
	}
	p.Status = StatusClosed
	return nil
}
