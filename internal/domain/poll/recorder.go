package poll

import "time"

// CastVote validates optionIDs against p and records the voter's ballot in
// the aggregate. A first vote creates the ballot, a revote replaces the
// previous choice set wholesale, so retrying with the same set is a no-op
// change. The caller is responsible for persisting p afterwards.
func CastVote(p *Poll, voterID string, optionIDs []string, now time.Time) (Ballot, error) {
	if !AcceptingVotes(p, now) {
		return Ballot{}, ErrPollClosed
	}

	seen := make(map[string]struct{}, len(optionIDs))
	for _, id := range optionIDs {
		if _, dup := seen[id]; dup {
			return Ballot{}, ErrDuplicateOption
		}
		seen[id] = struct{}{}
		if !p.HasOption(id) {
			return Ballot{}, ErrUnknownOption
		}
	}

	switch p.ChoiceMode {
	case ChoiceSingle:
		if len(optionIDs) != 1 {
			return Ballot{}, ErrInvalidChoiceCount
		}
	case ChoiceMultiple:
		if len(optionIDs) == 0 {
			return Ballot{}, ErrInvalidChoiceCount
		}
	}

	b, ok := p.Ballots[voterID]
	if !ok {
		b = Ballot{PollID: p.ID, VoterID: voterID, CastAt: now}
	}
	b.OptionIDs = append([]string(nil), optionIDs...)
	b.UpdatedAt = now

	if p.Ballots == nil {
		p.Ballots = make(map[string]Ballot)
	}
	p.Ballots[voterID] = b
	return b, nil
}
