package poll

import (
	"context"
	"time"
)

type ChoiceMode string

const (
	ChoiceSingle   ChoiceMode = "single"
	ChoiceMultiple ChoiceMode = "multiple"
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Ballot is a voter's current choice set for one poll. There is at most one
// ballot per (poll, voter); a revote replaces OptionIDs wholesale.
type Ballot struct {
	PollID    string    `json:"poll_id"`
	VoterID   string    `json:"voter_id"`
	OptionIDs []string  `json:"option_ids"`
	CastAt    time.Time `json:"cast_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Poll is the aggregate the repository stores and versions as a unit.
// Options are fixed at creation; their order is the display and tally order.
type Poll struct {
	ID         string     `json:"id"`
	CreatorID  string     `json:"creator_id"`
	Title      string     `json:"title"`
	Options    []Option   `json:"options"`
	ChoiceMode ChoiceMode `json:"choice_mode"`
	Status     Status     `json:"status"`
	ClosesAt   *time.Time `json:"closes_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`

	// Version backs the repository's compare-and-swap; it is bumped on
	// every successful Save.
	Version int64 `json:"-"`

	// Ballots is keyed by voter id. Only the repository holds the
	// authoritative copy between calls.
	Ballots map[string]Ballot `json:"-"`
}

func (p *Poll) HasOption(id string) bool {
	for _, opt := range p.Options {
		if opt.ID == id {
			return true
		}
	}
	return false
}

type Repository interface {
	Create(ctx context.Context, p *Poll) error
	GetByID(ctx context.Context, id string) (*Poll, error)
	List(ctx context.Context) ([]Poll, error)
	// Save persists the whole aggregate if p.Version still matches the
	// stored version, then increments it. A mismatch returns
	// ErrConcurrentModification and leaves the stored poll untouched.
	Save(ctx context.Context, p *Poll) error
}
