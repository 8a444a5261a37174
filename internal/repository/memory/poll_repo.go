package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nikitashlyahktin/VotingSystem/internal/domain/poll"
)

// PollRepo is a mutex-guarded aggregate store with optimistic versioning.
// It backs DSN-less runs and tests. Every loaded aggregate is a deep copy,
// so callers never hold a mutable reference into the store.
type PollRepo struct {
	mu    sync.Mutex
	polls map[string]*poll.Poll
}

func NewPollRepo() *PollRepo {
	return &PollRepo{polls: make(map[string]*poll.Poll)}
}

func (r *PollRepo) Create(ctx context.Context, p *poll.Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.Version = 1
	r.polls[p.ID] = clonePoll(p)
	return nil
}

func (r *PollRepo) GetByID(ctx context.Context, id string) (*poll.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.polls[id]
	if !ok {
		return nil, poll.ErrPollNotFound
	}
	return clonePoll(stored), nil
}

func (r *PollRepo) List(ctx context.Context) ([]poll.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]poll.Poll, 0, len(r.polls))
	for _, p := range r.polls {
		res = append(res, *clonePoll(p))
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (r *PollRepo) Save(ctx context.Context, p *poll.Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.polls[p.ID]
	if !ok {
		return poll.ErrPollNotFound
	}
	if stored.Version != p.Version {
		return poll.ErrConcurrentModification
	}

	p.Version++
	r.polls[p.ID] = clonePoll(p)
	return nil
}

func clonePoll(p *poll.Poll) *poll.Poll {
	c := *p
	c.Options = append([]poll.Option(nil), p.Options...)
	c.Ballots = make(map[string]poll.Ballot, len(p.Ballots))
	for voterID, b := range p.Ballots {
		b.OptionIDs = append([]string(nil), b.OptionIDs...)
		c.Ballots[voterID] = b
	}
	if p.ClosesAt != nil {
		t := *p.ClosesAt
		c.ClosesAt = &t
	}
	return &c
}
