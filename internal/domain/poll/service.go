package poll

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nikitashlyahktin/VotingSystem/internal/retry"
)

// Save conflicts are transient: another voter won the version race and the
// cycle can simply be rerun against the fresh aggregate.
const (
	saveAttempts   = 3
	saveRetryDelay = 10 * time.Millisecond
)

type Service struct {
	repo Repository

	// Now is the only clock in the core; tests override it to drive
	// deadline behavior deterministically.
	Now func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, Now: time.Now}
}

// Create validates the definition and persists a new open poll. Duplicate
// labels collapse to their first occurrence; at least two distinct
// non-empty labels must remain.
func (s *Service) Create(ctx context.Context, creatorID, title string, mode ChoiceMode, labels []string, closesAt *time.Time) (*Poll, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidPollDefinition
	}
	if mode != ChoiceSingle && mode != ChoiceMultiple {
		return nil, ErrInvalidPollDefinition
	}

	now := s.Now()
	if closesAt != nil && !closesAt.After(now) {
		return nil, ErrInvalidPollDefinition
	}

	seen := make(map[string]struct{}, len(labels))
	opts := make([]Option, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		opts = append(opts, Option{ID: uuid.NewString(), Label: label})
	}
	if len(opts) < 2 {
		return nil, ErrInvalidPollDefinition
	}

	p := &Poll{
		ID:         uuid.NewString(),
		CreatorID:  creatorID,
		Title:      title,
		Options:    opts,
		ChoiceMode: mode,
		Status:     StatusOpen,
		ClosesAt:   closesAt,
		CreatedAt:  now,
		Ballots:    make(map[string]Ballot),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Poll, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Poll, error) {
	return s.repo.List(ctx)
}

// Vote runs one load-validate-record-save cycle under optimistic
// concurrency. Version conflicts are retried against a fresh load up to
// saveAttempts times; business-rule failures are permanent and surface
// unchanged. On exhausted retries the caller sees
// ErrConcurrentModification.
func (s *Service) Vote(ctx context.Context, pollID, voterID string, optionIDs []string) (Ballot, error) {
	var b Ballot
	err := retry.DoWithRetry(ctx, saveAttempts, saveRetryDelay, func() error {
		p, err := s.repo.GetByID(ctx, pollID)
		if err != nil {
			return retry.Permanent(err)
		}
		if b, err = CastVote(p, voterID, optionIDs, s.Now()); err != nil {
			return retry.Permanent(err)
		}
		return s.saveOnce(ctx, p)
	})
	if err != nil {
		return Ballot{}, err
	}
	return b, nil
}

// Results tallies the poll's full ballot set. The reported status follows
// the check-on-access rule, so an expired poll reads closed even before
// any write has flipped the stored field.
func (s *Service) Results(ctx context.Context, pollID string) (Results, error) {
	p, err := s.repo.GetByID(ctx, pollID)
	if err != nil {
		return Results{}, err
	}
	res := ComputeResults(p)
	res.Status = EffectiveStatus(p, s.Now())
	return res, nil
}

// ClosePoll transitions the poll to closed on behalf of its creator.
func (s *Service) ClosePoll(ctx context.Context, pollID, requesterID string) (*Poll, error) {
	var p *Poll
	err := retry.DoWithRetry(ctx, saveAttempts, saveRetryDelay, func() error {
		var err error
		if p, err = s.repo.GetByID(ctx, pollID); err != nil {
			return retry.Permanent(err)
		}
		if err = Close(p, requesterID, s.Now()); err != nil {
			return retry.Permanent(err)
		}
		return s.saveOnce(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) saveOnce(ctx context.Context, p *Poll) error {
	if err := s.repo.Save(ctx, p); err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			return err
		}
		return retry.Permanent(err)
	}
	return nil
}
