package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nikitashlyahktin/VotingSystem/internal/domain/poll"
)

func seedPoll(t *testing.T, repo *PollRepo) *poll.Poll {
	t.Helper()
	p := &poll.Poll{
		ID:         "p1",
		CreatorID:  "alice",
		Title:      "Poll",
		Options:    []poll.Option{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}},
		ChoiceMode: poll.ChoiceSingle,
		Status:     poll.StatusOpen,
		CreatedAt:  time.Now(),
		Ballots:    make(map[string]poll.Ballot),
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return p
}

func TestGetByIDReturnsCopy(t *testing.T) {
	repo := NewPollRepo()
	seedPoll(t, repo)
	ctx := context.Background()

	p1, err := repo.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	p1.Ballots["intruder"] = poll.Ballot{VoterID: "intruder", OptionIDs: []string{"a"}}
	p1.Options[0].Label = "mutated"

	p2, err := repo.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(p2.Ballots) != 0 {
		t.Fatalf("mutating a loaded aggregate must not affect the store")
	}
	if p2.Options[0].Label != "A" {
		t.Fatalf("options must be isolated between loads")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := NewPollRepo()
	if _, err := repo.GetByID(context.Background(), "nope"); !errors.Is(err, poll.ErrPollNotFound) {
		t.Fatalf("expected ErrPollNotFound, got %v", err)
	}
}

func TestSaveCompareAndSwap(t *testing.T) {
	repo := NewPollRepo()
	seedPoll(t, repo)
	ctx := context.Background()

	// Two loads of the same version race to save.
	first, _ := repo.GetByID(ctx, "p1")
	second, _ := repo.GetByID(ctx, "p1")

	first.Ballots["v1"] = poll.Ballot{PollID: "p1", VoterID: "v1", OptionIDs: []string{"a"}}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	second.Ballots["v2"] = poll.Ballot{PollID: "p1", VoterID: "v2", OptionIDs: []string{"b"}}
	if err := repo.Save(ctx, second); !errors.Is(err, poll.ErrConcurrentModification) {
		t.Fatalf("stale save must conflict, got %v", err)
	}

	stored, _ := repo.GetByID(ctx, "p1")
	if len(stored.Ballots) != 1 {
		t.Fatalf("losing save must not overwrite the winner, got %d ballots", len(stored.Ballots))
	}
	if _, ok := stored.Ballots["v1"]; !ok {
		t.Fatalf("winner's ballot was lost")
	}
}

func TestSaveBumpsVersion(t *testing.T) {
	repo := NewPollRepo()
	p := seedPoll(t, repo)
	ctx := context.Background()

	if p.Version != 1 {
		t.Fatalf("expected version 1 after create, got %d", p.Version)
	}
	if err := repo.Save(ctx, p); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if p.Version != 2 {
		t.Fatalf("expected version 2 after save, got %d", p.Version)
	}
	// Fresh load carries the new version, so a follow-up save succeeds.
	reloaded, _ := repo.GetByID(ctx, "p1")
	if err := repo.Save(ctx, reloaded); err != nil {
		t.Fatalf("save after reload failed: %v", err)
	}
}

func TestListOrder(t *testing.T) {
	repo := NewPollRepo()
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"old", "mid", "new"} {
		p := &poll.Poll{
			ID:        id,
			Title:     id,
			Options:   []poll.Option{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}},
			Status:    poll.StatusOpen,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	polls, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(polls) != 3 {
		t.Fatalf("expected 3 polls, got %d", len(polls))
	}
	if polls[0].ID != "new" || polls[2].ID != "old" {
		t.Fatalf("expected newest first, got %s..%s", polls[0].ID, polls[2].ID)
	}
}
