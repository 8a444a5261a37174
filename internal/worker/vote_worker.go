package worker

import (
	"context"
	"log"

	"github.com/nikitashlyahktin/VotingSystem/internal/metrics"
)

type VoteEvent struct {
	PollID  string
	VoterID string
}

// VoteWorker drains accepted-ballot events off the request path, bumping
// the vote counter and logging each one.
type VoteWorker struct {
	Ch <-chan VoteEvent
}

func NewVoteWorker(ch <-chan VoteEvent) *VoteWorker {
	return &VoteWorker{Ch: ch}
}

func (w *VoteWorker) Run(ctx context.Context) {
	log.Println("vote worker started")
	for {
		select {
		case <-ctx.Done():
			log.Println("vote worker stopped")
			return
		case ev := <-w.Ch:
			metrics.IncVote()
			log.Printf("ballot accepted: poll=%s voter=%s\n", ev.PollID, ev.VoterID)
		}
	}
}
