package poll

import "math"

type OptionResult struct {
	OptionID   string  `json:"option_id"`
	Label      string  `json:"label"`
	Votes      int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
}

type Results struct {
	PollID       string         `json:"poll_id"`
	Status       Status         `json:"status"`
	TotalBallots int64          `json:"total_ballots"`
	Options      []OptionResult `json:"options"`
}

// ComputeResults tallies the current ballot set. It never mutates p and is
// deterministic for a given aggregate: results are listed in option order,
// percentages are rounded to one decimal place, and a poll with no ballots
// yields all zeros. For multiple-choice polls the option counts may sum
// past TotalBallots because each ballot counts toward every chosen option.
func ComputeResults(p *Poll) Results {
	counts := make(map[string]int64, len(p.Options))
	for _, b := range p.Ballots {
		for _, id := range b.OptionIDs {
			counts[id]++
		}
	}

	total := int64(len(p.Ballots))
	res := Results{
		PollID:       p.ID,
		Status:       p.Status,
		TotalBallots: total,
		Options:      make([]OptionResult, 0, len(p.Options)),
	}

	for _, opt := range p.Options {
		r := OptionResult{OptionID: opt.ID, Label: opt.Label, Votes: counts[opt.ID]}
		if total > 0 {
			r.Percentage = math.Round(float64(r.Votes)*1000.0/float64(total)) / 10
		}
		res.Options = append(res.Options, r)
	}
	return res
}
