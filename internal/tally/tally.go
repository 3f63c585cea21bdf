// Package tally derives display-ready vote breakdowns from raw per-option
// counts. It carries no state: every result is recomputed in full from the
// counts it is handed, so callers can re-run it on every fetch or realtime
// notification without reconciliation logic.
package tally

// OptionCount is one option's share of the ledger, in the order the
// options were retrieved. That order matters: it is the tie-break.
type OptionCount struct {
	OptionID int    `json:"option_id"`
	Name     string `json:"name"`
	Votes    int64  `json:"votes"`
}

type OptionResult struct {
	OptionID   int     `json:"option_id"`
	Name       string  `json:"name"`
	Votes      int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
}

type Result struct {
	TotalVotes int64          `json:"total_votes"`
	Options    []OptionResult `json:"options"`
	// Leader is the first option, in input order, holding the maximum
	// vote count. Nil when the election has no options.
	Leader *OptionResult `json:"leader,omitempty"`
}

// Compute builds a full tally from per-option counts. Percentages are
// votes/total*100, or 0 across the board when no votes have been cast;
// they are not forced to sum to 100 after rounding. Ties resolve to the
// first option in input order, so callers must fetch options in a stable
// order (the handlers use ORDER BY id).
func Compute(counts []OptionCount) Result {
	res := Result{
		Options: make([]OptionResult, 0, len(counts)),
	}

	for _, c := range counts {
		res.TotalVotes += c.Votes
	}

	for _, c := range counts {
		opt := OptionResult{
			OptionID: c.OptionID,
			Name:     c.Name,
			Votes:    c.Votes,
		}
		if res.TotalVotes > 0 {
			opt.Percentage = float64(c.Votes) / float64(res.TotalVotes) * 100
		}
		res.Options = append(res.Options, opt)
	}

	for i := range res.Options {
		if res.Leader == nil || res.Options[i].Votes > res.Leader.Votes {
			leader := res.Options[i]
			res.Leader = &leader
		}
	}

	return res
}
