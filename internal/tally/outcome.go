package tally

import (
	"watchwhat/internal/apperr"
	"watchwhat/internal/model"
)

// Phase is what the session moves into after a round closes.
type Phase string

const (
	// PhaseVoting means at least one movie was eliminated and more than one
	// remains, so the next round is a normal vote.
	PhaseVoting Phase = "voting"
	// PhaseRevote means the round was a full tie and is re-run over the same
	// movie set.
	PhaseRevote Phase = "revote"
	// PhaseFinished means a single movie remains.
	PhaseFinished Phase = "finished"
)

// Outcome is the decision for one closed round.
type Outcome struct {
	// Eliminated holds the summaries of the movies voted out this round.
	Eliminated []model.VoteSummary
	// RemainingIDs are the movies still active after the eliminations.
	RemainingIDs []string
	Phase        Phase
	// WinnerID is set only when Phase is PhaseFinished.
	WinnerID string
}

// Decide applies the elimination rule to a round's tally.
//
// The movies at the minimum count are eliminated, unless every movie shares
// the same count (a full tie, including all-zero), in which case nothing is
// eliminated and the round is re-run. The rule can never eliminate every
// movie: a non-empty elimination set requires min < max, which leaves the
// movies at max standing.
func Decide(counts []model.VoteSummary) (Outcome, error) {
	if len(counts) == 0 {
		return Outcome{}, apperr.New(apperr.KindInvalidState, "cannot close a round with no active movies")
	}

	if len(counts) == 1 {
		return Outcome{
			RemainingIDs: []string{counts[0].MovieID},
			Phase:        PhaseFinished,
			WinnerID:     counts[0].MovieID,
		}, nil
	}

	min, max := counts[0].VoteCount, counts[0].VoteCount
	for _, c := range counts[1:] {
		if c.VoteCount < min {
			min = c.VoteCount
		}
		if c.VoteCount > max {
			max = c.VoteCount
		}
	}

	if min == max {
		// Full tie. Re-vote over the same set rather than eliminating
		// arbitrarily or dropping everyone.
		out := Outcome{Phase: PhaseRevote}
		for _, c := range counts {
			out.RemainingIDs = append(out.RemainingIDs, c.MovieID)
		}
		return out, nil
	}

	var out Outcome
	for _, c := range counts {
		if c.VoteCount == min {
			out.Eliminated = append(out.Eliminated, c)
		} else {
			out.RemainingIDs = append(out.RemainingIDs, c.MovieID)
		}
	}

	if len(out.RemainingIDs) == 0 {
		// Unreachable while min < max, but never let a decision wipe the
		// whole slate.
		out = Outcome{Phase: PhaseRevote}
		for _, c := range counts {
			out.RemainingIDs = append(out.RemainingIDs, c.MovieID)
		}
		return out, nil
	}

	if len(out.RemainingIDs) == 1 {
		out.Phase = PhaseFinished
		out.WinnerID = out.RemainingIDs[0]
	} else {
		out.Phase = PhaseVoting
	}
	return out, nil
}
