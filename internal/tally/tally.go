// Package tally computes per-round vote counts and elimination outcomes.
// Everything here is pure: callers supply a snapshot of the active movies and
// the round's votes, and the same input always produces the same decision.
package tally

import (
	"watchwhat/internal/apperr"
	"watchwhat/internal/model"
)

// Count produces the vote count for every movie in movies over the votes of a
// single round. Movies with no votes appear with a zero count; order follows
// the order of movies. Votes for another round or for a movie outside the
// supplied set are caller errors, not data to be skipped.
func Count(movies []model.Movie, votes []model.Vote, round int) ([]model.VoteSummary, error) {
	summaries := make([]model.VoteSummary, 0, len(movies))
	index := make(map[string]int, len(movies))
	for i, m := range movies {
		index[m.ID] = i
		summaries = append(summaries, model.VoteSummary{
			MovieID:    m.ID,
			MovieTitle: m.Title,
			VoteCount:  0,
			Round:      round,
		})
	}

	for _, v := range votes {
		if v.Round != round {
			return nil, apperr.New(apperr.KindInvalidRound,
				"vote %s is for round %d, tallying round %d", v.ID, v.Round, round)
		}
		i, ok := index[v.MovieID]
		if !ok {
			return nil, apperr.New(apperr.KindInvalidTarget,
				"vote %s references movie %s outside the active set", v.ID, v.MovieID)
		}
		summaries[i].VoteCount++
	}

	return summaries, nil
}
