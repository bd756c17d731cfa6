package views

import (
	"sort"

	"github.com/AdamBeresnev/aibuilders/internal/challenge"
)

type LeaderboardRow struct {
	Rank       int                  `json:"rank"`
	Submission challenge.Submission `json:"submission"`
}

// PrepareLeaderboard orders submissions by score, earliest submission first
// on ties, and gives equal scores the same rank (1, 1, 3).
func PrepareLeaderboard(subs []challenge.Submission) []LeaderboardRow {
	sorted := make([]challenge.Submission, len(subs))
	copy(sorted, subs)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := sorted[i].ScoreOrZero(), sorted[j].ScoreOrZero()
		if si != sj {
			return si > sj
		}
		return sorted[i].SubmissionDate.Before(sorted[j].SubmissionDate)
	})

	rows := make([]LeaderboardRow, len(sorted))
	for i, s := range sorted {
		rank := i + 1
		if i > 0 && s.ScoreOrZero() == sorted[i-1].ScoreOrZero() {
			rank = rows[i-1].Rank
		}
		rows[i] = LeaderboardRow{Rank: rank, Submission: s}
	}
	return rows
}
