package judge

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reviewTime = time.Date(2026, 5, 12, 14, 35, 22, 0, time.UTC)

func newTestPanel(auto float64) *Panel {
	return NewPanel(uuid.New(), "LLM-powered Customer Support Bot", auto, reviewTime)
}

func TestNewPanel(t *testing.T) {
	p := newTestPanel(87.5)

	assert.Equal(t, 87.5, p.FinalScore)
	assert.Equal(t, 0.0, p.ManualScore)
	require.Len(t, p.Log, 1)
	assert.Equal(t, "System", p.Log[0].By)
	assert.Equal(t, 87.5, p.Log[0].Score)
}

func TestAllRubricsAtEighty(t *testing.T) {
	p := newTestPanel(87.5)
	for _, c := range Categories {
		require.NoError(t, p.SetRubric(c, 80))
	}

	assert.InDelta(t, 80.0, p.ManualScore, 1e-9)
	assert.InDelta(t, 82.25, p.FinalScore, 1e-9)
}

func TestFinalScoreRecomputedOnEveryChange(t *testing.T) {
	p := newTestPanel(60)

	steps := []struct {
		category Category
		value    float64
	}{
		{Implementation, 100},
		{Innovation, 40},
		{Impact, 75.5},
		{Presentation, 10},
		{Implementation, 0},
	}

	for _, step := range steps {
		require.NoError(t, p.SetRubric(step.category, step.value))
		expected := 0.7*p.Rubric.Mean() + 0.3*p.AutoScore
		assert.InDelta(t, expected, p.FinalScore, 1e-9)
		assert.InDelta(t, p.Rubric.Mean(), p.ManualScore, 1e-9)
	}
}

func TestSetRubricRejectsInvalidInput(t *testing.T) {
	p := newTestPanel(50)
	require.NoError(t, p.SetRubric(Impact, 90))
	before := *p

	assert.ErrorIs(t, p.SetRubric(Impact, 101), ErrScoreOutOfRange)
	assert.ErrorIs(t, p.SetRubric(Impact, -1), ErrScoreOutOfRange)
	assert.ErrorIs(t, p.SetRubric("style", 50), ErrUnknownCategory)

	assert.Equal(t, before.Rubric, p.Rubric)
	assert.Equal(t, before.FinalScore, p.FinalScore)
}

func TestOverride(t *testing.T) {
	testCases := []struct {
		name     string
		score    float64
		accepted bool
	}{
		{name: "lower bound", score: 0, accepted: true},
		{name: "upper bound", score: 100, accepted: true},
		{name: "fractional", score: 93.4, accepted: true},
		{name: "negative", score: -0.1, accepted: false},
		{name: "above range", score: 100.5, accepted: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestPanel(87.5)
			logLen := len(p.Log)

			err := p.Override(tc.score, "Admin Judge", reviewTime)
			if tc.accepted {
				require.NoError(t, err)
				assert.Equal(t, tc.score, p.FinalScore)
				require.Len(t, p.Log, logLen+1)
				last := p.Log[len(p.Log)-1]
				assert.Equal(t, "Score manually overridden", last.Event)
				assert.Equal(t, tc.score, last.Score)
				assert.Equal(t, "Admin Judge", last.By)
			} else {
				assert.ErrorIs(t, err, ErrScoreOutOfRange)
				assert.Equal(t, 87.5, p.FinalScore)
				assert.Len(t, p.Log, logLen)
			}
		})
	}
}

func TestBadgesAndReview(t *testing.T) {
	p := newTestPanel(87.5)

	require.NoError(t, p.ToggleBadge("winner"))
	require.NoError(t, p.ToggleBadge("top10"))
	require.NoError(t, p.ToggleBadge("innovation"))
	require.NoError(t, p.ToggleBadge("innovation"))
	assert.ErrorIs(t, p.ToggleBadge("mvp"), ErrUnknownBadge)
	assert.Equal(t, []string{"winner", "top10"}, p.Badges)

	require.NoError(t, p.Override(95, "Admin Judge", reviewTime))
	p.SubmitReview("Great work", "Admin Judge", reviewTime.Add(time.Minute))

	assert.True(t, p.Submitted)
	assert.Equal(t, "Great work", p.Comments)
	// awarded badges keep catalogue order
	require.Len(t, p.Awarded, 2)
	assert.Equal(t, "top10", p.Awarded[0].ID)
	assert.Equal(t, "winner", p.Awarded[1].ID)

	last := p.Log[len(p.Log)-1]
	assert.Equal(t, "Review submitted", last.Event)
	assert.Equal(t, 95.0, last.Score)
	assert.Len(t, p.Log, 3)
}
