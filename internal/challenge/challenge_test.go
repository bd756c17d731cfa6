package challenge

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		start    time.Time
		expected Status
	}{
		{name: "tomorrow", start: now.AddDate(0, 0, 1), expected: StatusDraft},
		{name: "today later", start: now.Add(3 * time.Hour), expected: StatusActive},
		{name: "today midnight", start: time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), expected: StatusActive},
		{name: "yesterday", start: now.AddDate(0, 0, -1), expected: StatusActive},
		{name: "next month", start: now.AddDate(0, 1, 0), expected: StatusDraft},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DeriveStatus(tc.start, now))
		})
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("active")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, st)

	_, err = ParseStatus("planned")
	assert.Error(t, err)
}

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t, "desc...", DeriveTitle("desc"))

	long := strings.Repeat("a", 60)
	assert.Equal(t, strings.Repeat("a", 50)+"...", DeriveTitle(long))

	// multi-byte characters are counted as characters, not bytes
	unicode := strings.Repeat("é", 55)
	assert.Equal(t, strings.Repeat("é", 50)+"...", DeriveTitle(unicode))
}

func TestSubmissionStatusTransitions(t *testing.T) {
	assert.True(t, SubmissionUnderReview.CanTransitionTo(SubmissionApproved))
	assert.False(t, SubmissionApproved.CanTransitionTo(SubmissionApproved))
	assert.False(t, SubmissionScored.CanTransitionTo(SubmissionApproved))
	assert.False(t, SubmissionUnderReview.CanTransitionTo(SubmissionScored))

	_, err := ParseSubmissionStatus("pending")
	assert.Error(t, err)
	assert.Equal(t, "Under Review", SubmissionUnderReview.Label())
}
