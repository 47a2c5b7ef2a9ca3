package dedup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/eventhub/internal/errors"
)

// stubStore is an in-memory EventStore capturing the query it was given.
type stubStore struct {
	events    []Event
	err       error
	lastQuery CandidateQuery
	calls     int
}

func (s *stubStore) FindCandidates(_ context.Context, query CandidateQuery) ([]Event, error) {
	s.calls++
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

func validCandidate() Event {
	return Event{
		Title:       "AI Workshop 2024",
		Description: "Learn about AI and ML for 2 hours",
		Category:    "technology",
		Venue:       Venue{Name: "Tech Auditorium"},
		StartTime:   time.Date(2024, 9, 12, 18, 0, 0, 0, time.UTC),
		OrganizerID: "org-1",
	}
}

func TestCheckForDuplicatesPartitioning(t *testing.T) {
	t.Parallel()

	candidate := validCandidate()

	// Near-identical event, same organizer: scores well above 0.9.
	duplicate := candidate
	duplicate.ID = "evt-dup"
	duplicate.Title = "AI Workshop 2024!"

	// Same title, category, venue name, one day later, unrelated description
	// and organizer: lands between 0.5 and 0.8.
	suggestion := Event{
		ID:          "evt-sugg",
		Title:       "AI Workshop 2024",
		Description: "Quarterly robotics club meetup with pizza",
		Category:    "technology",
		Venue:       Venue{Name: "Tech Auditorium"},
		StartTime:   candidate.StartTime.Add(24 * time.Hour),
		OrganizerID: "org-2",
	}

	// Unrelated event in the same category: discarded.
	unrelated := Event{
		ID:          "evt-none",
		Title:       "Zumba Flash Mob",
		Description: "Outdoor dance party with live drummers and free snacks",
		Category:    "technology",
		Venue:       Venue{Name: "Riverside Park"},
		StartTime:   candidate.StartTime.Add(6 * 24 * time.Hour),
		OrganizerID: "org-3",
	}

	store := &stubStore{events: []Event{unrelated, suggestion, duplicate}}
	svc := NewService(store, DefaultConfig(), nil)

	result, err := svc.CheckForDuplicates(context.Background(), candidate, Options{})
	require.NoError(t, err)

	assert.True(t, result.IsDuplicate)
	require.Len(t, result.Duplicates, 1)
	assert.Equal(t, "evt-dup", result.Duplicates[0].Event.ID)
	assert.Equal(t, ConfidenceVeryHigh, result.Duplicates[0].Confidence)

	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, "evt-sugg", result.Suggestions[0].Event.ID)

	assert.Equal(t, 3, result.Analysis.TotalChecked)
	assert.InDelta(t, DefaultThreshold, result.Analysis.Threshold, 1e-9)
	assert.Equal(t, 0, result.Analysis.HighConfidenceDuplicateCount)
	assert.Equal(t, 0, result.Analysis.MediumConfidenceDuplicateCount)

	assert.True(t, result.ShouldBlock())
	assert.True(t, result.ShouldWarn())
}

func TestCheckForDuplicatesQueryBounds(t *testing.T) {
	t.Parallel()

	candidate := validCandidate()
	store := &stubStore{}
	svc := NewService(store, DefaultConfig(), nil)

	_, err := svc.CheckForDuplicates(context.Background(), candidate, Options{
		Threshold:      0.7,
		Limit:          10,
		ExcludeEventID: "evt-self",
	})
	require.NoError(t, err)

	q := store.lastQuery
	assert.Equal(t, "technology", q.Category)
	assert.Equal(t, CandidateStatuses, q.Statuses)
	assert.Equal(t, candidate.StartTime.AddDate(0, 0, -7), q.WindowStart)
	assert.Equal(t, candidate.StartTime.AddDate(0, 0, 7), q.WindowEnd)
	assert.Equal(t, "evt-self", q.ExcludeID)
	assert.Equal(t, 10, q.Limit)
}

func TestCheckForDuplicatesThresholdOverride(t *testing.T) {
	t.Parallel()

	candidate := validCandidate()

	// Probability ~0.68: below the default 0.8 threshold, above 0.5.
	borderline := Event{
		ID:          "evt-border",
		Title:       "AI Workshop 2024",
		Description: "Quarterly robotics club meetup with pizza",
		Category:    "technology",
		Venue:       Venue{Name: "Tech Auditorium"},
		StartTime:   candidate.StartTime.Add(24 * time.Hour),
		OrganizerID: "org-2",
	}
	store := &stubStore{events: []Event{borderline}}
	svc := NewService(store, DefaultConfig(), nil)

	t.Run("DefaultThresholdSuggests", func(t *testing.T) {
		result, err := svc.CheckForDuplicates(context.Background(), candidate, Options{})
		require.NoError(t, err)
		assert.False(t, result.IsDuplicate)
		assert.Empty(t, result.Duplicates)
		require.Len(t, result.Suggestions, 1)
	})

	t.Run("LowerThresholdPromotes", func(t *testing.T) {
		result, err := svc.CheckForDuplicates(context.Background(), candidate, Options{Threshold: 0.6})
		require.NoError(t, err)
		assert.True(t, result.IsDuplicate)
		require.Len(t, result.Duplicates, 1)
		assert.Empty(t, result.Suggestions)
		assert.Equal(t, 1, result.Analysis.MediumConfidenceDuplicateCount)
		assert.False(t, result.ShouldBlock(), "medium confidence must not block")
	})
}

func TestCheckForDuplicatesTruncation(t *testing.T) {
	t.Parallel()

	candidate := validCandidate()
	var pool []Event
	for i := 0; i < 10; i++ {
		dup := candidate
		dup.ID = fmt.Sprintf("evt-%d", i)
		dup.OrganizerID = "org-1"
		pool = append(pool, dup)
	}

	store := &stubStore{events: pool}
	svc := NewService(store, DefaultConfig(), nil)

	result, err := svc.CheckForDuplicates(context.Background(), candidate, Options{})
	require.NoError(t, err)

	assert.True(t, result.IsDuplicate)
	assert.Len(t, result.Duplicates, 5)
	assert.Equal(t, 10, result.Analysis.TotalChecked)
	for i := 1; i < len(result.Duplicates); i++ {
		assert.GreaterOrEqual(t,
			result.Duplicates[i-1].Probability,
			result.Duplicates[i].Probability,
			"duplicates must be sorted descending")
	}
}

func TestCheckForDuplicatesInvalidCandidate(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	svc := NewService(store, DefaultConfig(), nil)

	tests := []struct {
		name   string
		mutate func(*Event)
	}{
		{"MissingTitle", func(e *Event) { e.Title = " " }},
		{"MissingDescription", func(e *Event) { e.Description = "" }},
		{"MissingCategory", func(e *Event) { e.Category = "" }},
		{"MissingVenueName", func(e *Event) { e.Venue.Name = "" }},
		{"MissingStartTime", func(e *Event) { e.StartTime = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := validCandidate()
			tt.mutate(&candidate)

			_, err := svc.CheckForDuplicates(context.Background(), candidate, Options{})
			require.ErrorIs(t, err, ErrInvalidCandidate)
		})
	}

	assert.Zero(t, store.calls, "no store query may be issued for an invalid candidate")
}

func TestCheckForDuplicatesStoreFailure(t *testing.T) {
	t.Parallel()

	store := &stubStore{err: errors.NewStd("connection refused")}
	svc := NewService(store, DefaultConfig(), nil)

	result, err := svc.CheckForDuplicates(context.Background(), validCandidate(), Options{})
	assert.Nil(t, result)
	require.ErrorIs(t, err, ErrDetectionUnavailable)
	assert.True(t, errors.HasCategory(err, errors.CategoryDetection))
}

func TestCheckForDuplicatesSkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	candidate := validCandidate()
	good := candidate
	good.ID = "evt-good"

	malformed := Event{ID: "evt-bad", Category: "technology"} // no title, zero start

	store := &stubStore{events: []Event{malformed, good}}
	svc := NewService(store, DefaultConfig(), nil)

	result, err := svc.CheckForDuplicates(context.Background(), candidate, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Analysis.TotalChecked)
	require.Len(t, result.Duplicates, 1)
	assert.Equal(t, "evt-good", result.Duplicates[0].Event.ID)
	assert.Empty(t, result.Suggestions)
}

func TestCheckForDuplicatesEmptyPool(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	svc := NewService(store, DefaultConfig(), nil)

	result, err := svc.CheckForDuplicates(context.Background(), validCandidate(), Options{})
	require.NoError(t, err)

	assert.False(t, result.IsDuplicate)
	assert.Empty(t, result.Duplicates)
	assert.Empty(t, result.Suggestions)
	assert.False(t, result.ShouldWarn())
	assert.Zero(t, result.Analysis.TotalChecked)
}
