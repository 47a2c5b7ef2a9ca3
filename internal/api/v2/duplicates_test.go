package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/eventhub/internal/dedup"
	"github.com/campusworks/eventhub/internal/errors"
)

// failingEventStore makes every candidate query fail.
type failingEventStore struct{ calls int }

func (s *failingEventStore) FindCandidates(context.Context, dedup.CandidateQuery) ([]dedup.Event, error) {
	s.calls++
	return nil, errors.NewStd("connection refused")
}

// countingEventStore serves a fixed pool and counts queries.
type countingEventStore struct {
	events []dedup.Event
	calls  int
}

func (s *countingEventStore) FindCandidates(context.Context, dedup.CandidateQuery) ([]dedup.Event, error) {
	s.calls++
	return s.events, nil
}

func draftPayload(start time.Time) map[string]any {
	return map[string]any{
		"title":       "AI Workshop 2026",
		"description": "Hands-on introduction to machine learning",
		"category":    "technology",
		"venue":       map[string]any{"name": "Main Hall"},
		"startTime":   start.Format(time.RFC3339),
	}
}

func TestCheckDuplicatesBlocks(t *testing.T) {
	env := setupTestEnv(t)
	user, token := env.seedUser(t, "Organizer", "org@example.edu", "organizer")

	start := time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC)
	env.seedEvent(t, user.ID, "AI Workshop 2026", "Hands-on introduction to machine learning", start)

	rec := env.doJSON(t, http.MethodPost, "/api/v2/events/check-duplicates", token, draftPayload(start))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[DuplicateCheckResponse](t, rec)
	require.True(t, resp.IsDuplicate)
	require.Len(t, resp.Duplicates, 1)
	// identical title, description, date, category, venue name and the
	// same organizer on both sides
	assert.InDelta(t, 0.925, resp.Duplicates[0].Probability, 1e-6)
	assert.Equal(t, dedup.ConfidenceVeryHigh, resp.Duplicates[0].Confidence)
	assert.True(t, resp.Recommendations.ShouldBlock)
	assert.True(t, resp.Recommendations.ShouldWarn)
	assert.False(t, resp.DetectionUnavailable)
}

func TestCheckDuplicatesWarnsWithoutBlocking(t *testing.T) {
	env := setupTestEnv(t)
	user, token := env.seedUser(t, "Organizer", "org@example.edu", "organizer")

	start := time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC)
	// same content two days earlier scores high but below the block line
	env.seedEvent(t, user.ID, "AI Workshop 2026", "Hands-on introduction to machine learning", start.Add(-48*time.Hour))

	rec := env.doJSON(t, http.MethodPost, "/api/v2/events/check-duplicates", token, draftPayload(start))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[DuplicateCheckResponse](t, rec)
	require.True(t, resp.IsDuplicate)
	require.Len(t, resp.Duplicates, 1)
	assert.InDelta(t, 0.8821428571, resp.Duplicates[0].Probability, 1e-6)
	assert.Equal(t, dedup.ConfidenceHigh, resp.Duplicates[0].Confidence)
	assert.False(t, resp.Recommendations.ShouldBlock)
	assert.True(t, resp.Recommendations.ShouldWarn)
}

func TestCheckDuplicatesAgreesWithCreateGate(t *testing.T) {
	env := setupTestEnv(t)
	user, token := env.seedUser(t, "Organizer", "org@example.edu", "organizer")
	other, _ := env.seedUser(t, "Rival", "rival@example.edu", "organizer")

	start := time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC)

	// a near-identical event owned by someone else: the advisory check scores
	// below the block line and event creation is allowed through
	env.seedEvent(t, other.ID, "AI Workshop 2026", "Hands-on introduction to machine learning", start)

	rec := env.doJSON(t, http.MethodPost, "/api/v2/events/check-duplicates", token, draftPayload(start))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[DuplicateCheckResponse](t, rec)
	require.Len(t, resp.Duplicates, 1)
	assert.InDelta(t, 0.875, resp.Duplicates[0].Probability, 1e-6)
	assert.False(t, resp.Recommendations.ShouldBlock)

	rec = env.doJSON(t, http.MethodPost, "/api/v2/events", token, eventPayload(start))
	require.Equal(t, http.StatusCreated, rec.Code)

	// the same draft checked against the caller's own event scores as a very
	// high match, and creation is rejected just as the advisory predicted
	env.seedEvent(t, user.ID, "Robotics Demo Night", "Live demos from the robotics club", start)

	drec := env.doJSON(t, http.MethodPost, "/api/v2/events/check-duplicates", token, map[string]any{
		"title":       "Robotics Demo Night",
		"description": "Live demos from the robotics club",
		"category":    "technology",
		"venue":       map[string]any{"name": "Main Hall"},
		"startTime":   start.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, drec.Code)
	dresp := decodeBody[DuplicateCheckResponse](t, drec)
	require.NotEmpty(t, dresp.Duplicates)
	assert.True(t, dresp.Recommendations.ShouldBlock)

	crec := env.doJSON(t, http.MethodPost, "/api/v2/events", token, map[string]any{
		"title":       "Robotics Demo Night",
		"description": "Live demos from the robotics club",
		"category":    "technology",
		"venue":       map[string]any{"name": "Main Hall"},
		"startTime":   start.Format(time.RFC3339),
		"endTime":     start.Add(2 * time.Hour).Format(time.RFC3339),
		"capacity":    100,
		"status":      "published",
	})
	assert.Equal(t, http.StatusConflict, crec.Code)
}

func TestCheckDuplicatesCleanDraft(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.seedUser(t, "Organizer", "org@example.edu", "organizer")

	start := time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC)
	rec := env.doJSON(t, http.MethodPost, "/api/v2/events/check-duplicates", token, draftPayload(start))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[DuplicateCheckResponse](t, rec)
	assert.False(t, resp.IsDuplicate)
	assert.Empty(t, resp.Duplicates)
	assert.Empty(t, resp.Suggestions)
	assert.False(t, resp.Recommendations.ShouldWarn)
}

func TestCheckDuplicatesFailsOpen(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.seedUser(t, "Organizer", "org@example.edu", "organizer")

	store := &failingEventStore{}
	env.controller.Detector = dedup.NewService(store, dedup.DefaultConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC)
	rec := env.doJSON(t, http.MethodPost, "/api/v2/events/check-duplicates", token, draftPayload(start))

	// detector failure never surfaces as an error status
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[DuplicateCheckResponse](t, rec)
	assert.True(t, resp.DetectionUnavailable)
	assert.False(t, resp.IsDuplicate)
	assert.False(t, resp.Recommendations.ShouldBlock)
	require.Equal(t, 1, store.calls)
}

func TestCheckDuplicatesIncompleteDraft(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.seedUser(t, "Organizer", "org@example.edu", "organizer")

	rec := env.doJSON(t, http.MethodPost, "/api/v2/events/check-duplicates", token, map[string]any{
		"title": "Only a title",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckDuplicatesCachesResponses(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.seedUser(t, "Organizer", "org@example.edu", "organizer")

	store := &countingEventStore{}
	env.controller.Detector = dedup.NewService(store, dedup.DefaultConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC)
	payload := draftPayload(start)

	rec := env.doJSON(t, http.MethodPost, "/api/v2/events/check-duplicates", token, payload)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.doJSON(t, http.MethodPost, "/api/v2/events/check-duplicates", token, payload)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, store.calls, "identical re-check should be served from cache")

	// a different draft misses the cache
	other := draftPayload(start)
	other["title"] = "Robotics Demo Night"
	rec = env.doJSON(t, http.MethodPost, "/api/v2/events/check-duplicates", token, other)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, store.calls)
}

func TestCheckDuplicatesThresholdOverride(t *testing.T) {
	env := setupTestEnv(t)
	user, token := env.seedUser(t, "Organizer", "org@example.edu", "organizer")

	start := time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC)
	env.seedEvent(t, user.ID, "AI Workshop 2026", "Hands-on introduction to machine learning", start.Add(-48*time.Hour))

	payload := draftPayload(start)
	payload["threshold"] = 0.95

	rec := env.doJSON(t, http.MethodPost, "/api/v2/events/check-duplicates", token, payload)
	require.Equal(t, http.StatusOK, rec.Code)

	// 0.882 misses the raised threshold and lands in suggestions instead
	resp := decodeBody[DuplicateCheckResponse](t, rec)
	assert.False(t, resp.IsDuplicate)
	assert.Empty(t, resp.Duplicates)
	require.Len(t, resp.Suggestions, 1)
	assert.InDelta(t, 0.95, resp.Analysis.Threshold, 1e-9)
}
