package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"github.com/campusworks/eventhub/internal/dedup"
	"github.com/campusworks/eventhub/internal/errors"
)

// DuplicateCheckRequest is the body for POST /events/check-duplicates. The
// payload mirrors an event draft; nothing is persisted.
type DuplicateCheckRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Venue       VenueRequest `json:"venue"`
	StartTime   time.Time    `json:"startTime"`

	// ExcludeEventID removes one stored event from the candidate pool, used
	// when re-checking an edit of an existing event.
	ExcludeEventID string `json:"excludeEventId"`

	// Threshold optionally overrides the advisory threshold. Values outside
	// (0, 1] are ignored.
	Threshold float64 `json:"threshold"`
}

// Recommendations tells the client what to do with the result.
type Recommendations struct {
	ShouldBlock bool `json:"shouldBlock"`
	ShouldWarn  bool `json:"shouldWarn"`
}

// DuplicateCheckResponse is the advisory check result. When the detector is
// unavailable the response is empty with DetectionUnavailable set, never an
// error status.
type DuplicateCheckResponse struct {
	IsDuplicate          bool            `json:"isDuplicate"`
	Duplicates           []dedup.Verdict `json:"duplicates"`
	Suggestions          []dedup.Verdict `json:"suggestions"`
	Analysis             dedup.Summary   `json:"analysis"`
	Recommendations      Recommendations `json:"recommendations"`
	DetectionUnavailable bool            `json:"detectionUnavailable,omitempty"`
}

// CheckDuplicates handles POST /api/v2/events/check-duplicates
func (c *Controller) CheckDuplicates(ctx echo.Context) error {
	var req DuplicateCheckRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	// score as the authenticated user so the advisory result matches what
	// the write-path gate will later compute for the same draft
	session, _ := currentSession(ctx)
	organizerRef := dedup.OrganizerRef(session.UserID)

	key := organizerRef + ":" + duplicateCheckCacheKey(&req)
	if cached, found := c.dedupCache.Get(key); found {
		return ctx.JSON(http.StatusOK, cached.(*DuplicateCheckResponse))
	}

	threshold := advisoryThreshold
	if req.Threshold > 0 && req.Threshold <= 1 {
		threshold = req.Threshold
	}

	candidate := dedup.Event{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Venue: dedup.Venue{
			Name:      req.Venue.Name,
			Street:    req.Venue.Street,
			City:      req.Venue.City,
			Latitude:  req.Venue.Latitude,
			Longitude: req.Venue.Longitude,
		},
		StartTime:   req.StartTime,
		OrganizerID: organizerRef,
	}

	start := time.Now()
	result, err := c.Detector.CheckForDuplicates(ctx.Request().Context(), candidate, dedup.Options{
		Threshold:      threshold,
		ExcludeEventID: req.ExcludeEventID,
	})
	if c.metrics != nil {
		c.metrics.DedupChecks.Inc()
		c.metrics.DedupCheckDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		// malformed drafts are the caller's fault; everything else falls open
		if errors.Is(err, dedup.ErrInvalidCandidate) {
			return c.HandleError(ctx, err, "Event draft is incomplete", http.StatusBadRequest)
		}
		if c.metrics != nil {
			c.metrics.DedupFailures.Inc()
		}
		c.apiLogger.Warn("advisory duplicate check unavailable",
			"title", req.Title,
			"error", err.Error())
		return ctx.JSON(http.StatusOK, &DuplicateCheckResponse{
			Duplicates:           []dedup.Verdict{},
			Suggestions:          []dedup.Verdict{},
			DetectionUnavailable: true,
		})
	}

	if c.metrics != nil && result.IsDuplicate {
		c.metrics.DedupDuplicatesFound.Inc()
	}

	resp := &DuplicateCheckResponse{
		IsDuplicate: result.IsDuplicate,
		Duplicates:  result.Duplicates,
		Suggestions: result.Suggestions,
		Analysis:    result.Analysis,
		Recommendations: Recommendations{
			ShouldBlock: result.ShouldBlock(),
			ShouldWarn:  result.ShouldWarn(),
		},
	}
	c.dedupCache.Set(key, resp, cache.DefaultExpiration)
	return ctx.JSON(http.StatusOK, resp)
}

// duplicateCheckCacheKey hashes the request payload so identical re-checks
// within the cache window are served without hitting the detector.
func duplicateCheckCacheKey(req *DuplicateCheckRequest) string {
	raw, err := json.Marshal(req)
	if err != nil {
		return req.Title + "|" + req.Category
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
