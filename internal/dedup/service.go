package dedup

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/campusworks/eventhub/internal/errors"
)

// Detector tuning defaults. Threshold, suggestion cutoff and block
// probability are three independent cut points; none is derived from another.
const (
	// DefaultThreshold is the probability at or above which a scored pair
	// lands in the duplicates bucket.
	DefaultThreshold = 0.8
	// SuggestionCutoff is the fixed advisory floor: pairs below the duplicate
	// threshold but at or above this land in the suggestions bucket.
	SuggestionCutoff = 0.5
	// BlockProbability is the floor at which the creation gate refuses the
	// event outright. It coincides with the very-high confidence breakpoint.
	BlockProbability = 0.9

	DefaultDateWindowDays = 7
	DefaultVenueRadiusKm  = 5.0
	DefaultCandidateLimit = 50

	maxDuplicates  = 5
	maxSuggestions = 3
)

// Sentinel errors surfaced by the detector.
var (
	// ErrInvalidCandidate means the candidate event is missing fields the
	// scorer needs. No store query has been issued when this is returned.
	ErrInvalidCandidate = errors.NewStd("invalid candidate event")
	// ErrDetectionUnavailable means the event store query failed. Callers
	// treat this as non-fatal and fail open.
	ErrDetectionUnavailable = errors.NewStd("duplicate detection unavailable")
)

// CandidateStatuses are the event states eligible for the candidate pool.
var CandidateStatuses = []string{"draft", "published"}

// EventStore is the detector's view of the event catalog. Implementations
// return events matching all filter fields; ordering is store-defined.
type EventStore interface {
	FindCandidates(ctx context.Context, query CandidateQuery) ([]Event, error)
}

// CandidateQuery bounds the candidate pool for one duplicate check.
type CandidateQuery struct {
	Category    string
	Statuses    []string
	WindowStart time.Time
	WindowEnd   time.Time
	ExcludeID   string
	Limit       int
}

// Config carries the detector's tunable constants. A zero value field falls
// back to its default at construction time.
type Config struct {
	Threshold      float64
	DateWindowDays int
	VenueRadiusKm  float64
	CandidateLimit int
}

// DefaultConfig returns the stock detector tuning.
func DefaultConfig() Config {
	return Config{
		Threshold:      DefaultThreshold,
		DateWindowDays: DefaultDateWindowDays,
		VenueRadiusKm:  DefaultVenueRadiusKm,
		CandidateLimit: DefaultCandidateLimit,
	}
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.DateWindowDays <= 0 {
		c.DateWindowDays = DefaultDateWindowDays
	}
	if c.VenueRadiusKm <= 0 {
		c.VenueRadiusKm = DefaultVenueRadiusKm
	}
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = DefaultCandidateLimit
	}
	return c
}

// Options adjusts a single duplicate check.
type Options struct {
	// Threshold overrides the configured duplicate threshold when positive.
	Threshold float64
	// Limit overrides the configured candidate pool cap when positive.
	Limit int
	// ExcludeEventID removes one stored event from the pool, used when
	// re-checking an event being updated against its own stored row.
	ExcludeEventID string
}

// Summary carries the aggregate numbers for one check.
type Summary struct {
	TotalChecked                   int     `json:"totalChecked"`
	Threshold                      float64 `json:"threshold"`
	HighConfidenceDuplicateCount   int     `json:"highConfidenceDuplicateCount"`
	MediumConfidenceDuplicateCount int     `json:"mediumConfidenceDuplicateCount"`
}

// Result is the ranked, size-capped outcome of one duplicate check.
type Result struct {
	IsDuplicate bool      `json:"isDuplicate"`
	Duplicates  []Verdict `json:"duplicates"`
	Suggestions []Verdict `json:"suggestions"`
	Analysis    Summary   `json:"analysis"`
}

// ShouldBlock reports whether the result contains a duplicate confident
// enough to refuse the event outright.
func (r *Result) ShouldBlock() bool {
	for i := range r.Duplicates {
		if r.Duplicates[i].Confidence == ConfidenceVeryHigh {
			return true
		}
	}
	return false
}

// ShouldWarn reports whether the result warrants a user-facing warning.
func (r *Result) ShouldWarn() bool {
	return len(r.Duplicates) > 0 || len(r.Suggestions) > 0
}

// Service orchestrates candidate retrieval, scoring and classification. It is
// stateless between calls and safe for concurrent use.
type Service struct {
	store    EventStore
	cfg      Config
	scorer   *Scorer
	analyzer *Analyzer
	logger   *slog.Logger
}

// NewService builds a detector service over the given event store.
func NewService(store EventStore, cfg Config, logger *slog.Logger) *Service {
	cfg = cfg.withDefaults()
	scorer := NewScorer(cfg.DateWindowDays, cfg.VenueRadiusKm)
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		cfg:      cfg,
		scorer:   scorer,
		analyzer: NewAnalyzer(scorer),
		logger:   logger.With("service", "dedup"),
	}
}

// Explain renders a verdict as a human-readable rationale.
func (s *Service) Explain(verdict Verdict) string {
	return Explain(verdict)
}

// CheckForDuplicates scores the candidate against the bounded pool of stored
// events in the same category and date window, and partitions the verdicts
// into duplicates and suggestions.
func (s *Service) CheckForDuplicates(ctx context.Context, candidate Event, opts Options) (*Result, error) {
	if err := validateCandidate(candidate); err != nil {
		return nil, err
	}

	threshold := s.cfg.Threshold
	if opts.Threshold > 0 {
		threshold = opts.Threshold
	}
	limit := s.cfg.CandidateLimit
	if opts.Limit > 0 {
		limit = opts.Limit
	}

	window := time.Duration(s.cfg.DateWindowDays) * 24 * time.Hour
	query := CandidateQuery{
		Category:    candidate.Category,
		Statuses:    CandidateStatuses,
		WindowStart: candidate.StartTime.Add(-window),
		WindowEnd:   candidate.StartTime.Add(window),
		ExcludeID:   opts.ExcludeEventID,
		Limit:       limit,
	}

	started := time.Now()
	pool, err := s.store.FindCandidates(ctx, query)
	if err != nil {
		return nil, errors.New(errors.Join(ErrDetectionUnavailable, err)).
			Component("dedup").
			Category(errors.CategoryDetection).
			Context("event_category", candidate.Category).
			Timing("find_candidates", time.Since(started)).
			Build()
	}

	var duplicates, suggestions []Verdict
	for i := range pool {
		verdict, ok := s.scorePair(candidate, pool[i])
		if !ok {
			continue
		}
		switch {
		case verdict.Probability >= threshold:
			duplicates = append(duplicates, verdict)
		case verdict.Probability >= SuggestionCutoff:
			suggestions = append(suggestions, verdict)
		}
	}

	sortByProbability(duplicates)
	sortByProbability(suggestions)

	summary := Summary{
		TotalChecked: len(pool),
		Threshold:    threshold,
	}
	for i := range duplicates {
		switch duplicates[i].Confidence {
		case ConfidenceHigh:
			summary.HighConfidenceDuplicateCount++
		case ConfidenceMedium:
			summary.MediumConfidenceDuplicateCount++
		}
	}

	if len(duplicates) > maxDuplicates {
		duplicates = duplicates[:maxDuplicates]
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	result := &Result{
		IsDuplicate: len(duplicates) > 0,
		Duplicates:  duplicates,
		Suggestions: suggestions,
		Analysis:    summary,
	}

	s.logger.Debug("duplicate check completed",
		"category", candidate.Category,
		"total_checked", summary.TotalChecked,
		"duplicates", len(duplicates),
		"suggestions", len(suggestions),
		"threshold", threshold,
		"duration_ms", time.Since(started).Milliseconds())

	return result, nil
}

// scorePair scores one pair defensively: a malformed stored record or a
// scoring panic skips the pair instead of aborting the whole batch.
func (s *Service) scorePair(candidate, existing Event) (verdict Verdict, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("skipping candidate pair after scoring panic",
				"existing_id", existing.ID, "panic", r)
			ok = false
		}
	}()

	if strings.TrimSpace(existing.Title) == "" || existing.StartTime.IsZero() {
		s.logger.Warn("skipping malformed stored event", "existing_id", existing.ID)
		return Verdict{}, false
	}

	probability, factors := s.analyzer.ScorePair(candidate, existing)
	return Verdict{
		Event:       existing,
		Probability: probability,
		Factors:     factors,
		Confidence:  Classify(probability),
	}, true
}

func validateCandidate(candidate Event) error {
	missing := ""
	switch {
	case strings.TrimSpace(candidate.Title) == "":
		missing = "title"
	case strings.TrimSpace(candidate.Description) == "":
		missing = "description"
	case strings.TrimSpace(candidate.Category) == "":
		missing = "category"
	case strings.TrimSpace(candidate.Venue.Name) == "":
		missing = "venue.name"
	case candidate.StartTime.IsZero():
		missing = "startTime"
	}
	if missing == "" {
		return nil
	}
	return errors.New(errors.Join(ErrInvalidCandidate, errors.NewStd("missing "+missing))).
		Component("dedup").
		Category(errors.CategoryValidation).
		Context("missing_field", missing).
		Build()
}

func sortByProbability(verdicts []Verdict) {
	sort.SliceStable(verdicts, func(i, j int) bool {
		return verdicts[i].Probability > verdicts[j].Probability
	})
}
