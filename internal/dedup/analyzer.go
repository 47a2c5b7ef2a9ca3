package dedup

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/campusworks/eventhub/internal/errors"
)

// Factors holds the per-field similarity scores for one event pair. Every
// value is in [0,1]; CategoryMatch and OrganizerMatch are exactly 0 or 1.
type Factors struct {
	TitleSimilarity       float64 `json:"titleSimilarity"`
	DescriptionSimilarity float64 `json:"descriptionSimilarity"`
	DateProximity         float64 `json:"dateProximity"`
	VenueProximity        float64 `json:"venueProximity"`
	CategoryMatch         float64 `json:"categoryMatch"`
	OrganizerMatch        float64 `json:"organizerMatch"`
}

// Confidence is the ordinal classification of a duplicate probability.
type Confidence int

const (
	ConfidenceVeryLow Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
	ConfidenceVeryHigh
)

var confidenceNames = [...]string{"very_low", "low", "medium", "high", "very_high"}

func (c Confidence) String() string {
	if c < ConfidenceVeryLow || c > ConfidenceVeryHigh {
		return "unknown"
	}
	return confidenceNames[c]
}

// MarshalJSON renders the confidence tier as its snake_case name.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON parses a snake_case confidence name.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range confidenceNames {
		if n == name {
			*c = Confidence(i)
			return nil
		}
	}
	return errors.NewStd("unknown confidence tier " + name)
}

// Verdict is the scored outcome for one candidate/existing pair.
type Verdict struct {
	Event       Event      `json:"event"`
	Probability float64    `json:"probability"`
	Factors     Factors    `json:"factors"`
	Confidence  Confidence `json:"confidence"`
}

// Field weights for the combined probability. They sum to 1.0, so the
// probability stays in [0,1] for factors in their valid domains.
const (
	weightTitle       = 0.35
	weightDescription = 0.20
	weightDate        = 0.15
	weightVenue       = 0.15
	weightCategory    = 0.10
	weightOrganizer   = 0.05
)

// Confidence breakpoints, inclusive on the upper tier.
const (
	veryHighBreakpoint = 0.9
	highBreakpoint     = 0.8
	mediumBreakpoint   = 0.6
	lowBreakpoint      = 0.4
)

// Analyzer combines per-field similarities into one weighted probability per
// event pair and classifies it into a confidence tier.
type Analyzer struct {
	scorer *Scorer
}

// NewAnalyzer returns an analyzer using the given scorer.
func NewAnalyzer(scorer *Scorer) *Analyzer {
	return &Analyzer{scorer: scorer}
}

// ScorePair computes the similarity factors for the pair and folds them into
// a single probability.
func (a *Analyzer) ScorePair(candidate, existing Event) (float64, Factors) {
	factors := Factors{
		TitleSimilarity:       CombinedTextSimilarity(candidate.Title, existing.Title),
		DescriptionSimilarity: CombinedTextSimilarity(candidate.Description, existing.Description),
		DateProximity:         a.scorer.DateProximity(candidate.StartTime, existing.StartTime),
		VenueProximity:        a.scorer.VenueProximity(candidate.Venue, existing.Venue),
	}
	if candidate.Category == existing.Category {
		factors.CategoryMatch = 1
	}
	if candidate.OrganizerID == existing.OrganizerID {
		factors.OrganizerMatch = 1
	}

	probability := weightTitle*factors.TitleSimilarity +
		weightDescription*factors.DescriptionSimilarity +
		weightDate*factors.DateProximity +
		weightVenue*factors.VenueProximity +
		weightCategory*factors.CategoryMatch +
		weightOrganizer*factors.OrganizerMatch

	return probability, factors
}

// Classify maps a probability to its confidence tier.
func Classify(probability float64) Confidence {
	switch {
	case probability >= veryHighBreakpoint:
		return ConfidenceVeryHigh
	case probability >= highBreakpoint:
		return ConfidenceHigh
	case probability >= mediumBreakpoint:
		return ConfidenceMedium
	case probability >= lowBreakpoint:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

// Explain renders a verdict as a human-readable rationale: a fixed-order list
// of clauses, one per factor whose trigger condition holds.
func Explain(verdict Verdict) string {
	f := verdict.Factors
	var clauses []string

	if f.TitleSimilarity > 0.8 {
		clauses = append(clauses, fmt.Sprintf("Event titles are %d%% similar", roundPercent(f.TitleSimilarity)))
	}
	if f.DescriptionSimilarity > 0.7 {
		clauses = append(clauses, fmt.Sprintf("Event descriptions are %d%% similar", roundPercent(f.DescriptionSimilarity)))
	}
	if f.DateProximity > 0.8 {
		clauses = append(clauses, "Events are scheduled very close in time")
	}
	if f.VenueProximity > 0.8 {
		clauses = append(clauses, "Events are at the same or very similar venue")
	}
	if f.CategoryMatch == 1 {
		clauses = append(clauses, "Events are in the same category")
	}
	if f.OrganizerMatch == 1 {
		clauses = append(clauses, "Events have the same organizer")
	}

	if len(clauses) == 0 {
		return "General similarity detected"
	}
	return strings.Join(clauses, ", ")
}

func roundPercent(score float64) int {
	return int(math.Round(score * 100))
}
