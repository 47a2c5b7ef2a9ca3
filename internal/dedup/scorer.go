// Package dedup implements the duplicate-event detector: per-field similarity
// scoring, weighted pair analysis with confidence classification, and the
// service that checks a candidate event against a pool of stored events.
package dedup

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// Scorer computes normalized [0,1] similarity scores for individual event
// fields. Text scoring is stateless; date and venue scoring depend on the
// configured proximity window and radius.
type Scorer struct {
	// DateWindowDays is the span in days beyond which two start times score 0.
	DateWindowDays int
	// VenueRadiusKm is the distance beyond which two coordinate pairs score 0.
	VenueRadiusKm float64
}

// NewScorer returns a scorer with the given proximity tunables. Non-positive
// values fall back to the defaults (7 days, 5 km).
func NewScorer(dateWindowDays int, venueRadiusKm float64) *Scorer {
	if dateWindowDays <= 0 {
		dateWindowDays = DefaultDateWindowDays
	}
	if venueRadiusKm <= 0 {
		venueRadiusKm = DefaultVenueRadiusKm
	}
	return &Scorer{DateWindowDays: dateWindowDays, VenueRadiusKm: venueRadiusKm}
}

// normalizeText lowercases, trims and strips every rune that is not a letter,
// digit or whitespace.
func normalizeText(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TextSimilarity scores two strings by normalized edit distance. Identical
// strings (after normalization) score 1; otherwise the Levenshtein distance
// is scaled by the longer string's length.
func TextSimilarity(a, b string) float64 {
	na := []rune(normalizeText(a))
	nb := []rune(normalizeText(b))

	if string(na) == string(nb) {
		return 1
	}

	longest := len(na)
	if len(nb) > longest {
		longest = len(nb)
	}
	// longest cannot be 0 here: two empty strings are equal.
	distance := levenshtein(na, nb)
	return 1 - float64(distance)/float64(longest)
}

// levenshtein computes the edit distance between two rune slices with unit
// costs for insertion, deletion and substitution, using a rolling row.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// WordSetSimilarity computes the Jaccard similarity between the significant
// tokens of two strings. Tokens of three or more runes only; an empty union
// scores 0.
func WordSetSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(normalizeText(s)) {
		if len([]rune(token)) > 2 {
			set[token] = struct{}{}
		}
	}
	return set
}

// Weights for the combined text score: edit distance dominates, word overlap
// corrects for reordered or partially shared titles.
const (
	editDistanceWeight = 0.6
	wordOverlapWeight  = 0.4
)

// CombinedTextSimilarity blends edit-distance and word-set similarity. Used
// for titles, descriptions, venue names and venue addresses.
func CombinedTextSimilarity(a, b string) float64 {
	return editDistanceWeight*TextSimilarity(a, b) + wordOverlapWeight*WordSetSimilarity(a, b)
}

const millisPerDay = 86400000

// DateProximity scores two instants by whole-day distance: same day scores 1,
// anything beyond the window scores 0, with linear falloff in between. The
// day count is rounded up, so a 12-hour gap already counts as a full day.
func (s *Scorer) DateProximity(t1, t2 time.Time) float64 {
	diff := t1.UnixMilli() - t2.UnixMilli()
	if diff < 0 {
		diff = -diff
	}
	days := int(math.Ceil(float64(diff) / millisPerDay))

	switch {
	case days == 0:
		return 1
	case days > s.DateWindowDays:
		return 0
	default:
		return 1 - float64(days)/float64(s.DateWindowDays)
	}
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two coordinates.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Venue term weights. When a venue lacks coordinates or an address the
// corresponding term contributes 0 and its weight is lost rather than
// redistributed; this matches the long-standing scoring behavior and changing
// it would shift every historical probability.
const (
	venueNameWeight    = 0.5
	venueGeoWeight     = 0.3
	venueAddressWeight = 0.2
)

// VenueProximity scores two venues by name similarity, coordinate distance
// and address similarity.
func (s *Scorer) VenueProximity(v1, v2 Venue) float64 {
	nameSim := CombinedTextSimilarity(v1.Name, v2.Name)

	geo := 0.0
	if v1.HasCoordinates() && v2.HasCoordinates() {
		distance := HaversineKm(*v1.Latitude, *v1.Longitude, *v2.Latitude, *v2.Longitude)
		if distance <= s.VenueRadiusKm {
			geo = 1 - distance/s.VenueRadiusKm
		}
	}

	addressSim := 0.0
	if v1.HasAddress() && v2.HasAddress() {
		addressSim = CombinedTextSimilarity(v1.addressLine(), v2.addressLine())
	}

	return venueNameWeight*nameSim + venueGeoWeight*geo + venueAddressWeight*addressSim
}
