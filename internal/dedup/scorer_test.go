package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestTextSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"Identical", "AI Workshop", "AI Workshop", 1},
		{"BothEmpty", "", "", 1},
		{"OneEmpty", "", "abc", 0},
		{"PunctuationOnlyDifference", "AI Workshop 2024", "AI Workshop 2024!", 1},
		{"CaseAndWhitespace", "  Tech Auditorium ", "tech auditorium", 1},
		{"KittenSitting", "kitten", "sitting", 1 - 3.0/7.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TextSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestTextSimilaritySymmetric(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"kitten", "sitting"},
		{"AI Workshop 2024", "Tech Workshop 2024"},
		{"", "something"},
	}
	for _, p := range pairs {
		assert.InDelta(t, TextSimilarity(p[0], p[1]), TextSimilarity(p[1], p[0]), 1e-9)
	}
}

func TestWordSetSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		// "ai" is dropped as a short token; {workshop, 2024} vs {tech, workshop, 2024}.
		{"SharedTokens", "AI Workshop 2024", "Tech Workshop 2024", 2.0 / 3.0},
		{"Identical", "spring gala dinner", "spring gala dinner", 1},
		{"NoOverlap", "chess tournament", "pottery class", 0},
		{"EmptyUnion", "a b", "c d", 0},
		{"BothEmpty", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, WordSetSimilarity(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, WordSetSimilarity(tt.b, tt.a), 1e-9)
		})
	}
}

func TestCombinedTextSimilarity(t *testing.T) {
	t.Parallel()

	t.Run("SelfSimilarityIsOne", func(t *testing.T) {
		for _, s := range []string{"", "AI Workshop 2024", "a b c", "Fête de la Musique"} {
			got := CombinedTextSimilarity(s, s)
			// Jaccard contributes 0 when no token survives the length filter.
			assert.GreaterOrEqual(t, got, 0.6, "input %q", s)
			assert.LessOrEqual(t, got, 1.0, "input %q", s)
		}
		assert.InDelta(t, 1.0, CombinedTextSimilarity("spring gala", "spring gala"), 1e-9)
	})

	t.Run("WeightedBlend", func(t *testing.T) {
		// 0.6 * (1 - 3/7) + 0.4 * 0
		assert.InDelta(t, 0.6*(1-3.0/7.0), CombinedTextSimilarity("kitten", "sitting"), 1e-9)
	})
}

func TestDateProximity(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultDateWindowDays, DefaultVenueRadiusKm)
	base := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		offset time.Duration
		want   float64
	}{
		{"SameInstant", 0, 1},
		{"OneHour", time.Hour, 6.0 / 7.0},
		{"ExactlyTwoDays", 48 * time.Hour, 5.0 / 7.0},
		// 3.5 days rounds up to 4 whole days.
		{"ThreeAndAHalfDays", 84 * time.Hour, 3.0 / 7.0},
		{"SevenDays", 7 * 24 * time.Hour, 0},
		{"EightDays", 8 * 24 * time.Hour, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.DateProximity(base, base.Add(tt.offset)), 1e-9)
			assert.InDelta(t, tt.want, s.DateProximity(base.Add(tt.offset), base), 1e-9)
		})
	}
}

func TestHaversineKm(t *testing.T) {
	t.Parallel()

	t.Run("SamePoint", func(t *testing.T) {
		assert.InDelta(t, 0, HaversineKm(60.1699, 24.9384, 60.1699, 24.9384), 1e-9)
	})

	t.Run("OneDegreeLongitudeAtEquator", func(t *testing.T) {
		assert.InDelta(t, 111.19, HaversineKm(0, 0, 0, 1), 0.05)
	})

	t.Run("HelsinkiTurku", func(t *testing.T) {
		assert.InDelta(t, 150.4, HaversineKm(60.1699, 24.9384, 60.4518, 22.2666), 0.5)
	})
}

func TestVenueProximity(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultDateWindowDays, DefaultVenueRadiusKm)

	t.Run("NameOnlyIdentical", func(t *testing.T) {
		// Missing coordinates and address zero their terms; the name weight
		// alone caps the score at 0.5.
		v := Venue{Name: "Tech Auditorium"}
		assert.InDelta(t, 0.5, s.VenueProximity(v, v), 1e-9)
	})

	t.Run("FullyIdenticalVenue", func(t *testing.T) {
		v := Venue{
			Name:      "Tech Auditorium",
			Street:    "12 Campus Drive",
			City:      "Springfield",
			Latitude:  ptr(42.1),
			Longitude: ptr(-71.5),
		}
		assert.InDelta(t, 1.0, s.VenueProximity(v, v), 1e-9)
	})

	t.Run("CoordinatesBeyondRadius", func(t *testing.T) {
		a := Venue{Name: "Main Hall", Latitude: ptr(42.0), Longitude: ptr(-71.0)}
		b := Venue{Name: "Main Hall", Latitude: ptr(42.1), Longitude: ptr(-71.0)} // ~11 km north
		assert.InDelta(t, 0.5, s.VenueProximity(a, b), 1e-9)
	})

	t.Run("CoordinatesOnOneSideOnly", func(t *testing.T) {
		a := Venue{Name: "Main Hall", Latitude: ptr(42.0), Longitude: ptr(-71.0)}
		b := Venue{Name: "Main Hall"}
		assert.InDelta(t, 0.5, s.VenueProximity(a, b), 1e-9)
	})

	t.Run("AddressContributes", func(t *testing.T) {
		a := Venue{Name: "Main Hall", Street: "12 Campus Drive", City: "Springfield"}
		b := Venue{Name: "Main Hall", Street: "12 Campus Drive", City: "Springfield"}
		assert.InDelta(t, 0.7, s.VenueProximity(a, b), 1e-9)
	})
}
